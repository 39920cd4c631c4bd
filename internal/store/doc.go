// Package store provides SQLite-backed storage for the labelled tree.
//
// The store implements both tree collaborators on one database so that a
// node record and its content commit in the same transaction:
//   - nodes: the flat ordered index, keyed by the decimal projection of the
//     node's label
//   - blobs: opaque content, one row per content reference
//
// # Keys
//
// The exact label is kept as base-10 numerator and denominator text and is
// the source of truth. The key column holds label.SortKey, a fixed-width
// decimal whose byte order equals numeric order, so every hierarchical query
// is a plain key range:
//
//	WHERE key >= lo AND key < hi [AND depth = ?]
//	ORDER BY key ASC
//
// Get re-checks the exact fraction, so two labels that collide in the
// decimal projection are never confused.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - single connection: one writer, so a tree operation's transaction owns it
package store
