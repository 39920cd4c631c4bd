// Package tree stores an ordered tree as a flat index of continued-fraction
// labels.
//
// There are no parent pointers or child lists. Every hierarchical query is a
// range query over one linear order of labels:
//
//   - descendants of N: [N.Label, N.Bound)
//   - children of N:    the same range filtered to depth N.Depth+1
//   - last child of N:  the greatest record of that filtered range
//
// # Components
//
// Deriver turns a name path into an ordinal path, appending new children on
// demand. Relabeler moves and copies subtrees by conjugating each record's
// label matrix once (see package matrix), then submitting all writes as one
// batch. Tree wraps both behind name-addressed operations, each running in a
// single backing-store transaction.
//
// # Collaborators
//
// Store/Tx abstract the ordered index and the content store. Package store
// implements them on SQLite and package pgstore on PostgreSQL.
//
// # Errors
//
// Every failure is returned as *Error with one of the ErrCode* kinds. The
// tree never retries; a failed operation rolls back its transaction so a
// move or copy is either fully applied or not at all.
package tree
