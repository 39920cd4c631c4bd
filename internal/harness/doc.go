// Package harness runs scripted tree sessions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	root: [1]                 # optional ordinal path of the root
//	max_label_bits: 0         # optional label bound, 0 is unbounded
//	setup:
//	  - /a/b
//	flow:
//	  - op: move
//	    path: /a/b
//	    to: /c
//	    title: "Move files"   # optional heading for transcripts
//	    expect:
//	      path: "1.2"
//	  - op: read
//	    path: /c
//	    expect:
//	      content: ""
//	assertions:
//	  - type: children
//	    path: /
//	    names: [a, c]
//	  - type: labels_consistent
//
// Flow ops are create, write, read, move, copy, remove, rename and print.
// A step without expect must succeed; expect.error names the tree error
// code a step must fail with.
//
// # Assertion Types
//
//   - children: names of a node's children in ordinal order
//   - content: the bytes stored at a path
//   - exists, absent: whether a path resolves
//   - labels_consistent: every stored label equals the label recomputed
//     from the ordinal path reconstructed for it
//
// # Deterministic Testing
//
// Run executes each scenario in a fresh in-memory SQLite database with
// sequential content references (testutil.SequentialIDs), so traces and
// snapshots are identical across runs and can be held in golden files.
//
// Execute drives any tree, which is how the CLI replays the built-in Demo
// session against a configured store.
package harness
