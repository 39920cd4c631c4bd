// Package label implements the continuant embedding of ordinal paths into
// exact rational labels.
//
// An ordinal path c[0..k) (1-based sibling positions from the root) maps to
//
//	r[k] = 0
//	r[i] = c[i] + r[i+1]/(r[i+1]+1)
//	label(path) = r[0]
//
// Each level is embedded in the open unit interval that follows its parent's
// integer part, so label order is pre-order and a node's descendants occupy
// exactly [label(path), label(Sibling(path))).
//
// All arithmetic is exact over math/big integers. The decimal projection
// produced by Decimal and SortKey is only a sortable key for backing stores;
// it is never fed back into the arithmetic.
package label
