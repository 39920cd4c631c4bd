// Package matrix packs a node's label pair into a 2×2 integer matrix and
// supplies the conjugation that relabels a node in O(1) when its subtree is
// moved or copied.
//
// A node with label a/c and sibling bound b/d is the matrix
//
//	[[a, b],
//	 [c, d]]
//
// Every such matrix is a product of continuant embedding steps, so its
// determinant is ±1 and its inverse is integral.
package matrix

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/roach88/contfrac/internal/label"
)

// ErrNotUnimodular is returned by Invert when det(M) is not ±1.
var ErrNotUnimodular = errors.New("matrix is not unimodular")

// Matrix is an immutable 2×2 integer matrix [[A, B], [C, D]].
type Matrix struct {
	A, B, C, D *big.Int
}

// New builds [[a, b], [c, d]] from int64 entries.
func New(a, b, c, d int64) Matrix {
	return Matrix{A: big.NewInt(a), B: big.NewInt(b), C: big.NewInt(c), D: big.NewInt(d)}
}

// Identity is the 2×2 identity matrix.
func Identity() Matrix { return New(1, 0, 0, 1) }

// FromPair packs label and sibling bound as the two columns.
func FromPair(p label.Pair) Matrix {
	return Matrix{
		A: p.Label.Num(), B: p.Bound.Num(),
		C: p.Label.Den(), D: p.Bound.Den(),
	}
}

// Pair unpacks the columns into a label pair.
func (m Matrix) Pair() (label.Pair, error) {
	l, err := label.NewFraction(m.A, m.C)
	if err != nil {
		return label.Pair{}, fmt.Errorf("label column: %w", err)
	}
	b, err := label.NewFraction(m.B, m.D)
	if err != nil {
		return label.Pair{}, fmt.Errorf("bound column: %w", err)
	}
	return label.Pair{Label: l, Bound: b}, nil
}

// Det returns AD - BC.
func (m Matrix) Det() *big.Int {
	ad := new(big.Int).Mul(m.A, m.D)
	return ad.Sub(ad, new(big.Int).Mul(m.B, m.C))
}

// Equal reports entry-wise equality.
func (m Matrix) Equal(o Matrix) bool {
	return m.A.Cmp(o.A) == 0 && m.B.Cmp(o.B) == 0 && m.C.Cmp(o.C) == 0 && m.D.Cmp(o.D) == 0
}

// Check fails with label.ErrOverflow if any entry is wider than limit.
func (m Matrix) Check(limit label.Limit) error {
	for _, v := range []*big.Int{m.A, m.B, m.C, m.D} {
		if err := limit.CheckInt(v); err != nil {
			return err
		}
	}
	return nil
}

func (m Matrix) String() string {
	return fmt.Sprintf("[[%s, %s], [%s, %s]]", m.A, m.B, m.C, m.D)
}

// Multiply returns x·y. Entries are not normalised.
func Multiply(x, y Matrix) Matrix {
	dot := func(a, b, c, d *big.Int) *big.Int {
		r := new(big.Int).Mul(a, b)
		return r.Add(r, new(big.Int).Mul(c, d))
	}
	return Matrix{
		A: dot(x.A, y.A, x.B, y.C),
		B: dot(x.A, y.B, x.B, y.D),
		C: dot(x.C, y.A, x.D, y.C),
		D: dot(x.C, y.B, x.D, y.D),
	}
}

// Invert returns the exact inverse det·adj(m), valid only when det = ±1.
func Invert(m Matrix) (Matrix, error) {
	det := m.Det()
	if det.CmpAbs(big.NewInt(1)) != 0 {
		return Matrix{}, fmt.Errorf("%w: det %s", ErrNotUnimodular, det)
	}
	scale := func(v *big.Int, neg bool) *big.Int {
		r := new(big.Int).Mul(v, det)
		if neg {
			r.Neg(r)
		}
		return r
	}
	return Matrix{
		A: scale(m.D, false),
		B: scale(m.B, true),
		C: scale(m.C, true),
		D: scale(m.A, false),
	}, nil
}

// Shear is [[1, 0], [k, 1]], a pure shift of the sibling ordinal by k.
func Shear(k int64) Matrix {
	return New(1, 0, k, 1)
}

// MoveSubtree relabels node matrix M from old parent frame p0, where the
// subtree root had ordinal n, to new parent frame p1 at ordinal m:
//
//	M' = p1 · Shear(m-n) · p0⁻¹ · M
func MoveSubtree(p0 Matrix, m int, p1 Matrix, n int, M Matrix) (Matrix, error) {
	inv, err := Invert(p0)
	if err != nil {
		return Matrix{}, fmt.Errorf("old parent frame: %w", err)
	}
	local := Multiply(inv, M)
	shifted := Multiply(Shear(int64(m)-int64(n)), local)
	return Multiply(p1, shifted), nil
}
