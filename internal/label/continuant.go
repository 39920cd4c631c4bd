package label

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

var (
	// ErrOverflow is returned when a numerator or denominator would exceed
	// the configured Limit.
	ErrOverflow = errors.New("label overflow")

	// ErrNotChild is returned by OrdinalFromLabels when the child label does
	// not lie on the parent's embedding.
	ErrNotChild = errors.New("label is not a child of parent")
)

// Limit bounds the bit length of label numerators and denominators.
// Zero or negative means unbounded.
type Limit int

// DefaultLimit is the bound used when nothing else is configured.
const DefaultLimit Limit = 256

// Check fails with ErrOverflow when either component of f is wider than l.
func (l Limit) Check(f Fraction) error {
	if l <= 0 {
		return nil
	}
	if f.n().BitLen() > int(l) || f.d().BitLen() > int(l) {
		return fmt.Errorf("%w: %s exceeds %d bits", ErrOverflow, f, int(l))
	}
	return nil
}

// CheckInt fails with ErrOverflow when |v| is wider than l.
func (l Limit) CheckInt(v *big.Int) error {
	if l <= 0 || v == nil {
		return nil
	}
	if v.BitLen() > int(l) {
		return fmt.Errorf("%w: %s exceeds %d bits", ErrOverflow, v, int(l))
	}
	return nil
}

// Pair is a node's label together with its sibling bound, the exclusive
// upper end of the node's own range.
type Pair struct {
	Label Fraction
	Bound Fraction
}

// Contains reports whether f lies in [Label, Bound).
func (p Pair) Contains(f Fraction) bool {
	return p.Label.Cmp(f) <= 0 && f.Cmp(p.Bound) < 0
}

func (p Pair) String() string {
	return "[" + p.Label.String() + ", " + p.Bound.String() + ")"
}

// ToLabel evaluates the continuant recurrence for p from the deepest ordinal
// upward. r/(r+1) is computed as 1 - 1/(r+1).
func ToLabel(p Path, limit Limit) (Fraction, error) {
	if err := p.Validate(); err != nil {
		return Fraction{}, err
	}

	r := Zero
	for i := len(p) - 1; i >= 0; i-- {
		inv, err := Invert(Add(r, One))
		if err != nil {
			return Fraction{}, err
		}
		r = Add(FromInt(int64(p[i])), Sub(One, inv))
		if err := limit.Check(r); err != nil {
			return Fraction{}, fmt.Errorf("path %s: %w", p, err)
		}
	}
	return r, nil
}

// SiblingBound is the label of p's next sibling.
func SiblingBound(p Path, limit Limit) (Fraction, error) {
	if err := p.Validate(); err != nil {
		return Fraction{}, err
	}
	return ToLabel(p.Sibling(), limit)
}

// Of computes the label pair for p.
func Of(p Path, limit Limit) (Pair, error) {
	l, err := ToLabel(p, limit)
	if err != nil {
		return Pair{}, err
	}
	b, err := SiblingBound(p, limit)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Label: l, Bound: b}, nil
}

// ChildLabel returns the label of ordinal i under a parent with the given
// pair: (bound.num·i + label.num) / (bound.den·i + label.den).
func ChildLabel(parent Pair, i int) (Fraction, error) {
	if i < 1 {
		return Fraction{}, fmt.Errorf("%w: ordinal %d", ErrInvalidPath, i)
	}
	k := big.NewInt(int64(i))
	num := new(big.Int).Mul(parent.Bound.n(), k)
	num.Add(num, parent.Label.n())
	den := new(big.Int).Mul(parent.Bound.d(), k)
	den.Add(den, parent.Label.d())
	return NewFraction(num, den)
}

// OrdinalFromLabels recovers the 1-based ordinal of a child from its label
// and its parent's label pair, without walking the path:
//
//	j = (child.num - parent.num) / bound.num
//
// The quotient must be exact and the denominators must agree
// (child.den = bound.den·j + parent.den); otherwise ErrNotChild.
func OrdinalFromLabels(parent, bound, child Fraction) (int, error) {
	if bound.n().Sign() == 0 {
		return 0, fmt.Errorf("%w: zero bound", ErrNotChild)
	}

	diff := new(big.Int).Sub(child.n(), parent.n())
	j, rem := new(big.Int).QuoRem(diff, bound.n(), new(big.Int))
	if rem.Sign() != 0 || j.Sign() <= 0 || !j.IsInt64() || j.Int64() > math.MaxInt {
		return 0, fmt.Errorf("%w: %s under [%s, %s)", ErrNotChild, child, parent, bound)
	}

	den := new(big.Int).Mul(bound.d(), j)
	den.Add(den, parent.d())
	if den.Cmp(child.d()) != 0 {
		return 0, fmt.Errorf("%w: %s under [%s, %s)", ErrNotChild, child, parent, bound)
	}
	return int(j.Int64()), nil
}
