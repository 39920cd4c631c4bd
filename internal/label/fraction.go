package label

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrZeroDenominator is returned when a fraction would have a zero denominator.
var ErrZeroDenominator = errors.New("zero denominator")

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// Fraction is an exact rational number in lowest terms with a positive
// denominator.
//
// Fractions are immutable: every operation returns a new value and the
// accessors return copies. The zero value is 0/1.
type Fraction struct {
	num *big.Int
	den *big.Int
}

// Zero and One are the fractions 0/1 and 1/1.
var (
	Zero = FromInt(0)
	One  = FromInt(1)
)

// NewFraction returns num/den reduced to lowest terms.
func NewFraction(num, den *big.Int) (Fraction, error) {
	if den == nil || den.Sign() == 0 {
		return Fraction{}, ErrZeroDenominator
	}
	n := new(big.Int)
	if num != nil {
		n.Set(num)
	}
	d := new(big.Int).Set(den)
	if d.Sign() < 0 {
		n.Neg(n)
		d.Neg(d)
	}

	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(n), d)
	if g.Cmp(bigOne) != 0 {
		n.Quo(n, g)
		d.Quo(d, g)
	}
	return Fraction{num: n, den: d}, nil
}

// FromInt returns the fraction v/1.
func FromInt(v int64) Fraction {
	return Fraction{num: big.NewInt(v), den: big.NewInt(1)}
}

// FromStrings parses base-10 numerator and denominator strings, as persisted
// by the backing stores.
func FromStrings(num, den string) (Fraction, error) {
	n, ok := new(big.Int).SetString(num, 10)
	if !ok {
		return Fraction{}, fmt.Errorf("invalid numerator %q", num)
	}
	d, ok := new(big.Int).SetString(den, 10)
	if !ok {
		return Fraction{}, fmt.Errorf("invalid denominator %q", den)
	}
	return NewFraction(n, d)
}

// Parse reads a fraction in the "num/den" form produced by String.
// A bare integer is accepted as num/1.
func Parse(s string) (Fraction, error) {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		den = "1"
	}
	return FromStrings(num, den)
}

func (f Fraction) n() *big.Int {
	if f.num == nil {
		return bigZero
	}
	return f.num
}

func (f Fraction) d() *big.Int {
	if f.den == nil {
		return bigOne
	}
	return f.den
}

// Num returns a copy of the numerator.
func (f Fraction) Num() *big.Int { return new(big.Int).Set(f.n()) }

// Den returns a copy of the (positive) denominator.
func (f Fraction) Den() *big.Int { return new(big.Int).Set(f.d()) }

// Sign returns -1, 0 or +1.
func (f Fraction) Sign() int { return f.n().Sign() }

// BitLen returns the larger of the numerator and denominator bit lengths.
func (f Fraction) BitLen() int {
	return max(f.n().BitLen(), f.d().BitLen())
}

// Cmp compares f and g and returns -1, 0 or +1.
func (f Fraction) Cmp(g Fraction) int {
	lhs := new(big.Int).Mul(f.n(), g.d())
	rhs := new(big.Int).Mul(g.n(), f.d())
	return lhs.Cmp(rhs)
}

// Equal reports whether f and g are the same rational number.
func (f Fraction) Equal(g Fraction) bool {
	// Both sides are in lowest terms, so equality is component-wise.
	return f.n().Cmp(g.n()) == 0 && f.d().Cmp(g.d()) == 0
}

// String returns "num/den".
func (f Fraction) String() string {
	return f.n().String() + "/" + f.d().String()
}

// Add returns a + b.
func Add(a, b Fraction) Fraction {
	num := new(big.Int).Mul(a.n(), b.d())
	num.Add(num, new(big.Int).Mul(b.n(), a.d()))
	den := new(big.Int).Mul(a.d(), b.d())
	f, _ := NewFraction(num, den) // den > 0
	return f
}

// Sub returns a - b.
func Sub(a, b Fraction) Fraction {
	num := new(big.Int).Mul(a.n(), b.d())
	num.Sub(num, new(big.Int).Mul(b.n(), a.d()))
	den := new(big.Int).Mul(a.d(), b.d())
	f, _ := NewFraction(num, den)
	return f
}

// Invert returns 1/a. It fails with ErrZeroDenominator when a is zero.
func Invert(a Fraction) (Fraction, error) {
	return NewFraction(a.d(), a.n())
}
