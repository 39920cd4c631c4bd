package label

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// DefaultPlaces is the reference number of fractional digits in the decimal
// projection.
const DefaultPlaces = 16

// KeyIntegerDigits is the zero-padded width of the integer part in SortKey.
const KeyIntegerDigits = 20

// scaled returns f·10^places rounded half down to an integer.
// The division is exact; only the final digit is rounded.
func scaled(f Fraction, places int) *big.Int {
	n := new(big.Int).Mul(f.n(), pow10(places))

	q, r := new(big.Int).QuoRem(n, f.d(), new(big.Int))
	twice := new(big.Int).Abs(r)
	twice.Lsh(twice, 1)
	if twice.Cmp(f.d()) > 0 {
		if n.Sign() < 0 {
			q.Sub(q, bigOne)
		} else {
			q.Add(q, bigOne)
		}
	}
	return q
}

// Decimal projects f onto a fixed-precision decimal with the given number of
// fractional digits, rounding half down. 14/5 at 16 places is
// 2.8000000000000000.
func Decimal(f Fraction, places int) *apd.Decimal {
	coeff := new(apd.BigInt).SetMathBigInt(scaled(f, places))
	return apd.NewWithBigInt(coeff, int32(-places))
}

// DecimalString is Decimal formatted without exponent.
func DecimalString(f Fraction, places int) string {
	return Decimal(f, places).Text('f')
}

// CheckKey fails with ErrOverflow when f's denominator is too wide for its
// decimal projection at places digits to stay distinct from every other
// label's. Labels whose denominators all satisfy den² < 10^places differ by
// more than 10^-places, so their rounded projections never collide.
func CheckKey(f Fraction, places int) error {
	sq := new(big.Int).Mul(f.d(), f.d())
	if sq.Cmp(pow10(places)) >= 0 {
		return fmt.Errorf("%w: %s cannot be told apart from its neighbours at %d decimal places", ErrOverflow, f, places)
	}
	return nil
}

func pow10(places int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
}

// SortKey renders the decimal projection of a non-negative f as a fixed
// width string whose byte order equals numeric order: KeyIntegerDigits
// zero-padded integer digits, a dot, then places fractional digits.
// Labels rejected by CheckKey have no key.
func SortKey(f Fraction, places int) (string, error) {
	if f.Sign() < 0 {
		return "", fmt.Errorf("sort key for negative label %s", f)
	}
	if err := CheckKey(f, places); err != nil {
		return "", err
	}
	digits := scaled(f, places).String()
	width := KeyIntegerDigits + places
	if len(digits) > width {
		return "", fmt.Errorf("%w: %s has more than %d integer digits", ErrOverflow, f, KeyIntegerDigits)
	}

	padded := strings.Repeat("0", width-len(digits)) + digits
	return padded[:KeyIntegerDigits] + "." + padded[KeyIntegerDigits:], nil
}
