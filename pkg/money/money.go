package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor units. Prices, VAT and totals never leave
// integer arithmetic; decimal is only used at the parsing and printing edges.
type Cents int64

// Rate is a VAT rate in basis points, so 1200 is 0.12 (12%).
type Rate int64

const basisPoints = 10000

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRate   = errors.New("invalid rate")
	ErrOverflow      = errors.New("amount out of range")
)

var (
	hundred  = decimal.NewFromInt(100)
	tenK     = decimal.NewFromInt(basisPoints)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// Parse reads a decimal string such as "12.50" into cents. More than two
// fractional digits is rejected instead of rounded.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	scaled := d.Mul(hundred)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than two decimals", ErrInvalidAmount, s)
	}
	if scaled.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}

	return Cents(scaled.IntPart()), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Cents {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Mul returns c times qty. It wraps on overflow; amounts that did not pass
// through CheckedMul must not be fed to it.
func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

// CheckedMul is Mul that fails with ErrOverflow instead of wrapping.
func (c Cents) CheckedMul(qty int) (Cents, error) {
	p, ok := mul64(int64(c), int64(qty))
	if !ok {
		return 0, fmt.Errorf("%w: %s * %d", ErrOverflow, c, qty)
	}
	return Cents(p), nil
}

// CheckedAdd fails with ErrOverflow instead of wrapping.
func (c Cents) CheckedAdd(d Cents) (Cents, error) {
	s := c + d
	if (c > 0 && d > 0 && s < 0) || (c < 0 && d < 0 && s >= 0) {
		return 0, fmt.Errorf("%w: %s + %s", ErrOverflow, c, d)
	}
	return s, nil
}

func (c Cents) String() string {
	return decimal.New(int64(c), -2).StringFixed(2)
}

func (c Cents) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cents) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseRate reads a fraction such as "0.12". At most four fractional digits
// are accepted and the rate may not be negative.
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRate, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidRate, s)
	}

	scaled := d.Mul(tenK)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than four decimals", ErrInvalidRate, s)
	}
	if scaled.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidRate, s)
	}

	return Rate(scaled.IntPart()), nil
}

// MustParseRate is ParseRate for literals known to be valid.
func MustParseRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Apply returns base × r rounded half-up to whole cents. Negative products
// round half away from zero so that Apply(-x) == -Apply(x). Like Mul it
// wraps on overflow; use CheckedApply for unvetted amounts.
func (r Rate) Apply(base Cents) Cents {
	return roundBasisPoints(int64(base) * int64(r))
}

// CheckedApply is Apply that fails with ErrOverflow instead of wrapping.
func (r Rate) CheckedApply(base Cents) (Cents, error) {
	p, ok := mul64(int64(base), int64(r))
	if !ok {
		return 0, fmt.Errorf("%w: %s * %s", ErrOverflow, base, r)
	}
	return roundBasisPoints(p), nil
}

// roundBasisPoints divides by 10000 rounding half away from zero without
// an intermediate sum that could itself overflow.
func roundBasisPoints(p int64) Cents {
	q, rem := p/basisPoints, p%basisPoints
	switch {
	case rem*2 >= basisPoints:
		q++
	case rem*2 <= -basisPoints:
		q--
	}
	return Cents(q)
}

func mul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

func (r Rate) String() string {
	return decimal.New(int64(r), -4).String()
}

// Percent renders the rate as a percentage, e.g. "12%".
func (r Rate) Percent() string {
	return decimal.New(int64(r), -2).String() + "%"
}

func (r Rate) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rate) UnmarshalText(b []byte) error {
	v, err := ParseRate(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
