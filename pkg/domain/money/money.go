// Package money holds the fixed-point Amount used for every balance and
// transaction value in the ledger.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places of the major unit carried by an Amount.
const Scale = 2

var (
	// ErrAmountExceedsMaxSafeInt is returned when arithmetic would overflow int64.
	ErrAmountExceedsMaxSafeInt = fmt.Errorf("%w: amount exceeds maximum safe integer value", domain.ErrInvalidArgument)
	// ErrInvalidPrecision is returned when a decimal has more places than Scale.
	ErrInvalidPrecision = fmt.Errorf("%w: amount has too many decimal places", domain.ErrInvalidArgument)
	// ErrMalformedAmount is returned when a string is not a decimal number.
	ErrMalformedAmount = fmt.Errorf("%w: malformed amount", domain.ErrInvalidArgument)
)

var unitsPerMajor = decimal.New(1, Scale)

// Amount is a signed count of the smallest currency unit (cents).
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// FromMinor builds an Amount from a count of cents.
func FromMinor(units int64) Amount {
	return Amount(units)
}

// FromDecimal converts a major-unit decimal to an Amount.
// Values with more than Scale decimal places are rejected, never rounded.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	minor := d.Mul(unitsPerMajor)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, ErrInvalidPrecision
	}
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) ||
		minor.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, ErrAmountExceedsMaxSafeInt
	}
	return Amount(minor.IntPart()), nil
}

// Parse reads a major-unit decimal string such as "1500.00" or "12.5".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Join(ErrMalformedAmount, err)
	}
	return FromDecimal(d)
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Minor returns the amount in cents.
func (a Amount) Minor() int64 {
	return int64(a)
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String formats the amount in major units with exactly Scale decimals.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool {
	return a > 0
}

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool {
	return a < 0
}

// Add returns a+b, failing instead of wrapping around on overflow.
func (a Amount) Add(b Amount) (Amount, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrAmountExceedsMaxSafeInt
	}
	return a + b, nil
}

// Sub returns a-b, failing instead of wrapping around on overflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, ErrAmountExceedsMaxSafeInt
	}
	return a - b, nil
}

// MarshalText renders the amount as its decimal string.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a decimal string.
func (a *Amount) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
