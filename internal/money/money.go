// Package money parses and formats currency amounts.
//
// Amounts carry exactly two fractional digits. In memory they are
// decimal.Decimal values, on disk they are int64 minor units.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for every amount.
const Places = 2

var (
	ErrEmpty     = errors.New("amount is required")
	ErrInvalid   = errors.New("amount is not a number")
	ErrNegative  = errors.New("amount must not be negative")
	ErrPrecision = errors.New("amount has more than two decimal places")
	ErrTooLarge  = errors.New("amount is too large")
)

// MaxAmount bounds a single amount so minor units always fit in int64.
var MaxAmount = decimal.New(1, 12)

// maxScale caps the fractional digits accepted before rounding, so
// trailing zeros like "3.500" pass but rescaling stays cheap.
const maxScale = 18

// Parse turns user input like "12.50" into a non-negative amount.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	// Plain decimal notation only; an exponent like "1e10000000" would make
	// the rescale below arbitrarily expensive.
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegative
	}
	if d.Exponent() < -maxScale {
		return decimal.Zero, ErrPrecision
	}
	if d.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrTooLarge
	}
	rounded := d.Round(Places)
	if !d.Equal(rounded) {
		return decimal.Zero, ErrPrecision
	}
	return rounded, nil
}

// ToMinor converts an amount into integer minor units (cents).
func ToMinor(d decimal.Decimal) int64 {
	return d.Shift(Places).Round(0).IntPart()
}

// FromMinor converts integer minor units back into an amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -Places)
}

// Format renders an amount with exactly two decimals, e.g. "300.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
