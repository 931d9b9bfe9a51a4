// Package units converts between human-readable token amounts ("1000.5") and
// integer base units (1000.5 * 10^decimals) held in uint256.
//
// Decimal parsing uses shopspring/decimal so no amount ever passes through
// float64.
package units

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("units: invalid amount")
	ErrNegative      = errors.New("units: amount must not be negative")
	ErrTooPrecise    = errors.New("units: amount has more fractional digits than the token supports")
	ErrOverflow      = errors.New("units: amount overflows 256 bits")
)

// Parse converts a decimal string in token units to base units.
// "1.5" with 18 decimals is 1500000000000000000.
func Parse(s string, decimals uint8) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d, decimals)
}

// MustParse is Parse that panics on error. For constants and tests.
func MustParse(s string, decimals uint8) *uint256.Int {
	v, err := Parse(s, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

// FromDecimal converts a token-unit decimal to base units.
func FromDecimal(d decimal.Decimal, decimals uint8) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegative, d)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s (max %d)", ErrTooPrecise, d, decimals)
	}
	v, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, d)
	}
	return v, nil
}

// ToDecimal converts base units to a token-unit decimal.
func ToDecimal(v *uint256.Int, decimals uint8) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v.ToBig(), -int32(decimals))
}

// Format renders base units as a token-unit string without trailing zeros.
func Format(v *uint256.Int, decimals uint8) string {
	return ToDecimal(v, decimals).String()
}
