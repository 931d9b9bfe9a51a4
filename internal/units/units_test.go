package units

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1000", 18, "1000000000000000000000"},
		{"10000000", 18, "10000000000000000000000000"},
		{"1.5", 18, "1500000000000000000"},
		{"0.000000000000000001", 18, "1"},
		{"0", 18, "0"},
		{"100", 0, "100"},
		{"2.25", 6, "2250000"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in, tt.decimals)
		if err != nil {
			t.Errorf("Parse(%q, %d): unexpected error %v", tt.in, tt.decimals, err)
			continue
		}
		if got.Dec() != tt.want {
			t.Errorf("Parse(%q, %d) = %s, want %s", tt.in, tt.decimals, got.Dec(), tt.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrInvalidAmount},
		{"abc", ErrInvalidAmount},
		{"-1", ErrNegative},
		{"0.0000000000000000001", ErrTooPrecise},
		{"1e80", ErrOverflow},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in, 18)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q): expected %v, got %v", tt.in, tt.want, err)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    *uint256.Int
		want string
	}{
		{uint256.MustFromDecimal("1500000000000000000"), "1.5"},
		{uint256.MustFromDecimal("1000000000000000000000"), "1000"},
		{uint256.NewInt(1), "0.000000000000000001"},
		{new(uint256.Int), "0"},
		{nil, "0"},
	}
	for _, tt := range tests {
		if got := Format(tt.v, 18); got != tt.want {
			t.Errorf("Format(%v) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"1", "0.5", "123456789.123456789", "10000000"} {
		v := MustParse(s, 18)
		if got := Format(v, 18); got != s {
			t.Errorf("round trip %s -> %s", s, got)
		}
	}
}
