package model

import (
	"errors"
	"flash-alliance/internal/apperr"
	"strings"

	"github.com/holiman/uint256"
)

// DefaultDecimals is the precision of the ERC-20 style fungible token.
const DefaultDecimals = 18

var ErrInvalidAmount = apperr.New(apperr.KindValidation, "invalid amount")

// Amount is an unsigned 256-bit quantity of token base units.
type Amount struct {
	v uint256.Int
}

func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ParseAmount reads a decimal string of base units.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	v, err := uint256.FromDecimal(trimLeadingZeros(s))
	if err != nil {
		return Amount{}, apperr.Wrap(apperr.KindValidation, ErrInvalidAmount.Message, err)
	}
	return Amount{v: *v}, nil
}

// ParseUnits converts a human readable value such as "1.5" into base units
// with the given number of decimals.
func ParseUnits(value string, decimals uint8) (Amount, error) {
	value = strings.TrimSpace(value)
	whole, frac, hasFrac := strings.Cut(value, ".")
	if whole == "" && (!hasFrac || frac == "") {
		return Amount{}, ErrInvalidAmount
	}
	if len(frac) > int(decimals) {
		return Amount{}, apperr.Wrap(apperr.KindValidation, ErrInvalidAmount.Message, errors.New("too many decimals in "+value))
	}

	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	for _, c := range digits {
		if c < '0' || c > '9' {
			return Amount{}, ErrInvalidAmount
		}
	}

	return ParseAmount(digits)
}

func MustParseUnits(value string, decimals uint8) Amount {
	a, err := ParseUnits(value, decimals)
	if err != nil {
		panic(err)
	}
	return a
}

func trimLeadingZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

// Add returns a+b and whether the sum overflowed.
func (a Amount) Add(b Amount) (Amount, bool) {
	var sum Amount
	_, overflow := sum.v.AddOverflow(&a.v, &b.v)
	return sum, overflow
}

// Sub returns a-b and whether it underflowed.
func (a Amount) Sub(b Amount) (Amount, bool) {
	var diff Amount
	_, underflow := diff.v.SubOverflow(&a.v, &b.v)
	return diff, underflow
}

// MulDiv returns floor(a*mul/div) computed with a 512-bit intermediate.
func (a Amount) MulDiv(mul, div uint64) Amount {
	var out Amount
	if div == 0 {
		return out
	}
	m := uint256.NewInt(mul)
	d := uint256.NewInt(div)
	out.v.MulDivOverflow(&a.v, m, d)
	return out
}

func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

func (a Amount) String() string {
	return a.v.Dec()
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
