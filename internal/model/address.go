package model

import (
	"encoding/hex"
	"flash-alliance/internal/apperr"
	"strings"
)

const addressHexLen = 40

// ZeroAddress is the null account. It never owns balances or assets.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

var ErrInvalidAddress = apperr.New(apperr.KindValidation, "invalid address")

// Address identifies an account: a participant, an Alliance, a faucet or a
// token contract. It is always stored lowercase with the 0x prefix.
type Address string

func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "0x") || len(s) != addressHexLen+2 {
		return "", ErrInvalidAddress
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return "", ErrInvalidAddress
	}

	return Address(s), nil
}

// AddressFromHash takes the first 40 hex characters of a hex digest.
func AddressFromHash(digest string) Address {
	if len(digest) < addressHexLen {
		digest += strings.Repeat("0", addressHexLen-len(digest))
	}
	return Address("0x" + strings.ToLower(digest[:addressHexLen]))
}

func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
