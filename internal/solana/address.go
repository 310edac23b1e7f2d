package solana

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrInvalidAddress indicates a string is not a valid Solana address.
var ErrInvalidAddress = errors.New("invalid solana address")

// addressLen is the byte length of an ed25519 public key.
const addressLen = 32

// ValidateAddress checks that s is a base58-encoded 32-byte public key.
func ValidateAddress(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != addressLen {
		return fmt.Errorf("%w: decoded length %d, want %d", ErrInvalidAddress, len(raw), addressLen)
	}
	return nil
}

// IsValidAddress reports whether s is a valid Solana address.
func IsValidAddress(s string) bool {
	return ValidateAddress(s) == nil
}
