package currency

import (
	"errors"
	"fmt"
)

const maxIDLen = 12

// ErrInvalidKey indicates a byte sequence that is not a currency tag.
var ErrInvalidKey = errors.New("invalid currency key")

// ID identifies a currency within the ledger, e.g. "AAA" or "EURMTL".
// It is built from 1 to 12 bytes of [A-Z0-9] and converts losslessly
// to and from the general-key bytes that tag the currency in a location.
type ID string

// FromKey converts a general-key byte sequence to an ID.
func FromKey(key []byte) (ID, error) {
	if len(key) == 0 || len(key) > maxIDLen {
		return "", fmt.Errorf("%w: length %d", ErrInvalidKey, len(key))
	}
	for _, b := range key {
		if !isCodeByte(b) {
			return "", fmt.Errorf("%w: byte 0x%02x", ErrInvalidKey, b)
		}
	}
	return ID(key), nil
}

// Parse validates a textual currency code.
func Parse(s string) (ID, error) {
	return FromKey([]byte(s))
}

// Key returns the general-key bytes for id.
func (id ID) Key() []byte {
	return []byte(id)
}

func (id ID) String() string {
	return string(id)
}

func isCodeByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
