package account

import (
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/mtlprog/xcurrency/internal/asset"
)

// ID is a local 32-byte account identifier. Its text form is base58.
type ID [32]byte

// ParseID decodes a base58 account identifier.
func ParseID(s string) (ID, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return ID{}, fmt.Errorf("decoding account %q: %w", s, err)
	}
	if len(raw) != len(ID{}) {
		return ID{}, fmt.Errorf("account %q: want 32 bytes, got %d", s, len(raw))
	}
	var id ID
	copy(id[:], raw)
	return id, nil
}

func (id ID) String() string {
	return base58.Encode(id[:])
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Location returns the single-junction location that addresses id.
func (id ID) Location(network asset.NetworkID) asset.Location {
	return asset.Location{asset.AccountID32{Network: network, ID: id}}
}

// Converter resolves locations of the form [AccountID32] to local accounts.
type Converter struct {
	network asset.NetworkID
}

// NewConverter creates a Converter accepting account junctions on network
// or on the wildcard network.
func NewConverter(network asset.NetworkID) *Converter {
	if network == "" {
		network = asset.NetworkAny
	}
	return &Converter{network: network}
}

// AccountFromLocation returns the account addressed by loc, if any.
func (c *Converter) AccountFromLocation(loc asset.Location) (ID, bool) {
	if len(loc) != 1 {
		return ID{}, false
	}
	j, ok := loc[0].(asset.AccountID32)
	if !ok {
		return ID{}, false
	}
	if !j.Network.IsAny() && !c.network.IsAny() && j.Network != c.network {
		return ID{}, false
	}
	return ID(j.ID), true
}
