package asset

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// NetworkID names the consensus network an account junction belongs to.
type NetworkID string

const (
	NetworkAny      NetworkID = "any"
	NetworkPolkadot NetworkID = "polkadot"
	NetworkKusama   NetworkID = "kusama"
)

func (n NetworkID) String() string {
	if n == "" {
		return string(NetworkAny)
	}
	return string(n)
}

// IsAny reports whether n matches every network.
func (n NetworkID) IsAny() bool {
	return n == "" || n == NetworkAny
}

// Junction is one segment of a Location.
type Junction interface {
	fmt.Stringer
	isJunction()
}

// Parent moves one hop up to the parent consensus system.
type Parent struct{}

// Parachain selects a child chain by its numeric identifier.
type Parachain uint32

// AccountID32 is a 32-byte account key on a network.
type AccountID32 struct {
	Network NetworkID
	ID      [32]byte
}

// AccountIndex64 is a compact account index on a network.
type AccountIndex64 struct {
	Network NetworkID
	Index   uint64
}

// AccountKey20 is a 20-byte account key on a network.
type AccountKey20 struct {
	Network NetworkID
	Key     [20]byte
}

// PalletInstance selects a runtime module by index.
type PalletInstance uint8

// GeneralIndex is an opaque 128-bit index.
type GeneralIndex struct {
	Index Amount
}

// GeneralKey is an opaque general-purpose key. Currencies are tagged with it.
type GeneralKey []byte

// OnlyChild selects the single child of the current location.
type OnlyChild struct{}

func (Parent) isJunction()         {}
func (Parachain) isJunction()      {}
func (AccountID32) isJunction()    {}
func (AccountIndex64) isJunction() {}
func (AccountKey20) isJunction()   {}
func (PalletInstance) isJunction() {}
func (GeneralIndex) isJunction()   {}
func (GeneralKey) isJunction()     {}
func (OnlyChild) isJunction()      {}

func (Parent) String() string { return "parent" }

func (p Parachain) String() string { return "parachain:" + strconv.FormatUint(uint64(p), 10) }

func (a AccountID32) String() string {
	return "account32:" + a.Network.String() + ":" + base58.Encode(a.ID[:])
}

func (a AccountIndex64) String() string {
	return "index64:" + a.Network.String() + ":" + strconv.FormatUint(a.Index, 10)
}

func (a AccountKey20) String() string {
	return "key20:" + a.Network.String() + ":0x" + hex.EncodeToString(a.Key[:])
}

func (p PalletInstance) String() string { return "pallet:" + strconv.FormatUint(uint64(p), 10) }

func (g GeneralIndex) String() string { return "index:" + g.Index.String() }

func (g GeneralKey) String() string { return "key:0x" + hex.EncodeToString(g) }

func (OnlyChild) String() string { return "child" }

// parseJunction parses the text form produced by Junction.String.
func parseJunction(seg string) (Junction, error) {
	parts := strings.SplitN(seg, ":", 3)
	kind := parts[0]

	switch kind {
	case "parent", "child":
		if len(parts) != 1 {
			return nil, fmt.Errorf("junction %q takes no arguments", kind)
		}
		if kind == "parent" {
			return Parent{}, nil
		}
		return OnlyChild{}, nil

	case "parachain", "pallet", "index", "key":
		if len(parts) != 2 {
			return nil, fmt.Errorf("junction %q takes one argument", kind)
		}
		return parseUnary(kind, parts[1])

	case "account32", "index64", "key20":
		if len(parts) != 3 {
			return nil, fmt.Errorf("junction %q takes a network and a value", kind)
		}
		return parseAccount(kind, NetworkID(parts[1]), parts[2])
	}

	return nil, fmt.Errorf("unknown junction %q", kind)
}

func parseUnary(kind, arg string) (Junction, error) {
	switch kind {
	case "parachain":
		n, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parsing parachain id: %w", err)
		}
		return Parachain(n), nil
	case "pallet":
		n, err := strconv.ParseUint(arg, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("parsing pallet instance: %w", err)
		}
		return PalletInstance(n), nil
	case "index":
		a, err := ParseAmount(arg)
		if err != nil {
			return nil, fmt.Errorf("parsing general index: %w", err)
		}
		return GeneralIndex{Index: a}, nil
	default:
		b, err := decodeHex(arg)
		if err != nil {
			return nil, fmt.Errorf("parsing general key: %w", err)
		}
		return GeneralKey(b), nil
	}
}

func parseAccount(kind string, network NetworkID, arg string) (Junction, error) {
	if network == "" {
		network = NetworkAny
	}

	switch kind {
	case "account32":
		raw, err := base58.Decode(arg)
		if err != nil {
			return nil, fmt.Errorf("decoding account32: %w", err)
		}
		if len(raw) != 32 {
			return nil, fmt.Errorf("account32 must be 32 bytes, got %d", len(raw))
		}
		j := AccountID32{Network: network}
		copy(j.ID[:], raw)
		return j, nil
	case "index64":
		n, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing account index: %w", err)
		}
		return AccountIndex64{Network: network, Index: n}, nil
	default:
		raw, err := decodeHex(arg)
		if err != nil {
			return nil, fmt.Errorf("decoding key20: %w", err)
		}
		if len(raw) != 20 {
			return nil, fmt.Errorf("key20 must be 20 bytes, got %d", len(raw))
		}
		j := AccountKey20{Network: network}
		copy(j.Key[:], raw)
		return j, nil
	}
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	return hex.DecodeString(s)
}
