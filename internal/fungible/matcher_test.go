package fungible

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/xcurrency/internal/asset"
	"github.com/mtlprog/xcurrency/internal/currency"
)

var currencyKeys = KeyDecoderFunc(currency.FromKey)

func concrete(loc asset.Location, amount asset.Amount) asset.Descriptor {
	return asset.ConcreteFungible(loc, amount)
}

func TestGeneralKeyMatcherShapes(t *testing.T) {
	m := NewGeneralKeyMatcher(currencyKeys, ToAmount)
	amount := asset.NewAmount(1000)

	tests := []struct {
		name  string
		asset asset.Descriptor
		ok    bool
	}{
		{"general key only", concrete(asset.Location{asset.GeneralKey("AAA")}, amount), true},
		{"general key after parent", concrete(asset.Location{asset.Parent{}, asset.Parachain(2000), asset.GeneralKey("AAA")}, amount), true},
		{"empty location", concrete(asset.Location{}, amount), false},
		{"nil location", concrete(nil, amount), false},
		{"general key not last", concrete(asset.Location{asset.GeneralKey("AAA"), asset.PalletInstance(5)}, amount), false},
		{"last is parachain", concrete(asset.Location{asset.Parachain(2000)}, amount), false},
		{"last is general index", concrete(asset.Location{asset.GeneralIndex{Index: asset.NewAmount(1)}}, amount), false},
		{"malformed key", concrete(asset.Location{asset.GeneralKey{0x00, 0xff}}, amount), false},
		{"empty key", concrete(asset.Location{asset.GeneralKey{}}, amount), false},
		{"abstract fungible", asset.AbstractFungible([]byte("AAA"), amount), false},
		{"concrete non-fungible", asset.ConcreteNonFungible(asset.Location{asset.GeneralKey("AAA")}, []byte{1}), false},
		{"abstract non-fungible", asset.AbstractNonFungible([]byte("AAA"), []byte{1}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.MatchesFungible(tt.asset)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, amount, got)
			} else {
				assert.True(t, got.IsZero())
			}
		})
	}
}

func TestGeneralKeyMatcherZeroAmountMatches(t *testing.T) {
	m := NewGeneralKeyMatcher(currencyKeys, ToAmount)
	got, ok := m.MatchesFungible(concrete(asset.Location{asset.GeneralKey("AAA")}, asset.Amount{}))
	require.True(t, ok)
	assert.True(t, got.IsZero())
}

func TestGeneralKeyMatcherEmptyLocationIgnoresAmount(t *testing.T) {
	m := NewGeneralKeyMatcher(currencyKeys, ToAmount)
	for _, a := range []asset.Amount{{}, asset.NewAmount(1), asset.MaxAmount()} {
		_, ok := m.MatchesFungible(concrete(asset.Location{}, a))
		assert.False(t, ok, "amount %s", a)
	}
}

func TestGeneralKeyMatcherYieldsAmountWithinRange(t *testing.T) {
	m := NewGeneralKeyMatcher(currencyKeys, ToUint64)
	loc := asset.Location{asset.GeneralKey("AAA")}

	for _, n := range []uint64{0, 1, 1000, 1 << 63, ^uint64(0)} {
		got, ok := m.MatchesFungible(concrete(loc, asset.NewAmount(n)))
		require.True(t, ok, "amount %d", n)
		assert.Equal(t, n, got)
	}
}

func TestGeneralKeyMatcherRejectsAmountOutOfRange(t *testing.T) {
	m := NewGeneralKeyMatcher(currencyKeys, ToUint64)
	loc := asset.Location{asset.GeneralKey("AAA")}

	justOver, err := asset.AmountFromBig(new(big.Int).Lsh(big.NewInt(1), 64))
	require.NoError(t, err)

	for _, a := range []asset.Amount{justOver, asset.MaxAmount()} {
		_, ok := m.MatchesFungible(concrete(loc, a))
		assert.False(t, ok, "amount %s must not fit uint64", a)
	}
}

func TestGeneralKeyMatcherFullWidth(t *testing.T) {
	m := NewGeneralKeyMatcher(currencyKeys, ToAmount)
	got, ok := m.MatchesFungible(concrete(asset.Location{asset.GeneralKey("AAA")}, asset.MaxAmount()))
	require.True(t, ok)
	assert.Equal(t, asset.MaxAmount(), got)
}

func TestGeneralKeyMatcherDelegatesKeyDecoding(t *testing.T) {
	var seen []byte
	keys := KeyDecoderFunc(func(key []byte) (currency.ID, error) {
		seen = key
		return "", currency.ErrInvalidKey
	})
	m := NewGeneralKeyMatcher(keys, ToAmount)

	_, ok := m.MatchesFungible(concrete(asset.Location{asset.GeneralKey("AAA")}, asset.NewAmount(1)))
	assert.False(t, ok)
	assert.Equal(t, []byte("AAA"), seen)
}
