package asset

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"zero", "0", "0", nil},
		{"small", "1000", "1000", nil},
		{"above uint64", "18446744073709551616", "18446744073709551616", nil},
		{"max 128 bits", "340282366920938463463374607431768211455", "340282366920938463463374607431768211455", nil},
		{"one past 128 bits", "340282366920938463463374607431768211456", "", ErrAmountOverflow},
		{"negative", "-1", "", ErrInvalidAmount},
		{"not a number", "abc", "", ErrInvalidAmount},
		{"empty", "", "", ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestMaxAmount(t *testing.T) {
	want := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	assert.Equal(t, 0, MaxAmount().Big().Cmp(want))

	_, fits := MaxAmount().Uint64()
	assert.False(t, fits)
}

func TestAmountFromBigRejectsWideValues(t *testing.T) {
	wide := new(big.Int).Lsh(big.NewInt(1), 200)
	_, err := AmountFromBig(wide)
	assert.ErrorIs(t, err, ErrAmountOverflow)

	_, err = AmountFromBig(nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAmountUint64(t *testing.T) {
	v, ok := NewAmount(42).Uint64()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), v)
}

func TestAmountCmp(t *testing.T) {
	assert.Equal(t, -1, NewAmount(1).Cmp(NewAmount(2)))
	assert.Equal(t, 0, NewAmount(7).Cmp(NewAmount(7)))
	assert.Equal(t, 1, MaxAmount().Cmp(NewAmount(7)))
	assert.True(t, Amount{}.IsZero())
}

func TestAmountTextRoundTrip(t *testing.T) {
	var a Amount
	require.NoError(t, a.UnmarshalText([]byte("123456789012345678901234567890")))

	text, err := a.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", string(text))
}
