// Package fungible decides whether an asset descriptor is a recognized
// fungible currency and extracts its transferable amount.
package fungible

import (
	"github.com/mtlprog/xcurrency/internal/asset"
	"github.com/mtlprog/xcurrency/internal/currency"
)

// Matcher extracts an amount of type A from fungible assets it recognizes.
type Matcher[A any] interface {
	MatchesFungible(a asset.Descriptor) (A, bool)
}

// KeyDecoder interprets a general-key byte sequence as a currency tag.
type KeyDecoder interface {
	CurrencyFromKey(key []byte) (currency.ID, error)
}

// KeyDecoderFunc adapts a plain function to KeyDecoder.
type KeyDecoderFunc func(key []byte) (currency.ID, error)

// CurrencyFromKey calls f(key).
func (f KeyDecoderFunc) CurrencyFromKey(key []byte) (currency.ID, error) {
	return f(key)
}

// Converter narrows a protocol amount to the target numeric type,
// reporting false when the value does not fit.
type Converter[A any] func(asset.Amount) (A, bool)

// ToAmount keeps the full 128-bit amount.
func ToAmount(a asset.Amount) (asset.Amount, bool) {
	return a, true
}

// ToUint64 narrows to uint64.
func ToUint64(a asset.Amount) (uint64, bool) {
	return a.Uint64()
}

// GeneralKeyMatcher matches concrete fungible assets whose location ends in
// a general key that decodes to a currency. The outcome is collapsed to
// match or no match: callers cannot tell a foreign asset from an amount
// that does not fit A.
type GeneralKeyMatcher[A any] struct {
	keys    KeyDecoder
	convert Converter[A]
}

// NewGeneralKeyMatcher creates a matcher using keys to recognize currency
// tags and convert to narrow amounts.
func NewGeneralKeyMatcher[A any](keys KeyDecoder, convert Converter[A]) *GeneralKeyMatcher[A] {
	return &GeneralKeyMatcher[A]{keys: keys, convert: convert}
}

// MatchesFungible returns the narrowed amount of a concrete fungible asset
// whose id ends in a known currency key.
func (m *GeneralKeyMatcher[A]) MatchesFungible(a asset.Descriptor) (A, bool) {
	var zero A
	if a.Kind != asset.KindConcreteFungible {
		return zero, false
	}
	last, ok := a.ID.Last()
	if !ok {
		return zero, false
	}
	key, ok := last.(asset.GeneralKey)
	if !ok {
		return zero, false
	}
	if _, err := m.keys.CurrencyFromKey(key); err != nil {
		return zero, false
	}
	return m.convert(a.Amount)
}
