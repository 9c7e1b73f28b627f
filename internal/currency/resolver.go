package currency

import "github.com/mtlprog/xcurrency/internal/asset"

// Resolver maps asset descriptors to registered currencies.
// A currency asset is concrete fungible and tagged by a trailing general key.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a Resolver backed by registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// CurrencyFromAsset returns the registered currency a describes, if any.
func (r *Resolver) CurrencyFromAsset(a asset.Descriptor) (ID, bool) {
	if a.Kind != asset.KindConcreteFungible {
		return "", false
	}
	last, ok := a.ID.Last()
	if !ok {
		return "", false
	}
	key, ok := last.(asset.GeneralKey)
	if !ok {
		return "", false
	}
	id, err := FromKey(key)
	if err != nil {
		return "", false
	}
	if !r.registry.Contains(id) {
		return "", false
	}
	return id, true
}

// CurrencyFromKey decodes a general key, ignoring registration. It lets the
// currency package serve as the key decoding strategy of a fungible matcher.
func (r *Resolver) CurrencyFromKey(key []byte) (ID, error) {
	return FromKey(key)
}
