package asset

import (
	"bytes"
	"fmt"
)

// Kind discriminates the Descriptor variants.
type Kind string

const (
	KindConcreteFungible    Kind = "concrete_fungible"
	KindAbstractFungible    Kind = "abstract_fungible"
	KindConcreteNonFungible Kind = "concrete_non_fungible"
	KindAbstractNonFungible Kind = "abstract_non_fungible"
)

// Descriptor describes an asset being transferred.
// Concrete kinds are identified by ID, abstract kinds by AbstractID.
// Fungible kinds carry Amount, non-fungible kinds carry Instance.
type Descriptor struct {
	Kind       Kind     `json:"kind"`
	ID         Location `json:"id,omitempty"`
	AbstractID []byte   `json:"abstractId,omitempty"`
	Amount     Amount   `json:"amount"`
	Instance   []byte   `json:"instance,omitempty"`
}

// ConcreteFungible describes amount units of the asset identified by id.
func ConcreteFungible(id Location, amount Amount) Descriptor {
	return Descriptor{Kind: KindConcreteFungible, ID: id, Amount: amount}
}

// AbstractFungible describes amount units of an asset named by an opaque id.
func AbstractFungible(id []byte, amount Amount) Descriptor {
	return Descriptor{Kind: KindAbstractFungible, AbstractID: id, Amount: amount}
}

// ConcreteNonFungible describes one instance of the class identified by class.
func ConcreteNonFungible(class Location, instance []byte) Descriptor {
	return Descriptor{Kind: KindConcreteNonFungible, ID: class, Instance: instance}
}

// AbstractNonFungible describes one instance of a class named by an opaque id.
func AbstractNonFungible(class, instance []byte) Descriptor {
	return Descriptor{Kind: KindAbstractNonFungible, AbstractID: class, Instance: instance}
}

// IsFungible reports whether d carries an amount.
func (d Descriptor) IsFungible() bool {
	return d.Kind == KindConcreteFungible || d.Kind == KindAbstractFungible
}

// IsConcrete reports whether d is identified by a location.
func (d Descriptor) IsConcrete() bool {
	return d.Kind == KindConcreteFungible || d.Kind == KindConcreteNonFungible
}

// Clone returns a deep copy of d.
func (d Descriptor) Clone() Descriptor {
	out := d
	out.ID = d.ID.Clone()
	out.AbstractID = bytes.Clone(d.AbstractID)
	out.Instance = bytes.Clone(d.Instance)
	return out
}

// Validate checks that the fields set match the kind.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case KindConcreteFungible, KindConcreteNonFungible:
		if len(d.AbstractID) != 0 {
			return fmt.Errorf("%s asset must not carry an abstract id", d.Kind)
		}
	case KindAbstractFungible, KindAbstractNonFungible:
		if len(d.AbstractID) == 0 {
			return fmt.Errorf("%s asset requires an abstract id", d.Kind)
		}
		if len(d.ID) != 0 {
			return fmt.Errorf("%s asset must not carry a location id", d.Kind)
		}
	default:
		return fmt.Errorf("unknown asset kind %q", d.Kind)
	}

	if d.IsFungible() && len(d.Instance) != 0 {
		return fmt.Errorf("%s asset must not carry an instance", d.Kind)
	}
	if !d.IsFungible() && !d.Amount.IsZero() {
		return fmt.Errorf("%s asset must not carry an amount", d.Kind)
	}
	return nil
}

func (d Descriptor) String() string {
	id := d.ID.String()
	if !d.IsConcrete() {
		id = fmt.Sprintf("0x%x", d.AbstractID)
	}
	if d.IsFungible() {
		return fmt.Sprintf("%s{id: %s, amount: %s}", d.Kind, id, d.Amount)
	}
	return fmt.Sprintf("%s{class: %s, instance: 0x%x}", d.Kind, id, d.Instance)
}
