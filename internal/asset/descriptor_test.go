package asset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		asset   Descriptor
		wantErr bool
	}{
		{"concrete fungible", ConcreteFungible(Location{GeneralKey("AAA")}, NewAmount(1)), false},
		{"concrete fungible at here", ConcreteFungible(Location{}, NewAmount(1)), false},
		{"abstract fungible", AbstractFungible([]byte("AAA"), NewAmount(1)), false},
		{"concrete nft", ConcreteNonFungible(Location{Parachain(1)}, []byte{1}), false},
		{"abstract nft", AbstractNonFungible([]byte("CLS"), []byte{1}), false},
		{"unknown kind", Descriptor{Kind: "wildcard"}, true},
		{"abstract without id", Descriptor{Kind: KindAbstractFungible}, true},
		{"abstract with location", Descriptor{Kind: KindAbstractFungible, AbstractID: []byte{1}, ID: Location{Parent{}}}, true},
		{"concrete with abstract id", Descriptor{Kind: KindConcreteFungible, AbstractID: []byte{1}}, true},
		{"fungible with instance", Descriptor{Kind: KindConcreteFungible, Instance: []byte{1}}, true},
		{"nft with amount", Descriptor{Kind: KindConcreteNonFungible, Amount: NewAmount(3)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDescriptorCloneIsIndependent(t *testing.T) {
	orig := ConcreteFungible(Location{Parent{}, GeneralKey("AAA")}, NewAmount(1000))
	clone := orig.Clone()
	require.Equal(t, orig, clone)

	orig.ID[1].(GeneralKey)[0] = 'B'
	orig.ID[0] = OnlyChild{}

	assert.Equal(t, Location{Parent{}, GeneralKey("AAA")}, clone.ID)
}

func TestDescriptorJSON(t *testing.T) {
	d := ConcreteFungible(Location{Parent{}, GeneralKey("AAA")}, NewAmount(1000))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"concrete_fungible","id":"parent/key:0x414141","amount":"1000"}`, string(data))

	var decoded Descriptor
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, d, decoded)
}

func TestDescriptorString(t *testing.T) {
	d := ConcreteFungible(Location{GeneralKey("AAA")}, NewAmount(5))
	assert.Equal(t, "concrete_fungible{id: key:0x414141, amount: 5}", d.String())
}
