// Package block implements the latest-version block registry described in
// spec.md §3: block kinds, their properties, and the mixed-radix packing
// that turns a (kind, property values) tuple into a single u32 state id.
package block

import "fmt"

// PropertyKind classifies a Property's value domain (spec.md §3).
type PropertyKind int

const (
	// PropertyBool is a 2-value boolean property.
	PropertyBool PropertyKind = iota
	// PropertyInt is a bounded integer property (min..=max).
	PropertyInt
	// PropertyEnum is a closed, ordered list of string values.
	PropertyEnum
)

// Property is one named attribute of a block kind (e.g. "facing", "half",
// "waterlogged"). Its Cardinality is the number of distinct index values a
// Type can carry for it.
type Property struct {
	Name   string
	Kind   PropertyKind
	Values []string // for PropertyEnum; also used to render PropertyInt/PropertyBool values as strings
}

// Cardinality returns the number of distinct values (N) this property can
// take; a Type's index for this property is always in 0..N.
func (p Property) Cardinality() int {
	switch p.Kind {
	case PropertyBool:
		return 2
	default:
		return len(p.Values)
	}
}

// NewBoolProperty builds a 2-valued boolean property ("false", "true").
func NewBoolProperty(name string) Property {
	return Property{Name: name, Kind: PropertyBool, Values: []string{"false", "true"}}
}

// NewIntProperty builds a bounded-integer property with cardinality max-min+1,
// with values rendered as the decimal integers min through max.
func NewIntProperty(name string, min, max int) Property {
	values := make([]string, 0, max-min+1)
	for v := min; v <= max; v++ {
		values = append(values, fmt.Sprintf("%d", v))
	}
	return Property{Name: name, Kind: PropertyInt, Values: values}
}

// NewEnumProperty builds a closed-enum property over the given ordered
// values.
func NewEnumProperty(name string, values []string) Property {
	return Property{Name: name, Kind: PropertyEnum, Values: values}
}

// Kind is a block without property values — "oak stairs" regardless of
// rotation (GLOSSARY).
type Kind struct {
	ID    uint32 // dense kind-id in the latest version's global order
	Name  string // namespaced identifier, e.g. "minecraft:oak_stairs"

	Material        string
	Hardness        float32
	BlastResistance float32
	LightEmission   uint8 // 0..15
	LightFilter     uint8 // 0..15
	Transparent     bool

	BaseStateID uint32
	Properties  []Property

	// DefaultIndices is the property-index vector used when a name is
	// referenced without explicit property values.
	DefaultIndices []int
}

// StateCount returns how many distinct state ids this kind occupies: the
// product of every property's cardinality, or 1 if it has none.
func (k *Kind) StateCount() int {
	n := 1
	for _, p := range k.Properties {
		n *= p.Cardinality()
	}
	return n
}

// radixWeights returns, for each property index i, the product of the
// cardinalities of every property after it (spec.md §3: "Π_{j>i} card_j").
func (k *Kind) radixWeights() []int {
	weights := make([]int, len(k.Properties))
	acc := 1
	for i := len(k.Properties) - 1; i >= 0; i-- {
		weights[i] = acc
		acc *= k.Properties[i].Cardinality()
	}
	return weights
}

// Type is a concrete (kind, property-index-vector) tuple: a block as it
// actually appears in the world (GLOSSARY).
type Type struct {
	Kind    *Kind
	Indices []int
}

// StateID packs a Type into its wire state id using the mixed-radix formula
// of spec.md §3: base + Σ index_i · Π_{j>i} card_j.
func (t Type) StateID() uint32 {
	weights := t.Kind.radixWeights()
	offset := 0
	for i, idx := range t.Indices {
		offset += idx * weights[i]
	}
	return t.Kind.BaseStateID + uint32(offset)
}

// Default returns the Type for this kind's default property values (or the
// kind's single state, if it has no properties).
func (k *Kind) Default() Type {
	indices := k.DefaultIndices
	if indices == nil {
		indices = make([]int, len(k.Properties))
	}
	return Type{Kind: k, Indices: indices}
}

// TypeFromStateID decodes a state id back into a Type, given its owning
// Kind (found via Registry.KindForState). This reverses the mixed-radix
// packing in StateID.
func TypeFromStateID(k *Kind, stateID uint32) (Type, error) {
	if stateID < k.BaseStateID || int(stateID-k.BaseStateID) >= k.StateCount() {
		return Type{}, fmt.Errorf("block: state id %d out of range for kind %s", stateID, k.Name)
	}
	remainder := int(stateID - k.BaseStateID)
	weights := k.radixWeights()
	indices := make([]int, len(k.Properties))
	for i, p := range k.Properties {
		indices[i] = remainder / weights[i]
		remainder %= weights[i]
		_ = p
	}
	return Type{Kind: k, Indices: indices}, nil
}
