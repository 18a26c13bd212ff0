// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package mdl

//go:generate go run ../../generate/logmap/main.go --package mdl --key string --value Model --output logmap_generated.go

// Model describes the type of a field value. Models carry no data and are
// immutable once constructed, so they may be shared freely.
type Model interface {

	// Equals reports wether a Model tree equals another.
	// Collection models compare their element models and,
	// for weighted sets, their configuration flags.
	Equals(Model) bool

	// Kind returns the top-level variant of the Model.
	Kind() Kind

	// String returns the type name, as accepted by Parse.
	String() string
}

type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat
	KindBool
	KindRaw
	KindArray
	KindWeightedSet
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt8:
		return "byte"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int"
	case KindInt64:
		return "long"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindRaw:
		return "raw"
	case KindArray:
		return "array"
	case KindWeightedSet:
		return "weightedset"
	case KindStruct:
		return "struct"
	}
	return "invalid"
}

// Primitive reports wether k is a scalar kind.
func (k Kind) Primitive() bool {
	switch k {
	case KindString, KindInt8, KindInt16, KindInt32, KindInt64, KindFloat, KindBool, KindRaw:
		return true
	}
	return false
}

// WeightedSetOf returns the weighted set model over elements with the given
// configuration. It accepts every element model.
func WeightedSetOf(elements Model, createIfNonExistent, removeIfZero bool) WeightedSet {
	if elements == nil {
		panic("mdl.WeightedSetOf: nil element model")
	}
	return WeightedSet{
		Elements:            elements,
		CreateIfNonExistent: createIfNonExistent,
		RemoveIfZero:        removeIfZero,
	}
}

// ArrayOf returns the array model over elements.
func ArrayOf(elements Model) Array {
	if elements == nil {
		panic("mdl.ArrayOf: nil element model")
	}
	return Array{Elements: elements}
}

// Equal is like a.Equals(b) but tolerates nil on either side.
func Equal(a, b Model) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

// Name is like m.String() but renders nil as "nothing".
func Name(m Model) string {
	if m == nil {
		return "nothing"
	}
	return m.String()
}
