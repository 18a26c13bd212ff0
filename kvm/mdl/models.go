// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package mdl

import (
	"strings"
)

type String struct{}

func (String) Kind() Kind {
	return KindString
}

func (String) String() string {
	return "string"
}

func (m String) Equals(n Model) bool {
	_, ok := n.(String)
	return ok
}

type Int8 struct{}

func (Int8) Kind() Kind {
	return KindInt8
}

func (Int8) String() string {
	return "byte"
}

func (m Int8) Equals(n Model) bool {
	_, ok := n.(Int8)
	return ok
}

type Int16 struct{}

func (Int16) Kind() Kind {
	return KindInt16
}

func (Int16) String() string {
	return "int16"
}

func (m Int16) Equals(n Model) bool {
	_, ok := n.(Int16)
	return ok
}

type Int32 struct{}

func (Int32) Kind() Kind {
	return KindInt32
}

func (Int32) String() string {
	return "int"
}

func (m Int32) Equals(n Model) bool {
	_, ok := n.(Int32)
	return ok
}

type Int64 struct{}

func (Int64) Kind() Kind {
	return KindInt64
}

func (Int64) String() string {
	return "long"
}

func (m Int64) Equals(n Model) bool {
	_, ok := n.(Int64)
	return ok
}

type Float struct{}

func (Float) Kind() Kind {
	return KindFloat
}

func (Float) String() string {
	return "float"
}

func (m Float) Equals(n Model) bool {
	_, ok := n.(Float)
	return ok
}

type Bool struct{}

func (Bool) Kind() Kind {
	return KindBool
}

func (Bool) String() string {
	return "bool"
}

func (m Bool) Equals(n Model) bool {
	_, ok := n.(Bool)
	return ok
}

type Raw struct{}

func (Raw) Kind() Kind {
	return KindRaw
}

func (Raw) String() string {
	return "raw"
}

func (m Raw) Equals(n Model) bool {
	_, ok := n.(Raw)
	return ok
}

type Array struct {
	Elements Model
}

func (Array) Kind() Kind {
	return KindArray
}

func (m Array) String() string {
	return "array<" + m.Elements.String() + ">"
}

func (m Array) Equals(n Model) bool {
	if q, ok := n.(Array); ok {
		return m.Elements.Equals(q.Elements)
	}
	return false
}

// WeightedSet is the model of a mapping from distinct values of
// model Elements to int32 weights. The two flags are part of the
// model's identity.
type WeightedSet struct {
	Elements Model

	// CreateIfNonExistent makes increments of absent keys insert them.
	CreateIfNonExistent bool

	// RemoveIfZero drops entries whose weight reaches zero.
	RemoveIfZero bool
}

func (WeightedSet) Kind() Kind {
	return KindWeightedSet
}

func (m WeightedSet) String() string {
	out := "weightedset<" + m.Elements.String() + ">"
	if m.CreateIfNonExistent {
		out += ";add"
	}
	if m.RemoveIfZero {
		out += ";remove"
	}
	return out
}

func (m WeightedSet) Equals(n Model) bool {
	q, ok := n.(WeightedSet)
	if !ok {
		return false
	}
	return m.CreateIfNonExistent == q.CreateIfNonExistent &&
		m.RemoveIfZero == q.RemoveIfZero &&
		m.Elements.Equals(q.Elements)
}

// Struct is an ordered mapping of field names to Models.
// It is the model of a document.
type Struct struct{ lm *logMapStringModel }

func NewStruct(capacity int) Struct {
	return Struct{newlogMapStringModel(capacity)}
}

func StructFromMap(mp map[string]Model) Struct {
	m := NewStruct(len(mp))
	for k, w := range mp {
		m.Set(k, w)
	}
	return m
}

func (Struct) Kind() Kind {
	return KindStruct
}

// Set must not be called on a Struct that has been shared.
func (m *Struct) Set(k string, w Model) {
	if m.lm == nil {
		m.lm = newlogMapStringModel(8)
	}
	m.lm.set(k, w)
}

func (m Struct) ForEach(f func(string, Model) bool) {
	if m.lm == nil {
		return
	}
	m.lm.forEach(f)
}

func (m Struct) Len() int {
	if m.lm == nil {
		return 0
	}
	return m.lm.len()
}

func (m Struct) Get(k string) (Model, bool) {
	if m.lm == nil {
		return nil, false
	}
	return m.lm.get(k)
}

func (m Struct) Field(k string) Model {
	w, _ := m.Get(k)
	return w
}

func (m Struct) Keys() []string {
	if m.lm == nil {
		return nil
	}
	return m.lm.keys()
}

func (m Struct) String() string {
	fields := make([]string, 0, m.Len())
	m.ForEach(func(k string, w Model) bool {
		fields = append(fields, k+":"+w.String())
		return true
	})
	return "struct{" + strings.Join(fields, ",") + "}"
}

func (m Struct) Equals(n Model) bool {
	q, ok := n.(Struct)
	if !ok {
		return false
	}
	if m.Len() != q.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	if !m.lm.sameKeys(q.lm) {
		return false
	}
	eq := true
	m.ForEach(func(k string, w Model) bool {
		eq = w.Equals(q.Field(k))
		return eq
	})
	return eq
}
