// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

import (
	"bytes"
	"fmt"

	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
)

//go:generate go run ../../generate/logmap/main.go --package val --key string --value Value --output logmap_generated.go

// Value is a field value. Every Value knows its Model; collections only
// hold elements whose Model equals their element model.
type Value interface {
	Model() mdl.Model
	Equals(Value) bool
	Copy() Value
}

type String string

func (String) Model() mdl.Model {
	return mdl.String{}
}

func (x String) Copy() Value {
	return x
}

func (s String) Equals(v Value) bool {
	q, ok := v.(String)
	return ok && s == q
}

func (s String) String() string {
	return string(s)
}

type Int8 int8

func (Int8) Model() mdl.Model {
	return mdl.Int8{}
}

func (x Int8) Copy() Value {
	return x
}

func (i Int8) Equals(v Value) bool {
	return i == v
}

type Int16 int16

func (Int16) Model() mdl.Model {
	return mdl.Int16{}
}

func (x Int16) Copy() Value {
	return x
}

func (i Int16) Equals(v Value) bool {
	return i == v
}

type Int32 int32

func (Int32) Model() mdl.Model {
	return mdl.Int32{}
}

func (x Int32) Copy() Value {
	return x
}

func (i Int32) Equals(v Value) bool {
	return i == v
}

type Int64 int64

func (Int64) Model() mdl.Model {
	return mdl.Int64{}
}

func (x Int64) Copy() Value {
	return x
}

func (i Int64) Equals(v Value) bool {
	return i == v
}

type Float float64

func (Float) Model() mdl.Model {
	return mdl.Float{}
}

func (x Float) Copy() Value {
	return x
}

// Equals treats -0 and +0 as equal, and any NaN as equal to any other NaN.
func (f Float) Equals(v Value) bool {
	g, ok := v.(Float)
	return ok && (f == g || (f != f && g != g))
}

type Bool bool

func (Bool) Model() mdl.Model {
	return mdl.Bool{}
}

func (x Bool) Copy() Value {
	return x
}

func (b Bool) Equals(v Value) bool {
	return b == v
}

type Raw []byte

func (Raw) Model() mdl.Model {
	return mdl.Raw{}
}

func (a Raw) Copy() Value {
	c := make(Raw, len(a))
	copy(c, a)
	return c
}

func (a Raw) Equals(v Value) bool {
	q, ok := v.(Raw)
	return ok && bytes.Equal(a, q)
}

// Array is an ordered sequence of Values sharing one element Model.
type Array struct {
	model    mdl.Array
	elements []Value
}

func NewArray(m mdl.Array) *Array {
	return &Array{model: m}
}

func (a *Array) Model() mdl.Model {
	return a.model
}

// Append adds v at the end of a. It fails if v's model is not a's element model.
func (a *Array) Append(v Value) err.Error {
	if !v.Model().Equals(a.model.Elements) {
		return err.TypeError{
			Problem: "array element does not match the array's element type",
			Want:    a.model.Elements,
			Have:    v.Model(),
		}
	}
	a.elements = append(a.elements, v)
	return nil
}

func (a *Array) Len() int {
	return len(a.elements)
}

func (a *Array) Index(i int) Value {
	return a.elements[i]
}

func (a *Array) ForEach(f func(int, Value) bool) {
	for i, v := range a.elements {
		if !f(i, v) {
			break
		}
	}
}

func (a *Array) Copy() Value {
	c := &Array{model: a.model, elements: make([]Value, len(a.elements))}
	for i, w := range a.elements {
		c.elements[i] = w.Copy()
	}
	return c
}

func (a *Array) Equals(v Value) bool {
	q, ok := v.(*Array)
	if !ok {
		return false
	}
	if !a.model.Equals(q.model) || len(a.elements) != len(q.elements) {
		return false
	}
	for i := range a.elements {
		if !a.elements[i].Equals(q.elements[i]) {
			return false
		}
	}
	return true
}

// Struct is a document: a set of named field values, iterated in key order.
type Struct struct{ lm *logMapStringValue }

func NewStruct(capacity int) *Struct {
	return &Struct{newlogMapStringValue(capacity)}
}

func StructFromMap(m map[string]Value) *Struct {
	v := NewStruct(len(m))
	for k, w := range m {
		v.Set(k, w)
	}
	return v
}

// Model returns the struct model of the fields currently present.
func (v *Struct) Model() mdl.Model {
	m := mdl.NewStruct(v.Len())
	v.ForEach(func(k string, w Value) bool {
		m.Set(k, w.Model())
		return true
	})
	return m
}

func (v *Struct) Len() int {
	return v.lm.len()
}

func (v *Struct) Field(k string) Value {
	w, ok := v.lm.get(k)
	if !ok {
		return nil
	}
	return w
}

func (v *Struct) Get(k string) (Value, bool) {
	return v.lm.get(k)
}

func (v *Struct) Set(k string, w Value) {
	if w == nil {
		panic(fmt.Sprintf("val.Struct.Set: nil value for field %q", k))
	}
	v.lm.set(k, w)
}

func (v *Struct) Delete(k string) {
	v.lm.unset(k)
}

func (v *Struct) Keys() []string {
	return v.lm.keys()
}

func (v *Struct) ForEach(f func(string, Value) bool) {
	v.lm.forEach(f)
}

func (v *Struct) Copy() Value {
	c := v.lm.copy()
	c.overMap(func(k string, v Value) Value {
		return v.Copy()
	})
	return &Struct{c}
}

func (v *Struct) Equals(w Value) bool {
	x, ok := w.(*Struct)
	if !ok {
		return false
	}
	if !v.lm.sameKeys(x.lm) {
		return false
	}
	eq := true
	v.lm.forEach(func(k string, v Value) bool {
		w, _ := x.lm.get(k)
		eq = v.Equals(w)
		return eq
	})
	return eq
}
