// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package kvm

import (
	"testing"

	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/val"
	"github.com/karmarun/ixl/kvm/xpr"
	"github.com/kr/pretty"
)

func sampleValues() []val.Value {
	arr := val.NewArray(mdl.ArrayOf(mdl.String{}))
	arr.Append(val.String("a"))
	arr.Append(val.String("b"))
	ws := val.NewWeightedSet(mdl.WeightedSetOf(mdl.Int32{}, true, false))
	ws.Put(val.Int32(7), 3)
	return []val.Value{
		val.String("red"),
		val.String(""),
		val.Int8(-1),
		val.Int16(300),
		val.Int32(42),
		val.Int64(1 << 40),
		val.Float(2.5),
		val.Bool(true),
		val.Raw{1, 2, 3},
		arr,
		ws,
	}
}

func allToWsets() []xpr.ToWset {
	return []xpr.ToWset{
		xpr.NewToWset(false, false),
		xpr.NewToWset(true, false),
		xpr.NewToWset(false, true),
		xpr.NewToWset(true, true),
	}
}

func TestToWsetTypeValueAgreement(t *testing.T) {
	for _, x := range allToWsets() {
		for _, v := range sampleValues() {
			vc := NewVerificationContext(mdl.Struct{}, mdl.Struct{})
			vc.SetCurrentType(v.Model())
			if e := Verify(vc, x); e != nil {
				t.Fatalf("%s on %s: %v", xpr.Render(x), v.Model(), e)
			}
			ec := NewExecutionContext(nil)
			ec.SetCurrentValue(v)
			if e := Execute(ec, x); e != nil {
				t.Fatalf("%s on %s: %v", xpr.Render(x), val.Format(v), e)
			}
			if have, want := ec.CurrentValue().Model(), vc.CurrentType(); !have.Equals(want) {
				t.Fatalf("%s on %s: execution type %s, verification type %s", xpr.Render(x), val.Format(v), have, want)
			}
		}
	}
}

func TestToWsetVerifiedType(t *testing.T) {
	vc := NewVerificationContext(mdl.Struct{}, mdl.Struct{})
	vc.SetCurrentType(mdl.ArrayOf(mdl.String{}))
	if e := Verify(vc, xpr.NewToWset(true, true)); e != nil {
		t.Fatal(e)
	}
	want := mdl.WeightedSet{Elements: mdl.ArrayOf(mdl.String{}), CreateIfNonExistent: true, RemoveIfZero: true}
	if !vc.CurrentType().Equals(want) {
		t.Fatalf("have %s, want %s", vc.CurrentType(), want)
	}
}

func TestToWsetRequiresInput(t *testing.T) {
	vc := NewVerificationContext(mdl.Struct{}, mdl.Struct{})
	if e := Verify(vc, xpr.NewToWset(false, false)); e == nil {
		t.Fatal("to_wset without input verified")
	}
}

func TestToWsetDeterminism(t *testing.T) {
	for _, x := range allToWsets() {
		for _, v := range sampleValues() {
			a, b := NewExecutionContext(nil), NewExecutionContext(nil)
			a.SetCurrentValue(v)
			b.SetCurrentValue(v.Copy())
			if e := Execute(a, x); e != nil {
				t.Fatal(e)
			}
			if e := Execute(b, x); e != nil {
				t.Fatal(e)
			}
			if !a.CurrentValue().Equals(b.CurrentValue()) {
				t.Fatalf("%s: %s != %s", xpr.Render(x), val.Format(a.CurrentValue()), val.Format(b.CurrentValue()))
			}
		}
	}
}

func TestToWsetSingleton(t *testing.T) {
	x := xpr.NewToWset(false, false)
	for _, v := range sampleValues() {
		ec := NewExecutionContext(nil)
		ec.SetCurrentValue(v)
		if e := Execute(ec, x); e != nil {
			t.Fatal(e)
		}
		s, ok := ec.CurrentValue().(*val.WeightedSet)
		if !ok {
			t.Fatalf("have %# v", pretty.Formatter(ec.CurrentValue()))
		}
		if s.Len() != 1 {
			t.Fatalf("%s: %d entries", val.Format(s), s.Len())
		}
		if w, ok := s.Weight(v); !ok || w != val.DefaultWeight {
			t.Fatalf("%s: weight of %s is %d (present: %v)", val.Format(s), val.Format(v), w, ok)
		}
	}
}

func TestToWsetPruning(t *testing.T) {
	for _, v := range sampleValues() {
		ec := NewExecutionContext(nil)
		ec.DefaultWeight = 0
		ec.SetCurrentValue(v)
		if e := Execute(ec, xpr.NewToWset(false, true)); e != nil {
			t.Fatal(e)
		}
		s := ec.CurrentValue().(*val.WeightedSet)
		if s.Len() != 0 {
			t.Fatalf("%s: expected empty set", val.Format(s))
		}
		if !s.Model().Equals(mdl.WeightedSetOf(v.Model(), false, true)) {
			t.Fatalf("pruned set lost its type: %s", s.Model())
		}
	}
	{ // without remove_if_zero the zero-weight entry stays
		ec := NewExecutionContext(nil)
		ec.DefaultWeight = 0
		ec.SetCurrentValue(val.String("red"))
		Execute(ec, xpr.NewToWset(true, false))
		if s := ec.CurrentValue().(*val.WeightedSet); s.Len() != 1 {
			t.Fatalf("have %s", val.Format(s))
		}
	}
}

func TestToWsetRed(t *testing.T) {
	ec := NewExecutionContext(nil)
	ec.SetCurrentValue(val.String("red"))
	if e := Execute(ec, xpr.NewToWset(false, false)); e != nil {
		t.Fatal(e)
	}
	want := val.NewWeightedSet(mdl.WeightedSetOf(mdl.String{}, false, false))
	want.Put(val.String("red"), 1)
	have := ec.CurrentValue()
	if !have.Equals(want) {
		t.Fatalf("have %s, want %s", val.Format(have), val.Format(want))
	}
	if m := have.Model().(mdl.WeightedSet); !m.Elements.Equals(mdl.String{}) {
		t.Fatalf("element type %s", m.Elements)
	}
}

func TestToWsetNothing(t *testing.T) {
	ec := NewExecutionContext(nil)
	if e := Execute(ec, xpr.NewToWset(true, true)); e != nil {
		t.Fatal(e)
	}
	if ec.CurrentValue() != nil {
		t.Fatalf("have %s", val.Format(ec.CurrentValue()))
	}
}
