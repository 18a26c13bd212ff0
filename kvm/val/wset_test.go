// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karmarun/ixl/kvm/mdl"
)

func TestWeightedSetAdd(t *testing.T) {
	s := NewWeightedSet(mdl.WeightedSetOf(mdl.String{}, false, false))
	for _, v := range []String{"red", "green", "red"} {
		if e := s.Add(v); e != nil {
			t.Fatal(e)
		}
	}
	want := []WeightedEntry{{String("red"), 2}, {String("green"), 1}}
	if diff := cmp.Diff(want, s.Entries()); diff != "" {
		t.Fatalf("entries (-want +have):\n%s", diff)
	}
	if e := s.Add(Int32(1)); e == nil {
		t.Fatal("expected type error for int key in weightedset<string>")
	}
}

func TestWeightedSetRemoveIfZero(t *testing.T) {
	{
		s := NewWeightedSetUnit(mdl.WeightedSetOf(mdl.String{}, false, true), 0)
		s.Add(String("red"))
		if s.Len() != 0 {
			t.Fatalf("case 1: zero weight entry kept: %s", Format(s))
		}
	}
	{
		s := NewWeightedSetUnit(mdl.WeightedSetOf(mdl.String{}, false, false), 0)
		s.Add(String("red"))
		if w, ok := s.Weight(String("red")); !ok || w != 0 {
			t.Fatalf("case 2: have %d, %v", w, ok)
		}
	}
	{
		s := NewWeightedSet(mdl.WeightedSetOf(mdl.String{}, false, true))
		s.Put(String("a"), 3)
		s.Put(String("b"), 1)
		s.Put(String("c"), 5)
		s.Increment(String("b"), -1)
		want := []WeightedEntry{{String("a"), 3}, {String("c"), 5}}
		if diff := cmp.Diff(want, s.Entries()); diff != "" {
			t.Fatalf("case 3 (-want +have):\n%s", diff)
		}
		if w, _ := s.Weight(String("c")); w != 5 {
			t.Fatalf("case 3: index not compacted, weight(c) = %d", w)
		}
	}
}

func TestWeightedSetIncrement(t *testing.T) {
	{
		s := NewWeightedSet(mdl.WeightedSetOf(mdl.String{}, false, false))
		ok, e := s.Increment(String("red"), 4)
		if e != nil || ok || s.Len() != 0 {
			t.Fatalf("case 1: absent key created without create_if_non_existent")
		}
	}
	{
		s := NewWeightedSet(mdl.WeightedSetOf(mdl.String{}, true, false))
		ok, e := s.Increment(String("red"), 4)
		if e != nil || !ok {
			t.Fatalf("case 2: %v %v", ok, e)
		}
		if w, _ := s.Weight(String("red")); w != 4 {
			t.Fatalf("case 2: weight %d", w)
		}
	}
}

func TestWeightedSetEquals(t *testing.T) {
	m := mdl.WeightedSetOf(mdl.String{}, false, false)
	a, b := NewWeightedSet(m), NewWeightedSet(m)
	a.Add(String("x"))
	a.Add(String("y"))
	b.Add(String("y"))
	b.Add(String("x"))
	if !a.Equals(b) {
		t.Fatal("insertion order affects equality")
	}
	if Hash(a, nil).Sum64() != Hash(b, nil).Sum64() {
		t.Fatal("insertion order affects hash")
	}
	c := NewWeightedSet(mdl.WeightedSetOf(mdl.String{}, true, false))
	c.Add(String("x"))
	c.Add(String("y"))
	if a.Equals(c) {
		t.Fatal("sets of different models are equal")
	}
	d := a.Copy().(*WeightedSet)
	d.Add(String("x"))
	if a.Equals(d) {
		t.Fatal("copy shares entries")
	}
}

func TestWeightedSetSignedZero(t *testing.T) {
	negZero := Float(math.Copysign(0, -1))
	if !Float(0).Equals(negZero) {
		t.Fatal("0 and -0 differ")
	}
	if Hash(Float(0), nil).Sum64() != Hash(negZero, nil).Sum64() {
		t.Fatal("0 and -0 hash differently")
	}
	if Hash(Float(math.NaN()), nil).Sum64() != Hash(Float(-math.NaN()), nil).Sum64() {
		t.Fatal("NaN payloads hash differently")
	}
	s := NewWeightedSet(mdl.WeightedSetOf(mdl.Float{}, false, false))
	s.Add(Float(0))
	s.Add(negZero)
	if s.Len() != 1 {
		t.Fatalf("have %d entries: %s", s.Len(), Format(s))
	}
	if w, _ := s.Weight(Float(0)); w != 2 {
		t.Fatalf("weight %d", w)
	}
	n := NewWeightedSet(mdl.WeightedSetOf(mdl.Float{}, false, false))
	n.Add(Float(math.NaN()))
	n.Add(Float(math.NaN()))
	if n.Len() != 1 {
		t.Fatalf("NaN inserted twice: %s", Format(n))
	}
}

func TestWeightedSetHashCollision(t *testing.T) {
	defer func(f func(Value) uint64) { keyHash = f }(keyHash)
	keyHash = func(Value) uint64 { return 42 }

	s := NewWeightedSet(mdl.WeightedSetOf(mdl.String{}, false, true))
	s.Add(String("a"))
	s.Add(String("b"))
	s.Put(String("c"), 7)
	s.Add(String("a"))
	want := []WeightedEntry{{String("a"), 2}, {String("b"), 1}, {String("c"), 7}}
	if diff := cmp.Diff(want, s.Entries()); diff != "" {
		t.Fatalf("colliding keys merged (-want +have):\n%s", diff)
	}
	s.Increment(String("b"), -1)
	if s.Contains(String("b")) || s.Len() != 2 {
		t.Fatalf("b not pruned: %s", Format(s))
	}
	if w, _ := s.Weight(String("c")); w != 7 {
		t.Fatalf("index not compacted, weight(c) = %d", w)
	}
	c := s.Copy().(*WeightedSet)
	if !c.Equals(s) {
		t.Fatal("copy differs")
	}
	c.Remove(String("a"))
	if !s.Contains(String("a")) || c.Contains(String("a")) {
		t.Fatal("copy shares its index")
	}
}

func TestArrayAppend(t *testing.T) {
	a := NewArray(mdl.ArrayOf(mdl.Int64{}))
	if e := a.Append(Int64(3)); e != nil {
		t.Fatal(e)
	}
	if e := a.Append(String("3")); e == nil {
		t.Fatal("heterogeneous array accepted")
	}
	if a.Len() != 1 || !a.Index(0).Equals(Int64(3)) {
		t.Fatal(Format(a))
	}
}

func TestFormat(t *testing.T) {
	s := NewWeightedSet(mdl.WeightedSetOf(mdl.String{}, false, false))
	s.Add(String("red"))
	cases := []struct {
		v    Value
		want string
	}{
		{String("red"), "red"},
		{Int32(-7), "-7"},
		{Float(1.5), "1.5"},
		{Bool(true), "true"},
		{s, `{"red": 1}`},
	}
	for _, c := range cases {
		if have := Format(c.v); have != c.want {
			t.Fatalf("have %q, want %q", have, c.want)
		}
	}
}
