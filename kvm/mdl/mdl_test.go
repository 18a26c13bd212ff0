// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package mdl

import (
	"testing"
)

func TestWeightedSetEquals(t *testing.T) {
	{
		a := WeightedSetOf(String{}, true, false)
		b := WeightedSetOf(String{}, true, false)
		if !a.Equals(b) {
			t.Fatalf("case 1: %s != %s", a, b)
		}
		if Hash(a, nil).Sum64() != Hash(b, nil).Sum64() {
			t.Fatal("case 1: equal models hash differently")
		}
	}
	{
		a := WeightedSetOf(String{}, true, false)
		b := WeightedSetOf(String{}, false, true)
		if a.Equals(b) {
			t.Fatalf("case 2: %s == %s", a, b)
		}
		if Hash(a, nil).Sum64() == Hash(b, nil).Sum64() {
			t.Fatal("case 2: different configurations hash equal")
		}
	}
	{
		a := WeightedSetOf(String{}, false, false)
		b := WeightedSetOf(Int32{}, false, false)
		if a.Equals(b) {
			t.Fatalf("case 3: %s == %s", a, b)
		}
	}
	{
		a := WeightedSetOf(String{}, false, false)
		if a.Equals(ArrayOf(String{})) {
			t.Fatal("case 4: weighted set equals array")
		}
	}
}

func TestStructEquals(t *testing.T) {
	a := StructFromMap(map[string]Model{
		"title": String{},
		"tags":  WeightedSetOf(String{}, false, false),
	})
	b := NewStruct(2)
	b.Set("tags", WeightedSetOf(String{}, false, false))
	b.Set("title", String{})
	if !a.Equals(b) {
		t.Fatalf("%s != %s", a, b)
	}
	if Hash(a, nil).Sum64() != Hash(b, nil).Sum64() {
		t.Fatal("insertion order leaked into hash")
	}
	b.Set("tags", WeightedSetOf(String{}, true, false))
	if a.Equals(b) {
		t.Fatalf("%s == %s", a, b)
	}
	if !NewStruct(0).Equals(Struct{}) {
		t.Fatal("empty structs differ")
	}
}

func TestParse(t *testing.T) {
	cases := map[string]Model{
		"string":                         String{},
		"int":                            Int32{},
		"INT64":                          Int64{},
		"double":                         Float{},
		"array<string>":                  ArrayOf(String{}),
		"weightedset<string>":            WeightedSetOf(String{}, false, false),
		"weightedset<long>;add":          WeightedSetOf(Int64{}, true, false),
		"weightedset<string>;remove;add": WeightedSetOf(String{}, true, true),
		"array<weightedset<int>;remove>": ArrayOf(WeightedSetOf(Int32{}, false, true)),
	}
	for s, want := range cases {
		have, e := Parse(s)
		if e != nil {
			t.Fatalf("%q: %v", s, e)
		}
		if !have.Equals(want) {
			t.Fatalf("%q: have %s, want %s", s, have, want)
		}
		again, e := Parse(have.String())
		if e != nil || !again.Equals(have) {
			t.Fatalf("%q: %s does not round trip", s, have)
		}
	}
	for _, s := range []string{"", "strin", "array<string", "array", "weightedset<string>;sum", "string>"} {
		if _, e := Parse(s); e == nil {
			t.Fatalf("%q: expected error", s)
		}
	}
}

func TestEqualNil(t *testing.T) {
	if !Equal(nil, nil) {
		t.Fatal("nil != nil")
	}
	if Equal(nil, String{}) || Equal(String{}, nil) {
		t.Fatal("nil == string")
	}
	if Name(nil) != "nothing" {
		t.Fatal(Name(nil))
	}
}
