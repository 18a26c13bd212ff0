// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package xpr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karmarun/ixl/kvm/val"
)

func TestRenderToWset(t *testing.T) {
	cases := []struct {
		x    ToWset
		want string
	}{
		{NewToWset(false, false), "to_wset"},
		{NewToWset(true, false), "to_wset create_if_non_existent"},
		{NewToWset(false, true), "to_wset remove_if_zero"},
		{NewToWset(true, true), "to_wset create_if_non_existent remove_if_zero"},
	}
	for _, c := range cases {
		if have := Render(c.x); have != c.want {
			t.Fatalf("%+v: have %q, want %q", c.x, have, c.want)
		}
	}
}

func TestToWsetIdentity(t *testing.T) {
	a, b := NewToWset(true, false), NewToWset(true, false)
	if !Equal(a, b) {
		t.Fatal("equal configurations are unequal")
	}
	if Hash(a, nil).Sum64() != Hash(b, nil).Sum64() {
		t.Fatal("equal configurations hash differently")
	}
	c := NewToWset(false, true)
	if Equal(a, c) {
		t.Fatal("(true, false) equals (false, true)")
	}
	if Hash(a, nil).Sum64() == Hash(c, nil).Sum64() {
		t.Fatal("(true, false) and (false, true) hash equal")
	}
	if Equal(a, ToArray{}) || Equal(ToArray{}, a) {
		t.Fatal("to_wset equals to_array")
	}
}

func TestParseRoundTrip(t *testing.T) {
	sources := []string{
		"input color | to_wset | attribute colors",
		"input color | lowercase | to_wset create_if_non_existent remove_if_zero | index colors",
		"input year | to_string | summary year_text",
		`"red" | to_wset remove_if_zero | attribute tags`,
		"42 | to_array | attribute numbers",
		"42L | attribute big",
		"1.5 | attribute ratio",
		"{ input a | to_wset; input b | to_long | to_array | attribute c; }",
	}
	for _, src := range sources {
		x, e := Parse(src)
		if e != nil {
			t.Fatalf("%q: %v", src, e)
		}
		if have := Render(x); have != src {
			t.Fatalf("render: have %q, want %q", have, src)
		}
		y, e := Parse(Render(x))
		if e != nil {
			t.Fatal(e)
		}
		if !Equal(x, y) {
			t.Fatalf("%q does not round trip", src)
		}
	}
}

func TestParseToWsetFlags(t *testing.T) {
	x, e := Parse("to_wset remove_if_zero create_if_non_existent")
	if e != nil {
		t.Fatal(e)
	}
	want := Statement{NewToWset(true, true)}
	if !Equal(x, want) {
		t.Fatalf("have %s", Render(x))
	}
	if _, e := Parse("to_wset remove_if_zero remove_if_zero"); e == nil {
		t.Fatal("duplicate marker accepted")
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"input",
		"input a |",
		"frobnicate",
		"{ input a; ",
		"{ }",
		`"unterminated`,
		"input a } ",
		"99999999999",
		"input a # b",
	} {
		if x, e := Parse(src); e == nil {
			t.Fatalf("%q: expected error, have %s", src, Render(x))
		}
	}
}

func TestParseScript(t *testing.T) {
	s, e := ParseScript("input a | attribute b")
	if e != nil {
		t.Fatal(e)
	}
	want := Script{Statement{Input{"a"}, Output{TargetAttribute, "b"}}}
	if !Equal(s, want) {
		t.Fatalf("have %s", Render(s))
	}
}

func TestFields(t *testing.T) {
	x, e := Parse("{ input a | attribute x; input b | index y; input a | summary x; }")
	if e != nil {
		t.Fatal(e)
	}
	if diff := cmp.Diff([]string{"a", "b"}, InputFields(x)); diff != "" {
		t.Fatalf("input fields (-want +have):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x", "y"}, OutputFields(x)); diff != "" {
		t.Fatalf("output fields (-want +have):\n%s", diff)
	}
}

func TestConstantEquality(t *testing.T) {
	if !Equal(Constant{val.String("a")}, Constant{val.String("a")}) {
		t.Fatal("equal constants differ")
	}
	if Equal(Constant{val.Int32(1)}, Constant{val.Int64(1)}) {
		t.Fatal("int and long constants are equal")
	}
}
