// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package binary

import (
	"testing"

	"github.com/karmarun/ixl/codec"
	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/val"
	"github.com/kr/pretty"
)

func sampleDocument() *val.Struct {
	colors := val.NewWeightedSet(mdl.WeightedSetOf(mdl.String{}, true, true))
	colors.Put(val.String("red"), 3)
	colors.Put(val.String("blue"), -2)
	years := val.NewArray(mdl.ArrayOf(mdl.Int64{}))
	years.Append(val.Int64(1999))
	years.Append(val.Int64(-1 << 40))
	return val.StructFromMap(map[string]val.Value{
		"colors": colors,
		"years":  years,
		"name":   val.String("chair"),
		"size":   val.Int16(-300),
		"stock":  val.Int32(12),
		"flag":   val.Int8(-1),
		"ratio":  val.Float(0.25),
		"sold":   val.Bool(false),
		"blob":   val.Raw{0, 1, 255},
		"empty":  val.NewWeightedSet(mdl.WeightedSetOf(mdl.ArrayOf(mdl.String{}), false, false)),
	})
}

func TestRoundTrip(t *testing.T) {
	v := sampleDocument()
	bs := codec.Get(Name).Encode(v)
	w, e := codec.Get(Name).Decode(bs, nil)
	if e != nil {
		t.Fatal(e)
	}
	if !v.Equals(w) {
		t.Fatalf("round trip mismatch:\n%s", pretty.Diff(val.Format(v), val.Format(w)))
	}
	if !w.Model().Equals(v.Model()) {
		t.Fatalf("model %s != %s", w.Model(), v.Model())
	}
}

func TestDecodeModelMismatch(t *testing.T) {
	s := val.NewWeightedSet(mdl.WeightedSetOf(mdl.String{}, false, false))
	s.Add(val.String("red"))
	bs := Encode(s)
	if _, e := Decode(bs, s.Model()); e != nil {
		t.Fatal(e)
	}
	if _, e := Decode(bs, mdl.WeightedSetOf(mdl.String{}, true, false)); e == nil {
		t.Fatal("decoded with mismatching flags")
	}
}

func TestDecodeTruncated(t *testing.T) {
	bs := Encode(sampleDocument())
	for _, n := range []int{0, 1, 5, len(bs) / 2, len(bs) - 1} {
		_, e := Decode(bs[:n], nil)
		if e == nil {
			t.Fatalf("decoded %d of %d bytes", n, len(bs))
		}
		if _, ok := e.(err.CodecError); !ok {
			t.Fatalf("expected codec error, have %T", e)
		}
	}
	if _, e := Decode(append(bs, 0), nil); e == nil {
		t.Fatal("trailing data accepted")
	}
}
