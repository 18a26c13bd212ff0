// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package cc

import (
	"testing"
)

func TestLruEviction(t *testing.T) {
	l := NewLru[uint64, string](2)
	l.Set(1, "a")
	l.Set(2, "b")
	if _, ok := l.Get(1); !ok { // 1 becomes most recent
		t.Fatal("1 missing")
	}
	l.Set(3, "c") // evicts 2
	if _, ok := l.Get(2); ok {
		t.Fatal("2 not evicted")
	}
	if v, ok := l.Get(1); !ok || v != "a" {
		t.Fatalf("1: %q %v", v, ok)
	}
	if v, ok := l.Get(3); !ok || v != "c" {
		t.Fatalf("3: %q %v", v, ok)
	}
	if l.Len() != 2 {
		t.Fatalf("len %d", l.Len())
	}
}

func TestLruRemoveLast(t *testing.T) {
	l := NewLru[string, int](4)
	l.Set("x", 1)
	l.Remove("x")
	l.Set("y", 2)
	l.Set("z", 3)
	if l.Len() != 2 {
		t.Fatalf("len %d", l.Len())
	}
	if v, ok := l.Get("y"); !ok || v != 2 {
		t.Fatalf("y: %d %v", v, ok)
	}
}

func TestLruUpdate(t *testing.T) {
	l := NewLru[string, []int](4)
	l.Update("k", func(old []int, ok bool) []int {
		if ok {
			t.Fatal("unexpected present value")
		}
		return append(old, 1)
	})
	v := l.Update("k", func(old []int, ok bool) []int {
		return append(old, 2)
	})
	if len(v) != 2 || v[0] != 1 || v[1] != 2 {
		t.Fatalf("%v", v)
	}
	l.Clear()
	if l.Len() != 0 {
		t.Fatal("not cleared")
	}
}
