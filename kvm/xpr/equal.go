// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package xpr

import (
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/karmarun/ixl/kvm/val"
)

// Equal reports wether a and b are structurally identical trees:
// same variants, same configuration, same children.
func Equal(a, b Expression) bool {
	switch a := a.(type) {
	case Input:
		q, ok := b.(Input)
		return ok && a == q
	case Output:
		q, ok := b.(Output)
		return ok && a == q
	case Constant:
		q, ok := b.(Constant)
		return ok && a.Value.Equals(q.Value)
	case ToWset:
		q, ok := b.(ToWset)
		return ok && a.CreateIfNonExistent == q.CreateIfNonExistent && a.RemoveIfZero == q.RemoveIfZero
	case ToArray:
		_, ok := b.(ToArray)
		return ok
	case ToString:
		_, ok := b.(ToString)
		return ok
	case ToInt:
		_, ok := b.(ToInt)
		return ok
	case ToLong:
		_, ok := b.(ToLong)
		return ok
	case Lowercase:
		_, ok := b.(Lowercase)
		return ok
	case Statement:
		q, ok := b.(Statement)
		if !ok || len(a) != len(q) {
			return false
		}
		for i := range a {
			if !Equal(a[i], q[i]) {
				return false
			}
		}
		return true
	case Script:
		q, ok := b.(Script)
		if !ok || len(a) != len(q) {
			return false
		}
		for i := range a {
			if !Equal(a[i], q[i]) {
				return false
			}
		}
		return true
	}
	panic(fmt.Sprintf("xpr.Equal: unhandled expression: %T", a))
}

// Hash writes a digest of x into h and returns it. If h is nil, a new
// 64-bit FNV-1 hash is allocated. Equal expressions hash equal.
func Hash(x Expression, h hash.Hash64) hash.Hash64 {
	if h == nil {
		h = fnv.New64()
	}
	switch x := x.(type) {
	case Input:
		h.Write([]byte(`input`))
		h.Write([]byte(x.Field))
		h.Write([]byte{0})
	case Output:
		h.Write([]byte(`output`))
		h.Write([]byte{byte(x.Target)})
		h.Write([]byte(x.Field))
		h.Write([]byte{0})
	case Constant:
		h.Write([]byte(`constant`))
		h = val.Hash(x.Value, h)
	case ToWset:
		h.Write([]byte(`to_wset`))
		h.Write([]byte{flag(x.CreateIfNonExistent), flag(x.RemoveIfZero)})
	case ToArray:
		h.Write([]byte(`to_array`))
	case ToString:
		h.Write([]byte(`to_string`))
	case ToInt:
		h.Write([]byte(`to_int`))
	case ToLong:
		h.Write([]byte(`to_long`))
	case Lowercase:
		h.Write([]byte(`lowercase`))
	case Statement:
		h.Write([]byte(`statement`))
		for _, w := range x {
			h = Hash(w, h)
		}
		h.Write([]byte{0})
	case Script:
		h.Write([]byte(`script`))
		for _, w := range x {
			h = Hash(w, h)
		}
		h.Write([]byte{0})
	default:
		panic(fmt.Sprintf("xpr.Hash: unhandled expression: %T", x))
	}
	return h
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
