// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package mdl

import (
	"fmt"
	"hash"
	"hash/fnv"
)

// Hash writes a deterministic digest of Model m into h and returns it.
// If h is nil, a new 64-bit FNV-1 hash is allocated.
func Hash(m Model, h hash.Hash64) hash.Hash64 {
	if h == nil {
		h = fnv.New64()
	}
	switch m := m.(type) {
	case String:
		h.Write([]byte(`string`))
	case Int8:
		h.Write([]byte(`int8`))
	case Int16:
		h.Write([]byte(`int16`))
	case Int32:
		h.Write([]byte(`int32`))
	case Int64:
		h.Write([]byte(`int64`))
	case Float:
		h.Write([]byte(`float`))
	case Bool:
		h.Write([]byte(`bool`))
	case Raw:
		h.Write([]byte(`raw`))
	case Array:
		h.Write([]byte(`array`))
		h = Hash(m.Elements, h)
	case WeightedSet:
		h.Write([]byte(`weightedset`))
		h.Write([]byte{flag(m.CreateIfNonExistent), flag(m.RemoveIfZero)})
		h = Hash(m.Elements, h)
	case Struct:
		h.Write([]byte(`struct`))
		m.ForEach(func(k string, w Model) bool {
			h.Write([]byte(k))
			h = Hash(w, h)
			return true
		})
	default:
		panic(fmt.Sprintf("unhandled model: %T", m))
	}
	return h
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
