// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

import (
	"fmt"
	"hash"
	"hash/fnv"
	"math"
	"sort"
)

// Hash writes a digest of v into h and returns it. If h is nil, a new
// 64-bit FNV-1 hash is allocated. Values that are Equal hash equal;
// weighted set digests do not depend on insertion order.
func Hash(v Value, h hash.Hash64) hash.Hash64 {
	if h == nil {
		h = fnv.New64()
	}
	switch v := v.(type) {
	case *Array:
		h.Write([]byte(`array`))
		for _, w := range v.elements {
			h = Hash(w, h)
		}
		return h
	case *WeightedSet:
		h.Write([]byte(`weightedset`))
		ks := make([]uint64, 0, len(v.index))
		for k := range v.index {
			ks = append(ks, k)
		}
		sort.Slice(ks, func(i, j int) bool {
			return ks[i] < ks[j]
		})
		for _, k := range ks {
			e := v.entries[v.index[k]]
			h = Hash(e.Value, h)
			h = Hash(Int32(e.Weight), h)
		}
		return h
	case *Struct:
		h.Write([]byte(`struct`))
		v.ForEach(func(k string, v Value) bool {
			h.Write([]byte(k))
			h = Hash(v, h)
			return true
		})
		return h
	case Raw:
		h.Write([]byte(`raw`))
		h.Write([]byte(v))
		return h
	case Float:
		h.Write([]byte(`float`))
		f := float64(v)
		switch {
		case f == 0:
			f = 0 // -0 equals +0
		case math.IsNaN(f):
			f = math.NaN()
		}
		x := math.Float64bits(f)
		h.Write([]byte{byte(x >> 56), byte(x >> 48), byte(x >> 40), byte(x >> 32), byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x)})
		return h
	case Bool:
		h.Write([]byte(`bool`))
		if v {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		return h
	case String:
		h.Write([]byte(`string`))
		h.Write([]byte(v))
		return h

	case Int8:
		h.Write([]byte(`int8`))
		h.Write([]byte{byte(v)})
		return h

	case Int16:
		h.Write([]byte(`int16`))
		h.Write([]byte{byte(v >> 8), byte(v)})
		return h

	case Int32:
		h.Write([]byte(`int32`))
		h.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
		return h

	case Int64:
		h.Write([]byte(`int64`))
		h.Write([]byte{byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32), byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
		return h

	}
	panic(fmt.Sprintf("unhandled type: %T", v))
}
