// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package kvm

import (
	"github.com/karmarun/ixl/cc"
	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/xpr"
)

// Cache deduplicates compiled programs. Structurally equal scripts
// compiled against equal schemas share one *Program.
type Cache struct {
	lru *cc.Lru[uint64, []*Program]
}

func NewCache(capacity int) *Cache {
	return &Cache{cc.NewLru[uint64, []*Program](capacity)}
}

// Compile returns the cached program for (script, input, output) or
// compiles and caches it. Failed compilations are not cached.
func (c *Cache) Compile(script xpr.Script, input, output mdl.Struct) (*Program, err.Error) {
	key := cacheKey(script, input, output)
	if ps, ok := c.lru.Get(key); ok {
		if p := findProgram(ps, script, input, output); p != nil {
			return p, nil
		}
	}
	p, e := Compile(script, input, output)
	if e != nil {
		return nil, e
	}
	ps := c.lru.Update(key, func(old []*Program, _ bool) []*Program {
		if findProgram(old, script, input, output) != nil {
			return old
		}
		return append(old[:len(old):len(old)], p)
	})
	return findProgram(ps, script, input, output), nil
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

func (c *Cache) Clear() {
	c.lru.Clear()
}

func cacheKey(script xpr.Script, input, output mdl.Struct) uint64 {
	h := xpr.Hash(script, nil)
	h = mdl.Hash(input, h)
	h = mdl.Hash(output, h)
	return h.Sum64()
}

func findProgram(ps []*Program, script xpr.Script, input, output mdl.Struct) *Program {
	for _, p := range ps {
		if xpr.Equal(p.script, script) && p.input.Equals(input) && p.output.Equals(output) {
			return p
		}
	}
	return nil
}
