// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

import (
	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
)

// DefaultWeight is the weight Add assigns to a new entry.
const DefaultWeight int32 = 1

// WeightedSet maps distinct Values to int32 weights. Entries are bucketed
// by their Hash, told apart with Equals and iterated in insertion order.
type WeightedSet struct {
	model   mdl.WeightedSet
	unit    int32
	index   map[uint64][]int // hash -> positions in entries
	entries []WeightedEntry
}

// keyHash buckets weighted set keys.
var keyHash = func(v Value) uint64 {
	return Hash(v, nil).Sum64()
}

type WeightedEntry struct {
	Value  Value
	Weight int32
}

// NewWeightedSet returns an empty weighted set of model m whose Add
// uses DefaultWeight.
func NewWeightedSet(m mdl.WeightedSet) *WeightedSet {
	return NewWeightedSetUnit(m, DefaultWeight)
}

// NewWeightedSetUnit is like NewWeightedSet but Add uses weight unit.
func NewWeightedSetUnit(m mdl.WeightedSet, unit int32) *WeightedSet {
	return &WeightedSet{
		model: m,
		unit:  unit,
		index: make(map[uint64][]int, 4),
	}
}

func (s *WeightedSet) Model() mdl.Model {
	return s.model
}

func (s *WeightedSet) WeightedSetModel() mdl.WeightedSet {
	return s.model
}

// Unit is the weight Add adds.
func (s *WeightedSet) Unit() int32 {
	return s.unit
}

func (s *WeightedSet) Len() int {
	return len(s.entries)
}

// Add increments the weight of v by the set's unit, inserting v if it
// is absent. Insertion happens regardless of CreateIfNonExistent.
func (s *WeightedSet) Add(v Value) err.Error {
	if e := s.check(v); e != nil {
		return e
	}
	h, i := s.find(v)
	if i >= 0 {
		s.assign(h, i, s.entries[i].Weight+s.unit)
		return nil
	}
	s.insert(h, v, s.unit)
	return nil
}

// Put sets the weight of v to w.
func (s *WeightedSet) Put(v Value, w int32) err.Error {
	if e := s.check(v); e != nil {
		return e
	}
	h, i := s.find(v)
	if i >= 0 {
		s.assign(h, i, w)
		return nil
	}
	s.insert(h, v, w)
	return nil
}

// Increment adds delta to the weight of v. An absent v is only inserted
// when the model has CreateIfNonExistent set; otherwise the call is a no-op
// and reports false.
func (s *WeightedSet) Increment(v Value, delta int32) (bool, err.Error) {
	if e := s.check(v); e != nil {
		return false, e
	}
	h, i := s.find(v)
	if i >= 0 {
		s.assign(h, i, s.entries[i].Weight+delta)
		return true, nil
	}
	if !s.model.CreateIfNonExistent {
		return false, nil
	}
	s.insert(h, v, delta)
	return true, nil
}

// Weight returns the weight of v and wether v is present.
func (s *WeightedSet) Weight(v Value) (int32, bool) {
	if v == nil {
		return 0, false
	}
	_, i := s.find(v)
	if i < 0 {
		return 0, false
	}
	return s.entries[i].Weight, true
}

func (s *WeightedSet) Contains(v Value) bool {
	_, ok := s.Weight(v)
	return ok
}

// Remove deletes v and reports wether it was present.
func (s *WeightedSet) Remove(v Value) bool {
	if v == nil {
		return false
	}
	h, i := s.find(v)
	if i < 0 {
		return false
	}
	s.removeAt(h, i)
	return true
}

func (s *WeightedSet) ForEach(f func(Value, int32) bool) {
	for _, e := range s.entries {
		if !f(e.Value, e.Weight) {
			break
		}
	}
}

// Entries returns a copy of the set's entries in insertion order.
func (s *WeightedSet) Entries() []WeightedEntry {
	es := make([]WeightedEntry, len(s.entries))
	copy(es, s.entries)
	return es
}

func (s *WeightedSet) Copy() Value {
	c := NewWeightedSetUnit(s.model, s.unit)
	c.entries = make([]WeightedEntry, len(s.entries))
	for i, e := range s.entries {
		c.entries[i] = WeightedEntry{e.Value.Copy(), e.Weight}
	}
	for h, is := range s.index {
		c.index[h] = append([]int(nil), is...)
	}
	return c
}

// Equals reports wether v is a weighted set of the same model holding the
// same entries with the same weights. Insertion order is irrelevant.
func (s *WeightedSet) Equals(v Value) bool {
	q, ok := v.(*WeightedSet)
	if !ok {
		return false
	}
	if !s.model.Equals(q.model) || len(s.entries) != len(q.entries) {
		return false
	}
	for _, e := range s.entries {
		_, j := q.find(e.Value)
		if j < 0 || q.entries[j].Weight != e.Weight {
			return false
		}
	}
	return true
}

func (s *WeightedSet) check(v Value) err.Error {
	if v == nil {
		return err.TypeError{Problem: "weighted set key is missing", Want: s.model.Elements}
	}
	if !v.Model().Equals(s.model.Elements) {
		return err.TypeError{
			Problem: "weighted set key does not match the set's element type",
			Want:    s.model.Elements,
			Have:    v.Model(),
		}
	}
	return nil
}

// find returns the bucket of v and its position in entries, or -1.
func (s *WeightedSet) find(v Value) (uint64, int) {
	h := keyHash(v)
	for _, i := range s.index[h] {
		if s.entries[i].Value.Equals(v) {
			return h, i
		}
	}
	return h, -1
}

func (s *WeightedSet) insert(h uint64, v Value, w int32) {
	if w == 0 && s.model.RemoveIfZero {
		return
	}
	s.index[h] = append(s.index[h], len(s.entries))
	s.entries = append(s.entries, WeightedEntry{v, w})
}

func (s *WeightedSet) assign(h uint64, i int, w int32) {
	if w == 0 && s.model.RemoveIfZero {
		s.removeAt(h, i)
		return
	}
	s.entries[i].Weight = w
}

func (s *WeightedSet) removeAt(h uint64, i int) {
	copy(s.entries[i:], s.entries[i+1:])
	s.entries[len(s.entries)-1] = WeightedEntry{}
	s.entries = s.entries[:len(s.entries)-1]
	bucket := s.index[h][:0]
	for _, j := range s.index[h] {
		if j != i {
			bucket = append(bucket, j)
		}
	}
	if len(bucket) == 0 {
		delete(s.index, h)
	} else {
		s.index[h] = bucket
	}
	for _, is := range s.index {
		for n, j := range is {
			if j > i {
				is[n] = j - 1
			}
		}
	}
}
