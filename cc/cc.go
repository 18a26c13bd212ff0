// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package cc provides a concurrency-safe least-recently-used cache.
package cc

import (
	"sync"
)

type Lru[K comparable, V any] struct {
	store      map[K]lruItem[K, V]
	lock       *sync.Mutex
	head, tail *lruNode[K]
	cap, len   int
}

type lruItem[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

type lruNode[K comparable] struct {
	key        K
	prev, next *lruNode[K]
}

func NewLru[K comparable, V any](capacity int) *Lru[K, V] {
	if capacity < 2 {
		capacity = 2 // set evicts the tail's predecessor link
	}
	return &Lru[K, V]{
		store: make(map[K]lruItem[K, V], capacity),
		lock:  &sync.Mutex{},
		cap:   capacity,
	}
}

func (l *Lru[K, V]) Clear() {
	l.lock.Lock()
	defer l.lock.Unlock()
	for k := range l.store {
		delete(l.store, k)
	}
	l.head, l.tail, l.len = nil, nil, 0
}

func (l *Lru[K, V]) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.len
}

func (l *Lru[K, V]) Set(k K, v V) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.remove(k) // note "remove", not "Remove"
	l.set(k, v)
}

func (l *Lru[K, V]) set(k K, v V) {

	var n *lruNode[K]

	if l.len < l.cap {

		n = &lruNode[K]{k, nil, l.head}
		if l.head != nil {
			l.head.prev = n
		}
		l.head = n
		if l.tail == nil {
			l.tail = n
		}
		l.len++

	} else {

		// pop tail off
		r := l.tail
		p := r.prev
		p.next = nil
		r.prev = nil
		l.tail = p
		delete(l.store, r.key)

		// push head in
		n = &lruNode[K]{k, nil, l.head}
		l.head.prev = n
		l.head = n

	}

	l.store[k] = lruItem[K, V]{v, n}
}

func (l *Lru[K, V]) Get(k K) (V, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.get(k)
}

func (l *Lru[K, V]) get(k K) (V, bool) {

	i, b := l.store[k]

	if !b {
		return i.value, false
	}

	p := i.node.prev
	n := i.node.next

	if p == nil { // already at head
		return i.value, b
	}

	if n == nil { // at tail
		p.next = nil
		l.tail = p
	} else { // somewhere in between
		p.next = n
		n.prev = p
	}

	i.node.prev = nil
	l.head.prev = i.node
	i.node.next = l.head
	l.head = i.node

	return i.value, b
}

// Update atomically replaces the value stored under k with f(old, present).
func (l *Lru[K, V]) Update(k K, f func(V, bool) V) V {
	l.lock.Lock()
	defer l.lock.Unlock()
	old, ok := l.get(k)
	v := f(old, ok)
	l.remove(k)
	l.set(k, v)
	return v
}

func (l *Lru[K, V]) Remove(k K) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.remove(k)
}

func (l *Lru[K, V]) remove(k K) {

	i, b := l.store[k]

	if !b {
		return
	}

	delete(l.store, k)

	p := i.node.prev
	n := i.node.next

	if p == nil { // at head
		if n != nil {
			n.prev = nil
		} else {
			l.tail = nil
		}
		l.head = n
		l.len--
		return
	}

	if n == nil { // at tail
		p.next = nil
		l.tail = p
		l.len--
		return
	}

	// somewhere in between
	p.next = n
	n.prev = p
	l.len--

}
