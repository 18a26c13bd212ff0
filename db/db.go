// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package db

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/karmarun/ixl/codec/binary"
	"github.com/karmarun/ixl/definitions"
	"github.com/karmarun/ixl/kvm"
	"github.com/karmarun/ixl/kvm/val"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	InitialMmapSize = 1024 * 1024 * 16 // 16MB
	Perm            = 0600
)

var (
	ErrNotFound       = errors.New("document not found")
	ErrProgramChanged = errors.New("database was written by a different program")
)

// Store persists processed output documents keyed by document id.
// It is safe for concurrent use.
type Store struct {
	bolt *bolt.DB
	log  *zap.Logger
}

func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b, e := bolt.Open(path, Perm, &bolt.Options{
		InitialMmapSize: InitialMmapSize,
		Timeout:         time.Second * 3,
	})
	if e != nil {
		return nil, fmt.Errorf("open %s: %w", path, e)
	}
	e = b.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{definitions.DocumentBucketBytes, definitions.MetaBucketBytes} {
			if _, e := tx.CreateBucketIfNotExists(name); e != nil {
				return e
			}
		}
		return nil
	})
	if e != nil {
		b.Close()
		return nil, fmt.Errorf("initialize %s: %w", path, e)
	}
	log.Info("database opened", zap.String("path", path))
	return &Store{bolt: b, log: log}, nil
}

// Bind records p as the program owning the stored documents. Binding a
// store written by a structurally different program fails with
// ErrProgramChanged unless reset is set, in which case all documents
// are dropped.
func (s *Store) Bind(p *kvm.Program, reset bool) error {
	fingerprint := []byte(p.Fingerprint())
	return s.bolt.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(definitions.MetaBucketBytes)
		old := meta.Get(definitions.ProgramKeyBytes)
		if old != nil && string(old) != string(fingerprint) {
			if !reset {
				return ErrProgramChanged
			}
			if e := tx.DeleteBucket(definitions.DocumentBucketBytes); e != nil {
				return e
			}
			if _, e := tx.CreateBucket(definitions.DocumentBucketBytes); e != nil {
				return e
			}
			s.log.Warn("program changed, stored documents dropped")
		}
		return meta.Put(definitions.ProgramKeyBytes, fingerprint)
	})
}

// Put stores doc under id, replacing any previous document.
func (s *Store) Put(id string, doc *val.Struct) error {
	return s.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(definitions.DocumentBucketBytes).Put([]byte(id), binary.Encode(doc))
	})
}

// Get returns the document stored under id or ErrNotFound.
func (s *Store) Get(id string) (*val.Struct, error) {
	var doc *val.Struct
	e := s.bolt.View(func(tx *bolt.Tx) error {
		d, e := s.get(tx, id)
		doc = d
		return e
	})
	return doc, e
}

func (s *Store) get(tx *bolt.Tx, id string) (*val.Struct, error) {
	bs := tx.Bucket(definitions.DocumentBucketBytes).Get([]byte(id))
	if bs == nil {
		return nil, ErrNotFound
	}
	v, e := binary.Decode(bs, nil)
	if e != nil {
		return nil, fmt.Errorf("document %s: %w", id, e)
	}
	doc, ok := v.(*val.Struct)
	if !ok {
		return nil, fmt.Errorf("document %s: stored value is a %s", id, v.Model())
	}
	return doc, nil
}

// Merge folds update into the document stored under id and returns the
// result. Weighted set fields are merged entry by entry with Increment,
// so the field's create_if_non_existent and remove_if_zero settings
// apply. All other fields are replaced. A missing document is created.
func (s *Store) Merge(id string, update *val.Struct) (*val.Struct, error) {
	var merged *val.Struct
	e := s.bolt.Update(func(tx *bolt.Tx) error {
		doc, e := s.get(tx, id)
		if errors.Is(e, ErrNotFound) {
			doc, e = val.NewStruct(update.Len()), nil
		}
		if e != nil {
			return e
		}
		if e := mergeInto(doc, update); e != nil {
			return fmt.Errorf("document %s: %w", id, e)
		}
		merged = doc
		return tx.Bucket(definitions.DocumentBucketBytes).Put([]byte(id), binary.Encode(doc))
	})
	if e != nil {
		return nil, e
	}
	return merged, nil
}

func mergeInto(doc, update *val.Struct) error {
	var e error
	update.ForEach(func(k string, v val.Value) bool {
		ws, ok := v.(*val.WeightedSet)
		if !ok {
			doc.Set(k, v.Copy())
			return true
		}
		old, ok := doc.Field(k).(*val.WeightedSet)
		if !ok || !old.Model().Equals(ws.Model()) {
			doc.Set(k, ws.Copy())
			return true
		}
		ws.ForEach(func(w val.Value, weight int32) bool {
			if _, ie := old.Increment(w, weight); ie != nil {
				e = ie
				return false
			}
			return true
		})
		return e == nil
	})
	return e
}

// Delete removes the document stored under id and reports wether it existed.
func (s *Store) Delete(id string) (bool, error) {
	found := false
	e := s.bolt.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(definitions.DocumentBucketBytes)
		found = b.Get([]byte(id)) != nil
		return b.Delete([]byte(id))
	})
	return found, e
}

// Len returns the number of stored documents.
func (s *Store) Len() (int, error) {
	n := 0
	e := s.bolt.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(definitions.DocumentBucketBytes).Stats().KeyN
		return nil
	})
	return n, e
}

// ForEach calls f for every stored document in id order until f returns false.
func (s *Store) ForEach(f func(id string, doc *val.Struct) bool) error {
	return s.bolt.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(definitions.DocumentBucketBytes).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			doc, e := s.get(tx, string(k))
			if e != nil {
				return e
			}
			if !f(string(k), doc) {
				return nil
			}
		}
		return nil
	})
}

// WriteTo writes a consistent snapshot of the database file to w.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	var n int64
	e := s.bolt.View(func(tx *bolt.Tx) error {
		m, e := tx.WriteTo(w)
		n = m
		return e
	})
	return n, e
}

func (s *Store) Close() error {
	if e := s.bolt.Close(); e != nil {
		return e
	}
	s.log.Info("database closed")
	return nil
}
