// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package api

import (
	"encoding/binary"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	bincodec "github.com/karmarun/ixl/codec/binary"
	"github.com/karmarun/ixl/db"
	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/val"
	"github.com/karmarun/ixl/metrics"
	"go.uber.org/zap"
)

// run decodes the request body as an input document and executes the
// program on it. It writes the error response itself and returns nil
// on failure.
func (s *Server) run(rw http.ResponseWriter, rq *http.Request) *val.Struct {
	payload, e := payloadFromRequest(rw, rq)
	if e != nil {
		writeJSON(rw, http.StatusRequestEntityTooLarge, errorBody{Kind: "request", Message: e.Error()})
		return nil
	}
	cdc := codecFromContext(rq.Context())
	v, ke := cdc.Decode(payload, s.program.InputModel())
	if ke != nil {
		s.writeError(rw, ke)
		return nil
	}
	doc, ok := v.(*val.Struct)
	if !ok {
		s.writeError(rw, err.CodecError{Problem: "document must be a struct"})
		return nil
	}
	start := time.Now()
	out, ke := s.program.Process(doc)
	metrics.ObserveDocument(start, ke != nil)
	if ke != nil {
		s.log.Debug("document rejected", zap.Error(ke))
		s.writeError(rw, ke)
		return nil
	}
	return out
}

func (s *Server) process(rw http.ResponseWriter, rq *http.Request) {
	out := s.run(rw, rq)
	if out == nil {
		return
	}
	rw.Write(codecFromContext(rq.Context()).Encode(out))
}

func (s *Server) save(rw http.ResponseWriter, rq *http.Request, id string, status int) {
	out := s.run(rw, rq)
	if out == nil {
		return
	}
	var e error
	if rq.URL.Query().Get("merge") == "true" {
		out, e = s.store.Merge(id, out)
	} else {
		e = s.store.Put(id, out)
	}
	if e != nil {
		s.writeInternal(rw, "failed storing document", e)
		return
	}
	rw.Header().Set("Location", "/documents/"+id)
	rw.WriteHeader(status)
	rw.Write(codecFromContext(rq.Context()).Encode(out))
}

func (s *Server) createDocument(rw http.ResponseWriter, rq *http.Request) {
	s.save(rw, rq, uuid.NewString(), http.StatusCreated)
}

func (s *Server) putDocument(rw http.ResponseWriter, rq *http.Request) {
	s.save(rw, rq, chi.URLParam(rq, "id"), http.StatusOK)
}

func (s *Server) getDocument(rw http.ResponseWriter, rq *http.Request) {
	doc, e := s.store.Get(chi.URLParam(rq, "id"))
	if errors.Is(e, db.ErrNotFound) {
		writeJSON(rw, http.StatusNotFound, errorBody{Kind: "request", Message: e.Error()})
		return
	}
	if e != nil {
		s.writeInternal(rw, "failed reading document", e)
		return
	}
	rw.Write(codecFromContext(rq.Context()).Encode(doc))
}

func (s *Server) deleteDocument(rw http.ResponseWriter, rq *http.Request) {
	found, e := s.store.Delete(chi.URLParam(rq, "id"))
	if e != nil {
		s.writeInternal(rw, "failed deleting document", e)
		return
	}
	if !found {
		writeJSON(rw, http.StatusNotFound, errorBody{Kind: "request", Message: db.ErrNotFound.Error()})
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

// listDocuments streams all stored documents as {"id": ..., "document": ...}
// records. JSON records are newline separated; binary records carry a
// 4 byte big-endian length prefix since their payload may contain newlines.
func (s *Server) listDocuments(rw http.ResponseWriter, rq *http.Request) {
	cdc := codecFromContext(rq.Context())
	_, framed := cdc.(bincodec.Codec)
	if framed {
		rw.Header().Set("Content-Type", "application/octet-stream")
	} else {
		rw.Header().Set("Content-Type", "application/x-ndjson")
	}
	e := s.store.ForEach(func(id string, doc *val.Struct) bool {
		line := cdc.Encode(val.StructFromMap(map[string]val.Value{"id": val.String(id), "document": doc}))
		if framed {
			rw.Write(binary.BigEndian.AppendUint32(make([]byte, 0, 4), uint32(len(line))))
			rw.Write(line)
		} else {
			rw.Write(line)
			rw.Write([]byte{'\n'})
		}
		return rq.Context().Err() == nil
	})
	if e != nil {
		s.log.Error("listing documents failed", zap.Error(e))
	}
}
