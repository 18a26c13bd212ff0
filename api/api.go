// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/karmarun/ixl/codec"
	jsoncodec "github.com/karmarun/ixl/codec/json"
	"github.com/karmarun/ixl/db"
	"github.com/karmarun/ixl/kvm"
	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var version = `1.0.0`

const MaxPayloadBytes = 1 * 1024 * 1024 // 1MB

const CodecHeader = `X-Ixl-Codec`

// Server exposes a compiled program and its document store over HTTP.
type Server struct {
	program *kvm.Program
	store   *db.Store
	auth    *Authenticator
	log     *zap.Logger
}

func NewServer(program *kvm.Program, store *db.Store, auth *Authenticator, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{program: program, store: store, auth: auth, log: log}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Use(withCodec)
		r.Get("/script", s.script)
		r.Post("/process", s.process)
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.listDocuments)
			r.Post("/", s.createDocument)
			r.Get("/{id}", s.getDocument)
			r.Put("/{id}", s.putDocument)
			r.Delete("/{id}", s.deleteDocument)
		})
		r.Get("/admin/export", s.export)
	})
	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, rq *http.Request) {
		rw.Header().Set("Access-Control-Allow-Headers", rq.Header.Get("Access-Control-Request-Headers"))
		rw.Header().Set("Access-Control-Allow-Methods", rq.Header.Get("Access-Control-Request-Method"))
		rw.Header().Set("Access-Control-Allow-Origin", "*")
		if rq.Method == http.MethodOptions {
			return // CORS pre-flight
		}
		next.ServeHTTP(rw, rq)
	})
}

func (s *Server) healthz(rw http.ResponseWriter, rq *http.Request) {
	rw.WriteHeader(http.StatusOK)
	rw.Write([]byte(`ixl ` + version))
}

func (s *Server) script(rw http.ResponseWriter, rq *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(rw, "%s\n\ninput:  %s\noutput: %s\n", s.program, s.program.InputModel(), s.program.OutputModel())
}

type ctxKey uint8

const ctxKeyCodec ctxKey = iota

// withCodec selects the request codec from CodecHeader, json by default.
func withCodec(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, rq *http.Request) {
		name := rq.Header.Get(CodecHeader)
		if name == "" {
			name = jsoncodec.Name
		}
		cdc := codec.Get(name)
		if cdc == nil {
			writeJSON(rw, http.StatusBadRequest, errorBody{
				Kind:    "codec",
				Message: fmt.Sprintf(`invalid codec requested (%s header). available codecs: %s`, CodecHeader, strings.Join(codec.Available(), ", ")),
			})
			return
		}
		next.ServeHTTP(rw, rq.WithContext(contextWithCodec(rq.Context(), cdc)))
	})
}

func contextWithCodec(ctx context.Context, cdc codec.Interface) context.Context {
	return context.WithValue(ctx, ctxKeyCodec, cdc)
}

func codecFromContext(ctx context.Context) codec.Interface {
	return ctx.Value(ctxKeyCodec).(codec.Interface)
}

func payloadFromRequest(rw http.ResponseWriter, rq *http.Request) ([]byte, error) {
	defer rq.Body.Close()
	return io.ReadAll(http.MaxBytesReader(rw, rq.Body, MaxPayloadBytes))
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(v)
}

// writeError maps e onto a status code. Errors produced by the program or
// the codecs are the client's fault.
func (s *Server) writeError(rw http.ResponseWriter, e err.Error) {
	status, kind := http.StatusBadRequest, "request"
	switch err.Root(e).(type) {
	case err.CodecError:
		kind = "codec"
	case err.ExecutionError:
		status, kind = http.StatusUnprocessableEntity, "execution"
	case err.TypeError:
		status, kind = http.StatusUnprocessableEntity, "type"
	case err.ConfigurationError:
		status, kind = http.StatusInternalServerError, "configuration"
	}
	writeJSON(rw, status, errorBody{Kind: kind, Message: err.HumanReadableError{Error_: e}.String()})
}

func (s *Server) writeInternal(rw http.ResponseWriter, msg string, e error) {
	s.log.Error(msg, zap.Error(e))
	writeJSON(rw, http.StatusInternalServerError, errorBody{Kind: "internal", Message: msg})
}
