// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

package api

import (
	"crypto/sha512"
	"net/http"
	"strings"

	"github.com/karmarun/ixl/cc"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bearerPrefix = "Bearer "

// Authenticator checks bearer API keys against bcrypt hashes. Keys that
// passed once are remembered by digest so later requests skip bcrypt.
type Authenticator struct {
	hashes   [][]byte
	log      *zap.Logger
	accepted *cc.Lru[[sha512.Size256]byte, struct{}]
}

// NewAuthenticator returns an Authenticator accepting keys matching any of
// hashes. Without hashes every request is accepted.
func NewAuthenticator(hashes []string, log *zap.Logger) (*Authenticator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Authenticator{
		hashes:   make([][]byte, 0, len(hashes)),
		log:      log,
		accepted: cc.NewLru[[sha512.Size256]byte, struct{}](256),
	}
	for _, h := range hashes {
		if _, e := bcrypt.Cost([]byte(h)); e != nil {
			return nil, e
		}
		a.hashes = append(a.hashes, []byte(h))
	}
	return a, nil
}

// HashKey returns the bcrypt hash to configure for key.
func HashKey(key string) (string, error) {
	h, e := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(h), e
}

func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.hashes) > 0
}

func (a *Authenticator) Check(key string) bool {
	digest := sha512.Sum512_256([]byte(key))
	if _, ok := a.accepted.Get(digest); ok {
		return true
	}
	for _, h := range a.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(key)) == nil {
			a.accepted.Set(digest, struct{}{})
			return true
		}
	}
	return false
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return http.HandlerFunc(func(rw http.ResponseWriter, rq *http.Request) {
		auth := rq.Header.Get("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) {
			writeJSON(rw, http.StatusUnauthorized, errorBody{Kind: "auth", Message: "authorization header must use Bearer scheme"})
			return
		}
		if !a.Check(auth[len(bearerPrefix):]) {
			a.log.Warn("rejected api key", zap.String("remote", rq.RemoteAddr))
			writeJSON(rw, http.StatusForbidden, errorBody{Kind: "auth", Message: "invalid api key"})
			return
		}
		next.ServeHTTP(rw, rq)
	})
}
