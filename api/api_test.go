// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package api

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	bincodec "github.com/karmarun/ixl/codec/binary"
	"github.com/karmarun/ixl/db"
	"github.com/karmarun/ixl/kvm"
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/val"
	"github.com/karmarun/ixl/kvm/xpr"
	"golang.org/x/crypto/bcrypt"
)

const apiKey = "s3cret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	script, e := xpr.ParseScript("{ input color | lowercase | to_wset create_if_non_existent remove_if_zero | index colors; input title | attribute title; }")
	if e != nil {
		t.Fatal(e)
	}
	in := mdl.StructFromMap(map[string]mdl.Model{"color": mdl.String{}, "title": mdl.String{}})
	out := mdl.StructFromMap(map[string]mdl.Model{
		"colors": mdl.WeightedSetOf(mdl.String{}, true, true),
		"title":  mdl.String{},
	})
	p, e := kvm.Compile(script, in, out)
	if e != nil {
		t.Fatal(e)
	}
	store, se := db.Open(filepath.Join(t.TempDir(), "api.db"), nil)
	if se != nil {
		t.Fatal(se)
	}
	t.Cleanup(func() { store.Close() })
	hash, he := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.MinCost)
	if he != nil {
		t.Fatal(he)
	}
	auth, ae := NewAuthenticator([]string{string(hash)}, nil)
	if ae != nil {
		t.Fatal(ae)
	}
	srv := httptest.NewServer(NewServer(p, store, auth, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()
	rq, e := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if e != nil {
		t.Fatal(e)
	}
	rq.Header.Set("Authorization", bearerPrefix+apiKey)
	rs, e := srv.Client().Do(rq)
	if e != nil {
		t.Fatal(e)
	}
	defer rs.Body.Close()
	bs, _ := io.ReadAll(rs.Body)
	return rs.StatusCode, string(bs)
}

func TestDocumentLifecycle(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, http.MethodPut, "/documents/chair", `{"color": "Red", "title": "Chair"}`)
	if status != http.StatusOK {
		t.Fatalf("put: %d %s", status, body)
	}
	if d := cmp.Diff(`{"colors":{"red":1},"title":"Chair"}`, body); d != "" {
		t.Fatalf("put body (-want +have):\n%s", d)
	}

	status, body = do(t, srv, http.MethodPut, "/documents/chair?merge=true", `{"color": "RED", "title": "Big chair"}`)
	if status != http.StatusOK {
		t.Fatalf("merge: %d %s", status, body)
	}
	if d := cmp.Diff(`{"colors":{"red":2},"title":"Big chair"}`, body); d != "" {
		t.Fatalf("merge body (-want +have):\n%s", d)
	}

	status, body = do(t, srv, http.MethodGet, "/documents/chair", "")
	if status != http.StatusOK || body != `{"colors":{"red":2},"title":"Big chair"}` {
		t.Fatalf("get: %d %s", status, body)
	}

	status, body = do(t, srv, http.MethodGet, "/documents/", "")
	if status != http.StatusOK || !strings.Contains(body, `"id":"chair"`) {
		t.Fatalf("list: %d %s", status, body)
	}

	if status, _ = do(t, srv, http.MethodDelete, "/documents/chair", ""); status != http.StatusNoContent {
		t.Fatalf("delete: %d", status)
	}
	if status, _ = do(t, srv, http.MethodGet, "/documents/chair", ""); status != http.StatusNotFound {
		t.Fatalf("get deleted: %d", status)
	}
	if status, _ = do(t, srv, http.MethodDelete, "/documents/chair", ""); status != http.StatusNotFound {
		t.Fatalf("delete twice: %d", status)
	}
}

func TestCreateDocument(t *testing.T) {
	srv := newTestServer(t)
	rq, _ := http.NewRequest(http.MethodPost, srv.URL+"/documents/", strings.NewReader(`{"color": "blue"}`))
	rq.Header.Set("Authorization", bearerPrefix+apiKey)
	rs, e := srv.Client().Do(rq)
	if e != nil {
		t.Fatal(e)
	}
	rs.Body.Close()
	if rs.StatusCode != http.StatusCreated {
		t.Fatalf("status %d", rs.StatusCode)
	}
	loc := rs.Header.Get("Location")
	if !strings.HasPrefix(loc, "/documents/") || len(loc) != len("/documents/")+36 {
		t.Fatalf("location %q", loc)
	}
	if status, body := do(t, srv, http.MethodGet, loc, ""); status != http.StatusOK || body != `{"colors":{"blue":1}}` {
		t.Fatalf("get: %d %s", status, body)
	}
}

func TestProcessErrors(t *testing.T) {
	srv := newTestServer(t)
	if status, body := do(t, srv, http.MethodPost, "/process", `{"color": 1}`); status != http.StatusUnprocessableEntity {
		t.Fatalf("type mismatch: %d %s", status, body)
	}
	if status, body := do(t, srv, http.MethodPost, "/process", `{"color": `); status != http.StatusBadRequest {
		t.Fatalf("syntax error: %d %s", status, body)
	}
	if status, body := do(t, srv, http.MethodPost, "/process", `{}`); status != http.StatusOK || body != `{}` {
		t.Fatalf("empty document: %d %s", status, body)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t)
	rs, e := srv.Client().Get(srv.URL + "/script")
	if e != nil {
		t.Fatal(e)
	}
	rs.Body.Close()
	if rs.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no key: %d", rs.StatusCode)
	}
	rq, _ := http.NewRequest(http.MethodGet, srv.URL+"/script", nil)
	rq.Header.Set("Authorization", bearerPrefix+"wrong")
	rs, e = srv.Client().Do(rq)
	if e != nil {
		t.Fatal(e)
	}
	rs.Body.Close()
	if rs.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong key: %d", rs.StatusCode)
	}
	for _, path := range []string{"/healthz", "/metrics"} {
		rs, e := srv.Client().Get(srv.URL + path)
		if e != nil {
			t.Fatal(e)
		}
		rs.Body.Close()
		if rs.StatusCode != http.StatusOK {
			t.Fatalf("%s: %d", path, rs.StatusCode)
		}
	}
	if status, body := do(t, srv, http.MethodGet, "/script", ""); status != http.StatusOK || !strings.Contains(body, "to_wset create_if_non_existent remove_if_zero") {
		t.Fatalf("script: %d %s", status, body)
	}
}

func TestCodecHeader(t *testing.T) {
	srv := newTestServer(t)
	rq, _ := http.NewRequest(http.MethodPost, srv.URL+"/process", strings.NewReader(`{}`))
	rq.Header.Set("Authorization", bearerPrefix+apiKey)
	rq.Header.Set(CodecHeader, "yaml")
	rs, e := srv.Client().Do(rq)
	if e != nil {
		t.Fatal(e)
	}
	rs.Body.Close()
	if rs.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown codec: %d", rs.StatusCode)
	}
}

func TestListDocumentsBinary(t *testing.T) {
	srv := newTestServer(t)
	ids := []string{"0123456789", "chair"}
	for _, id := range ids {
		if status, body := do(t, srv, http.MethodPut, "/documents/"+id, `{"color": "red", "title": "line\nbreak"}`); status != http.StatusOK {
			t.Fatalf("put %s: %d %s", id, status, body)
		}
	}
	rq, _ := http.NewRequest(http.MethodGet, srv.URL+"/documents/", nil)
	rq.Header.Set("Authorization", bearerPrefix+apiKey)
	rq.Header.Set(CodecHeader, bincodec.Name)
	rs, e := srv.Client().Do(rq)
	if e != nil {
		t.Fatal(e)
	}
	defer rs.Body.Close()
	body, _ := io.ReadAll(rs.Body)
	if rs.StatusCode != http.StatusOK {
		t.Fatalf("list: %d", rs.StatusCode)
	}
	have := []string(nil)
	for len(body) > 0 {
		if len(body) < 4 {
			t.Fatalf("truncated length prefix: % x", body)
		}
		n := int(binary.BigEndian.Uint32(body))
		if len(body) < 4+n {
			t.Fatalf("record of %d bytes exceeds stream", n)
		}
		v, ke := bincodec.Decode(body[4:4+n], nil)
		if ke != nil {
			t.Fatal(ke)
		}
		doc, ok := v.(*val.Struct)
		if !ok {
			t.Fatalf("record is a %s", v.Model())
		}
		have = append(have, string(doc.Field("id").(val.String)))
		body = body[4+n:]
	}
	if d := cmp.Diff(ids, have); d != "" {
		t.Fatalf("ids (-want +have):\n%s", d)
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPut, "/documents/a", `{"color": "red"}`)
	status, body := do(t, srv, http.MethodGet, "/admin/export", "")
	if status != http.StatusOK {
		t.Fatalf("export: %d", status)
	}
	zr, e := zip.NewReader(bytes.NewReader([]byte(body)), int64(len(body)))
	if e != nil {
		t.Fatal(e)
	}
	if len(zr.File) != 1 || zr.File[0].Name != exportFileName {
		t.Fatalf("archive holds %v", zr.File)
	}
}
