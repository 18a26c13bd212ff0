// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/karmarun/ixl/kvm/mdl"
)

const pipelineYAML = `
script: "{ input color | lowercase | to_wset create_if_non_existent | index colors; }"
input:
  color: string
output:
  colors: weightedset<string>;add
auth:
  api_key_hashes: ["${IXL_TEST_KEY_HASH}"]
`

func TestLoad(t *testing.T) {
	t.Setenv("IXL_TEST_KEY_HASH", "$2a$10$abc")
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if e := os.WriteFile(path, []byte(pipelineYAML), 0600); e != nil {
		t.Fatal(e)
	}
	p, e := Load(path)
	if e != nil {
		t.Fatal(e)
	}
	if *p.DefaultWeight != 1 || p.HTTP.ShutdownSec != 10 {
		t.Fatalf("defaults not applied: %+v", p)
	}
	if len(p.Auth.APIKeyHashes) != 1 || p.Auth.APIKeyHashes[0] != "$2a$10$abc" {
		t.Fatalf("env expansion: %v", p.Auth.APIKeyHashes)
	}
	_, out, e := p.Schemas()
	if e != nil {
		t.Fatal(e)
	}
	if want := mdl.WeightedSetOf(mdl.String{}, true, false); !out.Field("colors").Equals(want) {
		t.Fatalf("colors is %s, want %s", out.Field("colors"), want)
	}
	if len(p.ParsedScript()) != 1 {
		t.Fatal("script not parsed")
	}
}

func TestParseZeroWeight(t *testing.T) {
	p, e := Parse([]byte(pipelineYAML + "default_weight: 0\n"))
	if e != nil {
		t.Fatal(e)
	}
	if *p.DefaultWeight != 0 {
		t.Fatalf("default weight %d", *p.DefaultWeight)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"no script":    "input: {a: string}\noutput: {b: string}\n",
		"bad script":   "script: \"input a |\"\ninput: {a: string}\noutput: {b: string}\n",
		"no input":     "script: \"input a | attribute b\"\noutput: {b: string}\n",
		"bad model":    "script: \"input a | attribute b\"\ninput: {a: strang}\noutput: {b: string}\n",
		"bad wset":     "script: \"input a | attribute b\"\ninput: {a: string}\noutput: {b: \"weightedset<string>;nope\"}\n",
		"invalid yaml": "script: [",
	}
	for name, src := range cases {
		if _, e := Parse([]byte(src)); e == nil {
			t.Fatalf("%s: accepted", name)
		} else if !strings.Contains(e.Error(), "pipeline") {
			t.Fatalf("%s: unexpected error %v", name, e)
		}
	}
}
