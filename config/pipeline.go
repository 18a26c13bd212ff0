// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/val"
	"github.com/karmarun/ixl/kvm/xpr"
	"gopkg.in/yaml.v3"
)

// Pipeline is the YAML pipeline file.
//
//	script: "{ input color | lowercase | to_wset create_if_non_existent | index colors; }"
//	input:
//	  color: string
//	output:
//	  colors: weightedset<string>;add
type Pipeline struct {
	Script        string            `yaml:"script"`
	Input         map[string]string `yaml:"input"`
	Output        map[string]string `yaml:"output"`
	DefaultWeight *int32            `yaml:"default_weight"`
	HTTP          HTTPConfig        `yaml:"http"`
	Auth          AuthConfig        `yaml:"auth"`
}

type HTTPConfig struct {
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// AuthConfig lists bcrypt hashes of accepted API keys. No hashes
// disables authentication.
type AuthConfig struct {
	APIKeyHashes []string `yaml:"api_key_hashes"`
}

// Load reads, defaults and validates the pipeline file at path.
// ${VAR} references are expanded from the environment.
func Load(path string) (Pipeline, error) {
	data, e := os.ReadFile(filepath.Clean(path))
	if e != nil {
		return Pipeline{}, fmt.Errorf("read pipeline %s: %w", path, e)
	}
	return Parse(data)
}

func Parse(data []byte) (Pipeline, error) {
	var p Pipeline
	if e := yaml.Unmarshal(expandEnvVars(data), &p); e != nil {
		return Pipeline{}, fmt.Errorf("parse pipeline: %w", e)
	}
	p.ApplyDefaults()
	if e := p.Validate(); e != nil {
		return Pipeline{}, fmt.Errorf("invalid pipeline: %w", e)
	}
	return p, nil
}

func (p *Pipeline) ApplyDefaults() {
	if p.DefaultWeight == nil {
		w := val.DefaultWeight
		p.DefaultWeight = &w
	}
	if p.HTTP.ReadTimeoutSec <= 0 {
		p.HTTP.ReadTimeoutSec = 10
	}
	if p.HTTP.WriteTimeoutSec <= 0 {
		p.HTTP.WriteTimeoutSec = 10
	}
	if p.HTTP.ShutdownSec <= 0 {
		p.HTTP.ShutdownSec = 10
	}
}

// Validate checks that script and schemas parse. It does not verify the
// script against the schemas.
func (p *Pipeline) Validate() error {
	if p.Script == "" {
		return fmt.Errorf("script is required")
	}
	if _, e := xpr.ParseScript(p.Script); e != nil {
		return fmt.Errorf("script: %w", e)
	}
	if len(p.Input) == 0 {
		return fmt.Errorf("input schema is required")
	}
	if len(p.Output) == 0 {
		return fmt.Errorf("output schema is required")
	}
	if _, _, e := p.Schemas(); e != nil {
		return e
	}
	return nil
}

// Schemas parses the input and output schemas.
func (p *Pipeline) Schemas() (mdl.Struct, mdl.Struct, error) {
	in, e := parseSchema("input", p.Input)
	if e != nil {
		return mdl.Struct{}, mdl.Struct{}, e
	}
	out, e := parseSchema("output", p.Output)
	if e != nil {
		return mdl.Struct{}, mdl.Struct{}, e
	}
	return in, out, nil
}

// ParsedScript returns the parsed script. It must only be called on a
// validated Pipeline.
func (p *Pipeline) ParsedScript() xpr.Script {
	s, e := xpr.ParseScript(p.Script)
	if e != nil {
		panic(e)
	}
	return s
}

func parseSchema(name string, fields map[string]string) (mdl.Struct, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := mdl.NewStruct(len(fields))
	for _, k := range keys {
		m, e := mdl.Parse(fields[k])
		if e != nil {
			return mdl.Struct{}, fmt.Errorf("%s.%s: %w", name, k, e)
		}
		s.Set(k, m)
	}
	return s, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		return []byte(os.Getenv(string(envVarPattern.FindSubmatch(m)[1])))
	})
}
