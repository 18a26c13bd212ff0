// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package kvm

import (
	"fmt"
	"strconv"

	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/val"
	"github.com/karmarun/ixl/kvm/xpr"
)

// Program is a verified script bound to its input and output schemas.
// Programs are immutable and may be shared between goroutines.
type Program struct {
	script        xpr.Script
	input, output mdl.Struct
	defaultWeight int32
}

// Compile verifies script against the schemas. Any error aborts the
// compilation; no partially verified Program is returned.
func Compile(script xpr.Script, input, output mdl.Struct) (*Program, err.Error) {
	if e := validateScript(script); e != nil {
		return nil, e
	}
	ctx := NewVerificationContext(input, output)
	if e := Verify(ctx, script); e != nil {
		return nil, e
	}
	return &Program{
		script:        script,
		input:         input,
		output:        output,
		defaultWeight: val.DefaultWeight,
	}, nil
}

// WithDefaultWeight returns a copy of p whose to_wset expressions
// insert their entry at weight w.
func (p *Program) WithDefaultWeight(w int32) *Program {
	c := *p
	c.defaultWeight = w
	return &c
}

func (p *Program) Script() xpr.Script {
	return p.script
}

func (p *Program) InputModel() mdl.Struct {
	return p.input
}

func (p *Program) OutputModel() mdl.Struct {
	return p.output
}

func (p *Program) DefaultWeight() int32 {
	return p.defaultWeight
}

// Fingerprint identifies the program by its rendered script, schemas and
// default weight. Structurally equal programs have equal fingerprints.
func (p *Program) Fingerprint() string {
	return xpr.Render(p.script) + "\n" + p.input.String() + "\n" + p.output.String() + "\n" + strconv.Itoa(int(p.defaultWeight))
}

func (p *Program) String() string {
	return xpr.Render(p.script)
}

// Process runs the program over one document and returns the output
// document. Document fields not declared in the input schema are ignored.
func (p *Program) Process(doc *val.Struct) (*val.Struct, err.Error) {
	if e := p.checkDocument(doc); e != nil {
		return nil, e
	}
	ctx := NewExecutionContext(doc)
	ctx.DefaultWeight = p.defaultWeight
	if e := Execute(ctx, p.script); e != nil {
		return nil, e
	}
	return ctx.Output, nil
}

func (p *Program) checkDocument(doc *val.Struct) err.Error {
	if doc == nil {
		return nil
	}
	e := err.Error(nil)
	doc.ForEach(func(k string, v val.Value) bool {
		want, ok := p.input.Get(k)
		if !ok {
			return true
		}
		if !v.Model().Equals(want) {
			e = err.ExecutionError{
				Problem: fmt.Sprintf("document field %q has type %s, declared %s", k, v.Model(), want),
				Path:    err.ErrorPath{err.ErrorPathElementField(k)},
			}
			return false
		}
		return true
	})
	return e
}

func validateScript(script xpr.Script) err.Error {
	if len(script) == 0 {
		return err.ConfigurationError{Problem: "script has no statements"}
	}
	e := err.Error(nil)
	for i, s := range script {
		if len(s) == 0 {
			return err.ConfigurationError{Problem: fmt.Sprintf("statement %d is empty", i)}
		}
	}
	script.Transform(func(x xpr.Expression) xpr.Expression {
		if e != nil {
			return x
		}
		switch x := x.(type) {
		case xpr.Input:
			if x.Field == "" {
				e = err.ConfigurationError{Problem: "input without field name"}
			}
		case xpr.Output:
			if x.Field == "" {
				e = err.ConfigurationError{Problem: x.Target.String() + " without field name"}
			}
		case xpr.Constant:
			switch x.Value.(type) {
			case nil:
				e = err.ConfigurationError{Problem: "constant without value"}
			case val.String, val.Int32, val.Int64, val.Float:
			default:
				// only these have a script syntax
				e = err.ConfigurationError{Problem: fmt.Sprintf("constant of type %s cannot be rendered", x.Value.Model())}
			}
		}
		return x
	})
	return e
}
