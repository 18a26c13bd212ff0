// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package xpr defines the closed set of indexing expressions. Expressions
// are immutable values; the kvm package verifies and executes them by
// switching over their concrete types.
package xpr

import (
	"github.com/karmarun/ixl/kvm/val"
)

type Expression interface {
	Transform(f func(Expression) Expression) Expression
}

// TransformIdentity is the identity function for Expressions
func TransformIdentity(x Expression) Expression {
	return x
}

// Input reads a field of the document being processed.
type Input struct {
	Field string
}

func (x Input) Transform(f func(Expression) Expression) Expression {
	return f(x)
}

type OutputTarget uint8

const (
	TargetAttribute OutputTarget = iota
	TargetIndex
	TargetSummary
)

func (t OutputTarget) String() string {
	switch t {
	case TargetAttribute:
		return "attribute"
	case TargetIndex:
		return "index"
	case TargetSummary:
		return "summary"
	}
	return "unknown"
}

// Output stores the current value in a field of the output document.
// The current value is left untouched.
type Output struct {
	Target OutputTarget
	Field  string
}

func (x Output) Transform(f func(Expression) Expression) Expression {
	return f(x)
}

// Constant replaces the current value with a fixed primitive value.
type Constant struct {
	Value val.Value
}

func (x Constant) Transform(f func(Expression) Expression) Expression {
	return f(x)
}

// ToWset wraps the current value into a singleton weighted set. The flags
// become part of the produced weighted set type.
type ToWset struct {
	CreateIfNonExistent bool
	RemoveIfZero        bool
}

func NewToWset(createIfNonExistent, removeIfZero bool) ToWset {
	return ToWset{CreateIfNonExistent: createIfNonExistent, RemoveIfZero: removeIfZero}
}

func (x ToWset) Transform(f func(Expression) Expression) Expression {
	return f(x)
}

// ToArray wraps the current value into a singleton array.
type ToArray struct{}

func (x ToArray) Transform(f func(Expression) Expression) Expression {
	return f(x)
}

type ToString struct{}

func (x ToString) Transform(f func(Expression) Expression) Expression {
	return f(x)
}

type ToInt struct{}

func (x ToInt) Transform(f func(Expression) Expression) Expression {
	return f(x)
}

type ToLong struct{}

func (x ToLong) Transform(f func(Expression) Expression) Expression {
	return f(x)
}

type Lowercase struct{}

func (x Lowercase) Transform(f func(Expression) Expression) Expression {
	return f(x)
}

// Statement pipes the current value through its expressions left to right.
type Statement []Expression

func (x Statement) Transform(f func(Expression) Expression) Expression {
	c := make(Statement, len(x))
	for i, w := range x {
		c[i] = w.Transform(f)
	}
	return f(c)
}

// Script runs each of its statements against the same document.
type Script []Statement

func (x Script) Transform(f func(Expression) Expression) Expression {
	c := make(Script, len(x))
	for i, w := range x {
		c[i] = w.Transform(f).(Statement)
	}
	return f(c)
}

// InputFields returns the document fields read by x, in order of appearance.
func InputFields(x Expression) []string {
	return collectFields(x, func(x Expression) (string, bool) {
		if in, ok := x.(Input); ok {
			return in.Field, true
		}
		return "", false
	})
}

// OutputFields returns the fields written by x, in order of appearance.
func OutputFields(x Expression) []string {
	return collectFields(x, func(x Expression) (string, bool) {
		if out, ok := x.(Output); ok {
			return out.Field, true
		}
		return "", false
	})
}

func collectFields(x Expression, pick func(Expression) (string, bool)) []string {
	seen, fields := make(map[string]struct{}), make([]string, 0, 8)
	x.Transform(func(x Expression) Expression {
		if f, ok := pick(x); ok {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				fields = append(fields, f)
			}
		}
		return x
	})
	return fields
}
