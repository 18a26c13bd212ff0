// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package kvm

import (
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/val"
)

// VerificationContext is the cursor of one verification pass.
// It is not safe for concurrent use.
type VerificationContext struct {
	Input   mdl.Struct // declared document fields
	Output  mdl.Struct // declared output fields
	current mdl.Model
}

func NewVerificationContext(input, output mdl.Struct) *VerificationContext {
	return &VerificationContext{Input: input, Output: output}
}

// CurrentType returns the type flowing into the next expression,
// or nil at the start of a statement.
func (c *VerificationContext) CurrentType() mdl.Model {
	return c.current
}

func (c *VerificationContext) SetCurrentType(m mdl.Model) {
	c.current = m
}

// ExecutionContext is the cursor of one execution pass over one document.
// It is not safe for concurrent use.
type ExecutionContext struct {
	Input  *val.Struct
	Output *val.Struct

	// DefaultWeight is the weight to_wset gives to its single entry.
	DefaultWeight int32

	current val.Value
}

func NewExecutionContext(input *val.Struct) *ExecutionContext {
	c := &ExecutionContext{DefaultWeight: val.DefaultWeight}
	c.Reset(input)
	return c
}

// CurrentValue returns the value flowing into the next expression.
// It is nil at the start of a statement and after reading a missing field.
func (c *ExecutionContext) CurrentValue() val.Value {
	return c.current
}

func (c *ExecutionContext) SetCurrentValue(v val.Value) {
	c.current = v
}

// Reset prepares c for processing another document.
func (c *ExecutionContext) Reset(input *val.Struct) {
	if input == nil {
		input = val.NewStruct(0)
	}
	c.Input, c.Output, c.current = input, val.NewStruct(8), nil
}
