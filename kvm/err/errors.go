// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package err

import (
	"fmt"

	"github.com/karmarun/ixl/kvm/mdl"
)

// TypeError is raised by the verification pass when an expression
// cannot accept the type of its input.
type TypeError struct {
	Problem string
	Want    mdl.Model // may be nil
	Have    mdl.Model // nil means no input
	Path    ErrorPath
}

var _ PathedError = TypeError{}

func (e TypeError) ErrorPath() ErrorPath {
	return e.Path
}

func (e TypeError) AppendPath(a ErrorPathElement, b ...ErrorPathElement) PathedError {
	e.Path = append(append(e.Path[:len(e.Path):len(e.Path)], a), b...)
	return e
}

func (e TypeError) Error() string {
	return e.String()
}
func (e TypeError) String() string {
	out := "Type Error\n"
	out += "==========\n"
	out += e.Problem + "\n\n"
	if len(e.Path) > 0 {
		out += "Location\n"
		out += "--------\n"
		out += e.Path.String() + "\n\n"
	}
	if e.Want != nil {
		out += "Expected\n"
		out += "--------\n"
		out += e.Want.String() + "\n\n"
	}
	out += "Actual\n"
	out += "------\n"
	out += mdl.Name(e.Have) + "\n"
	return out
}
func (e TypeError) Child() Error {
	return nil
}

// ExecutionError aborts the processing of a single document.
type ExecutionError struct {
	Problem string
	Path    ErrorPath
	Child_  Error
}

var _ PathedError = ExecutionError{}

func (e ExecutionError) ErrorPath() ErrorPath {
	return e.Path
}

func (e ExecutionError) AppendPath(a ErrorPathElement, b ...ErrorPathElement) PathedError {
	e.Path = append(append(e.Path[:len(e.Path):len(e.Path)], a), b...)
	return e
}

func (e ExecutionError) Error() string {
	return e.String()
}
func (e ExecutionError) String() string {
	out := "Execution Error\n"
	out += "===============\n"
	out += e.Problem + "\n"
	if len(e.Path) > 0 {
		out += "\nLocation\n"
		out += "--------\n"
		out += e.Path.String() + "\n"
	}
	if e.Child_ != nil {
		out += "\n" + e.Child_.String()
	}
	return out
}
func (e ExecutionError) Child() Error {
	return e.Child_
}

// ConfigurationError is raised when an expression or pipeline is
// constructed from invalid settings.
type ConfigurationError struct {
	Problem string
}

func (e ConfigurationError) Error() string {
	return e.String()
}
func (e ConfigurationError) String() string {
	out := "Configuration Error\n"
	out += "===================\n"
	out += e.Problem + "\n"
	return out
}
func (e ConfigurationError) Child() Error {
	return nil
}

type OffsetError interface {
	Error
	Offset() int
	SetOffset(int) OffsetError
}

// ParseError reports malformed expression syntax.
type ParseError struct {
	Input   string
	Offset_ int
	Problem string
}

var _ OffsetError = ParseError{}

func (e ParseError) SetOffset(o int) OffsetError {
	e.Offset_ = o
	return e
}
func (e ParseError) Offset() int {
	return e.Offset_
}
func (e ParseError) Error() string {
	return e.String()
}
func (e ParseError) String() string {
	out := "Parse Error\n"
	out += "===========\n"
	out += fmt.Sprintf("%s at offset %d\n", e.Problem, e.Offset_)
	if e.Input != "" {
		out += "\n" + e.Input + "\n"
		if e.Offset_ >= 0 && e.Offset_ <= len(e.Input) {
			out += fmt.Sprintf("%*s\n", e.Offset_+1, "^")
		}
	}
	return out
}
func (e ParseError) Child() Error {
	return nil
}

// CodecError reports a failure to encode or decode a value.
type CodecError struct {
	Name    string // the name of the codec
	Offset_ int
	Problem string
	Child_  Error
}

var _ OffsetError = CodecError{}

func (e CodecError) SetOffset(o int) OffsetError {
	e.Offset_ = o
	return e
}
func (e CodecError) Offset() int {
	return e.Offset_
}
func (e CodecError) Error() string {
	return e.String()
}
func (e CodecError) String() string {
	out := "Codec Error\n"
	out += "===========\n"
	out += fmt.Sprintf("codec: %s, offset: %d\n", e.Name, e.Offset_)
	if e.Problem != "" {
		out += e.Problem + "\n"
	}
	if e.Child_ != nil {
		out += "\n" + e.Child_.String()
	}
	return out
}
func (e CodecError) Child() Error {
	return e.Child_
}

// HumanReadableError wraps another Error for presentation to end users.
type HumanReadableError struct {
	Error_ Error
}

func (e HumanReadableError) Error() string {
	return e.String()
}
func (e HumanReadableError) String() string {
	out := "Human Readable Error\n"
	out += "====================\n"
	out += e.Error_.String() + "\n"
	return out
}
func (e HumanReadableError) Child() Error {
	return e.Error_
}
