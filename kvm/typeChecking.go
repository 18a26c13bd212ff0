// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package kvm

import (
	"fmt"

	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/xpr"
)

// checkType returns nil if actual fits expected. Collections fit only
// when their element types and, for weighted sets, their flags match.
func checkType(actual, expected mdl.Model) err.Error {
	if mdl.Equal(actual, expected) {
		return nil
	}
	problem := "type mismatch"
	if aw, ok := actual.(mdl.WeightedSet); ok {
		if ew, ok := expected.(mdl.WeightedSet); ok && aw.Elements.Equals(ew.Elements) {
			problem = "weighted set configuration mismatch (create_if_non_existent/remove_if_zero)"
		}
	}
	return err.TypeError{Problem: problem, Want: expected, Have: actual}
}

// requireInput fails unless an expression of type x has something to consume.
func requireInput(ctx *VerificationContext, x xpr.Expression) (mdl.Model, err.Error) {
	in := ctx.CurrentType()
	if in == nil {
		return nil, err.TypeError{Problem: fmt.Sprintf("%s expects an input value", xpr.Render(x))}
	}
	return in, nil
}

// toWsetModel is the type derivation of to_wset, shared by both passes.
func toWsetModel(input mdl.Model, x xpr.ToWset) mdl.WeightedSet {
	return mdl.WeightedSetOf(input, x.CreateIfNonExistent, x.RemoveIfZero)
}

func isNumericOrString(m mdl.Model) bool {
	switch m.(type) {
	case mdl.String, mdl.Int8, mdl.Int16, mdl.Int32, mdl.Int64, mdl.Float, mdl.Bool:
		return true
	}
	return false
}

func withPath(e err.Error, a err.ErrorPathElement) err.Error {
	if p, ok := e.(err.PathedError); ok {
		return p.AppendPath(a)
	}
	return e
}
