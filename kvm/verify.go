// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package kvm

import (
	"fmt"

	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/xpr"
)

// Verify derives the type x produces from ctx's current type and stores it
// back into ctx. No values are read. The first type error aborts the walk.
func Verify(ctx *VerificationContext, x xpr.Expression) err.Error {

	switch x := x.(type) {

	case xpr.Script:
		for i, s := range x {
			ctx.SetCurrentType(nil)
			if e := Verify(ctx, s); e != nil {
				return withPath(e, err.ErrorPathElementStatement(i))
			}
		}
		ctx.SetCurrentType(nil)
		return nil

	case xpr.Statement:
		for i, w := range x {
			if e := Verify(ctx, w); e != nil {
				return withPath(e, err.ErrorPathElementExpression(i))
			}
		}
		return nil

	case xpr.Input:
		m, ok := ctx.Input.Get(x.Field)
		if !ok {
			return err.TypeError{
				Problem: fmt.Sprintf("input field %q is not declared", x.Field),
				Path:    err.ErrorPath{err.ErrorPathElementField(x.Field)},
			}
		}
		ctx.SetCurrentType(m)
		return nil

	case xpr.Output:
		want, ok := ctx.Output.Get(x.Field)
		if !ok {
			return err.TypeError{
				Problem: fmt.Sprintf("%s field %q is not declared", x.Target, x.Field),
				Have:    ctx.CurrentType(),
				Path:    err.ErrorPath{err.ErrorPathElementField(x.Field)},
			}
		}
		have, e := requireInput(ctx, x)
		if e != nil {
			return e
		}
		if e := checkType(have, want); e != nil {
			return withPath(e, err.ErrorPathElementField(x.Field))
		}
		return nil

	case xpr.Constant:
		ctx.SetCurrentType(x.Value.Model())
		return nil

	case xpr.ToWset:
		in, e := requireInput(ctx, x)
		if e != nil {
			return e
		}
		ctx.SetCurrentType(toWsetModel(in, x))
		return nil

	case xpr.ToArray:
		in, e := requireInput(ctx, x)
		if e != nil {
			return e
		}
		ctx.SetCurrentType(mdl.ArrayOf(in))
		return nil

	case xpr.ToString:
		if _, e := requireInput(ctx, x); e != nil {
			return e
		}
		ctx.SetCurrentType(mdl.String{})
		return nil

	case xpr.ToInt, xpr.ToLong:
		in, e := requireInput(ctx, x)
		if e != nil {
			return e
		}
		if !isNumericOrString(in) {
			return err.TypeError{
				Problem: fmt.Sprintf("%s expects a numeric or string input", xpr.Render(x)),
				Have:    in,
			}
		}
		if _, ok := x.(xpr.ToInt); ok {
			ctx.SetCurrentType(mdl.Int32{})
		} else {
			ctx.SetCurrentType(mdl.Int64{})
		}
		return nil

	case xpr.Lowercase:
		in, e := requireInput(ctx, x)
		if e != nil {
			return e
		}
		if e := checkType(in, mdl.String{}); e != nil {
			return e
		}
		return nil

	}

	panic(fmt.Sprintf("kvm.Verify: unhandled expression: %T", x))
}
