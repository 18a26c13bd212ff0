// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package kvm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/val"
	"github.com/karmarun/ixl/kvm/xpr"
)

// Execute applies x to ctx's current value and stores the result back into
// ctx. An empty current value passes through every operator untouched.
func Execute(ctx *ExecutionContext, x xpr.Expression) err.Error {

	switch x := x.(type) {

	case xpr.Script:
		for i, s := range x {
			ctx.SetCurrentValue(nil)
			if e := Execute(ctx, s); e != nil {
				return withPath(e, err.ErrorPathElementStatement(i))
			}
		}
		ctx.SetCurrentValue(nil)
		return nil

	case xpr.Statement:
		for i, w := range x {
			if e := Execute(ctx, w); e != nil {
				return withPath(e, err.ErrorPathElementExpression(i))
			}
		}
		return nil

	case xpr.Input:
		v, _ := ctx.Input.Get(x.Field)
		ctx.SetCurrentValue(v)
		return nil

	case xpr.Output:
		if v := ctx.CurrentValue(); v != nil {
			ctx.Output.Set(x.Field, v.Copy())
		}
		return nil

	case xpr.Constant:
		ctx.SetCurrentValue(x.Value)
		return nil

	case xpr.ToWset:
		return executeToWset(ctx, x)

	case xpr.ToArray:
		in := ctx.CurrentValue()
		if in == nil {
			return nil
		}
		a := val.NewArray(mdl.ArrayOf(in.Model()))
		if e := a.Append(in); e != nil {
			return err.ExecutionError{Problem: "to_array failed", Child_: e}
		}
		ctx.SetCurrentValue(a)
		return nil

	case xpr.ToString:
		if in := ctx.CurrentValue(); in != nil {
			ctx.SetCurrentValue(val.String(val.Format(in)))
		}
		return nil

	case xpr.ToInt:
		in := ctx.CurrentValue()
		if in == nil {
			return nil
		}
		i, e := toInteger(in, 32)
		if e != nil {
			return e
		}
		ctx.SetCurrentValue(val.Int32(i))
		return nil

	case xpr.ToLong:
		in := ctx.CurrentValue()
		if in == nil {
			return nil
		}
		i, e := toInteger(in, 64)
		if e != nil {
			return e
		}
		ctx.SetCurrentValue(val.Int64(i))
		return nil

	case xpr.Lowercase:
		in := ctx.CurrentValue()
		if in == nil {
			return nil
		}
		s, ok := in.(val.String)
		if !ok {
			return err.ExecutionError{Problem: fmt.Sprintf("lowercase: expected string, got %s", in.Model())}
		}
		ctx.SetCurrentValue(val.String(strings.ToLower(string(s))))
		return nil

	}

	panic(fmt.Sprintf("kvm.Execute: unhandled expression: %T", x))
}

// executeToWset replaces the current value with a weighted set holding it
// as the single entry at the context's default weight. With remove_if_zero
// and a zero default weight the set is empty.
func executeToWset(ctx *ExecutionContext, x xpr.ToWset) err.Error {
	input := ctx.CurrentValue()
	if input == nil {
		return nil
	}
	output := val.NewWeightedSetUnit(toWsetModel(input.Model(), x), ctx.DefaultWeight)
	if e := output.Add(input); e != nil {
		return err.ExecutionError{Problem: "to_wset failed", Child_: e}
	}
	ctx.SetCurrentValue(output)
	return nil
}

func toInteger(v val.Value, bits int) (int64, err.Error) {
	lo, hi := int64(math.MinInt32), int64(math.MaxInt32)
	if bits == 64 {
		lo, hi = math.MinInt64, math.MaxInt64
	}
	var i int64
	switch v := v.(type) {
	case val.String:
		n, e := strconv.ParseInt(strings.TrimSpace(string(v)), 10, bits)
		if e != nil {
			return 0, err.ExecutionError{Problem: fmt.Sprintf("cannot convert %q to an integer", string(v))}
		}
		return n, nil
	case val.Int8:
		i = int64(v)
	case val.Int16:
		i = int64(v)
	case val.Int32:
		i = int64(v)
	case val.Int64:
		i = int64(v)
	case val.Bool:
		if v {
			i = 1
		}
	case val.Float:
		f := math.Trunc(float64(v))
		if math.IsNaN(f) || f < float64(lo) || f >= float64(hi)+1 {
			return 0, err.ExecutionError{Problem: fmt.Sprintf("float %g is out of integer range", float64(v))}
		}
		i = int64(f)
	default:
		return 0, err.ExecutionError{Problem: fmt.Sprintf("cannot convert %s to an integer", v.Model())}
	}
	if i < lo || i > hi {
		return 0, err.ExecutionError{Problem: fmt.Sprintf("%d is out of %d-bit integer range", i, bits)}
	}
	return i, nil
}
