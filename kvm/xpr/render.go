// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package xpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/karmarun/ixl/kvm/val"
)

// Render returns the source form of x. It depends on configuration only
// and is accepted by Parse.
func Render(x Expression) string {
	switch x := x.(type) {
	case Input:
		return "input " + x.Field
	case Output:
		return x.Target.String() + " " + x.Field
	case Constant:
		return renderConstant(x.Value)
	case ToWset:
		out := "to_wset"
		if x.CreateIfNonExistent {
			out += " create_if_non_existent"
		}
		if x.RemoveIfZero {
			out += " remove_if_zero"
		}
		return out
	case ToArray:
		return "to_array"
	case ToString:
		return "to_string"
	case ToInt:
		return "to_int"
	case ToLong:
		return "to_long"
	case Lowercase:
		return "lowercase"
	case Statement:
		parts := make([]string, len(x))
		for i, w := range x {
			parts[i] = Render(w)
		}
		return strings.Join(parts, " | ")
	case Script:
		out := "{ "
		for _, s := range x {
			out += Render(s) + "; "
		}
		return out + "}"
	}
	panic(fmt.Sprintf("xpr.Render: unhandled expression: %T", x))
}

func renderConstant(v val.Value) string {
	switch v := v.(type) {
	case val.String:
		return strconv.Quote(string(v))
	case val.Int32:
		return strconv.FormatInt(int64(v), 10)
	case val.Int64:
		return strconv.FormatInt(int64(v), 10) + "L"
	case val.Float:
		s := strconv.FormatFloat(float64(v), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	}
	panic(fmt.Sprintf("xpr.Render: unhandled constant: %T", v))
}
