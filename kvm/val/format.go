// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Format returns the textual form of v. Strings are returned verbatim;
// nested strings inside collections are quoted.
func Format(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	return format(v)
}

func format(v Value) string {
	switch v := v.(type) {
	case String:
		return strconv.Quote(string(v))
	case Raw:
		return base64.StdEncoding.EncodeToString(v)
	case Bool:
		return strconv.FormatBool(bool(v))
	case Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case Int8:
		return strconv.FormatInt(int64(v), 10)
	case Int16:
		return strconv.FormatInt(int64(v), 10)
	case Int32:
		return strconv.FormatInt(int64(v), 10)
	case Int64:
		return strconv.FormatInt(int64(v), 10)
	case *Array:
		es := make([]string, 0, v.Len())
		v.ForEach(func(_ int, w Value) bool {
			es = append(es, format(w))
			return true
		})
		return "[" + strings.Join(es, ", ") + "]"
	case *WeightedSet:
		es := make([]string, 0, v.Len())
		v.ForEach(func(w Value, weight int32) bool {
			es = append(es, format(w)+": "+strconv.FormatInt(int64(weight), 10))
			return true
		})
		return "{" + strings.Join(es, ", ") + "}"
	case *Struct:
		es := make([]string, 0, v.Len())
		v.ForEach(func(k string, w Value) bool {
			es = append(es, k+": "+format(w))
			return true
		})
		return "struct{" + strings.Join(es, ", ") + "}"
	}
	panic(fmt.Sprintf(`unhandled value type: %T`, v))
}
