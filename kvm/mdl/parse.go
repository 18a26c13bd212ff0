// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package mdl

import (
	"fmt"
	"strings"
)

// Parse returns the Model named by s. Names are those produced by
// Model.String, plus a few aliases ("int32", "int64", "int8", "double").
// Weighted set flags follow the element type: "weightedset<string>;add;remove".
func Parse(s string) (Model, error) {
	m, rest, e := parse(strings.TrimSpace(s))
	if e != nil {
		return nil, e
	}
	if rest != "" {
		return nil, fmt.Errorf("mdl.Parse: unexpected %q after %s", rest, m)
	}
	return m, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Model {
	m, e := Parse(s)
	if e != nil {
		panic(e)
	}
	return m
}

func parse(s string) (Model, string, error) {
	name, rest := s, ""
	if i := strings.IndexAny(s, "<>;"); i >= 0 {
		name, rest = s[:i], s[i:]
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string":
		return String{}, rest, nil
	case "byte", "int8":
		return Int8{}, rest, nil
	case "int16":
		return Int16{}, rest, nil
	case "int", "int32":
		return Int32{}, rest, nil
	case "long", "int64":
		return Int64{}, rest, nil
	case "float", "double":
		return Float{}, rest, nil
	case "bool":
		return Bool{}, rest, nil
	case "raw":
		return Raw{}, rest, nil
	case "array":
		elements, rest, e := parseElements(name, rest)
		if e != nil {
			return nil, "", e
		}
		return ArrayOf(elements), rest, nil
	case "weightedset":
		elements, rest, e := parseElements(name, rest)
		if e != nil {
			return nil, "", e
		}
		m := WeightedSetOf(elements, false, false)
		for strings.HasPrefix(rest, ";") {
			attr := rest[1:]
			if i := strings.IndexAny(attr, ";>"); i >= 0 {
				attr, rest = attr[:i], attr[i:]
			} else {
				rest = ""
			}
			switch strings.ToLower(strings.TrimSpace(attr)) {
			case "add":
				m.CreateIfNonExistent = true
			case "remove":
				m.RemoveIfZero = true
			default:
				return nil, "", fmt.Errorf("mdl.Parse: unknown weightedset attribute %q", attr)
			}
		}
		return m, rest, nil
	}
	return nil, "", fmt.Errorf("mdl.Parse: unknown type %q", name)
}

func parseElements(name, s string) (Model, string, error) {
	if !strings.HasPrefix(s, "<") {
		return nil, "", fmt.Errorf("mdl.Parse: expected '<' after %s", name)
	}
	elements, rest, e := parse(s[1:])
	if e != nil {
		return nil, "", e
	}
	if !strings.HasPrefix(rest, ">") {
		return nil, "", fmt.Errorf("mdl.Parse: expected '>' to close %s", name)
	}
	return elements, rest[1:], nil
}
