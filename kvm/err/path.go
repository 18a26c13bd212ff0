// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package err

import (
	"fmt"
	"strings"
)

type PathedError interface {
	Error
	ErrorPath() ErrorPath
	AppendPath(ErrorPathElement, ...ErrorPathElement) PathedError
}

// ErrorPath locates an error in an expression tree, innermost element first.
type ErrorPath []ErrorPathElement

func (p ErrorPath) String() string {
	out := ""
	for i := range p {
		l := p[len(p)-i-1]
		if i > 0 {
			out += "\n" + strings.Repeat("  ", i)
		}
		out += l.String()
	}
	return out
}

func (p ErrorPath) Equals(q ErrorPath) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

type ErrorPathElement interface {
	String() string
}

type ErrorPathElementStatement int

func (l ErrorPathElementStatement) String() string {
	return fmt.Sprintf(`statement %d`, int(l))
}

type ErrorPathElementExpression int

func (l ErrorPathElementExpression) String() string {
	return fmt.Sprintf(`expression %d`, int(l))
}

type ErrorPathElementField string

func (l ErrorPathElementField) String() string {
	return fmt.Sprintf(`field "%s"`, string(l))
}
