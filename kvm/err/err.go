// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package err

type Error interface {
	Error() string  // should be proxy to String() (to implement error interface)
	String() string // human readable string
	Child() Error   // may be nil
}

type ErrorList []Error

func (a ErrorList) OverMap(f func(Error) Error) ErrorList {
	for i, b := range a {
		a[i] = f(b)
	}
	return a
}

func (e ErrorList) Error() string {
	return e.String()
}
func (e ErrorList) String() string {
	out := ""
	for _, e := range e {
		out += e.String() + "\n\n"
	}
	return out
}
func (e ErrorList) Child() Error {
	return nil
}

// Unwrap exposes the list to errors.Is and errors.As.
func (e ErrorList) Unwrap() []error {
	es := make([]error, len(e))
	for i, e := range e {
		es[i] = e
	}
	return es
}

// Root follows the Child chain of e and returns its last element.
func Root(e Error) Error {
	for e != nil && e.Child() != nil {
		e = e.Child()
	}
	return e
}
