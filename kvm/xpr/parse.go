// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package xpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/val"
)

// Parse reads a single statement ("input a | to_wset | attribute b") or a
// script ("{ stmt; stmt; }"). A bare statement is returned as Statement,
// a braced script as Script.
func Parse(src string) (Expression, err.Error) {
	p := &parser{lexer: lexer{src: src}}
	if e := p.advance(); e != nil {
		return nil, e
	}
	var x Expression
	if p.tok.kind == tokenLBrace {
		s, e := p.script()
		if e != nil {
			return nil, e
		}
		x = s
	} else {
		s, e := p.statement()
		if e != nil {
			return nil, e
		}
		x = s
	}
	if p.tok.kind != tokenEOF {
		return nil, p.errorf("unexpected %s", p.tok)
	}
	return x, nil
}

// ParseScript is like Parse but always returns a Script.
func ParseScript(src string) (Script, err.Error) {
	x, e := Parse(src)
	if e != nil {
		return nil, e
	}
	switch x := x.(type) {
	case Script:
		return x, nil
	case Statement:
		return Script{x}, nil
	}
	panic(fmt.Sprintf("xpr.ParseScript: unexpected %T", x))
}

type parser struct {
	lexer
	tok token
}

func (p *parser) advance() err.Error {
	t, e := p.next()
	if e != nil {
		return e
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) err.Error {
	return err.ParseError{Input: p.src, Offset_: p.tok.offset, Problem: fmt.Sprintf(format, args...)}
}

func (p *parser) script() (Script, err.Error) {
	if e := p.advance(); e != nil { // '{'
		return nil, e
	}
	s := make(Script, 0, 8)
	for p.tok.kind != tokenRBrace {
		if p.tok.kind == tokenSemicolon {
			if e := p.advance(); e != nil {
				return nil, e
			}
			continue
		}
		if p.tok.kind == tokenEOF {
			return nil, p.errorf("unterminated script, expected '}'")
		}
		st, e := p.statement()
		if e != nil {
			return nil, e
		}
		s = append(s, st)
		if p.tok.kind != tokenSemicolon && p.tok.kind != tokenRBrace {
			return nil, p.errorf("expected ';' or '}', got %s", p.tok)
		}
	}
	if len(s) == 0 {
		return nil, p.errorf("empty script")
	}
	return s, p.advance()
}

func (p *parser) statement() (Statement, err.Error) {
	s := make(Statement, 0, 4)
	for {
		x, e := p.expression()
		if e != nil {
			return nil, e
		}
		s = append(s, x)
		if p.tok.kind != tokenPipe {
			return s, nil
		}
		if e := p.advance(); e != nil {
			return nil, e
		}
	}
}

func (p *parser) expression() (Expression, err.Error) {
	t := p.tok
	switch t.kind {
	case tokenString:
		return Constant{val.String(t.text)}, p.advance()
	case tokenNumber:
		v, e := parseNumber(t.text)
		if e != nil {
			return nil, p.errorf("invalid number %q: %s", t.text, e)
		}
		return Constant{v}, p.advance()
	case tokenIdent:
	default:
		return nil, p.errorf("expected expression, got %s", t)
	}
	if e := p.advance(); e != nil {
		return nil, e
	}
	switch t.text {
	case "input":
		f, e := p.field()
		if e != nil {
			return nil, e
		}
		return Input{f}, nil
	case "attribute", "index", "summary":
		f, e := p.field()
		if e != nil {
			return nil, e
		}
		target := map[string]OutputTarget{"attribute": TargetAttribute, "index": TargetIndex, "summary": TargetSummary}[t.text]
		return Output{target, f}, nil
	case "to_wset":
		return p.toWset()
	case "to_array":
		return ToArray{}, nil
	case "to_string":
		return ToString{}, nil
	case "to_int":
		return ToInt{}, nil
	case "to_long":
		return ToLong{}, nil
	case "lowercase":
		return Lowercase{}, nil
	}
	return nil, err.ParseError{Input: p.src, Offset_: t.offset, Problem: fmt.Sprintf("unknown expression %q", t.text)}
}

func (p *parser) field() (string, err.Error) {
	if p.tok.kind != tokenIdent {
		return "", p.errorf("expected field name, got %s", p.tok)
	}
	f := p.tok.text
	return f, p.advance()
}

func (p *parser) toWset() (Expression, err.Error) {
	x := ToWset{}
	for p.tok.kind == tokenIdent {
		switch p.tok.text {
		case "create_if_non_existent":
			if x.CreateIfNonExistent {
				return nil, p.errorf("duplicate create_if_non_existent")
			}
			x.CreateIfNonExistent = true
		case "remove_if_zero":
			if x.RemoveIfZero {
				return nil, p.errorf("duplicate remove_if_zero")
			}
			x.RemoveIfZero = true
		default:
			return x, nil
		}
		if e := p.advance(); e != nil {
			return nil, e
		}
	}
	return x, nil
}

func parseNumber(s string) (val.Value, error) {
	if strings.HasSuffix(s, "L") || strings.HasSuffix(s, "l") {
		i, e := strconv.ParseInt(s[:len(s)-1], 10, 64)
		return val.Int64(i), e
	}
	if strings.ContainsAny(s, ".eE") {
		f, e := strconv.ParseFloat(s, 64)
		return val.Float(f), e
	}
	i, e := strconv.ParseInt(s, 10, 32)
	return val.Int32(i), e
}

type tokenKind uint8

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenPipe
	tokenSemicolon
	tokenLBrace
	tokenRBrace
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

func (t token) String() string {
	switch t.kind {
	case tokenEOF:
		return "end of input"
	case tokenString:
		return strconv.Quote(t.text)
	}
	return fmt.Sprintf("%q", t.text)
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) next() (token, err.Error) {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.src) {
		return token{tokenEOF, "", start}, nil
	}
	c := l.src[l.pos]
	switch {
	case c == '|':
		l.pos++
		return token{tokenPipe, "|", start}, nil
	case c == ';':
		l.pos++
		return token{tokenSemicolon, ";", start}, nil
	case c == '{':
		l.pos++
		return token{tokenLBrace, "{", start}, nil
	case c == '}':
		l.pos++
		return token{tokenRBrace, "}", start}, nil
	case c == '"':
		return l.string()
	case c == '-' || isDigit(c):
		l.pos++
		for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || strings.IndexByte(".eE+-Ll", l.src[l.pos]) >= 0) {
			l.pos++
		}
		return token{tokenNumber, l.src[start:l.pos], start}, nil
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{tokenIdent, l.src[start:l.pos], start}, nil
	}
	return token{}, err.ParseError{Input: l.src, Offset_: start, Problem: fmt.Sprintf("unexpected character %q", c)}
}

func (l *lexer) string() (token, err.Error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '"':
			l.pos++
			s, e := strconv.Unquote(l.src[start:l.pos])
			if e != nil {
				return token{}, err.ParseError{Input: l.src, Offset_: start, Problem: "invalid string literal"}
			}
			return token{tokenString, s, start}, nil
		}
		l.pos++
	}
	return token{}, err.ParseError{Input: l.src, Offset_: start, Problem: "unterminated string literal"}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.'
}
