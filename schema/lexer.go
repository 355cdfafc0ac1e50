// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"strconv"
)

type tokenType uint8

const (
	tokEOF tokenType = iota
	tokIdent
	tokNumber
	tokString
	tokAssign   // ::=
	tokEllipsis // ...
	tokRange    // ..
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokComma
	tokPunct // any other single character
)

type token struct {
	typ  tokenType
	text string
	pos  Position
}

func (t token) String() string {
	switch t.typ {
	case tokEOF:
		return "end of file"
	case tokString:
		return strconv.Quote(t.text)
	}
	return "'" + t.text + "'"
}

// lexer splits schema source into tokens. Comments start with -- and end at
// the next -- or at the end of the line, or are enclosed in /* */.
type lexer struct {
	src  []byte
	file string
	off  int
	line int
	col  int
}

func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_' }
func isDigit(c byte) bool  { return '0' <= c && c <= '9' }

// tokenize returns all tokens of src, terminated by a tokEOF token.
func tokenize(file string, src []byte) ([]token, error) {
	l := &lexer{src: src, file: file, line: 1, col: 1}
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.typ == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) pos() Position {
	return Position{File: l.file, Line: l.line, Col: l.col}
}

func (l *lexer) peek(i int) byte {
	if l.off+i < len(l.src) {
		return l.src[l.off+i]
	}
	return 0
}

func (l *lexer) advance(n int) {
	for ; n > 0 && l.off < len(l.src); n-- {
		if l.src[l.off] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.off++
	}
}

func (l *lexer) errorf(p Position, format string, args ...any) error {
	return &Error{Pos: p, Err: fmt.Errorf("%w: "+format, append([]any{ErrSyntax}, args...)...)}
}

// skipSpace skips white space and comments.
func (l *lexer) skipSpace() error {
	for l.off < len(l.src) {
		c := l.peek(0)
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f':
			l.advance(1)
		case c == '-' && l.peek(1) == '-':
			l.advance(2)
			for l.off < len(l.src) && l.peek(0) != '\n' {
				if l.peek(0) == '-' && l.peek(1) == '-' {
					l.advance(2)
					break
				}
				l.advance(1)
			}
		case c == '/' && l.peek(1) == '*':
			start := l.pos()
			l.advance(2)
			for !(l.peek(0) == '*' && l.peek(1) == '/') {
				if l.off >= len(l.src) {
					return l.errorf(start, "unterminated comment")
				}
				l.advance(1)
			}
			l.advance(2)
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	p := l.pos()
	if l.off >= len(l.src) {
		return token{typ: tokEOF, pos: p}, nil
	}
	start := l.off
	c := l.peek(0)
	switch {
	case isLetter(c):
		for {
			c = l.peek(0)
			if isLetter(c) || isDigit(c) {
				l.advance(1)
			} else if c == '-' && (isLetter(l.peek(1)) || isDigit(l.peek(1))) {
				l.advance(1)
			} else {
				break
			}
		}
		return token{tokIdent, string(l.src[start:l.off]), p}, nil
	case isDigit(c):
		for isDigit(l.peek(0)) {
			l.advance(1)
		}
		return token{tokNumber, string(l.src[start:l.off]), p}, nil
	case c == '"':
		l.advance(1)
		var s []byte
		for {
			if l.off >= len(l.src) {
				return token{}, l.errorf(p, "unterminated string")
			}
			c = l.peek(0)
			l.advance(1)
			if c == '"' {
				if l.peek(0) != '"' {
					break
				}
				l.advance(1)
			}
			s = append(s, c)
		}
		return token{tokString, string(s), p}, nil
	case c == '\'':
		// bstring or hstring: '0101'B, 'CAFE'H
		l.advance(1)
		for l.off < len(l.src) && l.peek(0) != '\'' {
			l.advance(1)
		}
		if l.off >= len(l.src) {
			return token{}, l.errorf(p, "unterminated string")
		}
		l.advance(1)
		if isLetter(l.peek(0)) {
			l.advance(1)
		}
		return token{tokString, string(l.src[start:l.off]), p}, nil
	case c == ':' && l.peek(1) == ':' && l.peek(2) == '=':
		l.advance(3)
		return token{tokAssign, "::=", p}, nil
	case c == '.' && l.peek(1) == '.' && l.peek(2) == '.':
		l.advance(3)
		return token{tokEllipsis, "...", p}, nil
	case c == '.' && l.peek(1) == '.':
		l.advance(2)
		return token{tokRange, "..", p}, nil
	}
	l.advance(1)
	typ := tokPunct
	switch c {
	case '{':
		typ = tokLBrace
	case '}':
		typ = tokRBrace
	case '[':
		typ = tokLBracket
	case ']':
		typ = tokRBracket
	case '(':
		typ = tokLParen
	case ')':
		typ = tokRParen
	case ',':
		typ = tokComma
	}
	return token{typ, string(c), p}, nil
}
