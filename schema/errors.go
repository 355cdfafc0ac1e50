// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"errors"
	"strings"
)

var (
	ErrSyntax      = errors.New("syntax error")
	ErrUnsupported = errors.New("unsupported notation")
	ErrDuplicate   = errors.New("duplicate type definition")
	ErrUnknownType = errors.New("unknown type")
	ErrCycle       = errors.New("reference cycle")
	ErrUnresolved  = errors.New("unresolved type")
)

// Error describes a problem with a schema. Pos is the location of the problem
// in the schema source and Name the type definition it belongs to. Either may
// be empty.
type Error struct {
	Pos  Position
	Name string
	Err  error
}

func (e *Error) Error() string {
	var s strings.Builder
	s.WriteString("schema")
	if p := e.Pos.String(); p != "" {
		s.WriteString(": ")
		s.WriteString(p)
	}
	if e.Name != "" {
		s.WriteString(": ")
		s.WriteString(e.Name)
	}
	if e.Err != nil {
		s.WriteString(": ")
		s.WriteString(e.Err.Error())
	}
	return s.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
