// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"strconv"
)

var (
	ErrUnexpectedEnd     = errors.New("unexpected end of input")
	ErrReservedLength    = errors.New("reserved length octet 0xFF")
	ErrIndefiniteLength  = errors.New("indefinite length not supported")
	ErrLengthTooLarge    = errors.New("length too large")
	ErrLengthMismatch    = errors.New("length mismatch")
	ErrNoAlternative     = errors.New("no matching alternative")
	ErrNoMatchingField   = errors.New("no matching field")
	ErrSkippedRequired   = errors.New("non-optional field skipped")
	ErrBooleanLength     = errors.New("BOOLEAN must be exactly one byte")
	ErrIntegerTooLarge   = errors.New("INTEGER longer than 8 bytes")
	ErrUnsupportedType   = errors.New("type not supported")
	ErrTooDeep           = errors.New("maximum nesting depth exceeded")
	ErrTrailingData      = errors.New("extra data after data value encoding")
	ErrUnknownTypeName   = errors.New("unknown type name")
	ErrUnresolvedSchema  = errors.New("schema registry is not resolved")
	ErrNotReencodable    = errors.New("object cannot be encoded")
	errTagNumberTooLarge = errors.New("tag number too large")
)

// A SyntaxError describes a failure to decode the input against the schema.
// Every decoding error is fatal: the decoder does not attempt to resynchronize
// after a malformed element.
type SyntaxError struct {
	// ByteOffset is the location of the error in the input. It is usually the
	// offset of the byte that could not be consumed, or the end of the element
	// whose content did not add up.
	ByteOffset int64

	Field string // name of the field being decoded, may be empty
	Type  string // schema type of the field, may be empty
	Err   error  // underlying error
}

func (e *SyntaxError) Error() string {
	b := []byte("ber: syntax error at offset ")
	b = strconv.AppendInt(b, e.ByteOffset, 10)
	if e.Field != "" {
		b = append(b, " decoding "...)
		b = append(b, e.Field...)
		if e.Type != "" {
			b = append(b, " ("...)
			b = append(b, e.Type...)
			b = append(b, ')')
		}
	}
	if e.Err != nil {
		b = append(b, ": "...)
		b = append(b, e.Err.Error()...)
	}
	return string(b)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
