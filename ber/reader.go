// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"math"

	"codello.dev/berview"
	"codello.dev/berview/internal/vlq"
)

// Header represents the identifier and length octets of a data value encoding
// together with its location in the input.
type Header struct {
	ID berview.Identifier

	Offset  int64 // offset of the first identifier octet
	Content int64 // offset of the first content octet
	Length  int   // number of content octets
}

// End returns the offset just past the content octets of h.
func (h Header) End() int64 {
	return h.Content + int64(h.Length)
}

// reader is a cursor into an immutable input buffer. Every byte consumed goes
// through ReadByte, which is the only place that checks for the end of the
// buffer.
type reader struct {
	buf  []byte
	pos  int
	last int // offset of the most recently attempted read
}

// ReadByte implements [io.ByteReader]. At the end of the buffer it returns
// [ErrUnexpectedEnd].
func (r *reader) ReadByte() (byte, error) {
	r.last = r.pos
	if r.pos >= len(r.buf) {
		return 0, ErrUnexpectedEnd
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// readBytes consumes the next n bytes and returns a copy of them.
func (r *reader) readBytes(n int) ([]byte, error) {
	if n > len(r.buf)-r.pos {
		r.last = len(r.buf)
		return nil, ErrUnexpectedEnd
	}
	b := make([]byte, n)
	for i := range b {
		var err error
		if b[i], err = r.ReadByte(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// readIdentifier decodes the identifier octets of a data value encoding.
func (r *reader) readIdentifier() (id berview.Identifier, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return id, err
	}
	id.Class = berview.Class(b >> 6)
	id.Constructed = b&0x20 == 0x20
	id.Tag, err = r.readTagNumber(b)
	return id, err
}

// readTagNumber returns the tag number encoded in the first identifier octet.
// If the bottom five bits of first are all set, the tag number is base-128
// encoded in the following octets.
func (r *reader) readTagNumber(first byte) (uint, error) {
	if first&0x1f != 0x1f {
		return uint(first & 0x1f), nil
	}
	n, err := vlq.Read(r)
	if errors.Is(err, vlq.ErrOverflow) {
		err = errTagNumberTooLarge
	}
	return n, err
}

// readLength decodes the length octets of a data value encoding. Only the
// definite forms are supported. The reserved octet 0xFF is rejected before any
// further octet is read.
func (r *reader) readLength() (int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b&0x80 == 0:
		return int(b), nil
	case b == 0xFF:
		return 0, ErrReservedLength
	case b == 0x80:
		return 0, ErrIndefiniteLength
	}
	l := 0
	for numBytes := int(b & 0x7f); numBytes > 0; numBytes-- {
		if b, err = r.ReadByte(); err != nil {
			return 0, err
		}
		if l > math.MaxInt>>8 {
			// We can't shift l up without overflowing.
			return 0, ErrLengthTooLarge
		}
		l = l<<8 | int(b)
	}
	return l, nil
}

// readHeader decodes the identifier and length octets at the current
// position.
func (r *reader) readHeader() (h Header, err error) {
	h.Offset = int64(r.pos)
	if h.ID, err = r.readIdentifier(); err != nil {
		return h, err
	}
	if h.Length, err = r.readLength(); err != nil {
		return h, err
	}
	h.Content = int64(r.pos)
	return h, nil
}
