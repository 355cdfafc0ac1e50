// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vlq implements the [Variable-length quantity] encoding used by BER
// for tag numbers of 31 and above. A VLQ is a big-endian base-128
// representation of an unsigned integer where the eighth bit of each octet
// marks that more octets follow.
//
// [Variable-length quantity]: https://en.wikipedia.org/wiki/Variable-length_quantity
package vlq

import (
	"errors"
	"io"
	"math/bits"
)

// ErrOverflow indicates that an encoded VLQ does not fit into a uint.
var ErrOverflow = errors.New("vlq too large for uint")

// Read parses an unsigned VLQ from r. Every octet contributes its low 7 bits;
// the first octet with the high bit clear terminates the quantity.
//
// Leading 0x80 octets are accepted. If r returns io.EOF before the terminating
// octet, io.ErrUnexpectedEOF is returned. Other errors from r are returned
// unchanged.
func Read(r io.ByteReader) (uint, error) {
	var (
		ret     uint
		numBits int
	)
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		} else if err != nil {
			return 0, err
		}
		if numBits > 0 {
			numBits += 7
		} else {
			numBits = bits.Len8(b & 0x7f)
		}
		if numBits > bits.UintSize {
			return 0, ErrOverflow
		}
		ret = ret<<7 | uint(b&0x7f)
		if b&0x80 == 0 {
			return ret, nil
		}
	}
}

// Size returns the number of bytes needed to encode n as a VLQ.
func Size(n uint) int {
	if n == 0 {
		return 1
	}
	l := 0
	for i := n; i > 0; i >>= 7 {
		l++
	}
	return l
}

// Append appends the minimal VLQ encoding of n to b and returns the extended
// slice.
func Append(b []byte, n uint) []byte {
	for j := Size(n) - 1; j >= 0; j-- {
		c := byte(n>>(j*7)) & 0x7f
		if j > 0 {
			c |= 0x80
		}
		b = append(b, c)
	}
	return b
}
