// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"fmt"

	"codello.dev/berview"
	"codello.dev/berview/internal/vlq"
)

// Marshal returns the BER encoding of the tree rooted at o. Lengths are
// encoded in the shortest definite form, INTEGER values use the minimal
// number of octets and BOOLEAN true is encoded as 0xFF, so the result is not
// necessarily identical to the input o was decoded from. Decoding the result
// with the same schema yields a tree that is [Object.Equal] to o.
func Marshal(o *Object) ([]byte, error) {
	return appendElement(nil, o)
}

// appendElement appends the complete encoding of o to b.
func appendElement(b []byte, o *Object) ([]byte, error) {
	if o.envelope != nil {
		inner, err := appendBare(nil, o)
		if err != nil {
			return nil, err
		}
		b = appendHeader(b, o.envelope.ID, len(inner))
		return append(b, inner...), nil
	}
	return appendBare(b, o)
}

// sharesElement reports whether the alternative c of the choice o was
// decoded from the same element as o, rather than from an element nested in
// it.
func sharesElement(o, c *Object) bool {
	if c == nil {
		return false
	}
	if c.envelope != nil {
		return *c.envelope == o.Header
	}
	return c.Header == o.Header
}

// appendBare appends the header of o and its content, ignoring any envelope.
func appendBare(b []byte, o *Object) ([]byte, error) {
	if c, ok := o.Value.(Choice); ok && sharesElement(o, c.Value) {
		return appendElement(b, c.Value)
	}
	content, err := appendContent(nil, o)
	if err != nil {
		return nil, err
	}
	b = appendHeader(b, o.Header.ID, len(content))
	return append(b, content...), nil
}

func appendContent(b []byte, o *Object) ([]byte, error) {
	var err error
	switch v := o.Value.(type) {
	case Choice:
		if v.Value == nil {
			return nil, fmt.Errorf("%w: %s has no alternative", ErrNotReencodable, o.Name)
		}
		return appendElement(b, v.Value)
	case Aggregate:
		for _, c := range v.Values {
			if b, err = appendElement(b, c); err != nil {
				return nil, err
			}
		}
		return b, nil
	case Integer:
		return appendUint(b, uint64(v)), nil
	case Boolean:
		if v {
			return append(b, 0xff), nil
		}
		return append(b, 0x00), nil
	case Bytes:
		return append(b, v...), nil
	}
	return nil, fmt.Errorf("%w: %s has no value", ErrNotReencodable, o.Name)
}

// appendHeader appends identifier and length octets. The length uses the
// short form if possible and the shortest long form otherwise.
func appendHeader(b []byte, id berview.Identifier, length int) []byte {
	first := byte(id.Class) << 6
	if id.Constructed {
		first |= 0x20
	}
	if id.Tag < 31 {
		b = append(b, first|byte(id.Tag))
	} else {
		b = append(b, first|0x1f)
		b = vlq.Append(b, id.Tag)
	}

	if length < 128 {
		return append(b, byte(length))
	}
	n := 0
	for l := length; l > 0; l >>= 8 {
		n++
	}
	b = append(b, 0x80|byte(n))
	for ; n > 0; n-- {
		b = append(b, byte(length>>(8*(n-1))))
	}
	return b
}

// appendUint appends n as unsigned big-endian integer using at least one
// octet.
func appendUint(b []byte, n uint64) []byte {
	size := 1
	for m := n >> 8; m > 0; m >>= 8 {
		size++
	}
	for ; size > 0; size-- {
		b = append(b, byte(n>>(8*(size-1))))
	}
	return b
}
