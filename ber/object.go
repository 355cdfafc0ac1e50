// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"iter"
	"strings"

	"codello.dev/berview/schema"
)

// An Object is a decoded data value. Objects form a tree: compound objects
// own their children, and every child holds a reference back to its parent.
type Object struct {
	// Name is the field name under which the object was decoded, the type name
	// for top-level objects, or "item #N" for elements of a SEQUENCE OF.
	Name string

	Type   schema.Type
	Value  Value
	Header Header

	// Collapsed is presentation state. Decoded objects are expanded.
	Collapsed bool

	parent   *Object
	envelope *Header
}

// Value is the decoded content of an [Object]. It is one of [Choice],
// [Aggregate], [Integer], [Boolean] or [Bytes].
type Value interface {
	aValue()
}

// Choice is the value of a CHOICE: the selected alternative.
type Choice struct {
	Value *Object
}

// Aggregate is the value of a SEQUENCE or SEQUENCE OF, in encoding order.
type Aggregate struct {
	Values []*Object
}

// Integer is the value of an INTEGER, interpreted as unsigned big-endian.
type Integer uint64

// Boolean is the value of a BOOLEAN.
type Boolean bool

// Bytes is the raw content of a string type.
type Bytes []byte

func (Choice) aValue()    {}
func (Aggregate) aValue() {}
func (Integer) aValue()   {}
func (Boolean) aValue()   {}
func (Bytes) aValue()     {}

// Parent returns the object o was decoded as a child of, or nil for a
// top-level object.
func (o *Object) Parent() *Object {
	return o.parent
}

// Children returns the direct children of o. Leaves have no children.
func (o *Object) Children() []*Object {
	switch v := o.Value.(type) {
	case Choice:
		return []*Object{v.Value}
	case Aggregate:
		return v.Values
	}
	return nil
}

// Compound reports whether o is a CHOICE or an aggregate, regardless of the
// number of children.
func (o *Object) Compound() bool {
	switch o.Value.(type) {
	case Choice, Aggregate:
		return true
	}
	return false
}

// Envelope returns the header of the element enclosing the encoding of o.
// Embedded payloads are enclosed in the string element they were decoded
// from, and tagged CHOICE values in the element carrying the tag.
func (o *Object) Envelope() (Header, bool) {
	if o.envelope == nil {
		return Header{}, false
	}
	return *o.envelope, true
}

// Depth returns the number of ancestors of o.
func (o *Object) Depth() int {
	d := 0
	for p := o.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Path returns the names of o and its ancestors, outermost first, joined by
// dots.
func (o *Object) Path() string {
	var names []string
	for p := o; p != nil; p = p.parent {
		names = append(names, p.Name)
	}
	var b strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteString(names[i])
		if i > 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// All returns an iterator over o and its descendants in pre-order. The key is
// the depth relative to o. Children of collapsed objects are included.
func (o *Object) All() iter.Seq2[int, *Object] {
	return func(yield func(int, *Object) bool) {
		o.walk(0, yield)
	}
}

func (o *Object) walk(depth int, yield func(int, *Object) bool) bool {
	if !yield(depth, o) {
		return false
	}
	for _, c := range o.Children() {
		if !c.walk(depth+1, yield) {
			return false
		}
	}
	return true
}

// Equal reports whether o and other have the same names, types and values.
// Headers and presentation state are not compared.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.Name != other.Name || o.Type != other.Type {
		return false
	}
	switch v := o.Value.(type) {
	case Choice:
		w, ok := other.Value.(Choice)
		return ok && v.Value.Equal(w.Value)
	case Aggregate:
		w, ok := other.Value.(Aggregate)
		if !ok || len(v.Values) != len(w.Values) {
			return false
		}
		for i := range v.Values {
			if !v.Values[i].Equal(w.Values[i]) {
				return false
			}
		}
		return true
	case Bytes:
		w, ok := other.Value.(Bytes)
		return ok && bytes.Equal(v, w)
	}
	return o.Value == other.Value
}
