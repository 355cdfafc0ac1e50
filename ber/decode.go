// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"codello.dev/berview/schema"
)

const (
	// DefaultMaxDepth is the nesting limit of a Decoder created by NewDecoder.
	DefaultMaxDepth = 64

	// DefaultEmbeddedField is the field name that triggers embedded payload
	// decoding.
	DefaultEmbeddedField = "cdrData"

	// DefaultEmbeddedType is the type that embedded payloads are decoded as.
	DefaultEmbeddedType = "XDR-TYPE"
)

// A Decoder reads consecutive top-level data values from an input buffer.
// The buffer must not be modified while it is being decoded. Decoded objects
// do not reference the buffer.
type Decoder struct {
	// MaxDepth limits the nesting of decoded objects. Zero means no limit.
	MaxDepth int

	// EmbeddedField and EmbeddedType configure the embedded payload
	// convention. If either is empty, embedded payloads are kept as bytes.
	EmbeddedField string
	EmbeddedType  string

	// Logger receives debug messages. If nil, nothing is logged.
	Logger *slog.Logger

	reg *schema.Registry
	r   reader
}

// NewDecoder creates a Decoder for data. The registry must be resolved.
func NewDecoder(data []byte, reg *schema.Registry) *Decoder {
	return &Decoder{
		MaxDepth:      DefaultMaxDepth,
		EmbeddedField: DefaultEmbeddedField,
		EmbeddedType:  DefaultEmbeddedType,
		reg:           reg,
		r:             reader{buf: data},
	}
}

// More reports whether there is unread input.
func (d *Decoder) More() bool {
	return d.r.pos < len(d.r.buf)
}

// InputOffset returns the offset of the next top-level data value.
func (d *Decoder) InputOffset() int64 {
	return int64(d.r.pos)
}

// Decode reads the next top-level data value as the type named name. The
// identifier of a top-level element is not checked against the type. At the
// end of the input Decode returns [io.EOF]. Any other error is a
// [*SyntaxError] and leaves the decoder at an unspecified position.
func (d *Decoder) Decode(name string) (*Object, error) {
	if d.reg == nil || !d.reg.Resolved() {
		return nil, ErrUnresolvedSchema
	}
	def, ok := d.reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTypeName, name)
	}
	if !d.More() {
		return nil, io.EOF
	}
	start := d.r.pos
	obj, err := d.decodeElement(def.Type, def.Name, int64(len(d.r.buf)), 0)
	if err != nil {
		return nil, err
	}
	if d.Logger != nil {
		d.Logger.Debug("decoded data value",
			slog.String("component", "ber"),
			slog.String("type", def.Name),
			slog.Int("offset", start),
			slog.Int("length", d.r.pos-start))
	}
	return obj, nil
}

// Unmarshal decodes data as exactly one data value of the type named name.
func Unmarshal(data []byte, reg *schema.Registry, name string) (*Object, error) {
	d := NewDecoder(data, reg)
	obj, err := d.Decode(name)
	if errors.Is(err, io.EOF) {
		err = &SyntaxError{ByteOffset: 0, Field: name, Err: ErrUnexpectedEnd}
	}
	if err != nil {
		return nil, err
	}
	if d.More() {
		return nil, &SyntaxError{ByteOffset: d.InputOffset(), Field: name, Err: ErrTrailingData}
	}
	return obj, nil
}

// fail wraps err in a SyntaxError unless it already is one. Errors from deeper
// levels carry the most specific context.
func (d *Decoder) fail(offset int64, name string, t schema.Type, err error) error {
	var serr *SyntaxError
	if errors.As(err, &serr) {
		return err
	}
	serr = &SyntaxError{ByteOffset: offset, Field: name, Err: err}
	if t != nil {
		serr.Type = t.String()
	}
	return serr
}

// readHeader reads an element header and checks that the element ends no
// later than limit.
func (d *Decoder) readHeader(name string, t schema.Type, limit int64) (Header, error) {
	h, err := d.r.readHeader()
	if err != nil {
		return h, d.fail(int64(d.r.last), name, t, err)
	}
	if h.End() > int64(len(d.r.buf)) {
		return h, d.fail(int64(len(d.r.buf)), name, t, fmt.Errorf("%w: element of length %d at offset %d",
			ErrUnexpectedEnd, h.Length, h.Offset))
	}
	if h.End() > limit {
		return h, d.fail(h.Offset, name, t, fmt.Errorf("%w: element of length %d exceeds its enclosing range by %d bytes",
			ErrLengthMismatch, h.Length, h.End()-limit))
	}
	return h, nil
}

// decodeElement reads a complete element (header and content) of type t.
func (d *Decoder) decodeElement(t schema.Type, name string, limit int64, depth int) (*Object, error) {
	h, err := d.readHeader(name, t, limit)
	if err != nil {
		return nil, err
	}
	return d.decodeContent(t, name, h, depth)
}

// decodeContent decodes the content of the element described by h as type t.
// On success the cursor is exactly at the end of the element.
func (d *Decoder) decodeContent(t schema.Type, name string, h Header, depth int) (*Object, error) {
	if d.MaxDepth > 0 && depth > d.MaxDepth {
		return nil, d.fail(h.Offset, name, t, ErrTooDeep)
	}
	obj, err := d.decodeValue(t, name, h, depth)
	if err != nil {
		return nil, err
	}
	if int64(d.r.pos) != h.End() {
		return nil, d.fail(int64(d.r.pos), name, t, fmt.Errorf("%w: content ends at offset %d, element at %d",
			ErrLengthMismatch, d.r.pos, h.End()))
	}
	return obj, nil
}

// decodeField decodes the element h as the sequence field or choice
// alternative f. A tagged CHOICE is always explicitly tagged: the element h
// encloses the complete encoding of the chosen alternative, and h becomes the
// envelope of the result.
func (d *Decoder) decodeField(f *schema.Field, h Header, depth int) (*Object, error) {
	if _, ok := f.Type.(*schema.Choice); !ok || !f.Tagged() {
		return d.decodeContent(f.Type, f.Name, h, depth)
	}
	if d.MaxDepth > 0 && depth > d.MaxDepth {
		return nil, d.fail(h.Offset, f.Name, f.Type, ErrTooDeep)
	}
	obj, err := d.decodeElement(f.Type, f.Name, h.End(), depth)
	if err != nil {
		return nil, err
	}
	if int64(d.r.pos) != h.End() {
		return nil, d.fail(int64(d.r.pos), f.Name, f.Type, fmt.Errorf("%w: content ends at offset %d, element at %d",
			ErrLengthMismatch, d.r.pos, h.End()))
	}
	env := h
	obj.envelope = &env
	return obj, nil
}

func (d *Decoder) decodeValue(t schema.Type, name string, h Header, depth int) (*Object, error) {
	obj := &Object{Name: name, Type: t, Header: h}
	switch t := t.(type) {
	case *schema.Choice:
		alt := t.Alternative(h.ID)
		if alt == nil {
			return nil, d.fail(h.Offset, name, t, fmt.Errorf("%w for %s, expected one of: %s",
				ErrNoAlternative, h.ID, t.Names()))
		}
		child, err := d.decodeField(alt, h, depth+1)
		if err != nil {
			return nil, err
		}
		child.parent = obj
		obj.Value = Choice{Value: child}

	case *schema.Sequence:
		var values []*Object
		next := 0
		for int64(d.r.pos) < h.End() {
			eh, err := d.readHeader(name, t, h.End())
			if err != nil {
				return nil, err
			}
			i := next
			for i < len(t.Fields) && !t.Fields[i].Matches(eh.ID) {
				i++
			}
			if i == len(t.Fields) {
				return nil, d.fail(eh.Offset, name, t, fmt.Errorf("%w for %s", ErrNoMatchingField, eh.ID))
			}
			for _, f := range t.Fields[next:i] {
				if !f.Optional {
					return nil, d.fail(eh.Offset, name, t, fmt.Errorf("%w: %s", ErrSkippedRequired, f.Name))
				}
			}
			next = i + 1
			child, err := d.decodeField(t.Fields[i], eh, depth+1)
			if err != nil {
				return nil, err
			}
			child.parent = obj
			values = append(values, child)
		}
		obj.Value = Aggregate{Values: values}

	case *schema.List:
		var values []*Object
		for int64(d.r.pos) < h.End() {
			eh, err := d.readHeader(name, t, h.End())
			if err != nil {
				return nil, err
			}
			child, err := d.decodeContent(t.Elem, "item #"+strconv.Itoa(len(values)+1), eh, depth+1)
			if err != nil {
				return nil, err
			}
			child.parent = obj
			values = append(values, child)
		}
		obj.Value = Aggregate{Values: values}

	case *schema.Basic:
		return d.decodePrimitive(obj, t, h, depth)

	default:
		return nil, d.fail(h.Offset, name, t, ErrUnsupportedType)
	}
	return obj, nil
}

func (d *Decoder) decodePrimitive(obj *Object, t *schema.Basic, h Header, depth int) (*Object, error) {
	switch t.Kind() {
	case schema.KindBoolean:
		if h.Length != 1 {
			return nil, d.fail(h.Offset, obj.Name, t, fmt.Errorf("%w, got %d", ErrBooleanLength, h.Length))
		}
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, d.fail(int64(d.r.last), obj.Name, t, err)
		}
		obj.Value = Boolean(b != 0)

	case schema.KindInteger:
		if h.Length > 8 {
			return nil, d.fail(h.Offset, obj.Name, t, fmt.Errorf("%w, got %d", ErrIntegerTooLarge, h.Length))
		}
		b, err := d.r.readBytes(h.Length)
		if err != nil {
			return nil, d.fail(int64(d.r.last), obj.Name, t, err)
		}
		var n uint64
		for _, c := range b {
			n = n<<8 | uint64(c)
		}
		obj.Value = Integer(n)

	case schema.KindOctetString, schema.KindBitString:
		if inner, ok := d.embeddedType(obj.Name); ok {
			return d.decodeEmbedded(obj.Name, inner, h, depth)
		}
		fallthrough

	case schema.KindUTF8String, schema.KindIA5String, schema.KindPrintableString:
		b, err := d.r.readBytes(h.Length)
		if err != nil {
			return nil, d.fail(int64(d.r.last), obj.Name, t, err)
		}
		obj.Value = Bytes(b)

	default:
		return nil, d.fail(h.Offset, obj.Name, t, ErrUnsupportedType)
	}
	return obj, nil
}

func (d *Decoder) embeddedType(name string) (*schema.TypeDef, bool) {
	if d.EmbeddedField == "" || d.EmbeddedType == "" || name != d.EmbeddedField {
		return nil, false
	}
	return d.reg.Lookup(d.EmbeddedType)
}

// decodeEmbedded decodes the content of the string element h as a complete
// data value of def. The result keeps the field name and remembers h as its
// envelope.
func (d *Decoder) decodeEmbedded(name string, def *schema.TypeDef, h Header, depth int) (*Object, error) {
	obj, err := d.decodeElement(def.Type, name, h.End(), depth+1)
	if err != nil {
		return nil, err
	}
	if d.Logger != nil {
		d.Logger.Debug("decoded embedded payload",
			slog.String("component", "ber"),
			slog.String("field", name),
			slog.String("type", def.Name),
			slog.Int64("offset", h.Content))
	}
	env := h
	obj.envelope = &env
	return obj, nil
}
