// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"codello.dev/berview"
	"codello.dev/berview/schema"
)

const testSchema = `
Msg ::= SEQUENCE {
	id   INTEGER,
	name IA5String OPTIONAL
}

Req ::= SEQUENCE {
	a [0] INTEGER,
	b [1] INTEGER
}

C ::= CHOICE {
	a [0] INTEGER,
	b [1] BOOLEAN
}

Inner ::= CHOICE {
	x [0] INTEGER,
	y [1] INTEGER
}

Outer ::= SEQUENCE {
	c [2] Inner,
	n INTEGER
}

S ::= SEQUENCE {
	v CHOICE { i INTEGER, s IA5String }
}

L ::= SEQUENCE OF INTEGER

H ::= SEQUENCE { f [200] INTEGER }

B ::= SEQUENCE { b BOOLEAN }

N ::= SEQUENCE { n NULL }

I ::= INTEGER

Rec ::= SEQUENCE {
	id      INTEGER,
	cdrData [0] OCTET STRING OPTIONAL
}

XDR-TYPE ::= SEQUENCE { n INTEGER }
`

func mustRegistry(t *testing.T, src string) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	if err := reg.Load("test.asn", []byte(src)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := reg.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return reg
}

// summary renders the names and values of a tree on a single line.
func summary(o *Object) string {
	var b strings.Builder
	writeSummary(&b, o)
	return b.String()
}

func writeSummary(b *strings.Builder, o *Object) {
	b.WriteString(o.Name)
	switch v := o.Value.(type) {
	case Choice:
		b.WriteByte('<')
		writeSummary(b, v.Value)
		b.WriteByte('>')
	case Aggregate:
		b.WriteByte('{')
		for i, c := range v.Values {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeSummary(b, c)
		}
		b.WriteByte('}')
	case Integer:
		b.WriteString("=" + strconv.FormatUint(uint64(v), 10))
	case Boolean:
		b.WriteString("=" + strconv.FormatBool(bool(v)))
	case Bytes:
		fmt.Fprintf(b, "=%X", []byte(v))
	}
}

func TestUnmarshal(t *testing.T) {
	reg := mustRegistry(t, testSchema)
	tests := map[string]struct {
		typ  string
		data []byte
		want string
	}{
		"OptionalPresent": {"Msg", []byte{0x30, 0x05, 0x02, 0x01, 0x2A, 0x16, 0x00}, "Msg{id=42 name=}"},
		"OptionalAbsent":  {"Msg", []byte{0x30, 0x03, 0x02, 0x01, 0x2A}, "Msg{id=42}"},
		"EmptySequence":   {"Msg", []byte{0x30, 0x00}, "Msg{}"},
		"Choice":          {"C", []byte{0x81, 0x01, 0xFF}, "C<b=true>"},
		"TaggedChoice":    {"Outer", []byte{0x30, 0x08, 0xA2, 0x03, 0x81, 0x01, 0x07, 0x02, 0x01, 0x05}, "Outer{c<y=7> n=5}"},
		"UntaggedChoice":  {"S", []byte{0x30, 0x03, 0x16, 0x01, 0x41}, "S{v<s=41>}"},
		"List":            {"L", []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02}, "L{item #1=1 item #2=2}"},
		"EmptyList":       {"L", []byte{0x30, 0x00}, "L{}"},
		"HighTagNumber":   {"H", []byte{0x30, 0x05, 0x9F, 0x81, 0x48, 0x01, 0x2A}, "H{f=42}"},
		"ClassIgnored":    {"Req", []byte{0x30, 0x06, 0x40, 0x01, 0x01, 0xC1, 0x01, 0x02}, "Req{a=1 b=2}"},
		"BooleanFalse":    {"B", []byte{0x30, 0x03, 0x01, 0x01, 0x00}, "B{b=false}"},
		"LongLength":      {"Msg", []byte{0x30, 0x81, 0x03, 0x02, 0x01, 0x2A}, "Msg{id=42}"},
		"IntegerZero":     {"I", []byte{0x02, 0x00}, "I=0"},
		"IntegerMax":      {"I", []byte{0x02, 0x08, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, "I=18446744073709551615"},
		"TopLevelTag":     {"I", []byte{0x85, 0x01, 0x07}, "I=7"},
		"Embedded":        {"Rec", []byte{0x30, 0x0A, 0x02, 0x01, 0x01, 0x80, 0x05, 0x30, 0x03, 0x02, 0x01, 0x09}, "Rec{id=1 cdrData{n=9}}"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Unmarshal(tt.data, reg, tt.typ)
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, summary(got)); diff != "" {
				t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshal_Object(t *testing.T) {
	reg := mustRegistry(t, testSchema)
	msg, _ := reg.Lookup("Msg")
	got, err := Unmarshal([]byte{0x30, 0x05, 0x02, 0x01, 0x2A, 0x16, 0x00}, reg, "Msg")
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := &Object{
		Name:   "Msg",
		Type:   msg.Type,
		Header: Header{berview.Universal(berview.TagSequence, true), 0, 2, 5},
		Value: Aggregate{Values: []*Object{
			{Name: "id", Type: schema.Integer, Header: Header{berview.Universal(berview.TagInteger, false), 2, 4, 1}, Value: Integer(42)},
			{Name: "name", Type: schema.IA5String, Header: Header{berview.Universal(berview.TagIA5String, false), 5, 7, 0}, Value: Bytes{}},
		}},
	}
	opts := cmp.Options{
		cmpopts.IgnoreUnexported(Object{}),
		cmp.Comparer(func(a, b schema.Type) bool { return a == b }),
	}
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
	}
	for _, c := range got.Children() {
		if c.Parent() != got {
			t.Errorf("%s.Parent() = %v, want root", c.Name, c.Parent())
		}
	}
	if p := got.Children()[1].Path(); p != "Msg.name" {
		t.Errorf("Path() = %q, want %q", p, "Msg.name")
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	reg := mustRegistry(t, testSchema)
	tests := map[string]struct {
		typ        string
		data       []byte
		wantErr    error
		wantOffset int64
	}{
		"SkippedRequired":  {"Req", []byte{0x30, 0x03, 0x81, 0x01, 0x05}, ErrSkippedRequired, 2},
		"NoMatchingField":  {"Req", []byte{0x30, 0x03, 0x82, 0x01, 0x05}, ErrNoMatchingField, 2},
		"OutOfOrder":       {"Req", []byte{0x30, 0x06, 0x81, 0x01, 0x05, 0x80, 0x01, 0x05}, ErrSkippedRequired, 2},
		"NoAlternative":    {"C", []byte{0x82, 0x01, 0x00}, ErrNoAlternative, 0},
		"BooleanLength":    {"B", []byte{0x30, 0x04, 0x01, 0x02, 0x00, 0x00}, ErrBooleanLength, 2},
		"IntegerTooLarge":  {"I", []byte{0x02, 0x09, 0, 0, 0, 0, 0, 0, 0, 0, 1}, ErrIntegerTooLarge, 0},
		"ChildTooLong":     {"Msg", []byte{0x30, 0x03, 0x02, 0x02, 0x2A, 0x00}, ErrLengthMismatch, 2},
		"WrapperTooLong":   {"Outer", []byte{0x30, 0x09, 0xA2, 0x04, 0x81, 0x01, 0x07, 0x00, 0x02, 0x01, 0x05}, ErrLengthMismatch, 7},
		"EmbeddedTooShort": {"Rec", []byte{0x30, 0x0B, 0x02, 0x01, 0x01, 0x80, 0x06, 0x30, 0x03, 0x02, 0x01, 0x09, 0x00}, ErrLengthMismatch, 12},
		"Truncated":        {"Msg", []byte{0x30, 0x05, 0x02, 0x01}, ErrUnexpectedEnd, 4},
		"TruncatedHeader":  {"Msg", []byte{0x30}, ErrUnexpectedEnd, 1},
		"ReservedLength":   {"Msg", []byte{0x30, 0xFF, 0x02, 0x01, 0x2A}, ErrReservedLength, 1},
		"IndefiniteLength": {"Msg", []byte{0x30, 0x80, 0x02, 0x01, 0x2A, 0x00, 0x00}, ErrIndefiniteLength, 1},
		"TrailingData":     {"Msg", []byte{0x30, 0x03, 0x02, 0x01, 0x2A, 0x00}, ErrTrailingData, 5},
		"Empty":            {"Msg", nil, ErrUnexpectedEnd, 0},
		"UnsupportedType":  {"N", []byte{0x30, 0x02, 0x05, 0x00}, ErrUnsupportedType, 2},
		"UnknownType":      {"Nope", []byte{0x30, 0x00}, ErrUnknownTypeName, -1},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal(tt.data, reg, tt.typ)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Unmarshal() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantOffset < 0 {
				return
			}
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("Unmarshal() error = %T, want *SyntaxError", err)
			}
			if serr.ByteOffset != tt.wantOffset {
				t.Errorf("Unmarshal() error offset = %d, want %d", serr.ByteOffset, tt.wantOffset)
			}
		})
	}
}

func TestSyntaxError_Error(t *testing.T) {
	reg := mustRegistry(t, testSchema)
	_, err := Unmarshal([]byte{0x30, 0x03, 0x81, 0x01, 0x05}, reg, "Req")
	want := "ber: syntax error at offset 2 decoding Req (Req): non-optional field skipped: a"
	if err == nil || err.Error() != want {
		t.Errorf("Unmarshal() error = %v, want %q", err, want)
	}
}

func TestUnmarshal_Unresolved(t *testing.T) {
	reg := schema.NewRegistry()
	if err := reg.Load("test.asn", []byte("I ::= INTEGER")); err != nil {
		t.Fatal(err)
	}
	if _, err := Unmarshal([]byte{0x02, 0x01, 0x01}, reg, "I"); !errors.Is(err, ErrUnresolvedSchema) {
		t.Errorf("Unmarshal() error = %v, want %v", err, ErrUnresolvedSchema)
	}
}

func TestDecoder_Decode(t *testing.T) {
	reg := mustRegistry(t, testSchema)
	data := []byte{
		0x30, 0x03, 0x02, 0x01, 0x01,
		0x30, 0x06, 0x02, 0x01, 0x02, 0x16, 0x01, 0x41,
		0x30, 0x00,
	}
	d := NewDecoder(data, reg)
	var got []string
	var offsets []int64
	for d.More() {
		offsets = append(offsets, d.InputOffset())
		obj, err := d.Decode("Msg")
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		got = append(got, summary(obj))
	}
	if _, err := d.Decode("Msg"); err != io.EOF {
		t.Errorf("Decode() at end error = %v, want io.EOF", err)
	}
	want := []string{"Msg{id=1}", "Msg{id=2 name=41}", "Msg{}"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{0, 5, 13}, offsets); diff != "" {
		t.Errorf("InputOffset() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoder_MaxDepth(t *testing.T) {
	reg := mustRegistry(t, testSchema)
	data := []byte{0x30, 0x08, 0xA2, 0x03, 0x81, 0x01, 0x07, 0x02, 0x01, 0x05}

	d := NewDecoder(data, reg)
	d.MaxDepth = 2
	if _, err := d.Decode("Outer"); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	d = NewDecoder(data, reg)
	d.MaxDepth = 1
	if _, err := d.Decode("Outer"); !errors.Is(err, ErrTooDeep) {
		t.Errorf("Decode() error = %v, want %v", err, ErrTooDeep)
	}
}

func TestDecoder_Embedded(t *testing.T) {
	const noPayloadSchema = `Rec ::= SEQUENCE { id INTEGER, cdrData [0] OCTET STRING OPTIONAL }`
	data := []byte{0x30, 0x0A, 0x02, 0x01, 0x01, 0x80, 0x05, 0x30, 0x03, 0x02, 0x01, 0x09}
	tests := map[string]struct {
		schema string
		field  string
		want   string
	}{
		"Default":   {testSchema, DefaultEmbeddedField, "Rec{id=1 cdrData{n=9}}"},
		"Disabled":  {testSchema, "", "Rec{id=1 cdrData=3003020109}"},
		"OtherName": {testSchema, "payload", "Rec{id=1 cdrData=3003020109}"},
		"NoType":    {noPayloadSchema, DefaultEmbeddedField, "Rec{id=1 cdrData=3003020109}"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := NewDecoder(data, mustRegistry(t, tt.schema))
			d.EmbeddedField = tt.field
			got, err := d.Decode("Rec")
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, summary(got)); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestObject_Envelope(t *testing.T) {
	reg := mustRegistry(t, testSchema)
	got, err := Unmarshal([]byte{0x30, 0x0A, 0x02, 0x01, 0x01, 0x80, 0x05, 0x30, 0x03, 0x02, 0x01, 0x09}, reg, "Rec")
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	payload := got.Children()[1]
	env, ok := payload.Envelope()
	if !ok {
		t.Fatalf("Envelope() = _, false, want true")
	}
	want := Header{berview.Identifier{Class: berview.ClassContextSpecific, Tag: 0}, 5, 7, 5}
	if env != want {
		t.Errorf("Envelope() = %+v, want %+v", env, want)
	}
	if payload.Header.Offset != 7 {
		t.Errorf("Header.Offset = %d, want 7", payload.Header.Offset)
	}
	if _, ok = got.Envelope(); ok {
		t.Errorf("root Envelope() = _, true, want false")
	}
}

func TestObject_All(t *testing.T) {
	reg := mustRegistry(t, testSchema)
	got, err := Unmarshal([]byte{0x30, 0x08, 0xA2, 0x03, 0x81, 0x01, 0x07, 0x02, 0x01, 0x05}, reg, "Outer")
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	var names []string
	for depth, o := range got.All() {
		names = append(names, strings.Repeat(".", depth)+o.Name)
		if o.Depth() != depth {
			t.Errorf("%s.Depth() = %d, want %d", o.Name, o.Depth(), depth)
		}
	}
	want := []string{"Outer", ".c", "..y", ".n"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}
