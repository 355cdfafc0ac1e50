// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schema implements the in-memory model of a restricted ASN.1 type
// notation. Type definitions are collected in a [Registry] and named
// references between them are replaced with their targets by
// [Registry.Resolve]. After resolution the model is immutable and can be
// shared by any number of decoders.
//
// # Schema Notation
//
// Schemas are written in a subset of the ASN.1 notation defined in
// [Rec. ITU-T X.680]:
//
//	Records DEFINITIONS IMPLICIT TAGS ::= BEGIN
//
//	Msg ::= SEQUENCE {
//		id   INTEGER,
//		name [1] IA5String OPTIONAL,
//		body CHOICE {
//			text [2] UTF8String,
//			raw  [3] OCTET STRING
//		}
//	}
//
//	Msgs ::= SEQUENCE OF Msg
//
//	END
//
// The module header is optional. Supported types are SEQUENCE, CHOICE,
// SEQUENCE OF, BOOLEAN, INTEGER, OCTET STRING, BIT STRING, UTF8String,
// IA5String, PrintableString, NULL, ENUMERATED and references to other
// definitions. Tags in square brackets are IMPLICIT and are matched by tag
// number only; the class keyword is accepted but ignored. Constraints in
// parentheses, named numbers and DEFAULT values are skipped. A field with a
// DEFAULT value is treated as OPTIONAL.
//
// Schemas can also be written in YAML, see [ParseYAML].
//
// [Rec. ITU-T X.680]: https://www.itu.int/rec/T-REC-X.680
package schema

import (
	"strconv"
	"strings"
)

// Kind identifies the variant of a [Type].
type Kind uint8

const (
	KindInvalid Kind = iota // placeholder for a definition that was never parsed
	KindBoolean
	KindInteger
	KindOctetString
	KindBitString
	KindUTF8String
	KindIA5String
	KindPrintableString
	KindNull
	KindEnumerated
	KindSequence
	KindChoice
	KindList
	KindReference
)

var kindNames = [...]string{
	KindInvalid:         "<invalid>",
	KindBoolean:         "BOOLEAN",
	KindInteger:         "INTEGER",
	KindOctetString:     "OCTET STRING",
	KindBitString:       "BIT STRING",
	KindUTF8String:      "UTF8String",
	KindIA5String:       "IA5String",
	KindPrintableString: "PrintableString",
	KindNull:            "NULL",
	KindEnumerated:      "ENUMERATED",
	KindSequence:        "SEQUENCE",
	KindChoice:          "CHOICE",
	KindList:            "SEQUENCE OF",
	KindReference:       "<reference>",
}

// String returns the ASN.1 spelling of k.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Type is an ASN.1 type in the schema. The set of implementations is closed:
// [*Basic], [*Sequence], [*Choice], [*List] and [*Reference]. Consumers switch
// over these types and treat anything else as unsupported.
type Type interface {
	// Kind returns the variant of the type.
	Kind() Kind
	// String returns a human readable description of the type.
	String() string

	aType()
}

// Basic is a primitive type without any nested structure. The predeclared
// values below are the only instances; they are shared by all schemas.
type Basic struct {
	kind Kind
}

// Predeclared primitive types.
var (
	Invalid         = &Basic{KindInvalid}
	Boolean         = &Basic{KindBoolean}
	Integer         = &Basic{KindInteger}
	OctetString     = &Basic{KindOctetString}
	BitString       = &Basic{KindBitString}
	UTF8String      = &Basic{KindUTF8String}
	IA5String       = &Basic{KindIA5String}
	PrintableString = &Basic{KindPrintableString}
	Null            = &Basic{KindNull}
	Enumerated      = &Basic{KindEnumerated}
)

func (b *Basic) Kind() Kind     { return b.kind }
func (b *Basic) String() string { return b.kind.String() }
func (*Basic) aType()           {}

// Sequence is an ASN.1 SEQUENCE. The order of Fields is the order in which
// elements are expected in the encoding.
type Sequence struct {
	Name   string // name of the defining TypeDef, empty for inline types
	Fields []*Field
}

func (s *Sequence) Kind() Kind { return KindSequence }
func (s *Sequence) String() string {
	if s.Name != "" {
		return s.Name
	}
	return "SEQUENCE"
}
func (*Sequence) aType() {}

// Choice is an ASN.1 CHOICE. If more than one alternative matches an
// identifier, the first one wins.
type Choice struct {
	Name         string // name of the defining TypeDef, empty for inline types
	Alternatives []*Field
}

func (c *Choice) Kind() Kind { return KindChoice }
func (c *Choice) String() string {
	if c.Name != "" {
		return c.Name
	}
	return "CHOICE"
}
func (*Choice) aType() {}

// Names returns the names of the alternatives of c, separated by commas.
func (c *Choice) Names() string {
	names := make([]string, len(c.Alternatives))
	for i, alt := range c.Alternatives {
		names[i] = alt.Name
	}
	return strings.Join(names, ", ")
}

// List is an ASN.1 SEQUENCE OF: any number of elements of type Elem.
type List struct {
	Name string // name of the defining TypeDef, empty for inline types
	Elem Type
}

func (l *List) Kind() Kind { return KindList }
func (l *List) String() string {
	if l.Name != "" {
		return l.Name
	}
	return "SEQUENCE OF " + l.Elem.String()
}
func (*List) aType() {}

// Reference is a use of a named type. References only exist until
// [Registry.Resolve] has replaced them with their targets.
type Reference struct {
	Name string
	Pos  Position
}

func (r *Reference) Kind() Kind     { return KindReference }
func (r *Reference) String() string { return r.Name }
func (*Reference) aType()           {}

// NoTag is the [Field.Tag] of fields that are matched by the natural
// identifier of their type.
const NoTag = -1

// Field is a named component of a SEQUENCE or an alternative of a CHOICE.
type Field struct {
	Name string

	// Tag is the IMPLICIT tag number of the field or NoTag. Tagged fields are
	// matched by tag number regardless of class and constructed flag.
	Tag int

	Type     Type
	Optional bool
	Pos      Position
}

// Tagged reports whether f carries an IMPLICIT tag.
func (f *Field) Tagged() bool {
	return f.Tag != NoTag
}

// String returns f in schema notation.
func (f *Field) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	if f.Tagged() {
		b.WriteString(" [")
		b.WriteString(strconv.Itoa(f.Tag))
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(f.Type.String())
	if f.Optional {
		b.WriteString(" OPTIONAL")
	}
	return b.String()
}

// TypeDef is a top-level assignment Name ::= Type.
type TypeDef struct {
	Name string
	Type Type
	Pos  Position
}

// Position is a location in a schema source file. Line and Col are 1-based;
// a zero Line means the position is unknown.
type Position struct {
	File string
	Line int
	Col  int
}

// String returns p as file:line:col.
func (p Position) String() string {
	s := p.File
	if p.Line > 0 {
		if s != "" {
			s += ":"
		}
		s += strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
	}
	return s
}
