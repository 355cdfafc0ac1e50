// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package berview decodes data encoded with the Basic Encoding Rules (BER)
// against a schema written in a restricted ASN.1 notation and presents the
// result as a navigable tree. The BER encoding is defined in
// [Rec. ITU-T X.690].
//
// This package only defines the identifier octets shared by the other
// packages. The schema model lives in the schema package, decoding in the ber
// package, and presentation in the render and navigator packages.
//
// # Supported Encodings
//
// Only the definite-length form is supported. Indefinite-length encodings,
// EXPLICIT tags, named numbers of ENUMERATED types and named bits of BIT
// STRING types are not supported. Fields can carry IMPLICIT tags which are
// matched by tag number alone. A tagged CHOICE is always explicitly tagged, as
// required by Rec. ITU-T X.680.
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
package berview

import (
	"strconv"
	"strings"
)

// Class holds the class part of an ASN.1 tag. The class acts as a namespace for
// the tag number. A Class value is an unsigned 2-bit integer. Class values
// whose value exceeds 2 bits are invalid.
//
//go:generate stringer -type=Class -trimprefix=Class
type Class uint8

// IsValid reports whether c is a valid Class value.
func (c Class) IsValid() bool {
	return c <= 3
}

// Predefined [Class] constants. These are all the possible values that can be
// encoded in the [Class] type.
const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

// Identifier represents the identifier octets of a BER data value encoding: the
// class, the constructed flag and the tag number. Identifiers are derived from
// the input on every read and never stored in the schema.
type Identifier struct {
	Class       Class
	Constructed bool
	Tag         uint
}

// Universal returns the identifier of a data value with a tag number in the
// [ClassUniversal] namespace.
func Universal(tag uint, constructed bool) Identifier {
	return Identifier{Class: ClassUniversal, Constructed: constructed, Tag: tag}
}

// String returns a string representation of id in a format similar to the one
// used in ASN.1 notation, followed by /c for constructed and /p for primitive
// encodings. To avoid ambiguity the UNIVERSAL word is used for universal tags,
// although this is not valid ASN.1 syntax.
func (id Identifier) String() string {
	var s string
	if id.Class == ClassContextSpecific {
		s = "[" + strconv.FormatUint(uint64(id.Tag), 10) + "]"
	} else {
		s = "[" + strings.ToUpper(id.Class.String()) + " " + strconv.FormatUint(uint64(id.Tag), 10) + "]"
	}
	if id.Constructed {
		return s + "/c"
	}
	return s + "/p"
}

// These are the ASN.1 tag numbers in the [ClassUniversal] namespace that the
// schema notation can refer to. These assignments are defined in Rec. ITU-T
// X.680, Section 8, Table 1.
const (
	TagBoolean         uint = 1
	TagInteger         uint = 2
	TagBitString       uint = 3
	TagOctetString     uint = 4
	TagNull            uint = 5
	TagEnumerated      uint = 10
	TagUTF8String      uint = 12
	TagSequence        uint = 16
	TagPrintableString uint = 19
	TagIA5String       uint = 22
)
