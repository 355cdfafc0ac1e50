// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ber decodes data values encoded with the Basic Encoding Rules (BER)
// as defined in [Rec. ITU-T X.690] into trees of [Object] values, guided by a
// resolved [schema.Registry].
//
// Only the definite length forms are supported. The indefinite form and the
// reserved length octet 0xFF are reported as errors. All errors are fatal:
// decoding stops at the first malformed element and the error reports the
// byte offset at which it was detected.
//
// Tagged fields of SEQUENCE and CHOICE types are matched by tag number only,
// ignoring the class of the identifier. Untagged fields are matched by the
// natural identifier of their type.
//
// # Embedded Payloads
//
// An OCTET STRING or BIT STRING field with a designated name (by default
// "cdrData") is not kept as bytes if the registry contains a designated type
// (by default "XDR-TYPE"). Instead its content is decoded as a complete data
// value of that type and the resulting [Object] takes the place of the field.
// See [Decoder.EmbeddedField] and [Decoder.EmbeddedType].
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
package ber
