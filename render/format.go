// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render turns decoded [ber.Object] trees into text. The heuristics
// in [Formatter] guess a readable representation of raw byte strings; they
// only affect presentation, never decoding.
package render

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"codello.dev/berview/ber"
	"codello.dev/berview/schema"
)

// Kind classifies a rendered value. Interactive renderers map kinds to
// colors.
type Kind uint8

const (
	KindDefault Kind = iota
	KindInteger
	KindString
	KindBoolean
	KindIP
	KindTime
	KindHex
)

var kindNames = [...]string{"default", "integer", "string", "boolean", "ip", "time", "hex"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Default values for the plausible window of timestamps.
const (
	DefaultFuture = 24 * time.Hour
	DefaultPast   = 3 * 365 * 24 * time.Hour
)

// maxHexBytes is the number of bytes rendered as hex before truncation.
const maxHexBytes = 20

// TimeLayout is the layout of rendered timestamps.
const TimeLayout = "2006-01-02 15:04:05.000 MST"

// A Formatter renders leaf values. The zero value uses the default
// timestamp window relative to the current time.
type Formatter struct {
	// Now returns the reference time for the timestamp heuristic. If nil,
	// time.Now is used.
	Now func() time.Time

	// Future and Past bound the window around Now in which an integer is
	// considered a timestamp in epoch milliseconds. Zero values select
	// DefaultFuture and DefaultPast.
	Future time.Duration
	Past   time.Duration

	// Location is used to display timestamps. If nil, UTC is used.
	Location *time.Location
}

// Value renders the value of a leaf object. Compound objects render as the
// empty string.
func (f *Formatter) Value(o *ber.Object) (string, Kind) {
	switch v := o.Value.(type) {
	case ber.Integer:
		return strconv.FormatUint(uint64(v), 10), KindInteger
	case ber.Boolean:
		if v {
			return "TRUE", KindBoolean
		}
		return "FALSE", KindBoolean
	case ber.Bytes:
		switch o.Type.Kind() {
		case schema.KindUTF8String, schema.KindIA5String, schema.KindPrintableString:
			return strconv.Quote(string(v)), KindString
		}
		return f.Bytes(o.Name, v)
	}
	return "", KindDefault
}

// Bytes renders the content of a byte string named name. The first
// applicable rule wins:
//
//  1. up to 8 bytes in a field whose name contains "ip": dotted quad
//  2. up to 8 bytes holding epoch milliseconds in the plausible window:
//     timestamp
//  3. up to 8 bytes: unsigned big-endian integer
//  4. printable ASCII: quoted string
//  5. packed BCD digits, low nibble first, padded with 0xF: digit string
//  6. anything else: hex, truncated after 20 bytes
func (f *Formatter) Bytes(name string, b []byte) (string, Kind) {
	if len(b) == 0 {
		return `""`, KindString
	}
	if len(b) <= 8 {
		var n uint64
		for _, c := range b {
			n = n<<8 | uint64(c)
		}
		if strings.Contains(strings.ToLower(name), "ip") {
			return formatIPv4(n), KindIP
		}
		if t, ok := f.timestamp(n); ok {
			return t.Format(TimeLayout), KindTime
		}
		return strconv.FormatUint(n, 10), KindInteger
	}
	if isPrintable(b) {
		return strconv.Quote(string(b)), KindString
	}
	if s, ok := decodeBCD(b); ok {
		return s, KindInteger
	}
	return formatHex(b), KindHex
}

func (f *Formatter) timestamp(ms uint64) (time.Time, bool) {
	if ms > 1<<63-1 {
		return time.Time{}, false
	}
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	future, past := f.Future, f.Past
	if future == 0 {
		future = DefaultFuture
	}
	if past == 0 {
		past = DefaultPast
	}
	t := time.UnixMilli(int64(ms))
	if t.After(now.Add(future)) || t.Before(now.Add(-past)) {
		return time.Time{}, false
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc), true
}

// formatIPv4 renders the low 32 bits of n as four dot-separated octets.
func formatIPv4(n uint64) string {
	b := make([]byte, 0, 15)
	for shift := 24; shift >= 0; shift -= 8 {
		b = strconv.AppendUint(b, n>>shift&0xff, 10)
		if shift > 0 {
			b = append(b, '.')
		}
	}
	return string(b)
}

// decodeBCD decodes packed BCD digits with the low nibble of every byte
// first. Nibbles of 0xF are padding and only allowed at the end.
func decodeBCD(b []byte) (string, bool) {
	digits := make([]byte, 0, 2*len(b))
	padded := false
	for _, c := range b {
		for _, nib := range [2]byte{c & 0x0f, c >> 4} {
			switch {
			case nib == 0x0f:
				padded = true
			case nib <= 9 && !padded:
				digits = append(digits, '0'+nib)
			default:
				return "", false
			}
		}
	}
	return string(digits), len(digits) > 0
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

func formatHex(b []byte) string {
	if len(b) <= maxHexBytes {
		return strings.ToUpper(hex.EncodeToString(b))
	}
	return strings.ToUpper(hex.EncodeToString(b[:maxHexBytes])) + "…"
}
