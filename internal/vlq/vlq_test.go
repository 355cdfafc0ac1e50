// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vlq

import (
	"bytes"
	"errors"
	"io"
	"math"
	"slices"
	"strconv"
	"testing"
)

func TestRead(t *testing.T) {
	tests := map[string]struct {
		data       []byte
		extraBytes int
		want       uint
		wantErr    error
	}{
		"SingleByte":    {[]byte{0x05}, 0, 5, nil},
		"MultiByte":     {[]byte{0x85, 0x01, 0x00}, 1, 641, nil},
		"ThreeBytes":    {[]byte{0x81, 0x80, 0x00}, 0, 1 << 14, nil},
		"LeadingZeros":  {[]byte{0x80, 0x80, 0x2A}, 0, 42, nil},
		"Zero":          {[]byte{0x00}, 0, 0, nil},
		"Empty":         {nil, 0, 0, io.ErrUnexpectedEOF},
		"Truncated":     {[]byte{0x85, 0x81}, 0, 0, io.ErrUnexpectedEOF},
		"Overflow":      {[]byte{0x82, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}, 0, 0, ErrOverflow},
		"MaxUint64Ends": {[]byte{0x81, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}, 0, math.MaxUint64, nil},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := bytes.NewReader(tt.data)
			got, err := Read(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Read(%# x) error = %v, wantErr %v", tt.data, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("Read(%# x) = %v, want %v", tt.data, got, tt.want)
			}
			if r.Len() != tt.extraBytes {
				t.Errorf("Read(%# x) extra bytes = %d, want %d", tt.data, r.Len(), tt.extraBytes)
			}
		})
	}
}

func TestAppend(t *testing.T) {
	tests := []struct {
		value uint
		want  []byte
	}{
		{0, []byte{0x00}},
		{25, []byte{25}},
		{127, []byte{0x7F}},
		{128, []byte{0x81, 0x00}},
		{641, []byte{0x85, 0x01}},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatUint(uint64(tt.value), 10), func(t *testing.T) {
			if l := Size(tt.value); l != len(tt.want) {
				t.Errorf("Size(%d) = %d, want %d", tt.value, l, len(tt.want))
			}
			got := Append(nil, tt.value)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Append(%d) = % X, want % X", tt.value, got, tt.want)
			}
			back, err := Read(bytes.NewReader(got))
			if err != nil || back != tt.value {
				t.Errorf("Read(Append(%d)) = %d, %v", tt.value, back, err)
			}
		})
	}
}
