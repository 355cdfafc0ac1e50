// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"codello.dev/berview/ber"
)

// Format selects the output of a [Printer].
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// ErrUnknownFormat is returned by [ParseFormat] and [NewPrinter].
var ErrUnknownFormat = errors.New("render: unknown format")

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML, FormatCBOR:
		return f, nil
	}
	return "", fmt.Errorf("%w %q (want text, json, yaml or cbor)", ErrUnknownFormat, s)
}

// A Printer writes decoded top-level objects to an output stream as they
// become available. Close must be called after the last object.
type Printer interface {
	Print(o *ber.Object) error
	Close() error
}

// NewPrinter returns a Printer writing format to w. If f is nil, a zero
// Formatter is used.
func NewPrinter(w io.Writer, format Format, f *Formatter) (Printer, error) {
	if f == nil {
		f = &Formatter{}
	}
	switch format {
	case FormatText:
		return &textPrinter{w: w, f: f}, nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return &jsonPrinter{enc: enc, f: f}, nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &yamlPrinter{enc: enc, f: f}, nil
	case FormatCBOR:
		em, err := cbor.CanonicalEncOptions().EncMode()
		if err != nil {
			return nil, fmt.Errorf("render: cbor encoder: %w", err)
		}
		return &cborPrinter{enc: em.NewEncoder(w), f: f}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
}

//region Text

// textPrinter writes one line per object, indented by depth. Compound
// objects show their type, leaves their rendered value.
type textPrinter struct {
	w   io.Writer
	f   *Formatter
	err error
}

func (p *textPrinter) Print(o *ber.Object) error {
	for depth, obj := range o.All() {
		p.printf("%s%s\n", strings.Repeat("  ", depth), Line(obj, p.f))
	}
	return p.err
}

func (p *textPrinter) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *textPrinter) Close() error { return p.err }

// Line returns the text representation of o without indentation: the name
// and type of compound objects, the name and value of leaves.
func Line(o *ber.Object, f *Formatter) string {
	if o.Compound() {
		return o.Name + " (" + o.Type.String() + ")"
	}
	s, _ := f.Value(o)
	return o.Name + ": " + s
}

//endregion

//region Structured

// Node is the structured representation of an object used by the JSON, YAML
// and CBOR formats. CBOR uses the json keys.
type Node struct {
	Name     string  `json:"name" yaml:"name"`
	Type     string  `json:"type" yaml:"type"`
	Tag      string  `json:"tag" yaml:"tag"`
	Offset   int64   `json:"offset" yaml:"offset"`
	Length   int     `json:"length" yaml:"length"`
	Value    any     `json:"value,omitempty" yaml:"value,omitempty"`
	Display  string  `json:"display,omitempty" yaml:"display,omitempty"`
	Kind     string  `json:"kind,omitempty" yaml:"kind,omitempty"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewNode converts the tree rooted at o. Byte strings are stored as hex in
// Value; Display holds the output of f.
func NewNode(o *ber.Object, f *Formatter) *Node {
	n := &Node{
		Name:   o.Name,
		Type:   o.Type.String(),
		Tag:    o.Header.ID.String(),
		Offset: o.Header.Offset,
		Length: o.Header.Length,
	}
	switch v := o.Value.(type) {
	case ber.Integer:
		n.Value = uint64(v)
	case ber.Boolean:
		n.Value = bool(v)
	case ber.Bytes:
		n.Value = strings.ToUpper(hex.EncodeToString(v))
	}
	if !o.Compound() {
		var k Kind
		n.Display, k = f.Value(o)
		n.Kind = k.String()
	}
	for _, c := range o.Children() {
		n.Children = append(n.Children, NewNode(c, f))
	}
	return n
}

type jsonPrinter struct {
	enc *json.Encoder
	f   *Formatter
}

func (p *jsonPrinter) Print(o *ber.Object) error {
	return p.enc.Encode(NewNode(o, p.f))
}

func (p *jsonPrinter) Close() error { return nil }

type yamlPrinter struct {
	enc *yaml.Encoder
	f   *Formatter
}

func (p *yamlPrinter) Print(o *ber.Object) error {
	return p.enc.Encode(NewNode(o, p.f))
}

func (p *yamlPrinter) Close() error { return p.enc.Close() }

// cborPrinter writes a sequence of CBOR data items (RFC 8742), one per
// object, with map keys in canonical order.
type cborPrinter struct {
	enc *cbor.Encoder
	f   *Formatter
}

func (p *cborPrinter) Print(o *ber.Object) error {
	return p.enc.Encode(NewNode(o, p.f))
}

func (p *cborPrinter) Close() error { return nil }

//endregion
