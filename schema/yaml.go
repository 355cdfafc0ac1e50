// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlField is the YAML form of a [Field].
type yamlField struct {
	Name     string    `yaml:"name"`
	Tag      *int      `yaml:"tag"`
	Optional bool      `yaml:"optional"`
	Type     yaml.Node `yaml:"type"`
}

// ParseYAML parses type definitions from YAML. The document is a mapping from
// type names to types, in definition order. A type is either a scalar naming a
// primitive type or another definition, or a mapping with exactly one of the
// keys sequence, choice or list:
//
//	Msg:
//	  sequence:
//	    - {name: id, type: INTEGER}
//	    - {name: name, tag: 1, type: IA5String, optional: true}
//	    - name: body
//	      type:
//	        choice:
//	          - {name: text, tag: 2, type: UTF8String}
//	          - {name: raw, tag: 3, type: OCTET STRING}
//	Msgs:
//	  list: Msg
//
// Multiple YAML documents in the same source are concatenated.
func ParseYAML(file string, src []byte) ([]*TypeDef, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	var defs []*TypeDef
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return defs, nil
			}
			return nil, &Error{Pos: Position{File: file}, Err: fmt.Errorf("%w: %w", ErrSyntax, err)}
		}
		if len(doc.Content) == 0 {
			continue
		}
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return nil, yamlError(file, root, "expected a mapping of type definitions")
		}
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, val := root.Content[i], root.Content[i+1]
			t, err := yamlType(file, val)
			if err != nil {
				return nil, err
			}
			defs = append(defs, &TypeDef{Name: key.Value, Type: t, Pos: yamlPos(file, key)})
		}
	}
}

func yamlPos(file string, n *yaml.Node) Position {
	return Position{File: file, Line: n.Line, Col: n.Column}
}

func yamlError(file string, n *yaml.Node, format string, args ...any) error {
	return &Error{Pos: yamlPos(file, n), Err: fmt.Errorf("%w: "+format, append([]any{ErrSyntax}, args...)...)}
}

// yamlType converts a YAML node into a Type.
func yamlType(file string, n *yaml.Node) (Type, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return yamlNamedType(file, n)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, yamlError(file, n, "expected exactly one of sequence, choice or list")
		}
		key, val := n.Content[0], n.Content[1]
		switch key.Value {
		case "sequence":
			fields, err := yamlFields(file, val)
			if err != nil {
				return nil, err
			}
			return &Sequence{Fields: fields}, nil
		case "choice":
			alts, err := yamlFields(file, val)
			if err != nil {
				return nil, err
			}
			return &Choice{Alternatives: alts}, nil
		case "list":
			elem, err := yamlType(file, val)
			if err != nil {
				return nil, err
			}
			return &List{Elem: elem}, nil
		}
		return nil, yamlError(file, key, "unknown type constructor %q", key.Value)
	}
	return nil, yamlError(file, n, "expected a type")
}

// yamlNamedType converts a scalar into a primitive type or a reference.
func yamlNamedType(file string, n *yaml.Node) (Type, error) {
	switch strings.Join(strings.Fields(n.Value), " ") {
	case "BOOLEAN":
		return Boolean, nil
	case "INTEGER":
		return Integer, nil
	case "OCTET STRING":
		return OctetString, nil
	case "BIT STRING":
		return BitString, nil
	case "UTF8String":
		return UTF8String, nil
	case "IA5String":
		return IA5String, nil
	case "PrintableString":
		return PrintableString, nil
	case "NULL":
		return Null, nil
	case "ENUMERATED":
		return Enumerated, nil
	case "":
		return nil, yamlError(file, n, "empty type name")
	}
	if strings.ContainsAny(n.Value, " \t") {
		return nil, yamlError(file, n, "invalid type name %q", n.Value)
	}
	return &Reference{Name: n.Value, Pos: yamlPos(file, n)}, nil
}

// yamlFields converts a sequence node into fields.
func yamlFields(file string, n *yaml.Node) ([]*Field, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, yamlError(file, n, "expected a list of fields")
	}
	fields := make([]*Field, 0, len(n.Content))
	for _, item := range n.Content {
		var yf yamlField
		if err := item.Decode(&yf); err != nil {
			return nil, yamlError(file, item, "%v", err)
		}
		if yf.Name == "" {
			return nil, yamlError(file, item, "field without name")
		}
		if yf.Type.Kind == 0 {
			return nil, yamlError(file, item, "field %q without type", yf.Name)
		}
		t, err := yamlType(file, &yf.Type)
		if err != nil {
			return nil, err
		}
		f := &Field{Name: yf.Name, Tag: NoTag, Type: t, Optional: yf.Optional, Pos: yamlPos(file, item)}
		if yf.Tag != nil {
			if *yf.Tag < 0 {
				return nil, yamlError(file, item, "negative tag %d", *yf.Tag)
			}
			f.Tag = *yf.Tag
		}
		fields = append(fields, f)
	}
	return fields, nil
}
