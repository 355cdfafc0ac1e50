// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"iter"
	"slices"
)

// Registry is an insertion-ordered collection of type definitions, usually
// built from several schema files. Names are unique within a registry.
//
// A Registry must not be modified once it has been resolved. A resolved
// Registry is safe for concurrent use.
type Registry struct {
	defs     []*TypeDef
	byName   map[string]*TypeDef
	resolved bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*TypeDef)}
}

// Define adds def to r. Defining a name twice is an error wrapping
// [ErrDuplicate]. Unnamed composite types of def are given the name of def.
func (r *Registry) Define(def *TypeDef) error {
	if r.resolved {
		return &Error{Pos: def.Pos, Name: def.Name, Err: fmt.Errorf("registry already resolved")}
	}
	if prev, ok := r.byName[def.Name]; ok {
		return &Error{Pos: def.Pos, Name: def.Name, Err: fmt.Errorf("%w, first defined at %s", ErrDuplicate, prev.Pos)}
	}
	switch t := def.Type.(type) {
	case *Sequence:
		if t.Name == "" {
			t.Name = def.Name
		}
	case *Choice:
		if t.Name == "" {
			t.Name = def.Name
		}
	case *List:
		if t.Name == "" {
			t.Name = def.Name
		}
	}
	r.defs = append(r.defs, def)
	r.byName[def.Name] = def
	return nil
}

// Lookup returns the definition with the given name.
func (r *Registry) Lookup(name string) (*TypeDef, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// Len returns the number of definitions in r.
func (r *Registry) Len() int {
	return len(r.defs)
}

// All returns the definitions of r in the order they were defined.
func (r *Registry) All() iter.Seq[*TypeDef] {
	return slices.Values(r.defs)
}

// Resolved reports whether [Registry.Resolve] has completed successfully.
func (r *Registry) Resolved() bool {
	return r.resolved
}
