// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"strings"
)

type resolveState uint8

const (
	unvisited resolveState = iota
	visiting
	done
)

// resolver replaces references depth-first. Each definition is resolved at
// most once; the chain of definitions currently being resolved is kept to
// report cycles.
type resolver struct {
	reg   *Registry
	state map[string]resolveState
	chain []string
}

// Resolve replaces every [Reference] reachable from a definition of r with the
// resolved type of the referenced definition. Resolved types are shared, not
// copied. A reference to an undefined name is an error wrapping
// [ErrUnknownType]. A definition that refers back to itself, directly or
// through other definitions, is an error wrapping [ErrCycle].
//
// After all references are replaced, Resolve verifies that no [Reference] or
// [Invalid] type remains. Resolve is a no-op for an already resolved registry.
func (r *Registry) Resolve() error {
	if r.resolved {
		return nil
	}
	res := &resolver{reg: r, state: make(map[string]resolveState, len(r.defs))}
	for _, def := range r.defs {
		if _, err := res.resolveDef(def); err != nil {
			return err
		}
	}
	seen := make(map[Type]bool)
	for _, def := range r.defs {
		if err := validate(def, def.Type, seen); err != nil {
			return err
		}
	}
	r.resolved = true
	return nil
}

// resolveDef resolves def in place and returns its resolved type.
func (res *resolver) resolveDef(def *TypeDef) (Type, error) {
	switch res.state[def.Name] {
	case done:
		return def.Type, nil
	case visiting:
		i := 0
		for i < len(res.chain) && res.chain[i] != def.Name {
			i++
		}
		path := strings.Join(append(res.chain[i:], def.Name), " -> ")
		return nil, &Error{Pos: def.Pos, Name: def.Name, Err: fmt.Errorf("%w: %s", ErrCycle, path)}
	}
	res.state[def.Name] = visiting
	res.chain = append(res.chain, def.Name)
	t, err := res.resolveType(def, def.Type)
	if err != nil {
		return nil, err
	}
	def.Type = t
	res.chain = res.chain[:len(res.chain)-1]
	res.state[def.Name] = done
	return t, nil
}

// resolveType resolves the references within t, which belongs to def.
func (res *resolver) resolveType(def *TypeDef, t Type) (Type, error) {
	var err error
	switch t := t.(type) {
	case *Reference:
		target, ok := res.reg.Lookup(t.Name)
		if !ok {
			return nil, &Error{Pos: t.Pos, Name: def.Name, Err: fmt.Errorf("%w %q", ErrUnknownType, t.Name)}
		}
		return res.resolveDef(target)
	case *Sequence:
		for _, f := range t.Fields {
			if f.Type, err = res.resolveType(def, f.Type); err != nil {
				return nil, err
			}
		}
	case *Choice:
		for _, f := range t.Alternatives {
			if f.Type, err = res.resolveType(def, f.Type); err != nil {
				return nil, err
			}
		}
	case *List:
		if t.Elem, err = res.resolveType(def, t.Elem); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// validate checks that t contains neither references nor invalid types.
// Composite types already present in seen are skipped; they were checked as
// part of another definition.
func validate(def *TypeDef, t Type, seen map[Type]bool) error {
	if seen[t] {
		return nil
	}
	switch t := t.(type) {
	case *Reference:
		return &Error{Pos: t.Pos, Name: def.Name, Err: fmt.Errorf("%w: reference to %q", ErrUnresolved, t.Name)}
	case *Basic:
		if t.Kind() == KindInvalid {
			return &Error{Pos: def.Pos, Name: def.Name, Err: ErrUnresolved}
		}
		return nil
	case *Sequence:
		seen[t] = true
		for _, f := range t.Fields {
			if err := validate(def, f.Type, seen); err != nil {
				return err
			}
		}
	case *Choice:
		seen[t] = true
		for _, f := range t.Alternatives {
			if err := validate(def, f.Type, seen); err != nil {
				return err
			}
		}
	case *List:
		seen[t] = true
		return validate(def, t.Elem, seen)
	case nil:
		return &Error{Pos: def.Pos, Name: def.Name, Err: ErrUnresolved}
	}
	return nil
}
