// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustRegistry(t *testing.T, src string) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := r.Load("test.asn", []byte(src)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return r
}

// containsReference reports whether a Reference is reachable from t.
func containsReference(t Type) bool {
	switch t := t.(type) {
	case *Reference:
		return true
	case *Sequence:
		for _, f := range t.Fields {
			if containsReference(f.Type) {
				return true
			}
		}
	case *Choice:
		for _, f := range t.Alternatives {
			if containsReference(f.Type) {
				return true
			}
		}
	case *List:
		return containsReference(t.Elem)
	}
	return false
}

func TestRegistry_Resolve(t *testing.T) {
	r := mustRegistry(t, `
		Msgs ::= SEQUENCE OF Msg
		Msg ::= SEQUENCE { id Id, body Body OPTIONAL }
		Body ::= CHOICE { text [0] UTF8String, more [1] Msgs2 }
		Msgs2 ::= Inner
		Inner ::= SEQUENCE { n INTEGER }
		Id ::= INTEGER
	`)
	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !r.Resolved() {
		t.Errorf("Resolved() = false after Resolve()")
	}
	for def := range r.All() {
		if containsReference(def.Type) {
			t.Errorf("definition %s still contains a reference", def.Name)
		}
	}

	msgs, _ := r.Lookup("Msgs")
	msg, _ := r.Lookup("Msg")
	if got := msgs.Type.(*List).Elem; got != msg.Type {
		t.Errorf("Msgs element = %v, want shared Msg type", got)
	}
	if got := msg.Type.(*Sequence).Fields[0].Type; got != Integer {
		t.Errorf("Msg.id type = %v, want INTEGER", got)
	}
	alias, _ := r.Lookup("Msgs2")
	if got := alias.Type.String(); got != "Inner" {
		t.Errorf("Msgs2 type = %s, want Inner", got)
	}
	if err := r.Resolve(); err != nil {
		t.Errorf("second Resolve() error = %v", err)
	}
}

func TestRegistry_ResolveErrors(t *testing.T) {
	tests := map[string]struct {
		src     string
		wantErr error
		wantMsg string
	}{
		"Unknown":      {`A ::= SEQUENCE { b Missing }`, ErrUnknownType, `unknown type "Missing"`},
		"SelfAlias":    {`A ::= A`, ErrCycle, "A -> A"},
		"AliasChain":   {`A ::= B  B ::= C  C ::= A`, ErrCycle, "A -> B -> C -> A"},
		"Structural":   {`A ::= SEQUENCE { next A OPTIONAL }`, ErrCycle, "A -> A"},
		"ThroughList":  {`A ::= SEQUENCE OF B  B ::= CHOICE { a [0] A }`, ErrCycle, "A -> B -> A"},
		"UnknownInner": {`A ::= B  B ::= SEQUENCE OF C`, ErrUnknownType, `"C"`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := mustRegistry(t, tt.src)
			err := r.Resolve()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Resolve() error = %q, want it to contain %q", err, tt.wantMsg)
			}
			if r.Resolved() {
				t.Errorf("Resolved() = true after failed Resolve()")
			}
		})
	}
}

func TestRegistry_ResolveInvalid(t *testing.T) {
	r := NewRegistry()
	if err := r.Define(&TypeDef{Name: "Broken", Type: Invalid}); err != nil {
		t.Fatalf("Define() error = %v", err)
	}
	if err := r.Resolve(); !errors.Is(err, ErrUnresolved) {
		t.Errorf("Resolve() error = %v, want %v", err, ErrUnresolved)
	}
}

func TestRegistry_Define(t *testing.T) {
	r := mustRegistry(t, `A ::= SEQUENCE { x INTEGER }`)
	err := r.Load("other.asn", []byte(`A ::= INTEGER`))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Load() error = %v, want %v", err, ErrDuplicate)
	}
	if !strings.Contains(err.Error(), "test.asn:1:1") {
		t.Errorf("Load() error = %q, want location of first definition", err)
	}
	def, ok := r.Lookup("A")
	if !ok || def.Type.(*Sequence).Name != "A" {
		t.Errorf("Lookup(A) = %v, %v", def, ok)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	asn := filepath.Join(dir, "a.asn")
	yml := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(asn, []byte(`Msg ::= SEQUENCE { id Id }`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yml, []byte("Id: INTEGER\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadFiles(nil, asn, yml)
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	msg, ok := r.Lookup("Msg")
	if !ok {
		t.Fatalf("Lookup(Msg) failed")
	}
	if got := msg.Type.(*Sequence).Fields[0].Type; got != Integer {
		t.Errorf("Msg.id = %v, want INTEGER", got)
	}

	if _, err = LoadFiles(nil, filepath.Join(dir, "missing.asn")); err == nil {
		t.Errorf("LoadFiles(missing) error = nil")
	}
}
