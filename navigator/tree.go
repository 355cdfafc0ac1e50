// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package navigator implements interactive browsing of decoded object trees.
// [Tree] holds the navigation state and is independent of any terminal;
// [Browser] renders a Tree on a tcell screen and maps keys to operations.
package navigator

import (
	"iter"

	"codello.dev/berview/ber"
)

// A Tree is a cursor over a forest of decoded objects. Top-level objects are
// siblings of each other. Only the Collapsed flag of compound objects is
// modified; leaves are never collapsed.
type Tree struct {
	roots   []*ber.Object
	current *ber.Object
}

// NewTree returns a Tree positioned at the first of roots. roots must not be
// empty.
func NewTree(roots ...*ber.Object) *Tree {
	return &Tree{roots: roots, current: roots[0]}
}

// Current returns the object at the cursor.
func (t *Tree) Current() *ber.Object {
	return t.current
}

// Roots returns the top-level objects of t.
func (t *Tree) Roots() []*ber.Object {
	return t.roots
}

// expanded reports whether the children of o are visible.
func expanded(o *ber.Object) bool {
	return o.Compound() && !o.Collapsed && len(o.Children()) > 0
}

func (t *Tree) siblings(o *ber.Object) []*ber.Object {
	if p := o.Parent(); p != nil {
		return p.Children()
	}
	return t.roots
}

func (t *Tree) sibling(o *ber.Object, delta int) *ber.Object {
	sibs := t.siblings(o)
	for i, s := range sibs {
		if s == o {
			if j := i + delta; j >= 0 && j < len(sibs) {
				return sibs[j]
			}
			return nil
		}
	}
	return nil
}

// lastVisible returns the last object of the visible subtree rooted at o.
func lastVisible(o *ber.Object) *ber.Object {
	for expanded(o) {
		children := o.Children()
		o = children[len(children)-1]
	}
	return o
}

// Expand shows the children of the current object.
func (t *Tree) Expand() {
	if t.current.Compound() {
		t.current.Collapsed = false
	}
}

// Collapse hides the children of the current object. If the current object
// is a leaf or already collapsed, the cursor moves to its parent instead.
func (t *Tree) Collapse() {
	if (!t.current.Compound() || t.current.Collapsed) && t.current.Parent() != nil {
		t.current = t.current.Parent()
		return
	}
	if t.current.Compound() {
		t.current.Collapsed = true
	}
}

// CollapseSiblings collapses every compound sibling of the current object,
// including the current object itself.
func (t *Tree) CollapseSiblings() {
	for _, s := range t.siblings(t.current) {
		if s.Compound() {
			s.Collapsed = true
		}
	}
}

// Next moves the cursor to the next visible object in pre-order. It reports
// whether the cursor moved.
func (t *Tree) Next() bool {
	if expanded(t.current) {
		t.current = t.current.Children()[0]
		return true
	}
	for o := t.current; o != nil; o = o.Parent() {
		if s := t.sibling(o, 1); s != nil {
			t.current = s
			return true
		}
	}
	return false
}

// Prev moves the cursor to the previous visible object in pre-order. It
// reports whether the cursor moved.
func (t *Tree) Prev() bool {
	if s := t.sibling(t.current, -1); s != nil {
		t.current = lastVisible(s)
		return true
	}
	if p := t.current.Parent(); p != nil {
		t.current = p
		return true
	}
	return false
}

// First moves the cursor to the first top-level object.
func (t *Tree) First() {
	t.current = t.roots[0]
}

// Last moves the cursor to the last visible object.
func (t *Tree) Last() {
	t.current = lastVisible(t.roots[len(t.roots)-1])
}

// Find moves the cursor to the next object in pre-order, after the current
// one and wrapping around at the end, for which match returns true. Objects
// inside collapsed subtrees are searched as well; the ancestors of a match
// are expanded. Find reports whether a match was found. The current object
// matches only if no other object does.
func (t *Tree) Find(match func(*ber.Object) bool) bool {
	var all []*ber.Object
	cur := 0
	for _, r := range t.roots {
		for _, o := range r.All() {
			if o == t.current {
				cur = len(all)
			}
			all = append(all, o)
		}
	}
	for i := 1; i <= len(all); i++ {
		o := all[(cur+i)%len(all)]
		if !match(o) {
			continue
		}
		for p := o.Parent(); p != nil; p = p.Parent() {
			p.Collapsed = false
		}
		t.current = o
		return true
	}
	return false
}

// Visible returns an iterator over the visible objects in pre-order together
// with their depth.
func (t *Tree) Visible() iter.Seq2[int, *ber.Object] {
	return func(yield func(int, *ber.Object) bool) {
		for _, r := range t.roots {
			if !visit(r, 0, yield) {
				return
			}
		}
	}
}

func visit(o *ber.Object, depth int, yield func(int, *ber.Object) bool) bool {
	if !yield(depth, o) {
		return false
	}
	if expanded(o) {
		for _, c := range o.Children() {
			if !visit(c, depth+1, yield) {
				return false
			}
		}
	}
	return true
}
