// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import "codello.dev/berview"

// Natural returns the identifier a data value of type t carries when it is
// not tagged. CHOICE types have no natural identifier of their own, neither
// do unresolved references and invalid types.
func Natural(t Type) (berview.Identifier, bool) {
	switch t := t.(type) {
	case *Basic:
		switch t.Kind() {
		case KindBoolean:
			return berview.Universal(berview.TagBoolean, false), true
		case KindInteger:
			return berview.Universal(berview.TagInteger, false), true
		case KindOctetString:
			return berview.Universal(berview.TagOctetString, false), true
		case KindBitString:
			return berview.Universal(berview.TagBitString, false), true
		case KindUTF8String:
			return berview.Universal(berview.TagUTF8String, false), true
		case KindIA5String:
			return berview.Universal(berview.TagIA5String, false), true
		case KindPrintableString:
			return berview.Universal(berview.TagPrintableString, false), true
		case KindNull:
			return berview.Universal(berview.TagNull, false), true
		case KindEnumerated:
			return berview.Universal(berview.TagEnumerated, false), true
		}
	case *Sequence, *List:
		return berview.Universal(berview.TagSequence, true), true
	}
	return berview.Identifier{}, false
}

// Matches reports whether a data value with identifier id can be an encoding
// of f. A tagged field matches any identifier with the same tag number. An
// untagged field matches the natural identifier of its type; an untagged
// CHOICE matches if any of its alternatives does.
func (f *Field) Matches(id berview.Identifier) bool {
	if f.Tagged() {
		return uint(f.Tag) == id.Tag
	}
	return Matches(f.Type, id)
}

// Matches reports whether a data value with identifier id can be an untagged
// encoding of t.
func Matches(t Type, id berview.Identifier) bool {
	if c, ok := t.(*Choice); ok {
		return c.Alternative(id) != nil
	}
	nat, ok := Natural(t)
	return ok && nat == id
}

// Alternative returns the first alternative of c matching id, or nil.
func (c *Choice) Alternative(id berview.Identifier) *Field {
	for _, alt := range c.Alternatives {
		if alt.Matches(id) {
			return alt
		}
	}
	return nil
}
