// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"strconv"
)

// parser is a recursive descent parser over the token slice of one file.
type parser struct {
	toks []token
	i    int
	tok  token
}

// Parse parses schema source in ASN.1 notation and returns its type
// definitions in source order. file is only used in error positions.
func Parse(file string, src []byte) ([]*TypeDef, error) {
	toks, err := tokenize(file, src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, tok: toks[0]}
	return p.parseModule()
}

func (p *parser) next() {
	if p.i < len(p.toks)-1 {
		p.i++
	}
	p.tok = p.toks[p.i]
}

// lookahead returns the token n positions after the current one.
func (p *parser) lookahead(n int) token {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) accept(t tokenType) bool {
	if p.tok.typ == t {
		p.next()
		return true
	}
	return false
}

func (p *parser) isIdent(s string) bool {
	return p.tok.typ == tokIdent && p.tok.text == s
}

func (p *parser) acceptIdent(s string) bool {
	if p.isIdent(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(t tokenType, what string) (token, error) {
	tok := p.tok
	if tok.typ != t {
		return tok, p.errorf("expected %s, found %s", what, tok)
	}
	p.next()
	return tok, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &Error{Pos: p.tok.pos, Err: fmt.Errorf("%w: "+format, append([]any{ErrSyntax}, args...)...)}
}

// parseModule parses an optional module header followed by assignments.
//
//	Name DEFINITIONS [IMPLICIT TAGS] ::= BEGIN [IMPORTS ...;] [EXPORTS ...;] assignments END
func (p *parser) parseModule() ([]*TypeDef, error) {
	module := p.tok.typ == tokIdent && p.lookahead(1).typ == tokIdent && p.lookahead(1).text == "DEFINITIONS"
	if module {
		p.next()
		p.next()
		for p.tok.typ == tokIdent {
			// IMPLICIT TAGS, AUTOMATIC TAGS, EXTENSIBILITY IMPLIED, ...
			if p.isIdent("EXPLICIT") || p.isIdent("AUTOMATIC") {
				return nil, &Error{Pos: p.tok.pos, Err: fmt.Errorf("%w: %s TAGS", ErrUnsupported, p.tok.text)}
			}
			p.next()
		}
		if _, err := p.expect(tokAssign, "'::='"); err != nil {
			return nil, err
		}
		if !p.acceptIdent("BEGIN") {
			return nil, p.errorf("expected BEGIN, found %s", p.tok)
		}
		for p.isIdent("IMPORTS") || p.isIdent("EXPORTS") {
			for p.tok.typ != tokEOF && p.tok.text != ";" {
				p.next()
			}
			p.next()
		}
	}

	var defs []*TypeDef
	for p.tok.typ != tokEOF {
		if module && p.isIdent("END") {
			p.next()
			if p.tok.typ != tokEOF {
				return nil, p.errorf("unexpected %s after END", p.tok)
			}
			return defs, nil
		}
		def, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if module {
		return nil, p.errorf("expected END, found %s", p.tok)
	}
	return defs, nil
}

// parseAssignment parses Name ::= Type.
func (p *parser) parseAssignment() (*TypeDef, error) {
	name, err := p.expect(tokIdent, "type name")
	if err != nil {
		return nil, err
	}
	if _, err = p.expect(tokAssign, "'::='"); err != nil {
		return nil, err
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &TypeDef{Name: name.text, Type: t, Pos: name.pos}, nil
}

// parseType parses a type followed by an optional constraint.
func (p *parser) parseType() (t Type, err error) {
	if p.tok.typ != tokIdent {
		return nil, p.errorf("expected type, found %s", p.tok)
	}
	start := p.tok
	p.next()
	switch start.text {
	case "SEQUENCE":
		if p.tok.typ == tokLBrace {
			fields, err := p.parseFields()
			if err != nil {
				return nil, err
			}
			t = &Sequence{Fields: fields}
			break
		}
		if err = p.skipConstraints(); err != nil {
			return nil, err
		}
		if !p.acceptIdent("OF") {
			return nil, p.errorf("expected '{' or OF after SEQUENCE, found %s", p.tok)
		}
		// SEQUENCE OF name Type
		if p.tok.typ == tokIdent && isLower(p.tok.text) && p.lookahead(1).typ == tokIdent {
			p.next()
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &List{Elem: elem}, nil
	case "CHOICE":
		alts, err := p.parseFields()
		if err != nil {
			return nil, err
		}
		for _, alt := range alts {
			if alt.Optional {
				return nil, &Error{Pos: alt.Pos, Err: fmt.Errorf("%w: OPTIONAL alternative %q", ErrSyntax, alt.Name)}
			}
		}
		t = &Choice{Alternatives: alts}
	case "SET":
		return nil, &Error{Pos: start.pos, Err: fmt.Errorf("%w: SET", ErrUnsupported)}
	case "BOOLEAN":
		t = Boolean
	case "INTEGER":
		t = Integer
		err = p.skipBraces()
	case "ENUMERATED":
		t = Enumerated
		err = p.skipBraces()
	case "NULL":
		t = Null
	case "OCTET":
		if !p.acceptIdent("STRING") {
			return nil, p.errorf("expected STRING after OCTET, found %s", p.tok)
		}
		t = OctetString
	case "BIT":
		if !p.acceptIdent("STRING") {
			return nil, p.errorf("expected STRING after BIT, found %s", p.tok)
		}
		t = BitString
		err = p.skipBraces()
	case "UTF8String":
		t = UTF8String
	case "IA5String":
		t = IA5String
	case "PrintableString":
		t = PrintableString
	default:
		if isLower(start.text) {
			return nil, &Error{Pos: start.pos, Err: fmt.Errorf("%w: expected type, found %s", ErrSyntax, start)}
		}
		t = &Reference{Name: start.text, Pos: start.pos}
	}
	if err != nil {
		return nil, err
	}
	return t, p.skipConstraints()
}

// parseFields parses the brace-enclosed component list of a SEQUENCE or
// CHOICE. Extension markers are skipped.
func (p *parser) parseFields() ([]*Field, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	var fields []*Field
	for !p.accept(tokRBrace) {
		if len(fields) > 0 || p.tok.typ == tokComma {
			if _, err := p.expect(tokComma, "',' or '}'"); err != nil {
				return nil, err
			}
		}
		if p.accept(tokEllipsis) {
			continue
		}
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// parseField parses name [[class] number] [IMPLICIT] Type [OPTIONAL | DEFAULT value].
func (p *parser) parseField() (*Field, error) {
	name, err := p.expect(tokIdent, "field name")
	if err != nil {
		return nil, err
	}
	f := &Field{Name: name.text, Tag: NoTag, Pos: name.pos}
	if p.accept(tokLBracket) {
		if p.isIdent("UNIVERSAL") || p.isIdent("APPLICATION") || p.isIdent("PRIVATE") || p.isIdent("CONTEXT") {
			p.next()
		}
		num, err := p.expect(tokNumber, "tag number")
		if err != nil {
			return nil, err
		}
		f.Tag, err = strconv.Atoi(num.text)
		if err != nil {
			return nil, &Error{Pos: num.pos, Err: fmt.Errorf("%w: tag number %s: %w", ErrSyntax, num.text, err)}
		}
		if _, err = p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
	}
	if p.isIdent("EXPLICIT") {
		return nil, &Error{Pos: p.tok.pos, Err: fmt.Errorf("%w: EXPLICIT tag on %q", ErrUnsupported, f.Name)}
	}
	p.acceptIdent("IMPLICIT")
	if f.Type, err = p.parseType(); err != nil {
		return nil, err
	}
	switch {
	case p.acceptIdent("OPTIONAL"):
		f.Optional = true
	case p.acceptIdent("DEFAULT"):
		f.Optional = true
		if err = p.skipValue(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// skipConstraints skips any number of parenthesized constraints and a bare
// SIZE constraint.
func (p *parser) skipConstraints() error {
	for {
		if p.isIdent("SIZE") && p.lookahead(1).typ == tokLParen {
			p.next()
		}
		if p.tok.typ != tokLParen {
			return nil
		}
		if err := p.skipBalanced(tokLParen, tokRParen); err != nil {
			return err
		}
	}
}

// skipBraces skips a brace-enclosed list of named numbers or bits if present.
func (p *parser) skipBraces() error {
	if p.tok.typ != tokLBrace {
		return nil
	}
	return p.skipBalanced(tokLBrace, tokRBrace)
}

// skipBalanced skips tokens from an opening token up to and including its
// matching closing token.
func (p *parser) skipBalanced(open, close tokenType) error {
	start := p.tok
	depth := 0
	for {
		switch p.tok.typ {
		case tokEOF:
			return &Error{Pos: start.pos, Err: fmt.Errorf("%w: unbalanced %s", ErrSyntax, start)}
		case open:
			depth++
		case close:
			depth--
		}
		p.next()
		if depth == 0 {
			return nil
		}
	}
}

// skipValue skips a DEFAULT value: a single token or a brace-enclosed value.
func (p *parser) skipValue() error {
	switch p.tok.typ {
	case tokLBrace:
		return p.skipBalanced(tokLBrace, tokRBrace)
	case tokPunct:
		if p.tok.text == "-" {
			p.next()
		}
	case tokEOF, tokComma, tokRBrace:
		return p.errorf("expected value, found %s", p.tok)
	}
	p.next()
	return nil
}

// isLower reports whether s starts with a lower case letter. ASN.1 type
// references start with an upper case letter, identifiers with a lower case
// letter.
func isLower(s string) bool {
	return s != "" && 'a' <= s[0] && s[0] <= 'z'
}
