// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clause

import (
	"strconv"
)

// Parse parses a textual clause into a Clause tree.
//
// The grammar is
//
//	expr     = andExpr { "OR" andExpr }
//	andExpr  = term { ["AND"] term }
//	term     = "(" expr ")" | operand cmp operand
//	cmp      = "=" | "==" | "!=" | "<" | "<=" | ">" | ">="
//
// A bare word is a number if it starts with a digit or ".", after an
// optional sign, and parses as one. Other bare words, including "inf"
// and "nan", are attribute names.
//
// At least one operand of each relation must be an attribute.
func Parse(q string) (Clause, error) {
	toks := newTokenizer(q)
	p := parser{}
	c, toks := p.expr(toks)
	toks.end()
	if toks.src.err != nil {
		return nil, toks.src.err
	}
	return c, nil
}

type parser struct{}

func (p *parser) error(toks tokenizer, msg string) tokenizer {
	_, toks = toks.error(msg)
	return toks
}

func (p *parser) expr(toks tokenizer) (Clause, tokenizer) {
	var terms []Clause
	for {
		var c Clause
		c, toks = p.andExpr(toks)
		terms = append(terms, c)
		op, toks2 := toks.next()
		if op.Kind != 'O' {
			break
		}
		toks = toks2
	}
	if len(terms) == 1 {
		return terms[0], toks
	}
	return &Combinator{Or, terms}, toks
}

func (p *parser) andExpr(toks tokenizer) (Clause, tokenizer) {
	var c Clause
	c, toks = p.term(toks)
	terms := []Clause{c}
loop:
	for {
		op, toks2 := toks.next()
		switch op.Kind {
		case 'A':
			// "AND" between terms is the same as no
			// operator, but it must be followed by a term.
			switch next, _ := toks2.next(); next.Kind {
			case '(', 'w', 'q', 'b':
			default:
				return nil, p.error(toks2, "expected comparison or subexpression after AND")
			}
			toks = toks2
			continue
		case '(', 'w', 'q', 'b':
			c, toks = p.term(toks)
			terms = append(terms, c)
		case ')', 'O', 0:
			break loop
		default:
			return nil, p.error(toks, "unexpected "+strconv.Quote(op.Tok))
		}
	}
	if len(terms) == 1 {
		return terms[0], toks
	}
	return &Combinator{And, terms}, toks
}

func (p *parser) term(start tokenizer) (Clause, tokenizer) {
	tok, rest := start.next()
	switch tok.Kind {
	case '(':
		c, rest := p.expr(rest)
		op, toks2 := rest.next()
		if op.Kind != ')' {
			return nil, p.error(rest, "missing \")\"")
		}
		return c, toks2
	case 'w', 'q', 'b':
		left := p.operand(tok)
		op, toks2 := rest.next()
		if op.Kind != 'c' {
			return nil, p.error(start, "expected comparison")
		}
		cmp, err := ParseOp(op.Tok)
		if err != nil {
			return nil, p.error(rest, err.Error())
		}
		rtok, toks3 := toks2.next()
		switch rtok.Kind {
		case 'w', 'q', 'b':
		default:
			return nil, p.error(toks2, "expected attribute or value")
		}
		right := p.operand(rtok)
		if !left.IsAttr() && !right.IsAttr() {
			return nil, p.error(start, "comparison must reference an attribute")
		}
		return &Relation{cmp, left, right}, toks3
	}
	return nil, p.error(start, "expected comparison or subexpression")
}

func (p *parser) operand(t tok) Operand {
	switch t.Kind {
	case 'q':
		return Lit(t.Tok)
	case 'b':
		return Attr(t.Tok)
	}
	if !isNumber(t.Tok) {
		return Attr(t.Tok)
	}
	if i, err := strconv.Atoi(t.Tok); err == nil {
		return Lit(i)
	}
	f, _ := strconv.ParseFloat(t.Tok, 64)
	return Lit(f)
}
