// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clause

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A SyntaxError is an error produced by parsing a malformed clause.
type SyntaxError struct {
	Query string // The original query string
	Off   int    // Byte offset of the error in Query
	Msg   string // Error message
}

func (e *SyntaxError) Error() string {
	col := 0
	for _, r := range e.Query[:e.Off] {
		if unicode.IsGraphic(r) {
			col++
		}
	}
	return fmt.Sprintf("syntax error: %s\n\t%s\n\t%*s^", e.Msg, e.Query, col, "")
}

// source is shared by every tokenizer derived from one query. It keeps
// the first error reported.
type source struct {
	query string
	err   *SyntaxError
}

// A tok is a single token in the clause lexical syntax.
type tok struct {
	// Kind specifies the category of this token. It is 'w' for a
	// bare word, 'q' for a quoted string, 'b' for a backquoted
	// attribute name, 'c' for a comparison operator, 'A' or 'O'
	// for the AND and OR keywords, '(' or ')', or 0 for the
	// end-of-string token.
	Kind byte
	Off  int    // Byte offset of the beginning of this token
	Tok  string // Literal token contents; quoted words are unescaped
}

// A tokenizer is an immutable position in a query. Advancing returns
// a new tokenizer.
type tokenizer struct {
	q   string
	src *source
}

func newTokenizer(q string) tokenizer {
	return tokenizer{q: q, src: &source{query: q}}
}

func isParen(ch rune) bool {
	return ch == '(' || ch == ')'
}

func isCmp(ch rune) bool {
	return ch == '=' || ch == '!' || ch == '<' || ch == '>'
}

func isSpace(q string) int {
	if q[0] == ' ' {
		return 1
	}
	r, size := utf8.DecodeRuneInString(q)
	if unicode.IsSpace(r) {
		return size
	}
	return 0
}

// next returns the next token and the tokenizer positioned after it.
func (t *tokenizer) next() (tok, tokenizer) {
	for len(t.q) > 0 {
		if isParen(rune(t.q[0])) {
			return t.tok(t.q[0], t.q[:1], t.q[1:])
		} else if isCmp(rune(t.q[0])) {
			return t.cmp()
		} else if n := isSpace(t.q); n > 0 {
			t.q = t.q[n:]
		} else if t.q[0] == '"' {
			return t.quotedWord()
		} else if t.q[0] == '`' {
			return t.backquotedWord()
		} else {
			return t.bareWord()
		}
	}
	// Add an EOF token. This eliminates the need for lots of
	// bounds checks in the parser and gives the EOF a position.
	return t.tok(0, "", "")
}

// end asserts that t has reached the end of the token stream. If it
// has not, it returns a tokenizer that reports an error.
func (t *tokenizer) end() tokenizer {
	if tok, _ := t.next(); tok.Kind != 0 {
		_, t2 := t.error("unexpected " + strconv.Quote(tok.Tok))
		return t2
	}
	return *t
}

func (t *tokenizer) tok(kind byte, token string, rest string) (tok, tokenizer) {
	off := len(t.src.query) - len(t.q)
	return tok{Kind: kind, Off: off, Tok: token}, tokenizer{rest, t.src}
}

func (t *tokenizer) error(msg string) (tok, tokenizer) {
	if t.src.err == nil {
		off := len(t.src.query) - len(t.q)
		t.src.err = &SyntaxError{Query: t.src.query, Off: off, Msg: msg}
	}
	// Skip the rest of the query.
	return t.tok(0, "", "")
}

func (t *tokenizer) cmp() (tok, tokenizer) {
	n := 1
	if len(t.q) > 1 && t.q[1] == '=' {
		n = 2
	}
	op := t.q[:n]
	if op == "!" {
		return t.error("expected \"!=\"")
	}
	return t.tok('c', op, t.q[n:])
}

func (t *tokenizer) quotedWord() (tok, tokenizer) {
	pos := 1 // Skip initial "
	for pos < len(t.q) && (t.q[pos] != '"' || t.q[pos-1] == '\\') {
		pos++
	}
	if pos == len(t.q) {
		return t.error("missing end quote")
	}
	// Parse the quoted string.
	word, err := strconv.Unquote(t.q[:pos+1])
	if err != nil {
		return t.error("bad escape sequence")
	}
	return t.tok('q', word, t.q[pos+1:])
}

func (t *tokenizer) backquotedWord() (tok, tokenizer) {
	end := 1
	for end < len(t.q) && t.q[end] != '`' {
		end++
	}
	if end == len(t.q) {
		return t.error("missing end backquote")
	}
	if end == 1 {
		return t.error("empty attribute name")
	}
	return t.tok('b', t.q[1:end], t.q[end+1:])
}

func (t *tokenizer) bareWord() (tok, tokenizer) {
	// Consume until a space, paren, or comparison operator.
	end := len(t.q)
	for i, r := range t.q {
		if unicode.IsSpace(r) || isParen(r) || isCmp(r) || r == '"' || r == '`' {
			end = i
			break
		}
	}
	word := t.q[:end]
	if word == "AND" {
		return t.tok('A', word, t.q[end:])
	} else if word == "OR" {
		return t.tok('O', word, t.q[end:])
	}
	return t.tok('w', word, t.q[end:])
}

// quoteAttr returns a string that tokenizes as a reference to
// attribute s.
func quoteAttr(s string) string {
	if s == "AND" || s == "OR" || isNumber(s) {
		return "`" + s + "`"
	}
	for _, r := range s {
		if unicode.IsSpace(r) || isParen(r) || isCmp(r) || r == '"' || r == '`' {
			return "`" + s + "`"
		}
	}
	return s
}

// isNumber reports whether bare word s is a numeric literal.
func isNumber(s string) bool {
	digits := strings.TrimLeft(s, "+-")
	if len(s)-len(digits) > 1 || digits == "" {
		return false
	}
	if c := digits[0]; c != '.' && (c < '0' || c > '9') {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
