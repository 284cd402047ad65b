// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clause

import "testing"

func TestParse(t *testing.T) {
	check := func(query string, want string) {
		t.Helper()
		c, err := Parse(query)
		if err != nil {
			t.Errorf("%s: unexpected error %s", query, err)
			return
		}
		if got := c.String(); got != want {
			t.Errorf("%s: got %s, want %s", query, got, want)
			return
		}
		// The canonical form must parse to itself.
		c2, err := Parse(want)
		if err != nil {
			t.Errorf("%s: re-parsing %s: %s", query, want, err)
		} else if got := c2.String(); got != want {
			t.Errorf("%s: re-parsed %s as %s", query, want, got)
		}
	}
	checkErr := func(query, error string, pos int) {
		t.Helper()
		_, err := Parse(query)
		if se, _ := err.(*SyntaxError); se == nil || se.Msg != error || se.Off != pos {
			t.Errorf("%s: want error %s at %d; got %v", query, error, pos, err)
		}
	}

	// Relations
	check(`a = 1`, `a = 1`)
	check(`a == 1`, `a = 1`)
	check(`a<=1`, `a <= 1`)
	check(`a != "x y"`, `a != "x y"`)
	check(`a >= 2.5`, `a >= 2.5`)
	check(`a < 2.0`, `a < 2.0`)
	check(`a > -3`, `a > -3`)
	check(`3 < a`, `3 < a`)
	check(`a = b`, `a = b`)
	check("`a b` = 1", "`a b` = 1")
	check("`1` = 1", "`1` = 1")
	check(`"a☃" = label`, `"a☃" = label`)
	check(`a < .5`, `a < 0.5`)
	check(`a > +1.5`, `a > 1.5`)
	check(`a > -1e300`, `a > -1e+300`)
	// Words that only parse as special floats are attributes.
	check(`inf = 1`, `inf = 1`)
	check(`a < nan`, `a < nan`)
	check(`a = Infinity`, `a = Infinity`)
	check(`a = -inf`, `a = -inf`)

	// Boolean structure
	check(`(a = 1)`, `a = 1`)
	check(`phase = 0 AND bytes < 10`, `(phase = 0 AND bytes < 10)`)
	check(`phase = 0 bytes < 10`, `(phase = 0 AND bytes < 10)`)
	check(`a = 1 OR b = 2`, `(a = 1 OR b = 2)`)
	check(`a = 1 b = 2 OR c = 3`, `((a = 1 AND b = 2) OR c = 3)`)
	check(`a = 1 AND (b = 2 OR c = 3) AND d = 4`, `(a = 1 AND (b = 2 OR c = 3) AND d = 4)`)

	// Errors
	checkErr(`a`, "expected comparison", 0)
	checkErr(`a =`, "expected attribute or value", 3)
	checkErr(``, "expected comparison or subexpression", 0)
	checkErr(`()`, "expected comparison or subexpression", 1)
	checkErr(`AND`, "expected comparison or subexpression", 0)
	checkErr(`(a = 1`, "missing \")\"", 6)
	checkErr(`(a = 1))`, "unexpected \")\"", 7)
	checkErr(`1 = 2`, "comparison must reference an attribute", 0)
	checkErr(`a ! 1`, "expected \"!=\"", 2)
	checkErr(`a = "b`, "missing end quote", 4)
	checkErr("`` = 1", "empty attribute name", 0)
	checkErr(`a = 1 b`, "expected comparison", 5)
	checkErr(`a = 1 OR`, "expected comparison or subexpression", 8)
	checkErr(`a = AND`, "expected attribute or value", 3)
	checkErr(`a = 1 AND`, "expected comparison or subexpression after AND", 9)
	checkErr(`(a = 1 AND)`, "expected comparison or subexpression after AND", 10)
	checkErr(`a = 1 AND AND b = 2`, "expected comparison or subexpression after AND", 9)
	checkErr(`a = 1 AND OR b = 2`, "expected comparison or subexpression after AND", 9)
}

func TestParseOperands(t *testing.T) {
	c, err := Parse(`n = 4 AND f = 4.5 AND s = "4"`)
	if err != nil {
		t.Fatal(err)
	}
	exprs := c.(*Combinator).Exprs
	want := []interface{}{4, 4.5, "4"}
	for i, e := range exprs {
		r := e.(*Relation)
		if !r.Left.IsAttr() || r.Right.IsAttr() {
			t.Errorf("%s: want attribute on the left and literal on the right", r)
		}
		if r.Right.Value != want[i] {
			t.Errorf("%s: literal %#v, want %#v", r, r.Right.Value, want[i])
		}
	}
}
