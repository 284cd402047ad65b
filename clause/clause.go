// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clause implements boolean predicates over table attributes.
//
// A Clause is a small expression tree. Leaves are Relations that
// compare an attribute against a literal or against another attribute
// using one of =, !=, <, <=, >, >=. Interior nodes are Combinators that
// fold their children with AND or OR.
//
// Clauses are immutable once built. They can be constructed directly
// with AndOf, OrOf, Compare, and Rel, or parsed from text with Parse:
//
//	phase = 0 AND bytes < 10
//	(node != 3 OR "x" = label) hops >= 2.5
//
// In the text form, bare words are attribute names, numbers are
// numeric literals, and double-quoted words are string literals.
// Attribute names that aren't bare words can be written in backquotes.
// Juxtaposed relations are combined with AND.
package clause

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrEmptyClause is returned for a Combinator with no children.
var ErrEmptyClause = errors.New("empty clause")

// A Clause is a node in a predicate tree. It is either a *Relation or
// a *Combinator.
type Clause interface {
	isClause()
	String() string
}

// Op is a comparison operator.
type Op int

const (
	Eq Op = 1 + iota
	Ne
	Lt
	Le
	Gt
	Ge
)

var opNames = map[Op]string{Eq: "=", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">="}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// ParseOp returns the Op written as s.
func ParseOp(s string) (Op, error) {
	for op, name := range opNames {
		if name == s {
			return op, nil
		}
	}
	if s == "==" {
		return Eq, nil
	}
	return 0, errors.Newf("unknown comparison operator %q", s)
}

// Flip returns the operator that gives the same result when the
// operands are swapped.
func (op Op) Flip() Op {
	switch op {
	case Lt:
		return Gt
	case Le:
		return Ge
	case Gt:
		return Lt
	case Ge:
		return Le
	}
	return op
}

// Compare reports the result of applying op to the ordering c, where c
// is <0, 0, or >0 as the left operand is less than, equal to, or
// greater than the right operand.
func (op Op) Compare(c int) bool {
	switch op {
	case Eq:
		return c == 0
	case Ne:
		return c != 0
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	}
	panic(fmt.Sprintf("unknown comparison op %v", op))
}

// BoolOp is a boolean combinator.
type BoolOp int

const (
	And BoolOp = 1 + iota
	Or
)

func (op BoolOp) String() string {
	switch op {
	case And:
		return "AND"
	case Or:
		return "OR"
	}
	return fmt.Sprintf("BoolOp(%d)", int(op))
}

// An Operand is one side of a Relation: either an attribute reference
// or a literal value.
type Operand struct {
	// Attr is the attribute name if this Operand is an attribute
	// reference.
	Attr string
	// Value is the literal value if Attr is "". It is an int,
	// float64, or string for literals built with Lit or Parse.
	Value interface{}
}

// Attr returns an Operand referencing attribute name.
func Attr(name string) Operand {
	return Operand{Attr: name}
}

// Lit returns a literal Operand. Integer and floating-point values are
// normalized to int and float64.
func Lit(v interface{}) Operand {
	switch x := v.(type) {
	case int8:
		v = int(x)
	case int16:
		v = int(x)
	case int32:
		v = int(x)
	case int64:
		v = int(x)
	case uint8:
		v = int(x)
	case uint16:
		v = int(x)
	case uint32:
		v = int(x)
	case float32:
		v = float64(x)
	}
	return Operand{Value: v}
}

// IsAttr reports whether o references an attribute.
func (o Operand) IsAttr() bool {
	return o.Attr != ""
}

func (o Operand) String() string {
	if o.IsAttr() {
		return quoteAttr(o.Attr)
	}
	switch v := o.Value.(type) {
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if math.IsInf(v, 0) || math.IsNaN(v) {
			// Bare inf and nan are attribute names.
			return strconv.Quote(s)
		}
		if !strings.ContainsAny(s, ".eEIN") {
			// Keep it a float when re-parsed.
			s += ".0"
		}
		return s
	}
	return fmt.Sprint(o.Value)
}

// A Relation compares two operands.
type Relation struct {
	Op          Op
	Left, Right Operand
}

func (*Relation) isClause() {}

func (r *Relation) String() string {
	return r.Left.String() + " " + r.Op.String() + " " + r.Right.String()
}

// A Combinator folds the results of its child clauses with a boolean
// operator. A Combinator with one child is equivalent to that child.
// A Combinator with no children is invalid.
type Combinator struct {
	Op    BoolOp
	Exprs []Clause
}

func (*Combinator) isClause() {}

func (c *Combinator) String() string {
	if len(c.Exprs) == 0 {
		return c.Op.String() + "()"
	}
	var buf strings.Builder
	buf.WriteByte('(')
	for i, e := range c.Exprs {
		if i > 0 {
			buf.WriteString(" " + c.Op.String() + " ")
		}
		buf.WriteString(e.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// Rel returns a Relation comparing l and r with op.
func Rel(op Op, l, r Operand) *Relation {
	return &Relation{op, l, r}
}

// Compare returns a Relation comparing attribute attr to literal v.
func Compare(attr string, op Op, v interface{}) *Relation {
	return &Relation{op, Attr(attr), Lit(v)}
}

// AndOf returns a Combinator that is true when all of exprs are true.
func AndOf(exprs ...Clause) *Combinator {
	return &Combinator{And, exprs}
}

// OrOf returns a Combinator that is true when any of exprs is true.
func OrOf(exprs ...Clause) *Combinator {
	return &Combinator{Or, exprs}
}

// Walk calls fn for each node of c in depth-first order.
func Walk(c Clause, fn func(Clause)) {
	if c == nil {
		return
	}
	fn(c)
	if comb, ok := c.(*Combinator); ok {
		for _, e := range comb.Exprs {
			Walk(e, fn)
		}
	}
}

// Attributes returns the sorted, distinct attribute names referenced
// anywhere in c.
func Attributes(c Clause) []string {
	seen := make(map[string]bool)
	Walk(c, func(n Clause) {
		if r, ok := n.(*Relation); ok {
			for _, o := range []Operand{r.Left, r.Right} {
				if o.IsAttr() {
					seen[o.Attr] = true
				}
			}
		}
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate checks the structure of c. It returns ErrEmptyClause if any
// Combinator in c has no children.
func Validate(c Clause) error {
	var err error
	Walk(c, func(n Clause) {
		if comb, ok := n.(*Combinator); ok && len(comb.Exprs) == 0 && err == nil {
			err = errors.Wrapf(ErrEmptyClause, "%s with no operands", comb.Op)
		}
	})
	return err
}

// Restrict returns the part of c whose attributes all satisfy keep.
// Relations naming any attribute that fails keep are dropped, and
// Combinators left with no children are dropped in turn. Restrict
// returns nil if nothing of c remains.
//
// A Combinator left with a single child is replaced by that child.
func Restrict(c Clause, keep func(attr string) bool) Clause {
	switch c := c.(type) {
	case *Relation:
		for _, o := range []Operand{c.Left, c.Right} {
			if o.IsAttr() && !keep(o.Attr) {
				return nil
			}
		}
		return c
	case *Combinator:
		var exprs []Clause
		changed := false
		for _, e := range c.Exprs {
			r := Restrict(e, keep)
			if r != e {
				changed = true
			}
			if r != nil {
				exprs = append(exprs, r)
			}
		}
		switch len(exprs) {
		case 0:
			return nil
		case 1:
			return exprs[0]
		}
		if !changed {
			return c
		}
		return &Combinator{c.Op, exprs}
	}
	return nil
}
