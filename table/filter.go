// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/LLNL/boxfish/clause"
)

// A filterFn computes the set of positions in rows that satisfy a
// compiled clause.
type filterFn func(rows []int) mask

// EvaluateClause returns the rows among rows that satisfy c, in the
// order of rows. A nil clause matches every row.
//
// Literals are converted to the type of the column they are compared
// with, except that an integer column compared with a fractional or
// out-of-range number is compared as floats. Float comparisons follow
// IEEE rules, so NaN satisfies only !=. Comparing two attributes
// requires both to be numeric or both to be strings. EvaluateClause returns ErrUnknownAttribute if c names
// a column t lacks, ErrIncompatibleValue if a literal can't be
// converted or two operands can't be compared, and
// clause.ErrEmptyClause if c contains an empty Combinator.
func (t *Table) EvaluateClause(c clause.Clause, rows []int) ([]int, error) {
	if c == nil {
		return append([]int{}, rows...), nil
	}
	if err := clause.Validate(c); err != nil {
		return nil, err
	}
	fn, err := t.compile(c)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: %s", t.name, c)
	}
	return fn(rows).selectRows(rows), nil
}

func (t *Table) compile(c clause.Clause) (filterFn, error) {
	switch c := c.(type) {
	case *clause.Relation:
		return t.compileRelation(c)

	case *clause.Combinator:
		if len(c.Exprs) == 1 {
			return t.compile(c.Exprs[0])
		}
		subs := make([]filterFn, len(c.Exprs))
		for i, e := range c.Exprs {
			fn, err := t.compile(e)
			if err != nil {
				return nil, err
			}
			subs[i] = fn
		}
		fold := mask.and
		if c.Op == clause.Or {
			fold = mask.or
		}
		return func(rows []int) mask {
			m := subs[0](rows)
			for _, sub := range subs[1:] {
				fold(m, sub(rows))
			}
			return m
		}, nil
	}
	return nil, errors.AssertionFailedf("unknown clause node %T", c)
}

func (t *Table) compileRelation(r *clause.Relation) (filterFn, error) {
	op, left, right := r.Op, r.Left, r.Right
	if !left.IsAttr() {
		if !right.IsAttr() {
			return nil, errors.Wrapf(ErrIncompatibleValue, "%s compares two literals", r)
		}
		op, left, right = op.Flip(), right, left
	}
	for _, o := range []clause.Operand{left, right} {
		if o.IsAttr() && !t.HasAttribute(o.Attr) {
			return nil, errors.WithHint(errors.Wrapf(ErrUnknownAttribute, "%q", o.Attr),
				"attributes are "+strings.Join(t.Columns(), ", "))
		}
	}

	if right.IsAttr() {
		return t.compileAttrs(op, left.Attr, right.Attr)
	}
	return t.compileLiteral(op, left.Attr, right.Value)
}

// compileLiteral compiles a comparison of column attr against literal
// v.
func (t *Table) compileLiteral(op clause.Op, attr string, v interface{}) (filterFn, error) {
	col := t.data.Column(attr)
	switch t.kinds[attr] {
	case Int:
		col := col.([]int)
		if x, ok := intLiteral(v); ok {
			return func(rows []int) mask {
				m := newMask(len(rows))
				for i, r := range rows {
					if op.Compare(compareInt(col[r], x)) {
						m.set(i)
					}
				}
				return m
			}, nil
		}
		// Fractional or out-of-range literals compare as floats.
		x, err := toFloat(v)
		if err != nil {
			return nil, errors.Wrapf(err, "comparing %s", attr)
		}
		holds := floatOp(op)
		return func(rows []int) mask {
			m := newMask(len(rows))
			for i, r := range rows {
				if holds(float64(col[r]), x) {
					m.set(i)
				}
			}
			return m
		}, nil

	case Float:
		x, err := toFloat(v)
		if err != nil {
			return nil, errors.Wrapf(err, "comparing %s", attr)
		}
		col := col.([]float64)
		holds := floatOp(op)
		return func(rows []int) mask {
			m := newMask(len(rows))
			for i, r := range rows {
				if holds(col[r], x) {
					m.set(i)
				}
			}
			return m
		}, nil

	case String:
		x, err := toString(v)
		if err != nil {
			return nil, errors.Wrapf(err, "comparing %s", attr)
		}
		col := col.([]string)
		return func(rows []int) mask {
			m := newMask(len(rows))
			for i, r := range rows {
				if op.Compare(strings.Compare(col[r], x)) {
					m.set(i)
				}
			}
			return m
		}, nil
	}
	return nil, errors.AssertionFailedf("column %s has kind %s", attr, t.kinds[attr])
}

// compileAttrs compiles a comparison between two columns.
func (t *Table) compileAttrs(op clause.Op, a, b string) (filterFn, error) {
	ka, kb := t.kinds[a], t.kinds[b]
	switch {
	case ka == Int && kb == Int:
		ca, cb := t.data.Column(a).([]int), t.data.Column(b).([]int)
		return func(rows []int) mask {
			m := newMask(len(rows))
			for i, r := range rows {
				if op.Compare(compareInt(ca[r], cb[r])) {
					m.set(i)
				}
			}
			return m
		}, nil

	case ka.Numeric() && kb.Numeric():
		va, _ := t.Column(a)
		vb, _ := t.Column(b)
		ca, cb := va.Floats(), vb.Floats()
		holds := floatOp(op)
		return func(rows []int) mask {
			m := newMask(len(rows))
			for i, r := range rows {
				if holds(ca[r], cb[r]) {
					m.set(i)
				}
			}
			return m
		}, nil

	case ka == String && kb == String:
		ca, cb := t.data.Column(a).([]string), t.data.Column(b).([]string)
		return func(rows []int) mask {
			m := newMask(len(rows))
			for i, r := range rows {
				if op.Compare(strings.Compare(ca[r], cb[r])) {
					m.set(i)
				}
			}
			return m
		}, nil
	}
	return nil, errors.Wrapf(ErrIncompatibleValue, "cannot compare %s column %s with %s column %s", ka, a, kb, b)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// floatOp returns the IEEE comparison for op. Every comparison with
// NaN is false except Ne.
func floatOp(op clause.Op) func(a, b float64) bool {
	switch op {
	case clause.Eq:
		return func(a, b float64) bool { return a == b }
	case clause.Ne:
		return func(a, b float64) bool { return a != b }
	case clause.Lt:
		return func(a, b float64) bool { return a < b }
	case clause.Le:
		return func(a, b float64) bool { return a <= b }
	case clause.Gt:
		return func(a, b float64) bool { return a > b }
	case clause.Ge:
		return func(a, b float64) bool { return a >= b }
	}
	panic(fmt.Sprintf("unknown comparison op %v", op))
}

// intLiteral converts v to an int if it is an integer that int can
// represent exactly.
func intLiteral(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		// MinInt is exact as a float64 and -MinInt is one past MaxInt.
		if x == math.Trunc(x) && x >= math.MinInt && x < -math.MinInt {
			return int(x), true
		}
	case string:
		if n, err := strconv.Atoi(x); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return intLiteral(f)
		}
	}
	return 0, false
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f, nil
		}
	}
	return 0, errors.Wrapf(ErrIncompatibleValue, "%#v is not a number", v)
}

func toString(v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int:
		return strconv.Itoa(x), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	}
	return "", errors.Wrapf(ErrIncompatibleValue, "%#v is not a string", v)
}
