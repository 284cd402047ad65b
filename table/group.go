// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	ggtable "github.com/aclements/go-gg/table"
	"github.com/aclements/go-gg/generic/slice"
	"github.com/cockroachdb/errors"

	"github.com/LLNL/boxfish/aggregate"
	"github.com/LLNL/boxfish/subdomain"
)

// rowCol is a hidden column that keeps grouped sub-tables non-empty
// even when every selected column becomes a group constant.
const rowCol = "\x00row"

// AttributesByIdentifiers returns the values of each named column at
// rows. If unique is true, each result instead holds the sorted,
// distinct values of that column at rows.
func (t *Table) AttributesByIdentifiers(rows []int, names []string, unique bool) ([]Values, error) {
	out := make([]Values, len(names))
	for i, name := range names {
		k := t.kinds[name]
		if k == Invalid {
			return nil, errors.Wrapf(ErrUnknownAttribute, "%s: %q", t.name, name)
		}
		sel := slice.Select(t.data.Column(name), rows)
		if unique {
			sel = slice.Nub(sel)
			slice.Sort(sel)
		}
		out[i] = Values{k, sel}
	}
	return out, nil
}

// A Group is one distinct combination of group-by values and the
// aggregated values of the desired columns over the rows that share
// it.
type Group struct {
	// Key holds the value of each group-by column, in the order
	// they were named.
	Key []interface{}
	// Values holds the aggregate of each desired column, in the
	// order they were named.
	Values []float64
	// Rows are the rows in this group, in the order of the input.
	Rows []int
}

// GroupByAttributes partitions rows by the distinct combinations of
// the groupBy columns and reduces each desired column within each
// partition with agg. Groups appear in order of first appearance in
// rows.
//
// Desired columns must be numeric unless agg is aggregate.Count. With
// no groupBy columns, all of rows form one group.
func (t *Table) GroupByAttributes(rows []int, groupBy, desired []string, agg aggregate.Func) ([]Group, error) {
	for _, name := range groupBy {
		if t.kinds[name] == Invalid {
			return nil, errors.Wrapf(ErrUnknownAttribute, "%s: group by %q", t.name, name)
		}
	}
	for _, name := range desired {
		k := t.kinds[name]
		if k == Invalid {
			return nil, errors.Wrapf(ErrUnknownAttribute, "%s: %q", t.name, name)
		}
		if !k.Numeric() && agg != aggregate.Count {
			return nil, errors.Wrapf(ErrIncompatibleValue, "%s: cannot %s %s column %q", t.name, agg, k, name)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var b ggtable.Builder
	b.Add(rowCol, append([]int{}, rows...))
	for _, names := range [][]string{groupBy, desired} {
		for _, name := range names {
			b.Add(name, slice.Select(t.data.Column(name), rows))
		}
	}
	g := ggtable.GroupBy(b.Done(), groupBy...)

	var out []Group
	for _, gid := range g.Tables() {
		gt := g.Table(gid)
		grp := Group{
			Key:    make([]interface{}, len(groupBy)),
			Values: make([]float64, len(desired)),
			Rows:   gt.Column(rowCol).([]int),
		}
		for i := len(groupBy) - 1; i >= 0; i-- {
			grp.Key[i] = gid.Label()
			gid = gid.Parent()
		}
		for i, name := range desired {
			var xs []float64
			if t.kinds[name].Numeric() {
				slice.Convert(&xs, gt.Column(name))
			} else {
				xs = make([]float64, gt.Len())
			}
			grp.Values[i] = agg.Apply(xs)
		}
		out = append(out, grp)
	}
	return out, nil
}

// Evaluate aggregates column attr over the rows matching each element
// of s. Elements with no matching rows are 0.
//
// If t is not of s's type, or attr is not a numeric column of t,
// Evaluate returns all zeros and false. The result always has one
// value per element of s.
func (t *Table) Evaluate(s subdomain.Subdomain, attr string, agg aggregate.Func) ([]float64, bool) {
	out := make([]float64, s.Len())
	k := t.kinds[attr]
	if !k.Numeric() && !(k == String && agg == aggregate.Count) {
		return out, false
	}
	perElem, err := t.Lookup(s)
	if err != nil {
		return out, false
	}
	col, _ := t.Column(attr)
	var all []float64
	if k.Numeric() {
		all = col.Floats()
	} else {
		all = make([]float64, t.Len())
	}
	for i, rows := range perElem {
		out[i] = agg.Apply(slice.Select(all, rows).([]float64))
	}
	return out, true
}
