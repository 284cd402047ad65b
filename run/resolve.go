// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package run

import (
	"go.uber.org/zap"

	"github.com/LLNL/boxfish/aggregate"
	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

// FindAttribute returns a table that has a column called name,
// preferring tables close to ref in the schema graph.
//
// It searches, in order, ref itself, other tables of ref's type,
// tables whose type is joined to ref's type by a direct projection,
// and finally all tables. Within each tier tables are considered in
// the order they were added.
func (r *Run) FindAttribute(name string, ref *table.Table) (*table.Table, bool) {
	return r.findAttribute(name, ref.Type(), ref)
}

func (r *Run) findAttribute(name string, typ subdomain.Type, ref *table.Table) (*table.Table, bool) {
	if ref != nil && ref.HasAttribute(name) {
		return ref, true
	}
	tiers := []func(t *table.Table) bool{
		func(t *table.Table) bool { return t.Type() == typ },
		func(t *table.Table) bool { return r.adjacent(typ, t.Type()) },
		func(t *table.Table) bool { return true },
	}
	for _, inTier := range tiers {
		for _, t := range r.tables {
			if inTier(t) && t.HasAttribute(name) {
				return t, true
			}
		}
	}
	return nil, false
}

// Evaluate aggregates attr with agg over the rows matching each
// element of s.
//
// If a table of s's type has attr, Evaluate uses it directly.
// Otherwise it finds the nearest table with attr, projects each
// element of s into that table's type, and aggregates over the
// projected identifiers. Elements with no matching rows are 0. If no
// table has attr or no projection reaches it, Evaluate returns zeros
// and false.
func (r *Run) Evaluate(s subdomain.Subdomain, attr string, agg aggregate.Func) ([]float64, bool) {
	for _, t := range r.TablesOfType(s.Type()) {
		if vals, ok := t.Evaluate(s, attr, agg); ok {
			return vals, true
		}
	}

	zeros := make([]float64, s.Len())
	t, ok := r.findAttribute(attr, s.Type(), nil)
	if !ok {
		r.log.Debug("attribute not found", zap.String("attribute", attr))
		return zeros, false
	}
	p, ok := r.GetProjection(s.Type(), t.Type())
	if !ok {
		r.log.Debug("no projection to attribute table",
			zap.String("attribute", attr), zap.Stringer("from", s.Type()), zap.Stringer("to", t.Type()))
		return zeros, false
	}
	groups := make([][]int, s.Len())
	for i := range groups {
		proj, err := p.Project(subdomain.New(s.Type(), s.Element(i)...), t.Type())
		if err != nil {
			r.log.Error("projecting element", zap.Stringer("projection", p), zap.Error(err))
			return zeros, false
		}
		groups[i] = proj.IDs()
	}
	return t.Evaluate(subdomain.NewGrouped(t.Type(), groups), attr, agg)
}

// Project maps the identifiers of s to type dst through
// GetProjection. It returns false if no projection joins the types.
func (r *Run) Project(s subdomain.Subdomain, dst subdomain.Type) (subdomain.Subdomain, bool) {
	p, ok := r.GetProjection(s.Type(), dst)
	if !ok {
		return subdomain.Subdomain{}, false
	}
	out, err := p.Project(s, dst)
	if err != nil {
		r.log.Error("projecting", zap.Stringer("projection", p), zap.Error(err))
		return subdomain.Subdomain{}, false
	}
	return out, true
}
