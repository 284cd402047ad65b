// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package query evaluates clauses whose attributes may live in tables
// other than the one being filtered.
//
// Attributes the primary table lacks are located through the Run's
// schema graph. Each foreign table is filtered by the part of the
// clause it can answer, and its matching keys are projected into the
// primary table's subdomain to narrow the primary rows.
//
// Restricting a clause to one table's attributes is exact for AND but
// lossy for OR: an OR that spans tables is split, and each side only
// narrows the rows through the table that owns it.
package query

import (
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/LLNL/boxfish/aggregate"
	"github.com/LLNL/boxfish/clause"
	"github.com/LLNL/boxfish/run"
	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

// An Evaluator runs cross-table queries against a Run.
type Evaluator struct {
	run *run.Run
	log *zap.Logger
}

// New returns an Evaluator over r. If log is nil, nothing is logged.
func New(r *run.Run, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{run: r, log: log}
}

// Evaluate returns the rows among rows of primary that satisfy c,
// preserving the order of rows.
//
// Attributes of c found in no table are ignored. A foreign table that
// no projection joins to primary is skipped. Errors evaluating the
// clause against a table, such as an incompatible literal, are
// returned.
func (e *Evaluator) Evaluate(primary *table.Table, rows []int, c clause.Clause) ([]int, error) {
	if c == nil {
		return append([]int{}, rows...), nil
	}
	if err := clause.Validate(c); err != nil {
		return nil, err
	}

	var foreign []*table.Table
	seen := make(map[*table.Table]bool)
	for _, attr := range clause.Attributes(c) {
		if primary.HasAttribute(attr) {
			continue
		}
		t, ok := e.run.FindAttribute(attr, primary)
		if !ok {
			e.log.Debug("ignoring unknown attribute", zap.String("attribute", attr))
			continue
		}
		if !seen[t] {
			seen[t] = true
			foreign = append(foreign, t)
		}
	}

	out := append([]int{}, rows...)
	for _, ft := range foreign {
		p, ok := e.run.GetProjection(ft.Type(), primary.Type())
		if !ok {
			e.log.Debug("skipping unreachable table",
				zap.String("table", ft.Name()), zap.Stringer("from", ft.Type()), zap.Stringer("to", primary.Type()))
			continue
		}
		sub := clause.Restrict(c, ft.HasAttribute)
		matches, err := ft.EvaluateClause(sub, ft.Identifiers())
		if err != nil {
			return nil, err
		}
		keys := distinct(ft.Keys(matches))
		ids, err := p.Project(subdomain.New(ft.Type(), keys...), primary.Type())
		if err != nil {
			return nil, errors.Wrapf(err, "projecting %s onto %s", ft.Name(), primary.Name())
		}
		out = primary.SubsetByKey(out, ids.IDs())
	}

	if local := clause.Restrict(c, primary.HasAttribute); local != nil {
		return primary.EvaluateClause(local, out)
	}
	return out, nil
}

// GroupBy filters rows of primary by c and then groups and aggregates
// the result as table.GroupByAttributes does.
func (e *Evaluator) GroupBy(primary *table.Table, rows []int, c clause.Clause, groupBy, desired []string, agg aggregate.Func) ([]table.Group, error) {
	filtered, err := e.Evaluate(primary, rows, c)
	if err != nil {
		return nil, err
	}
	return primary.GroupByAttributes(filtered, groupBy, desired, agg)
}

// A Domain is a set of identifiers with one aggregated value each.
type Domain struct {
	Subdomain subdomain.Subdomain
	Values    []float64
}

// AggregateDomain filters rows of primary by c, maps each remaining
// row onto the identifiers of type target that its key projects to,
// and aggregates attr per target identifier. The result is ordered by
// identifier.
//
// It returns run.ErrNoProjectionPath if no projection joins primary's
// type to target.
func (e *Evaluator) AggregateDomain(primary *table.Table, rows []int, c clause.Clause, target subdomain.Type, attr string, agg aggregate.Func) (Domain, error) {
	p, err := e.run.MustProjection(primary.Type(), target)
	if err != nil {
		return Domain{}, err
	}
	filtered, err := e.Evaluate(primary, rows, c)
	if err != nil {
		return Domain{}, err
	}
	vals, err := primary.AttributesByIdentifiers(filtered, []string{attr}, false)
	if err != nil {
		return Domain{}, err
	}
	xs := vals[0].Floats()
	if xs == nil {
		if agg != aggregate.Count {
			return Domain{}, errors.Wrapf(table.ErrIncompatibleValue, "cannot %s %s column %q", agg, vals[0].Kind, attr)
		}
		xs = make([]float64, vals[0].Len())
	}

	// Project each distinct key once.
	keys := primary.Keys(filtered)
	targetsOf := make(map[int][]int)
	for _, k := range distinct(keys) {
		out, err := p.Project(subdomain.New(primary.Type(), k), target)
		if err != nil {
			return Domain{}, errors.Wrapf(err, "projecting %s key %d", primary.Name(), k)
		}
		targetsOf[k] = out.IDs()
	}

	byTarget := make(map[int][]float64)
	for i, k := range keys {
		for _, id := range targetsOf[k] {
			byTarget[id] = append(byTarget[id], xs[i])
		}
	}
	ids := make([]int, 0, len(byTarget))
	for id := range byTarget {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	d := Domain{
		Subdomain: subdomain.New(target, ids...),
		Values:    make([]float64, len(ids)),
	}
	for i, id := range ids {
		d.Values[i] = agg.Apply(byTarget[id])
	}
	return d, nil
}

// distinct returns the distinct values of xs in order of first
// appearance.
func distinct(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}
