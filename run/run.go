// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package run holds one loaded dataset: its tables, the projections
// between their subdomains, and the schema graph derived from them.
//
// A Run is built by adding tables and projections and then calling
// Refresh, which rebuilds the schema graph. Additions do not refresh
// the graph themselves so that bulk loads stay linear. Queries see the
// graph as of the last Refresh.
//
// A Run performs no synchronization. Loading and refreshing must not
// run concurrently with queries.
package run

import (
	"go.uber.org/zap"

	"github.com/LLNL/boxfish/projection"
	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

// A TableHandle identifies a table within a Run.
type TableHandle int

// A ProjectionHandle identifies a projection within a Run.
type ProjectionHandle int

// noEdge marks an empty cell of the adjacency matrix.
const noEdge ProjectionHandle = -1

// A Run owns a set of tables and projections and the schema graph over
// their subdomain types.
type Run struct {
	name string
	log  *zap.Logger

	tables      []*table.Table
	projections []projection.Projection

	// State below is rebuilt by Refresh.

	// tableTypes are the distinct types of tables, in registry
	// order.
	tableTypes []subdomain.Type
	// projTypes are the distinct endpoint types of projections, in
	// registry order. They are the vertices of the schema graph.
	projTypes []subdomain.Type
	vertex    map[subdomain.Type]int
	// adj[i][j] is the direct projection between projTypes[i] and
	// projTypes[j], or noEdge.
	adj [][]ProjectionHandle
}

// An Option configures a Run.
type Option func(*Run)

// WithLogger sets the logger for structural events. The default
// discards all output.
func WithLogger(log *zap.Logger) Option {
	return func(r *Run) {
		r.log = log
	}
}

// WithName sets the name of the Run.
func WithName(name string) Option {
	return func(r *Run) {
		r.name = name
	}
}

// New returns an empty Run.
func New(opts ...Option) *Run {
	r := &Run{log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(zap.String("run", r.name))
	return r
}

// Name returns the name of r.
func (r *Run) Name() string {
	return r.name
}

// AddTable adds t to r. The schema graph is not updated until the next
// Refresh.
func (r *Run) AddTable(t *table.Table) TableHandle {
	r.tables = append(r.tables, t)
	return TableHandle(len(r.tables) - 1)
}

// AddProjection adds p to r. The schema graph is not updated until the
// next Refresh.
func (r *Run) AddProjection(p projection.Projection) ProjectionHandle {
	r.projections = append(r.projections, p)
	return ProjectionHandle(len(r.projections) - 1)
}

// Table returns the table with handle h.
func (r *Run) Table(h TableHandle) *table.Table {
	return r.tables[h]
}

// Projection returns the projection with handle h.
func (r *Run) Projection(h ProjectionHandle) projection.Projection {
	return r.projections[h]
}

// Tables returns the tables of r in the order they were added.
func (r *Run) Tables() []*table.Table {
	return append([]*table.Table(nil), r.tables...)
}

// Projections returns the projections of r in the order they were
// added.
func (r *Run) Projections() []projection.Projection {
	return append([]projection.Projection(nil), r.projections...)
}

// TableByName returns the first table named name.
func (r *Run) TableByName(name string) (*table.Table, bool) {
	for _, t := range r.tables {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// TablesOfType returns the tables of type typ in the order they were
// added.
func (r *Run) TablesOfType(typ subdomain.Type) []*table.Table {
	var out []*table.Table
	for _, t := range r.tables {
		if t.Type() == typ {
			out = append(out, t)
		}
	}
	return out
}
