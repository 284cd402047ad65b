// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package run

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/LLNL/boxfish/projection"
	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

// ErrNoProjectionPath is returned when no chain of projections joins
// two subdomain types.
var ErrNoProjectionPath = errors.New("no projection path")

// Refresh rebuilds the schema graph from r's current tables and
// projections.
//
// If two projections join the same pair of types, the one added first
// is the graph edge.
func (r *Run) Refresh() {
	r.tableTypes = distinctTypes(len(r.tables), func(i int) []subdomain.Type {
		return []subdomain.Type{r.tables[i].Type()}
	})
	r.projTypes = distinctTypes(len(r.projections), func(i int) []subdomain.Type {
		p := r.projections[i]
		return []subdomain.Type{p.Source(), p.Destination()}
	})

	r.vertex = make(map[subdomain.Type]int, len(r.projTypes))
	for i, t := range r.projTypes {
		r.vertex[t] = i
	}
	r.adj = make([][]ProjectionHandle, len(r.projTypes))
	for i := range r.adj {
		r.adj[i] = make([]ProjectionHandle, len(r.projTypes))
		for j := range r.adj[i] {
			r.adj[i][j] = noEdge
		}
	}
	edges := 0
	for h, p := range r.projections {
		i, j := r.vertex[p.Source()], r.vertex[p.Destination()]
		if prev := r.adj[i][j]; prev != noEdge {
			r.log.Debug("ignoring duplicate projection",
				zap.Stringer("projection", p), zap.Stringer("edge", r.projections[prev]))
			continue
		}
		r.adj[i][j] = ProjectionHandle(h)
		r.adj[j][i] = ProjectionHandle(h)
		edges++
	}

	r.log.Debug("refreshed schema",
		zap.Int("tables", len(r.tables)),
		zap.Int("tableSubdomains", len(r.tableTypes)),
		zap.Int("projectionSubdomains", len(r.projTypes)),
		zap.Int("edges", edges))
}

// distinctTypes returns the distinct types produced by get for 0 <= i
// < n, sorted by registry index.
func distinctTypes(n int, get func(i int) []subdomain.Type) []subdomain.Type {
	seen := make(map[subdomain.Type]bool)
	var out []subdomain.Type
	for i := 0; i < n; i++ {
		for _, t := range get(i) {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// TableSubdomains returns the types backed by at least one table, as
// of the last Refresh.
func (r *Run) TableSubdomains() []subdomain.Type {
	return append([]subdomain.Type(nil), r.tableTypes...)
}

// ProjectionSubdomains returns the vertices of the schema graph: the
// types that are an endpoint of some projection, as of the last
// Refresh.
func (r *Run) ProjectionSubdomains() []subdomain.Type {
	return append([]subdomain.Type(nil), r.projTypes...)
}

// An Edge is a direct projection in the schema graph.
type Edge struct {
	A, B       subdomain.Type
	Projection projection.Projection
}

// Edges returns the edges of the schema graph, ordered by the registry
// index of their endpoints.
func (r *Run) Edges() []Edge {
	var out []Edge
	for i := range r.adj {
		for j := i; j < len(r.adj); j++ {
			if h := r.adj[i][j]; h != noEdge {
				out = append(out, Edge{r.projTypes[i], r.projTypes[j], r.projections[h]})
			}
		}
	}
	return out
}

// adjacent reports whether a and b are joined by a direct projection.
func (r *Run) adjacent(a, b subdomain.Type) bool {
	i, ok1 := r.vertex[a]
	j, ok2 := r.vertex[b]
	return ok1 && ok2 && r.adj[i][j] != noEdge
}

// SynthesizeUncoveredSubdomains adds an identifier-only table for each
// schema graph vertex that has no table, so that every vertex can be
// queried. The identifiers are the union of those known to the
// vertex's projections. The key column is named after a file
// projection's key column when one touches the vertex.
//
// It uses the graph from the last Refresh and returns the handles of
// the new tables. Callers should Refresh again afterwards.
func (r *Run) SynthesizeUncoveredSubdomains() ([]TableHandle, error) {
	covered := make(map[subdomain.Type]bool)
	for _, t := range r.tableTypes {
		covered[t] = true
	}

	var out []TableHandle
	for _, typ := range r.projTypes {
		if covered[typ] {
			continue
		}
		key := ""
		idSet := make(map[int]bool)
		for _, p := range r.projections {
			if _, ok := projection.Other(p, typ); !ok {
				continue
			}
			if ids, ok := projection.IDsFor(p, typ); ok {
				for _, id := range ids {
					idSet[id] = true
				}
			}
			if tb, ok := p.(*projection.TableBacked); ok && key == "" {
				key, _ = tb.KeyFor(typ)
			}
		}
		if key == "" {
			key = strings.ToLower(typ.Name) + "id"
		}
		ids := make([]int, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		t, err := table.IDOnly(typ.Key(), typ, key, ids)
		if err != nil {
			return out, errors.Wrapf(err, "synthesizing %s", typ)
		}
		out = append(out, r.AddTable(t))
		r.log.Debug("synthesized id-only table",
			zap.Stringer("subdomain", typ), zap.String("key", key), zap.Int("ids", len(ids)))
	}
	return out, nil
}

// GetProjection returns a projection between a and b.
//
// If a and b are the same type, it returns an Identity projection. If
// the schema graph has a direct edge, it returns that projection.
// Otherwise it returns a Composition along a shortest path, choosing
// lower registry indexes first among equally short paths. It returns
// false if either type is not in the graph or no path joins them.
func (r *Run) GetProjection(a, b subdomain.Type) (projection.Projection, bool) {
	if a == b {
		return projection.NewIdentity(a, b), true
	}
	i, ok := r.vertex[a]
	if !ok {
		return nil, false
	}
	j, ok := r.vertex[b]
	if !ok {
		return nil, false
	}
	if h := r.adj[i][j]; h != noEdge {
		return r.projections[h], true
	}

	path := r.shortestPath(i, j)
	if path == nil {
		return nil, false
	}
	steps := make([]projection.Step, len(path)-1)
	for k := range steps {
		u, v := path[k], path[k+1]
		steps[k] = projection.Step{
			Projection: r.projections[r.adj[u][v]],
			From:       r.projTypes[u],
			To:         r.projTypes[v],
		}
	}
	comp, err := projection.NewComposition(steps...)
	if err != nil {
		r.log.Error("composing projection path", zap.Error(err))
		return nil, false
	}
	r.log.Debug("composed projection", zap.Stringer("from", a), zap.Stringer("to", b), zap.Stringer("projection", comp))
	return comp, true
}

// MustProjection is like GetProjection, but returns ErrNoProjectionPath
// when there is no projection.
func (r *Run) MustProjection(a, b subdomain.Type) (projection.Projection, error) {
	p, ok := r.GetProjection(a, b)
	if !ok {
		return nil, errors.Wrapf(ErrNoProjectionPath, "%s to %s", a, b)
	}
	return p, nil
}

// shortestPath returns the vertices of a shortest path from vertex
// src to vertex dst, inclusive, or nil if dst is unreachable. Every
// edge has unit cost, so this is a breadth-first search. Neighbors are
// visited in increasing index order, so the path is deterministic.
func (r *Run) shortestPath(src, dst int) []int {
	prev := make([]int, len(r.projTypes))
	for i := range prev {
		prev[i] = -1
	}
	prev[src] = src
	queue := []int{src}
	for len(queue) > 0 && prev[dst] == -1 {
		u := queue[0]
		queue = queue[1:]
		for v, h := range r.adj[u] {
			if h != noEdge && prev[v] == -1 {
				prev[v] = u
				queue = append(queue, v)
			}
		}
	}
	if prev[dst] == -1 {
		return nil
	}

	var path []int
	for v := dst; v != src; v = prev[v] {
		path = append(path, v)
	}
	path = append(path, src)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
