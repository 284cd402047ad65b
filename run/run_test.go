// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package run

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/LLNL/boxfish/aggregate"
	"github.com/LLNL/boxfish/projection"
	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

func mustTable(t *testing.T, name string, typ subdomain.Type, key string, cols ...table.Column) *table.Table {
	t.Helper()
	tab, err := table.FromColumns(name, typ, key, cols...)
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

// chain builds a run whose schema graph is Rank - Core - Node, with
// Link and Patch disconnected from it.
func chain(t *testing.T) *Run {
	t.Helper()
	r := New(WithName("chain"), WithLogger(zaptest.NewLogger(t)))

	r.AddTable(mustTable(t, "ranks", subdomain.Rank, "mpirank",
		table.Column{"mpirank", []int{0, 1, 2, 3}},
		table.Column{"val", []int{10, 20, 30, 40}},
	))
	r.AddTable(mustTable(t, "nodes", subdomain.Node, "nodeid",
		table.Column{"nodeid", []int{0, 1}},
		table.Column{"temp", []float64{50, 70}},
	))
	placement := mustTable(t, "placement", subdomain.Rank, "mpirank",
		table.Column{"mpirank", []int{0, 1, 2, 3}},
		table.Column{"coreid", []int{0, 1, 2, 3}},
	)
	cores := mustTable(t, "cores", subdomain.Core, "coreid",
		table.Column{"coreid", []int{0, 1, 2, 3}},
		table.Column{"nodeid", []int{0, 0, 1, 1}},
	)
	rc, err := projection.NewTableBacked(placement, subdomain.Rank, "mpirank", subdomain.Core, "coreid")
	if err != nil {
		t.Fatal(err)
	}
	cn, err := projection.NewTableBacked(cores, subdomain.Core, "coreid", subdomain.Node, "nodeid")
	if err != nil {
		t.Fatal(err)
	}
	r.AddProjection(rc)
	r.AddProjection(cn)
	r.AddProjection(projection.NewIdentity(subdomain.Link, subdomain.Patch))
	r.Refresh()
	return r
}

func TestRefresh(t *testing.T) {
	r := chain(t)
	want := []subdomain.Type{subdomain.Node, subdomain.Core, subdomain.Link, subdomain.Rank, subdomain.Patch}
	if diff := cmp.Diff(want, r.ProjectionSubdomains()); diff != "" {
		t.Errorf("ProjectionSubdomains mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]subdomain.Type{subdomain.Node, subdomain.Rank}, r.TableSubdomains()); diff != "" {
		t.Errorf("TableSubdomains mismatch (-want +got):\n%s", diff)
	}
	if got := len(r.Edges()); got != 3 {
		t.Errorf("%d edges, want 3", got)
	}

	// A second projection over an existing edge does not replace it.
	first, _ := r.GetProjection(subdomain.Rank, subdomain.Core)
	r.AddProjection(projection.NewIdentity(subdomain.Core, subdomain.Rank))
	r.Refresh()
	if got, _ := r.GetProjection(subdomain.Rank, subdomain.Core); got != first {
		t.Errorf("duplicate edge replaced %s with %s", first, got)
	}
}

func TestGetProjection(t *testing.T) {
	r := chain(t)

	p, ok := r.GetProjection(subdomain.Communicator, subdomain.Communicator)
	if !ok || p.Kind() != projection.KindIdentity {
		t.Errorf("GetProjection(A, A) = %v, %v", p, ok)
	}

	if p, ok := r.GetProjection(subdomain.Rank, subdomain.Communicator); ok {
		t.Errorf("type outside graph: got %s", p)
	}
	if p, ok := r.GetProjection(subdomain.Rank, subdomain.Link); ok {
		t.Errorf("disconnected types: got %s", p)
	}
	if _, err := r.MustProjection(subdomain.Rank, subdomain.Patch); !errors.Is(err, ErrNoProjectionPath) {
		t.Errorf("MustProjection: want ErrNoProjectionPath, got %v", err)
	}

	// Existence is symmetric.
	types := subdomain.LeafTypes()
	for _, a := range types {
		for _, b := range types {
			_, ab := r.GetProjection(a, b)
			_, ba := r.GetProjection(b, a)
			if ab != ba {
				t.Errorf("GetProjection(%s, %s) = %v but reverse = %v", a, b, ab, ba)
			}
		}
	}

	direct, ok := r.GetProjection(subdomain.Core, subdomain.Node)
	if !ok || direct.Kind() != projection.KindTableBacked {
		t.Fatalf("direct edge = %v, %v", direct, ok)
	}

	comp, ok := r.GetProjection(subdomain.Rank, subdomain.Node)
	if !ok || comp.Kind() != projection.KindComposition {
		t.Fatalf("two hops = %v, %v", comp, ok)
	}
	rc, _ := r.GetProjection(subdomain.Rank, subdomain.Core)
	ranks := subdomain.Rank.New(1, 2)
	mid, err := rc.Project(ranks, subdomain.Core)
	if err != nil {
		t.Fatal(err)
	}
	want, err := direct.Project(mid, subdomain.Node)
	if err != nil {
		t.Fatal(err)
	}
	got, err := comp.Project(ranks, subdomain.Node)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want.IDs(), got.IDs()); diff != "" {
		t.Errorf("composed projection mismatch (-want +got):\n%s", diff)
	}

	// The reverse composition maps back.
	back, ok := r.GetProjection(subdomain.Node, subdomain.Rank)
	if !ok {
		t.Fatal("no reverse composition")
	}
	ids, err := back.Project(subdomain.Node.New(1), subdomain.Rank)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{2, 3}, ids.IDs()); diff != "" {
		t.Errorf("reverse mismatch (-want +got):\n%s", diff)
	}
}

func TestShortestPathTieBreak(t *testing.T) {
	// Rank reaches Node through Core or through Communicator. Core
	// has the lower registry index.
	r := New()
	r.AddProjection(projection.NewIdentity(subdomain.Rank, subdomain.Communicator))
	r.AddProjection(projection.NewIdentity(subdomain.Communicator, subdomain.Node))
	r.AddProjection(projection.NewIdentity(subdomain.Rank, subdomain.Core))
	r.AddProjection(projection.NewIdentity(subdomain.Core, subdomain.Node))
	r.Refresh()

	p, ok := r.GetProjection(subdomain.Node, subdomain.Rank)
	if !ok {
		t.Fatal("no path")
	}
	steps := p.(*projection.Composition).Steps()
	var got []subdomain.Type
	for _, st := range steps {
		got = append(got, st.From)
	}
	got = append(got, steps[len(steps)-1].To)
	want := []subdomain.Type{subdomain.Node, subdomain.Core, subdomain.Rank}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeUncoveredSubdomains(t *testing.T) {
	r := chain(t)
	hs, err := r.SynthesizeUncoveredSubdomains()
	if err != nil {
		t.Fatal(err)
	}
	r.Refresh()

	var names []string
	for _, h := range hs {
		names = append(names, r.Table(h).Name())
	}
	if diff := cmp.Diff([]string{"HW_Core", "HW_Link", "Application_Patch"}, names); diff != "" {
		t.Errorf("synthesized tables mismatch (-want +got):\n%s", diff)
	}

	core, ok := r.TableByName("HW_Core")
	if !ok {
		t.Fatal("no HW_Core table")
	}
	if core.Key() != "coreid" {
		t.Errorf("key = %q, want coreid", core.Key())
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, core.DistinctKeys()); diff != "" {
		t.Errorf("core ids mismatch (-want +got):\n%s", diff)
	}

	link, _ := r.TableByName("HW_Link")
	if link.Key() != "linkid" || link.Len() != 0 {
		t.Errorf("identity-only vertex: key %q, %d rows", link.Key(), link.Len())
	}

	covered := make(map[subdomain.Type]bool)
	for _, typ := range r.TableSubdomains() {
		covered[typ] = true
	}
	for _, typ := range r.ProjectionSubdomains() {
		if !covered[typ] {
			t.Errorf("%s has no table after synthesis", typ)
		}
	}
}

func TestFindAttribute(t *testing.T) {
	r := chain(t)
	ranks, _ := r.TableByName("ranks")
	nodes, _ := r.TableByName("nodes")

	extra := mustTable(t, "rank-extra", subdomain.Rank, "mpirank",
		table.Column{"mpirank", []int{0}},
		table.Column{"phase", []int{1}},
	)
	r.AddTable(extra)
	cores := mustTable(t, "core-data", subdomain.Core, "coreid",
		table.Column{"coreid", []int{0}},
		table.Column{"temp", []float64{1}},
		table.Column{"ipc", []float64{1}},
	)
	r.AddTable(cores)
	r.Refresh()

	check := func(name string, ref *table.Table, want *table.Table) {
		t.Helper()
		got, ok := r.FindAttribute(name, ref)
		if want == nil {
			if ok {
				t.Errorf("FindAttribute(%s, %s) = %s, want none", name, ref.Name(), got.Name())
			}
			return
		}
		if !ok || got != want {
			t.Errorf("FindAttribute(%s, %s) = %v, %v, want %s", name, ref.Name(), got, ok, want.Name())
		}
	}
	check("val", ranks, ranks)
	check("phase", ranks, extra)
	// Core is one hop from Rank; Node is two.
	check("temp", ranks, cores)
	check("temp", nodes, nodes)
	check("ipc", nodes, cores)
	check("nope", ranks, nil)
}

func TestEvaluate(t *testing.T) {
	r := chain(t)

	got, ok := r.Evaluate(subdomain.Rank.New(0, 1, 2), "val", aggregate.Mean)
	if !ok || !cmp.Equal([]float64{10, 20, 30}, got) {
		t.Errorf("direct = %v, %v", got, ok)
	}

	// Node temperature seen from ranks: ranks 0,1 are on node 0.
	got, ok = r.Evaluate(subdomain.Rank.New(0, 3), "temp", aggregate.Mean)
	if !ok || !cmp.Equal([]float64{50, 70}, got) {
		t.Errorf("projected = %v, %v", got, ok)
	}

	// Rank values seen from nodes.
	got, ok = r.Evaluate(subdomain.Node.New(0, 1), "val", aggregate.Sum)
	if !ok || !cmp.Equal([]float64{30, 70}, got) {
		t.Errorf("reverse projected = %v, %v", got, ok)
	}

	got, ok = r.Evaluate(subdomain.Rank.New(0), "nope", aggregate.Mean)
	if ok || !cmp.Equal([]float64{0}, got) {
		t.Errorf("unknown attribute = %v, %v", got, ok)
	}
	got, ok = r.Evaluate(subdomain.Link.New(0, 1), "val", aggregate.Mean)
	if ok || !cmp.Equal([]float64{0, 0}, got) {
		t.Errorf("unreachable = %v, %v", got, ok)
	}
}

func TestEvaluateThroughIdentity(t *testing.T) {
	r := New()
	r.AddTable(mustTable(t, "Ranks", subdomain.Rank, "mpirank",
		table.Column{"mpirank", []int{0, 1, 2}},
		table.Column{"val", []int{10, 20, 30}},
	))
	r.AddProjection(projection.NewIdentity(subdomain.Rank, subdomain.Core))
	r.AddProjection(projection.NewIdentity(subdomain.Core, subdomain.Node))
	r.Refresh()

	direct, ok := r.Evaluate(subdomain.Rank.New(0, 2), "val", aggregate.Mean)
	if !ok || !cmp.Equal([]float64{10, 30}, direct) {
		t.Fatalf("direct = %v, %v", direct, ok)
	}
	composed, ok := r.Evaluate(subdomain.Node.New(0, 2), "val", aggregate.Mean)
	if !ok {
		t.Fatal("composed evaluation failed")
	}
	if diff := cmp.Diff(direct, composed); diff != "" {
		t.Errorf("composed mismatch (-want +got):\n%s", diff)
	}

	out, ok := r.Project(subdomain.Node.New(2, 0), subdomain.Rank)
	if !ok || out.Type() != subdomain.Rank || !cmp.Equal([]int{2, 0}, out.IDs()) {
		t.Errorf("Project = %s, %v", out, ok)
	}
}
