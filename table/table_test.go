// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/LLNL/boxfish/aggregate"
	"github.com/LLNL/boxfish/clause"
	"github.com/LLNL/boxfish/subdomain"
)

func phaseTable(t *testing.T) *Table {
	t.Helper()
	tab, err := FromColumns("comm", subdomain.Rank, "mpirank",
		Column{"mpirank", []int{0, 0, 1, 1}},
		Column{"phase", []int{0, 0, 1, 1}},
		Column{"bytes", []int{5, 7, 2, 3}},
		Column{"time", []float64{0.5, 1.5, 2.5, 3.5}},
		Column{"label", []string{"a", "b", "a", "c"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestNew(t *testing.T) {
	tab := phaseTable(t)
	if tab.Len() != 4 || tab.Name() != "comm" || tab.Key() != "mpirank" || tab.Type() != subdomain.Rank {
		t.Fatalf("unexpected table %s", tab)
	}
	if diff := cmp.Diff([]string{"bytes", "label", "phase", "time"}, tab.Attributes()); diff != "" {
		t.Errorf("Attributes mismatch (-want +got):\n%s", diff)
	}
	if !tab.HasAttribute("mpirank") || tab.HasAttribute("nope") {
		t.Errorf("HasAttribute wrong")
	}
	for col, want := range map[string]Kind{"mpirank": Int, "time": Float, "label": String, "nope": Invalid} {
		if got := tab.Kind(col); got != want {
			t.Errorf("Kind(%s) = %s, want %s", col, got, want)
		}
	}

	_, err := FromColumns("x", subdomain.Rank, "id", Column{"rank", []int{1}})
	if !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("missing key: want ErrUnknownAttribute, got %v", err)
	}
	_, err = FromColumns("x", subdomain.Rank, "id", Column{"id", []string{"a"}})
	if !errors.Is(err, ErrIncompatibleValue) {
		t.Errorf("string key: want ErrIncompatibleValue, got %v", err)
	}
	_, err = FromColumns("x", subdomain.Rank, "id", Column{"id", []int{1}}, Column{"v", []int{1, 2}})
	if err == nil {
		t.Errorf("ragged columns succeeded")
	}
	_, err = FromColumns("x", subdomain.Type{Domain: "HW", Name: "Rack"}, "id", Column{"id", []int{1}})
	if !errors.Is(err, subdomain.ErrUnknownSubdomain) {
		t.Errorf("unregistered type: want ErrUnknownSubdomain, got %v", err)
	}

	// Narrow integer types are widened.
	tab, err = FromColumns("x", subdomain.Node, "id", Column{"id", []int32{3, 4}}, Column{"f", []float32{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if tab.Kind("id") != Int || tab.Kind("f") != Float {
		t.Errorf("kinds not widened: %s %s", tab.Kind("id"), tab.Kind("f"))
	}
}

func TestFromStrings(t *testing.T) {
	tab, err := FromStrings("nodes", subdomain.Node, "nodeid",
		[]string{"nodeid", "load", "name"},
		[][]string{{"0", "1.5", "n0"}, {"1", "2", "n1"}})
	if err != nil {
		t.Fatal(err)
	}
	if tab.Kind("nodeid") != Int || tab.Kind("load") != Float || tab.Kind("name") != String {
		t.Errorf("unexpected kinds %s %s %s", tab.Kind("nodeid"), tab.Kind("load"), tab.Kind("name"))
	}

	tab, err = FromStrings("nodes", subdomain.Node, "nodeid", []string{"nodeid", "load"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tab.Len() != 0 || tab.Kind("nodeid") != Int {
		t.Errorf("empty table: len %d, key kind %s", tab.Len(), tab.Kind("nodeid"))
	}

	if _, err := FromStrings("nodes", subdomain.Node, "nodeid", []string{"nodeid", "load"}, [][]string{{"0"}}); err == nil {
		t.Errorf("short row succeeded")
	}
}

func TestEvaluateClause(t *testing.T) {
	tab := phaseTable(t)
	check := func(q string, want []int) {
		t.Helper()
		c, err := clause.Parse(q)
		if err != nil {
			t.Fatal(err)
		}
		got, err := tab.EvaluateClause(c, tab.Identifiers())
		if err != nil {
			t.Errorf("%s: %v", q, err)
			return
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", q, diff)
		}
	}
	checkErr := func(c clause.Clause, want error) {
		t.Helper()
		_, err := tab.EvaluateClause(c, tab.Identifiers())
		if !errors.Is(err, want) {
			t.Errorf("%s: want %v, got %v", c, want, err)
		}
	}

	check(`phase = 0 AND bytes < 10`, []int{0, 1})
	check(`phase = 1 OR bytes = 5`, []int{0, 2, 3})
	check(`bytes >= 3`, []int{0, 1, 3})
	check(`3 <= bytes`, []int{0, 1, 3})
	check(`bytes > time`, []int{0, 1})
	check(`label = "a"`, []int{0, 2})
	check(`label != "a" AND time > 2`, []int{3})
	check(`time < 2`, []int{0, 1})
	check(`time = "2.5"`, []int{2})
	check(`bytes = 7.0`, []int{1})
	check(`mpirank = 1`, []int{2, 3})
	check(`phase = 2`, []int{})
	// Fractional and out-of-range literals compare integer columns as floats.
	check(`bytes < 2.5`, []int{2})
	check(`bytes = 2.5`, []int{})
	check(`bytes < 1e300`, []int{0, 1, 2, 3})
	check(`bytes > -1e300`, []int{0, 1, 2, 3})
	check(`bytes < 99999999999999999999`, []int{0, 1, 2, 3})
	check(`bytes >= "1e300"`, []int{})
	check(`bytes = 9223372036854775807`, []int{})

	checkErr(clause.Compare("nope", clause.Eq, 1), ErrUnknownAttribute)
	checkErr(clause.Compare("bytes", clause.Eq, "x"), ErrIncompatibleValue)
	checkErr(clause.Rel(clause.Eq, clause.Attr("label"), clause.Attr("bytes")), ErrIncompatibleValue)
	checkErr(clause.Rel(clause.Eq, clause.Lit(1), clause.Lit(1)), ErrIncompatibleValue)
	checkErr(clause.AndOf(), clause.ErrEmptyClause)

	// Single-child combinators pass through.
	got, err := tab.EvaluateClause(clause.OrOf(clause.Compare("phase", clause.Eq, 1)), tab.Identifiers())
	if err != nil || !cmp.Equal([]int{2, 3}, got) {
		t.Errorf("single-child OR = %v, %v", got, err)
	}
	// Input order is preserved and only given rows are considered.
	got, err = tab.EvaluateClause(clause.Compare("phase", clause.Eq, 0), []int{3, 1, 0})
	if err != nil || !cmp.Equal([]int{1, 0}, got) {
		t.Errorf("subset = %v, %v", got, err)
	}
	// Nil matches all.
	got, err = tab.EvaluateClause(nil, []int{2, 0})
	if err != nil || !cmp.Equal([]int{2, 0}, got) {
		t.Errorf("nil clause = %v, %v", got, err)
	}
}

func TestEvaluateClauseNaN(t *testing.T) {
	tab, err := FromColumns("nodes", subdomain.Node, "nodeid",
		Column{"nodeid", []int{0, 1, 2}},
		Column{"bytes", []float64{5, math.NaN(), 50}},
		Column{"limit", []float64{10, 10, math.NaN()}},
	)
	if err != nil {
		t.Fatal(err)
	}
	check := func(c clause.Clause, want []int) {
		t.Helper()
		got, err := tab.EvaluateClause(c, tab.Identifiers())
		if err != nil {
			t.Errorf("%s: %v", c, err)
			return
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", c, diff)
		}
	}
	attrs := func(op clause.Op) clause.Clause {
		return clause.Rel(op, clause.Attr("bytes"), clause.Attr("limit"))
	}

	// Missing measurements satisfy no ordered comparison.
	check(clause.Compare("bytes", clause.Lt, 10), []int{0})
	check(clause.Compare("bytes", clause.Le, 10), []int{0})
	check(clause.Compare("bytes", clause.Gt, 10), []int{2})
	check(clause.Compare("bytes", clause.Ge, 5), []int{0, 2})
	check(clause.Compare("bytes", clause.Eq, math.NaN()), []int{})
	check(clause.Compare("bytes", clause.Ne, 5), []int{1, 2})
	check(clause.Compare("bytes", clause.Ne, math.NaN()), []int{0, 1, 2})
	check(attrs(clause.Lt), []int{0})
	check(attrs(clause.Ge), []int{})
	check(attrs(clause.Ne), []int{0, 1, 2})
}

func TestEvaluateClauseWide(t *testing.T) {
	// Exercise masks spanning several words.
	n := 100
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	tab, err := FromColumns("wide", subdomain.Core, "coreid", Column{"coreid", ids})
	if err != nil {
		t.Fatal(err)
	}
	c := clause.OrOf(clause.Compare("coreid", clause.Lt, 3), clause.Compare("coreid", clause.Ge, 97))
	got, err := tab.EvaluateClause(c, tab.Identifiers())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 97, 98, 99}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupByAttributes(t *testing.T) {
	tab := phaseTable(t)

	groups, err := tab.GroupByAttributes(tab.Identifiers(), []string{"phase"}, []string{"bytes"}, aggregate.Sum)
	if err != nil {
		t.Fatal(err)
	}
	want := []Group{
		{Key: []interface{}{0}, Values: []float64{12}, Rows: []int{0, 1}},
		{Key: []interface{}{1}, Values: []float64{5}, Rows: []int{2, 3}},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	groups, err = tab.GroupByAttributes(tab.Identifiers(), []string{"phase", "label"}, []string{"time", "phase"}, aggregate.Mean)
	if err != nil {
		t.Fatal(err)
	}
	want = []Group{
		{Key: []interface{}{0, "a"}, Values: []float64{0.5, 0}, Rows: []int{0}},
		{Key: []interface{}{0, "b"}, Values: []float64{1.5, 0}, Rows: []int{1}},
		{Key: []interface{}{1, "a"}, Values: []float64{2.5, 1}, Rows: []int{2}},
		{Key: []interface{}{1, "c"}, Values: []float64{3.5, 1}, Rows: []int{3}},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	groups, err = tab.GroupByAttributes([]int{1, 2, 3}, nil, []string{"bytes", "label"}, aggregate.Count)
	if err != nil {
		t.Fatal(err)
	}
	want = []Group{{Key: []interface{}{}, Values: []float64{3, 3}, Rows: []int{1, 2, 3}}}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if groups, err := tab.GroupByAttributes(nil, []string{"phase"}, []string{"bytes"}, aggregate.Sum); err != nil || len(groups) != 0 {
		t.Errorf("no rows = %v, %v", groups, err)
	}
	if _, err := tab.GroupByAttributes(tab.Identifiers(), []string{"nope"}, nil, aggregate.Sum); !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("unknown group-by: got %v", err)
	}
	if _, err := tab.GroupByAttributes(tab.Identifiers(), nil, []string{"label"}, aggregate.Sum); !errors.Is(err, ErrIncompatibleValue) {
		t.Errorf("sum of strings: got %v", err)
	}
}

func TestAttributesByIdentifiers(t *testing.T) {
	tab := phaseTable(t)
	vals, err := tab.AttributesByIdentifiers([]int{3, 2, 0}, []string{"label", "bytes"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"c", "a", "a"}, vals[0].Strings()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 2, 5}, vals[1].Ints()); diff != "" {
		t.Errorf("bytes mismatch (-want +got):\n%s", diff)
	}

	vals, err = tab.AttributesByIdentifiers([]int{3, 2, 0}, []string{"label", "phase"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "c"}, vals[0].Strings()); diff != "" {
		t.Errorf("unique labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 1}, vals[1].Floats()); diff != "" {
		t.Errorf("unique phases mismatch (-want +got):\n%s", diff)
	}

	if _, err := tab.AttributesByIdentifiers(nil, []string{"nope"}, false); !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("want ErrUnknownAttribute, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	ranks, err := FromColumns("ranks", subdomain.Rank, "mpirank",
		Column{"mpirank", []int{0, 1, 2}},
		Column{"val", []int{10, 20, 30}},
	)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := ranks.Evaluate(subdomain.Rank.New(0, 1, 2), "val", aggregate.Mean)
	if !ok || !cmp.Equal([]float64{10, 20, 30}, got) {
		t.Errorf("Evaluate = %v, %v", got, ok)
	}

	// Missing ids are zero-filled.
	got, ok = ranks.Evaluate(subdomain.Rank.New(2, 7), "val", aggregate.Sum)
	if !ok || !cmp.Equal([]float64{30, 0}, got) {
		t.Errorf("Evaluate with missing id = %v, %v", got, ok)
	}

	// Grouped elements aggregate over all their ids.
	got, ok = ranks.Evaluate(subdomain.NewGrouped(subdomain.Rank, [][]int{{0, 2}, {1}}), "val", aggregate.Mean)
	if !ok || !cmp.Equal([]float64{20, 20}, got) {
		t.Errorf("Evaluate grouped = %v, %v", got, ok)
	}

	got, ok = ranks.Evaluate(subdomain.Node.New(0, 1), "val", aggregate.Mean)
	if ok || !cmp.Equal([]float64{0, 0}, got) {
		t.Errorf("Evaluate wrong type = %v, %v", got, ok)
	}
	got, ok = ranks.Evaluate(subdomain.Rank.New(0), "nope", aggregate.Mean)
	if ok || !cmp.Equal([]float64{0}, got) {
		t.Errorf("Evaluate unknown attr = %v, %v", got, ok)
	}

	if _, err := ranks.Lookup(subdomain.Node.New(0)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Lookup wrong type: got %v", err)
	}
}

func TestSubsetByKey(t *testing.T) {
	tab := phaseTable(t)
	if got := tab.SubsetByKey([]int{3, 0, 2}, []int{1}); !cmp.Equal([]int{3, 2}, got) {
		t.Errorf("SubsetByKey = %v", got)
	}
	if got := tab.SubsetByKey(tab.Identifiers(), nil); got == nil || len(got) != 0 {
		t.Errorf("SubsetByKey(empty) = %#v", got)
	}
	if got := tab.Keys([]int{3, 0}); !cmp.Equal([]int{1, 0}, got) {
		t.Errorf("Keys = %v", got)
	}
	if got := tab.DistinctKeys(); !cmp.Equal([]int{0, 1}, got) {
		t.Errorf("DistinctKeys = %v", got)
	}

	v := tab.View([]int{2, 3})
	if v.Len() != 2 || !cmp.Equal([]int{1}, v.DistinctKeys()) {
		t.Errorf("View = %s keys %v", v, v.DistinctKeys())
	}
}
