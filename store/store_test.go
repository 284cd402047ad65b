// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store_test

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/net/context"

	"github.com/LLNL/boxfish/store"
	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

func newDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenSQL("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	// Enough rows to span several insert batches.
	n := 450
	ids := make([]int, n)
	vals := make([]float64, n)
	names := make([]string, n)
	for i := range ids {
		ids[i] = i % 7
		vals[i] = float64(i) / 3
		names[i] = string(rune('a' + i%26))
	}
	orig, err := table.FromColumns("comm", subdomain.Rank, "mpirank",
		table.Column{Name: "mpirank", Data: ids},
		table.Column{Name: "time", Data: vals},
		table.Column{Name: "label", Data: names},
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.SaveTable(ctx, orig); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	got, err := db.LoadTable(ctx, "comm")
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if got.Type() != subdomain.Rank || got.Key() != "mpirank" || got.Len() != n {
		t.Fatalf("loaded %s", got)
	}
	if diff := cmp.Diff(orig.Columns(), got.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	for _, name := range orig.Columns() {
		want, _ := orig.Column(name)
		have, _ := got.Column(name)
		if want.Kind != have.Kind || !cmp.Equal(want.Interface(), have.Interface()) {
			t.Errorf("column %s differs after round trip", name)
		}
	}
}

func TestReplaceAndList(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	save := func(name string, typ subdomain.Type, key string, ids ...int) {
		t.Helper()
		tab, err := table.IDOnly(name, typ, key, ids)
		if err != nil {
			t.Fatal(err)
		}
		if err := db.SaveTable(ctx, tab); err != nil {
			t.Fatalf("SaveTable(%s): %v", name, err)
		}
	}
	save("nodes", subdomain.Node, "nodeid", 0, 1, 2)
	save("cores", subdomain.Core, "coreid")
	save("nodes", subdomain.Node, "nodeid", 5)

	tab, err := db.LoadTable(ctx, "nodes")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{5}, tab.DistinctKeys()); diff != "" {
		t.Errorf("replaced table mismatch (-want +got):\n%s", diff)
	}
	tab, err = db.LoadTable(ctx, "cores")
	if err != nil {
		t.Fatal(err)
	}
	if tab.Len() != 0 {
		t.Errorf("empty table has %d rows", tab.Len())
	}

	infos, err := db.ListTables(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []store.TableInfo{
		{Name: "cores", Type: subdomain.Core, Key: "coreid"},
		{Name: "nodes", Type: subdomain.Node, Key: "nodeid"},
	}
	if diff := cmp.Diff(want, infos); diff != "" {
		t.Errorf("ListTables mismatch (-want +got):\n%s", diff)
	}

	if _, err := db.LoadTable(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("LoadTable(missing): want ErrNotFound, got %v", err)
	}
}

func TestLoadErrorReleasesConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db := newDB(t)

	tab, err := table.IDOnly("nodes", subdomain.Node, "nodeid", []int{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SaveTable(ctx, tab); err != nil {
		t.Fatal(err)
	}
	// A NULL column name fails to scan partway through loading.
	if _, err := store.DBSQL(db).ExecContext(ctx, "UPDATE Columns SET Name = NULL"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.LoadTable(ctx, "nodes"); err == nil {
		t.Fatal("LoadTable with a NULL column name succeeded")
	}

	// The only sqlite3 connection must be free again.
	infos, err := db.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables after failed load: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "nodes" {
		t.Errorf("ListTables = %v", infos)
	}
}
