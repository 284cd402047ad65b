// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package table implements the columnar store that holds performance
// measurements.
//
// A Table is keyed by a primary-key column whose values are
// identifiers in a subdomain.Type, for example MPI ranks or hardware
// nodes. The remaining columns are attributes. Primary-key values need
// not be unique: repeated keys represent repeated measurements.
//
// Rows are addressed by row index. Operations that select rows take
// and return slices of row indexes, which lets callers chain filters
// and aggregations without copying column data.
//
// Tables are immutable once constructed. The column data is held in a
// go-gg table.Table.
package table

import (
	"fmt"
	"sort"

	ggtable "github.com/aclements/go-gg/table"
	"github.com/aclements/go-gg/generic/slice"
	"github.com/cockroachdb/errors"

	"github.com/LLNL/boxfish/subdomain"
)

var (
	// ErrUnknownAttribute is returned when an operation names a
	// column the Table does not have.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrIncompatibleValue is returned when a value cannot be
	// converted to the type of the column it is compared with.
	ErrIncompatibleValue = errors.New("incompatible value")

	// ErrTypeMismatch is returned when a Subdomain of one type is
	// used to query a Table of another type.
	ErrTypeMismatch = errors.New("subdomain type mismatch")
)

// A Kind is the static value type of a column.
type Kind int

const (
	Invalid Kind = iota
	Int
	Float
	String
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	}
	return "invalid"
}

// Numeric reports whether k is Int or Float.
func (k Kind) Numeric() bool {
	return k == Int || k == Float
}

// A Table is an immutable columnar relation keyed by a subdomain
// identifier.
type Table struct {
	name string
	typ  subdomain.Type
	key  string

	data  *ggtable.Table
	kinds map[string]Kind

	// byKey maps each primary-key value to its rows in load order.
	byKey map[int][]int
}

// A Column is a named column of data. Data must be a slice of an
// integer, floating-point, or string type.
type Column struct {
	Name string
	Data interface{}
}

// New returns a Table of type typ whose primary key is column key of
// data.
//
// Integer columns are stored as []int and floating-point columns as
// []float64. The key column must hold integers.
func New(name string, typ subdomain.Type, key string, data *ggtable.Table) (*Table, error) {
	if typ.Index() < 0 {
		return nil, errors.Wrapf(subdomain.ErrUnknownSubdomain, "table %s: %s", name, typ)
	}
	if data == nil || len(data.Columns()) == 0 {
		return nil, errors.Newf("table %s: no columns", name)
	}

	t := &Table{
		name:  name,
		typ:   typ,
		key:   key,
		kinds: make(map[string]Kind),
	}
	var b ggtable.Builder
	for _, col := range data.Columns() {
		norm, kind, err := normalize(data.Column(col))
		if err != nil {
			return nil, errors.Wrapf(err, "table %s: column %s", name, col)
		}
		b.Add(col, norm)
		t.kinds[col] = kind
	}
	t.data = b.Done()

	switch t.kinds[key] {
	case Invalid:
		return nil, errors.WithHint(
			errors.Wrapf(ErrUnknownAttribute, "table %s: key column %q", name, key),
			fmt.Sprintf("columns are %v", data.Columns()))
	case Int:
	default:
		return nil, errors.Wrapf(ErrIncompatibleValue, "table %s: key column %q has %s values", name, key, t.kinds[key])
	}

	keys := t.data.Column(key).([]int)
	t.byKey = make(map[int][]int)
	for row, k := range keys {
		t.byKey[k] = append(t.byKey[k], row)
	}
	return t, nil
}

// FromColumns returns a Table built from cols. All columns must have
// the same length.
func FromColumns(name string, typ subdomain.Type, key string, cols ...Column) (*Table, error) {
	var b ggtable.Builder
	n := -1
	for _, c := range cols {
		l, err := sliceLen(c.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s: column %s", name, c.Name)
		}
		if n >= 0 && l != n {
			return nil, errors.Newf("table %s: column %s has %d rows, want %d", name, c.Name, l, n)
		}
		n = l
		b.Add(c.Name, c.Data)
	}
	return New(name, typ, key, b.Done())
}

// FromStrings returns a Table built from textual rows, such as the
// records of a CSV file. Columns whose every value parses as an
// integer become Int columns, then those that parse as floats become
// Float columns, and all others are String columns.
func FromStrings(name string, typ subdomain.Type, key string, header []string, rows [][]string) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, errors.Newf("table %s: row %d has %d fields, want %d", name, i, len(row), len(header))
		}
	}
	if len(rows) == 0 {
		// Without data there's nothing to coerce; keep the
		// key an integer column.
		var b ggtable.Builder
		for _, h := range header {
			if h == key {
				b.Add(h, []int{})
			} else {
				b.Add(h, []string{})
			}
		}
		return New(name, typ, key, b.Done())
	}
	return New(name, typ, key, ggtable.TableFromStrings(header, rows, true))
}

// IDOnly returns a Table of type typ with a single key column holding
// ids. It stands in for subdomains that are reachable through
// projections but have no measurement data.
func IDOnly(name string, typ subdomain.Type, key string, ids []int) (*Table, error) {
	return FromColumns(name, typ, key, Column{key, append([]int{}, ids...)})
}

// View returns a Table holding only the given rows of t, in the given
// order. The view has the same name, type, and key as t.
func (t *Table) View(rows []int) *Table {
	var b ggtable.Builder
	for _, col := range t.data.Columns() {
		b.Add(col, slice.Select(t.data.Column(col), rows))
	}
	v, err := New(t.name, t.typ, t.key, b.Done())
	if err != nil {
		// t was already validated.
		panic(err)
	}
	return v
}

// normalize converts a column slice to one of []int, []float64, or
// []string.
func normalize(col interface{}) (interface{}, Kind, error) {
	switch col := col.(type) {
	case []int:
		return col, Int, nil
	case []float64:
		return col, Float, nil
	case []string:
		return col, String, nil
	case []int8, []int16, []int32, []int64, []uint8, []uint16, []uint32:
		var out []int
		slice.Convert(&out, col)
		return out, Int, nil
	case []float32:
		var out []float64
		slice.Convert(&out, col)
		return out, Float, nil
	}
	return nil, Invalid, errors.Wrapf(ErrIncompatibleValue, "unsupported column type %T", col)
}

func sliceLen(col interface{}) (int, error) {
	switch col := col.(type) {
	case []int:
		return len(col), nil
	case []float64:
		return len(col), nil
	case []string:
		return len(col), nil
	}
	norm, _, err := normalize(col)
	if err != nil {
		return 0, err
	}
	return sliceLen(norm)
}

// Name returns the name of t.
func (t *Table) Name() string {
	return t.name
}

// Type returns the subdomain type of t's primary key.
func (t *Table) Type() subdomain.Type {
	return t.typ
}

// Key returns the name of t's primary-key column.
func (t *Table) Key() string {
	return t.key
}

// Len returns the number of rows in t.
func (t *Table) Len() int {
	return t.data.Len()
}

func (t *Table) String() string {
	return fmt.Sprintf("%s(%s by %s, %d rows)", t.name, t.typ, t.key, t.Len())
}

// Columns returns the names of all columns of t, including the primary
// key, in load order.
//
// The caller must not modify the returned slice.
func (t *Table) Columns() []string {
	return t.data.Columns()
}

// Attributes returns the names of all columns except the primary key,
// sorted.
func (t *Table) Attributes() []string {
	out := make([]string, 0, len(t.kinds))
	for name := range t.kinds {
		if name != t.key {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// HasAttribute reports whether t has a column called name. The primary
// key counts as a column.
func (t *Table) HasAttribute(name string) bool {
	return t.kinds[name] != Invalid
}

// Kind returns the value type of column name, or Invalid if t has no
// such column.
func (t *Table) Kind(name string) Kind {
	return t.kinds[name]
}

// Column returns all values of column name.
func (t *Table) Column(name string) (Values, bool) {
	k := t.kinds[name]
	if k == Invalid {
		return Values{}, false
	}
	return Values{k, t.data.Column(name)}, true
}

// Data returns the underlying go-gg table. The caller must not modify
// its columns.
func (t *Table) Data() *ggtable.Table {
	return t.data
}

// Identifiers returns the index of every row of t, in load order.
func (t *Table) Identifiers() []int {
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// Keys returns the primary-key value of each of rows.
func (t *Table) Keys(rows []int) []int {
	return slice.Select(t.data.Column(t.key), rows).([]int)
}

// DistinctKeys returns the sorted, distinct primary-key values of t.
func (t *Table) DistinctKeys() []int {
	out := make([]int, 0, len(t.byKey))
	for k := range t.byKey {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// RowsOf returns the rows whose primary key is id, in load order.
//
// The caller must not modify the returned slice.
func (t *Table) RowsOf(id int) []int {
	return t.byKey[id]
}

// SubsetByKey returns the rows among rows whose primary-key value is in
// ids, preserving the order of rows. It returns an empty slice without
// scanning if ids is empty.
func (t *Table) SubsetByKey(rows []int, ids []int) []int {
	out := []int{}
	if len(ids) == 0 {
		return out
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	keys := t.data.Column(t.key).([]int)
	for _, r := range rows {
		if set[keys[r]] {
			out = append(out, r)
		}
	}
	return out
}

// Lookup returns, for each element of s, the rows whose primary key
// matches any identifier in that element. It returns ErrTypeMismatch
// if s is not of t's type.
func (t *Table) Lookup(s subdomain.Subdomain) ([][]int, error) {
	if s.Type() != t.typ {
		return nil, errors.Wrapf(ErrTypeMismatch, "%s queried with %s", t, s.Type())
	}
	out := make([][]int, s.Len())
	for i := range out {
		elem := s.Element(i)
		if len(elem) == 1 {
			out[i] = t.byKey[elem[0]]
			continue
		}
		var rows []int
		for _, id := range elem {
			rows = append(rows, t.byKey[id]...)
		}
		sort.Ints(rows)
		out[i] = rows
	}
	return out, nil
}
