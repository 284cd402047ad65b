// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out tables of text for terminal output.
package texttab

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/LLNL/boxfish/table"
)

// Align is the horizontal alignment of a column.
type Align int

const (
	Left Align = iota
	Right
)

func (a Align) pad(s string, w int) string {
	n := w - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if a == Right {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// Table does layout of text-based tables. Columns are separated by a
// single space and sized to their widest cell.
//
// Row and Header return the Table so callers can chain them.
type Table struct {
	rows  [][]string
	rules map[int]bool
	align []Align
}

// Row appends a row of cells. Rows may have different lengths.
func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// Header appends a row of cells followed by a rule under each of
// them.
func (t *Table) Header(cells ...string) *Table {
	t.Row(cells...)
	if t.rules == nil {
		t.rules = make(map[int]bool)
	}
	t.rules[len(t.rows)] = true
	t.rows = append(t.rows, nil)
	return t
}

// SetAlign sets the alignment of column col.
func (t *Table) SetAlign(col int, a Align) {
	for len(t.align) <= col {
		t.align = append(t.align, Left)
	}
	t.align[col] = a
}

func (t *Table) alignOf(col int) Align {
	if col < len(t.align) {
		return t.align[col]
	}
	return Left
}

// Len returns the number of rows in t, including rules.
func (t *Table) Len() int {
	return len(t.rows)
}

// Format lays out table t and writes it to w. Trailing spaces are
// trimmed from every line.
func (t *Table) Format(w io.Writer) error {
	var ws []int
	for _, row := range t.rows {
		for col, cell := range row {
			if col == len(ws) {
				ws = append(ws, 0)
			}
			if n := utf8.RuneCountInString(cell); n > ws[col] {
				ws[col] = n
			}
		}
	}

	var line strings.Builder
	for i, row := range t.rows {
		line.Reset()
		if t.rules[i] {
			// Rule under the previous row's cells.
			for col := range t.rows[i-1] {
				if col > 0 {
					line.WriteByte(' ')
				}
				line.WriteString(strings.Repeat("-", ws[col]))
			}
		}
		for col, cell := range row {
			if col > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(t.alignOf(col).pad(cell, ws[col]))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

// FormatFloat formats a measurement for display.
func FormatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', 6, 64)
}

// Rows returns a Table of the given rows of t, with a header of column
// names. The first column is the row index. Numeric columns are right
// aligned.
func Rows(t *table.Table, rows []int) *Table {
	cols := t.Columns()
	out := new(Table)
	out.SetAlign(0, Right)
	out.Header(append([]string{"row"}, cols...)...)
	vals := make([]table.Values, len(cols))
	for i, name := range cols {
		vals[i], _ = t.Column(name)
		if vals[i].Kind.Numeric() {
			out.SetAlign(i+1, Right)
		}
	}
	for _, r := range rows {
		cells := make([]string, 1+len(cols))
		cells[0] = strconv.Itoa(r)
		for i, v := range vals {
			if v.Kind == table.Float {
				cells[i+1] = FormatFloat(v.Floats()[r])
			} else {
				cells[i+1] = v.Format(r)
			}
		}
		out.Row(cells...)
	}
	return out
}

// Groups returns a Table with one row per group: the group-by values
// followed by the aggregated values.
func Groups(groupBy, desired []string, agg fmt.Stringer, groups []table.Group) *Table {
	out := new(Table)
	header := append([]string{}, groupBy...)
	for i, name := range desired {
		header = append(header, fmt.Sprintf("%s(%s)", agg, name))
		out.SetAlign(len(groupBy)+i, Right)
	}
	out.Header(header...)
	for _, g := range groups {
		cells := make([]string, 0, len(g.Key)+len(g.Values))
		for _, k := range g.Key {
			cells = append(cells, fmt.Sprint(k))
		}
		for _, v := range g.Values {
			cells = append(cells, FormatFloat(v))
		}
		out.Row(cells...)
	}
	return out
}

// Values returns a two-column Table pairing each label with its value.
func Values(keyName, valueName string, labels []string, values []float64) *Table {
	out := new(Table)
	out.SetAlign(0, Right)
	out.SetAlign(1, Right)
	out.Header(keyName, valueName)
	for i, l := range labels {
		out.Row(l, FormatFloat(values[i]))
	}
	return out
}
