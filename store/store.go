// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store saves tables to and loads them from a SQL database.
package store

import (
	"bytes"
	"database/sql"
	"strconv"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/context"

	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

// ErrNotFound is returned by LoadTable when no table has the requested
// name.
var ErrNotFound = errors.New("table not found")

// DB is a SQL-backed table store. It's safe for concurrent use by
// multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertTable  *sql.Stmt
	insertColumn *sql.Stmt
	findTable    *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", driverName)
	}
	if driverName == "sqlite3" {
		// Every connection to an in-memory sqlite3 database is a
		// separate database.
		db.SetMaxOpenConns(1)
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Tables (
	TableID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Name VARCHAR(255) NOT NULL UNIQUE,
	Subdomain VARCHAR(255) NOT NULL,
	KeyName VARCHAR(255) NOT NULL
);
CREATE TABLE IF NOT EXISTS Columns (
	TableID BIGINT UNSIGNED,
	ColumnID INT,
	Name VARCHAR(255),
	Kind VARCHAR(16),
	PRIMARY KEY (TableID, ColumnID),
	FOREIGN KEY (TableID) REFERENCES Tables(TableID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS Cells (
	TableID BIGINT UNSIGNED,
	ColumnID INT,
	RowID BIGINT UNSIGNED,
	Value VARCHAR(8192),
	PRIMARY KEY (TableID, ColumnID, RowID),
	FOREIGN KEY (TableID, ColumnID) REFERENCES Columns(TableID, ColumnID) ON UPDATE CASCADE ON DELETE CASCADE
);
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return errors.Wrap(err, "create table")
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertTable, err = db.sql.Prepare("INSERT INTO Tables(Name, Subdomain, KeyName) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertColumn, err = db.sql.Prepare("INSERT INTO Columns(TableID, ColumnID, Name, Kind) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.findTable, err = db.sql.Prepare("SELECT TableID, Subdomain, KeyName FROM Tables WHERE Name = ?")
	if err != nil {
		return err
	}
	return nil
}

// cellBatch is the number of cells written per INSERT statement.
const cellBatch = 200

// SaveTable stores t under its name, replacing any table previously
// saved with that name.
func (db *DB) SaveTable(ctx context.Context, t *table.Table) (err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if err := deleteTable(ctx, tx, db.findTable, t.Name()); err != nil {
		return err
	}
	res, err := tx.StmtContext(ctx, db.insertTable).ExecContext(ctx, t.Name(), t.Type().Key(), t.Key())
	if err != nil {
		return errors.Wrapf(err, "saving %s", t.Name())
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	var args []interface{}
	flush := func() error {
		if len(args) == 0 {
			return nil
		}
		query := "INSERT INTO Cells VALUES " + strings.Repeat("(?, ?, ?, ?), ", len(args)/4)
		query = strings.TrimSuffix(query, ", ")
		_, err := tx.ExecContext(ctx, query, args...)
		args = args[:0]
		return err
	}
	for ci, name := range t.Columns() {
		if _, err := tx.StmtContext(ctx, db.insertColumn).ExecContext(ctx, id, ci, name, t.Kind(name).String()); err != nil {
			return errors.Wrapf(err, "saving %s column %s", t.Name(), name)
		}
		col, _ := t.Column(name)
		for row := 0; row < col.Len(); row++ {
			args = append(args, id, ci, row, formatCell(col, row))
			if len(args)/4 == cellBatch {
				if err := flush(); err != nil {
					return errors.Wrapf(err, "saving %s column %s", t.Name(), name)
				}
			}
		}
	}
	if err := flush(); err != nil {
		return errors.Wrapf(err, "saving %s", t.Name())
	}
	return nil
}

// deleteTable removes the table called name, if any.
func deleteTable(ctx context.Context, tx *sql.Tx, find *sql.Stmt, name string) error {
	var id int64
	var typ, key string
	err := tx.StmtContext(ctx, find).QueryRowContext(ctx, name).Scan(&id, &typ, &key)
	if err == sql.ErrNoRows {
		return nil
	} else if err != nil {
		return err
	}
	for _, q := range []string{
		"DELETE FROM Cells WHERE TableID = ?",
		"DELETE FROM Columns WHERE TableID = ?",
		"DELETE FROM Tables WHERE TableID = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return errors.Wrapf(err, "replacing %s", name)
		}
	}
	return nil
}

func formatCell(col table.Values, row int) string {
	switch col.Kind {
	case table.Int:
		return strconv.Itoa(col.Ints()[row])
	case table.Float:
		return strconv.FormatFloat(col.Floats()[row], 'g', -1, 64)
	}
	return col.Strings()[row]
}

// LoadTable returns the table saved under name. It returns ErrNotFound
// if there is none.
func (db *DB) LoadTable(ctx context.Context, name string) (*table.Table, error) {
	var id int64
	var typKey, key string
	err := db.findTable.QueryRowContext(ctx, name).Scan(&id, &typKey, &key)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	} else if err != nil {
		return nil, err
	}
	typ, err := subdomain.ResolveKey(typKey)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", name)
	}

	cols, err := db.loadColumns(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", name)
	}
	if err := db.loadCells(ctx, id, cols); err != nil {
		return nil, errors.Wrapf(err, "loading %s", name)
	}

	tcols := make([]table.Column, len(cols))
	for i, c := range cols {
		data, err := parseColumn(c.kind, c.vals)
		if err != nil {
			return nil, errors.Wrapf(err, "loading %s column %s", name, c.name)
		}
		tcols[i] = table.Column{Name: c.name, Data: data}
	}
	return table.FromColumns(name, typ, key, tcols...)
}

type column struct {
	name string
	kind string
	vals []string
}

// loadColumns returns the columns of table id, without their cells.
func (db *DB) loadColumns(ctx context.Context, id int64) ([]*column, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT Name, Kind FROM Columns WHERE TableID = ? ORDER BY ColumnID", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []*column
	for rows.Next() {
		c := new(column)
		if err := rows.Scan(&c.name, &c.kind); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// loadCells fills in the values of cols from the cells of table id.
func (db *DB) loadCells(ctx context.Context, id int64, cols []*column) error {
	rows, err := db.sql.QueryContext(ctx, "SELECT ColumnID, Value FROM Cells WHERE TableID = ? ORDER BY ColumnID, RowID", id)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ci int
		var v string
		if err := rows.Scan(&ci, &v); err != nil {
			return err
		}
		if ci < 0 || ci >= len(cols) {
			return errors.Newf("cell for unknown column %d", ci)
		}
		cols[ci].vals = append(cols[ci].vals, v)
	}
	return rows.Err()
}

func parseColumn(kind string, vals []string) (interface{}, error) {
	switch kind {
	case table.Int.String():
		out := make([]int, len(vals))
		for i, v := range vals {
			x, err := strconv.Atoi(v)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case table.Float.String():
		out := make([]float64, len(vals))
		for i, v := range vals {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case table.String.String():
		if vals == nil {
			vals = []string{}
		}
		return vals, nil
	}
	return nil, errors.Newf("unknown column kind %q", kind)
}

// A TableInfo describes a saved table.
type TableInfo struct {
	Name string
	Type subdomain.Type
	Key  string
}

// ListTables returns the saved tables, ordered by name.
func (db *DB) ListTables(ctx context.Context) ([]TableInfo, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT Name, Subdomain, KeyName FROM Tables ORDER BY Name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TableInfo
	for rows.Next() {
		var info TableInfo
		var typKey string
		if err := rows.Scan(&info.Name, &typKey, &info.Key); err != nil {
			return nil, err
		}
		if info.Type, err = subdomain.ResolveKey(typKey); err != nil {
			return nil, errors.Wrapf(err, "listing %s", info.Name)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.insertTable, db.insertColumn, db.findTable} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
