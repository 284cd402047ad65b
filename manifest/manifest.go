// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package manifest loads a dataset described by a YAML manifest into a
// run.Run.
//
// A manifest lists entries. Table entries name a subdomain type, a key
// field, and the data: a CSV file, inline columns, or a table saved in
// a store. Projection entries name a projection type and its
// parameters:
//
//	name: example
//	entries:
//	  - filetype: table
//	    name: ranks
//	    domain: Comm
//	    type: Rank
//	    field: mpirank
//	    file: ranks.csv
//	  - filetype: projection
//	    name: rank-core
//	    type: identity
//	    subdomains:
//	      - {domain: Comm, type: Rank}
//	      - {domain: HW, type: Core}
//
// Table entries are loaded before projection entries, so projections
// may refer to any table. Composition entries may refer to projections
// listed before them.
package manifest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/net/context"
	"gopkg.in/yaml.v3"

	"github.com/LLNL/boxfish/projection"
	"github.com/LLNL/boxfish/run"
	"github.com/LLNL/boxfish/store"
	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

// A Manifest describes a dataset.
type Manifest struct {
	Name    string  `yaml:"name"`
	Entries []Entry `yaml:"entries"`
}

// Filetypes of entries.
const (
	FiletypeTable      = "table"
	FiletypeProjection = "projection"
)

// An Entry is one table or projection of a Manifest. Which fields
// apply depends on Filetype and, for projections, Type.
type Entry struct {
	Filetype string `yaml:"filetype"`
	Name     string `yaml:"name"`

	// Domain and Type name the subdomain type of a table. For a
	// projection, Type is the projection type: identity, file,
	// node link, or composition.
	Domain string `yaml:"domain,omitempty"`
	Type   string `yaml:"type"`
	// Field is the key column of a table.
	Field string `yaml:"field,omitempty"`

	// File is a CSV file with a header row, relative to the
	// manifest. It holds a table's data or a file projection's
	// pairs.
	File    string   `yaml:"file,omitempty"`
	Columns []Column `yaml:"columns,omitempty"`
	SQL     string   `yaml:"sql,omitempty"`

	// Subdomains are the source and destination of identity and
	// file projections.
	Subdomains []TypeRef `yaml:"subdomains,omitempty"`

	// Table names the table entry holding a file projection's
	// pairs, as an alternative to File.
	Table          string `yaml:"table,omitempty"`
	SourceKey      string `yaml:"source_key,omitempty"`
	DestinationKey string `yaml:"destination_key,omitempty"`

	Nodes             string   `yaml:"nodes,omitempty"`
	Links             string   `yaml:"links,omitempty"`
	Coords            []string `yaml:"coords,omitempty"`
	SourceCoords      []string `yaml:"source_coords,omitempty"`
	DestinationCoords []string `yaml:"destination_coords,omitempty"`
	NodePolicy        string   `yaml:"node_policy,omitempty"`
	LinkPolicy        string   `yaml:"link_policy,omitempty"`

	Steps []StepRef `yaml:"steps,omitempty"`
}

// A Column is an inline table column.
type Column struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// A TypeRef names a subdomain type.
type TypeRef struct {
	Domain string `yaml:"domain"`
	Type   string `yaml:"type"`
}

func (r TypeRef) resolve() (subdomain.Type, error) {
	return subdomain.Resolve(r.Domain, r.Type)
}

// A StepRef is one step of a composition projection.
type StepRef struct {
	Projection string  `yaml:"projection"`
	From       TypeRef `yaml:"from"`
	To         TypeRef `yaml:"to"`
}

// An Option configures loading.
type Option func(*loader)

// WithLogger sets the logger passed to the loaded Run.
func WithLogger(log *zap.Logger) Option {
	return func(l *loader) {
		l.log = log
	}
}

// WithStore sets the store that sql table entries load from.
func WithStore(db *store.DB) Option {
	return func(l *loader) {
		l.db = db
	}
}

type loader struct {
	dir string
	log *zap.Logger
	db  *store.DB

	run         *run.Run
	tables      map[string]*table.Table
	projections map[string]projection.Projection
}

// Load reads the manifest at path and loads the dataset it describes.
// Files named by the manifest are relative to its directory.
func Load(ctx context.Context, path string, opts ...Option) (*run.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := Decode(ctx, f, filepath.Dir(path), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return r, nil
}

// Decode reads a manifest from r and loads the dataset it describes.
// Files named by the manifest are relative to dir.
func Decode(ctx context.Context, r io.Reader, dir string, opts ...Option) (*run.Run, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}
	return Build(ctx, &m, dir, opts...)
}

// Build loads the dataset described by m. Files named by m are
// relative to dir.
//
// The returned Run has been refreshed and has identifier-only tables
// for subdomains that only projections define.
func Build(ctx context.Context, m *Manifest, dir string, opts ...Option) (*run.Run, error) {
	l := &loader{
		dir:         dir,
		log:         zap.NewNop(),
		tables:      make(map[string]*table.Table),
		projections: make(map[string]projection.Projection),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.run = run.New(run.WithName(m.Name), run.WithLogger(l.log))

	for _, pass := range []string{FiletypeTable, FiletypeProjection} {
		for i := range m.Entries {
			e := &m.Entries[i]
			switch e.Filetype {
			case FiletypeTable, FiletypeProjection:
			default:
				return nil, errors.Newf("entry %d (%s): unknown filetype %q", i, e.Name, e.Filetype)
			}
			if e.Filetype != pass {
				continue
			}
			var err error
			if pass == FiletypeTable {
				err = l.loadTable(ctx, e)
			} else {
				err = l.loadProjection(e)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "entry %d (%s)", i, e.Name)
			}
		}
	}

	l.run.Refresh()
	if _, err := l.run.SynthesizeUncoveredSubdomains(); err != nil {
		return nil, err
	}
	l.run.Refresh()
	return l.run, nil
}

func (l *loader) loadTable(ctx context.Context, e *Entry) error {
	if e.Name == "" {
		return errors.New("table entry has no name")
	}
	if _, dup := l.tables[e.Name]; dup {
		return errors.Newf("duplicate table name %q", e.Name)
	}
	var t *table.Table
	var err error
	switch {
	case e.SQL != "":
		t, err = l.loadSQL(ctx, e)
	case e.File != "":
		typ, rerr := subdomain.Resolve(e.Domain, e.Type)
		if rerr != nil {
			return rerr
		}
		var header []string
		var rows [][]string
		header, rows, err = l.readCSV(e.File)
		if err == nil {
			t, err = table.FromStrings(e.Name, typ, e.Field, header, rows)
		}
	case len(e.Columns) > 0:
		typ, rerr := subdomain.Resolve(e.Domain, e.Type)
		if rerr != nil {
			return rerr
		}
		t, err = inlineTable(e.Name, typ, e.Field, e.Columns)
	default:
		return errors.New("table entry has no file, columns, or sql source")
	}
	if err != nil {
		return err
	}
	l.tables[e.Name] = t
	l.run.AddTable(t)
	l.log.Debug("loaded table", zap.Stringer("table", t))
	return nil
}

func (l *loader) loadSQL(ctx context.Context, e *Entry) (*table.Table, error) {
	if l.db == nil {
		return nil, errors.WithHint(errors.Newf("sql table %q but no database", e.SQL),
			"configure a database to load sql entries")
	}
	t, err := l.db.LoadTable(ctx, e.SQL)
	if err != nil {
		return nil, err
	}
	if e.Domain != "" || e.Type != "" {
		typ, err := subdomain.Resolve(e.Domain, e.Type)
		if err != nil {
			return nil, err
		}
		if typ != t.Type() {
			return nil, errors.Wrapf(table.ErrTypeMismatch, "sql table %q has type %s, manifest says %s", e.SQL, t.Type(), typ)
		}
	}
	if e.Field != "" && e.Field != t.Key() {
		return nil, errors.Newf("sql table %q is keyed by %q, manifest says %q", e.SQL, t.Key(), e.Field)
	}
	if t.Name() != e.Name {
		return table.New(e.Name, t.Type(), t.Key(), t.Data())
	}
	return t, nil
}

// inlineTable builds a table from manifest columns, coercing values as
// for CSV files.
func inlineTable(name string, typ subdomain.Type, key string, cols []Column) (*table.Table, error) {
	header := make([]string, len(cols))
	var n int
	for i, c := range cols {
		header[i] = c.Name
		if i == 0 {
			n = len(c.Values)
		} else if len(c.Values) != n {
			return nil, errors.Newf("column %s has %d values, want %d", c.Name, len(c.Values), n)
		}
	}
	rows := make([][]string, n)
	for r := range rows {
		rows[r] = make([]string, len(cols))
		for i, c := range cols {
			rows[r][i] = c.Values[r]
		}
	}
	return table.FromStrings(name, typ, key, header, rows)
}

// readCSV reads a CSV file with a header row.
func (l *loader) readCSV(name string) (header []string, rows [][]string, err error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading %s", name)
	}
	if len(records) == 0 {
		return nil, nil, errors.Newf("%s: no header row", name)
	}
	return records[0], records[1:], nil
}

func (l *loader) loadProjection(e *Entry) error {
	if _, dup := l.projections[e.Name]; dup && e.Name != "" {
		return errors.Newf("duplicate projection name %q", e.Name)
	}
	var p projection.Projection
	var err error
	switch e.Type {
	case projection.KindIdentity.String():
		var src, dst subdomain.Type
		if src, dst, err = l.endpoints(e); err == nil {
			p = projection.NewIdentity(src, dst)
		}
	case projection.KindTableBacked.String():
		p, err = l.tableBacked(e)
	case projection.KindNodeLink.String():
		p, err = l.nodeLink(e)
	case projection.KindComposition.String():
		p, err = l.composition(e)
	default:
		return errors.WithHint(errors.Newf("unknown projection type %q", e.Type),
			"projection types are identity, file, node link, composition")
	}
	if err != nil {
		return err
	}
	if e.Name != "" {
		l.projections[e.Name] = p
	}
	l.run.AddProjection(p)
	l.log.Debug("loaded projection", zap.Stringer("projection", p))
	return nil
}

func (l *loader) endpoints(e *Entry) (src, dst subdomain.Type, err error) {
	if len(e.Subdomains) != 2 {
		return src, dst, errors.Newf("%s projection needs 2 subdomains, got %d", e.Type, len(e.Subdomains))
	}
	if src, err = e.Subdomains[0].resolve(); err != nil {
		return
	}
	dst, err = e.Subdomains[1].resolve()
	return
}

func (l *loader) table(name string) (*table.Table, error) {
	t, ok := l.tables[name]
	if !ok {
		return nil, errors.Wrapf(table.ErrUnknownAttribute, "no table entry named %q", name)
	}
	return t, nil
}

func (l *loader) tableBacked(e *Entry) (projection.Projection, error) {
	src, dst, err := l.endpoints(e)
	if err != nil {
		return nil, err
	}
	if e.SourceKey == "" || e.DestinationKey == "" {
		return nil, errors.New("file projection needs source_key and destination_key")
	}
	var t *table.Table
	switch {
	case e.Table != "":
		if t, err = l.table(e.Table); err != nil {
			return nil, err
		}
	case e.File != "":
		header, rows, err := l.readCSV(e.File)
		if err != nil {
			return nil, err
		}
		if t, err = table.FromStrings(e.Name, src, e.SourceKey, header, rows); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("file projection needs a table or file")
	}
	return projection.NewTableBacked(t, src, e.SourceKey, dst, e.DestinationKey)
}

func (l *loader) nodeLink(e *Entry) (projection.Projection, error) {
	cfg := projection.NodeLinkConfig{
		Coords:            e.Coords,
		SourceCoords:      e.SourceCoords,
		DestinationCoords: e.DestinationCoords,
		NodePolicy:        projection.Both,
		LinkPolicy:        projection.Both,
	}
	var err error
	if cfg.Nodes, err = l.table(e.Nodes); err != nil {
		return nil, err
	}
	if cfg.Links, err = l.table(e.Links); err != nil {
		return nil, err
	}
	if e.NodePolicy != "" {
		if cfg.NodePolicy, err = projection.ParsePolicy(e.NodePolicy); err != nil {
			return nil, err
		}
	}
	if e.LinkPolicy != "" {
		if cfg.LinkPolicy, err = projection.ParsePolicy(e.LinkPolicy); err != nil {
			return nil, err
		}
	}
	return projection.NewNodeLink(cfg)
}

func (l *loader) composition(e *Entry) (projection.Projection, error) {
	steps := make([]projection.Step, len(e.Steps))
	for i, s := range e.Steps {
		p, ok := l.projections[s.Projection]
		if !ok {
			return nil, errors.Newf("step %d: no earlier projection named %q", i, s.Projection)
		}
		from, err := s.From.resolve()
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", i)
		}
		to, err := s.To.resolve()
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", i)
		}
		steps[i] = projection.Step{Projection: p, From: from, To: to}
	}
	return projection.NewComposition(steps...)
}
