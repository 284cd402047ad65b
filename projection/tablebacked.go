// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

// A TableBacked Projection maps identifiers through an explicit table
// of (source, destination) pairs. Projecting yields the distinct
// related identifiers in increasing order.
type TableBacked struct {
	endpoints
	srcKey, dstKey string
	fwd, rev       multimap
}

// NewTableBacked returns a Projection from src to dst whose pairs are
// the srcKey and dstKey columns of t. Both columns must hold integers.
func NewTableBacked(t *table.Table, src subdomain.Type, srcKey string, dst subdomain.Type, dstKey string) (*TableBacked, error) {
	vals, err := t.AttributesByIdentifiers(t.Identifiers(), []string{srcKey, dstKey}, false)
	if err != nil {
		return nil, errors.Wrapf(err, "projection %s-%s", src, dst)
	}
	for i, name := range []string{srcKey, dstKey} {
		if vals[i].Kind != table.Int {
			return nil, errors.Wrapf(table.ErrIncompatibleValue,
				"projection %s-%s: column %q of %s holds %s values", src, dst, name, t.Name(), vals[i].Kind)
		}
	}

	p := &TableBacked{
		endpoints: endpoints{src, dst},
		srcKey:    srcKey,
		dstKey:    dstKey,
		fwd:       make(multimap),
		rev:       make(multimap),
	}
	srcs, dsts := vals[0].Ints(), vals[1].Ints()
	for i := range srcs {
		p.fwd[srcs[i]] = append(p.fwd[srcs[i]], dsts[i])
		p.rev[dsts[i]] = append(p.rev[dsts[i]], srcs[i])
	}
	return p, nil
}

func (*TableBacked) isProjection() {}

func (*TableBacked) Kind() Kind { return KindTableBacked }

// SourceKey returns the name of the column holding source identifiers.
func (p *TableBacked) SourceKey() string { return p.srcKey }

// DestinationKey returns the name of the column holding destination
// identifiers.
func (p *TableBacked) DestinationKey() string { return p.dstKey }

// KeyFor returns the column name that holds identifiers of type t.
func (p *TableBacked) KeyFor(t subdomain.Type) (string, bool) {
	switch t {
	case p.src:
		return p.srcKey, true
	case p.dst:
		return p.dstKey, true
	}
	return "", false
}

func (p *TableBacked) Project(s subdomain.Subdomain, dst subdomain.Type) (subdomain.Subdomain, error) {
	forward, err := p.direction(KindTableBacked, s, dst)
	if err != nil {
		return subdomain.Subdomain{}, err
	}
	m := p.rev
	if forward {
		m = p.fwd
	}
	return subdomain.New(dst, m.lookupSet(s.IDs())...), nil
}

func (p *TableBacked) SourceIDs() ([]int, bool)      { return p.fwd.keys(), true }
func (p *TableBacked) DestinationIDs() ([]int, bool) { return p.rev.keys(), true }

func (p *TableBacked) String() string {
	return fmt.Sprintf("file(%s.%s, %s.%s)", p.src, p.srcKey, p.dst, p.dstKey)
}
