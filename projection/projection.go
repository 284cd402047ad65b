// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package projection maps identifiers between subdomain types.
//
// A Projection relates two subdomain types, its source and its
// destination, and can map a set of identifiers of either type to the
// corresponding identifiers of the other. The set of Projection
// implementations is closed: Identity, TableBacked, NodeLink, and
// Composition.
package projection

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/LLNL/boxfish/subdomain"
)

// ErrUnrelated is returned by Project when asked to map between types
// the Projection does not relate.
var ErrUnrelated = errors.New("projection does not relate types")

// Kind identifies a Projection implementation.
type Kind int

const (
	KindIdentity Kind = iota
	KindTableBacked
	KindNodeLink
	KindComposition
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindTableBacked:
		return "file"
	case KindNodeLink:
		return "node link"
	case KindComposition:
		return "composition"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// A Projection maps identifiers between its Source and Destination
// types.
type Projection interface {
	Kind() Kind
	Source() subdomain.Type
	Destination() subdomain.Type

	// Relates reports whether the Projection maps between a and b,
	// in either order.
	Relates(a, b subdomain.Type) bool

	// Project maps the identifiers of s to type dst. s must be of
	// one of the Projection's types and dst of the other. Grouped
	// elements of s are flattened; the result is ungrouped.
	Project(s subdomain.Subdomain, dst subdomain.Type) (subdomain.Subdomain, error)

	// SourceIDs returns the identifiers the Projection knows of
	// in its source type, or false if they are not known.
	SourceIDs() ([]int, bool)
	// DestinationIDs is like SourceIDs for the destination type.
	DestinationIDs() ([]int, bool)

	String() string

	isProjection()
}

// IDsFor returns the identifiers p knows of in type t.
func IDsFor(p Projection, t subdomain.Type) ([]int, bool) {
	switch t {
	case p.Source():
		return p.SourceIDs()
	case p.Destination():
		return p.DestinationIDs()
	}
	return nil, false
}

// Other returns the endpoint of p opposite t, or false if t is not an
// endpoint of p.
func Other(p Projection, t subdomain.Type) (subdomain.Type, bool) {
	switch t {
	case p.Source():
		return p.Destination(), true
	case p.Destination():
		return p.Source(), true
	}
	return subdomain.Type{}, false
}

// endpoints holds the two types a Projection relates.
type endpoints struct {
	src, dst subdomain.Type
}

func (e endpoints) Source() subdomain.Type      { return e.src }
func (e endpoints) Destination() subdomain.Type { return e.dst }

func (e endpoints) Relates(a, b subdomain.Type) bool {
	return (a == e.src && b == e.dst) || (a == e.dst && b == e.src)
}

// direction reports whether mapping s to dst runs forward, from source
// to destination.
func (e endpoints) direction(kind Kind, s subdomain.Subdomain, dst subdomain.Type) (forward bool, err error) {
	if !e.Relates(s.Type(), dst) {
		return false, errors.Wrapf(ErrUnrelated, "%s projection %s-%s cannot map %s to %s",
			kind, e.src, e.dst, s.Type(), dst)
	}
	return s.Type() == e.src, nil
}

// An Identity Projection relates two types that share an identifier
// space. Projecting retags identifiers with the destination type.
type Identity struct {
	endpoints
}

// NewIdentity returns an Identity Projection between a and b.
func NewIdentity(a, b subdomain.Type) *Identity {
	return &Identity{endpoints{a, b}}
}

func (*Identity) isProjection() {}

func (*Identity) Kind() Kind { return KindIdentity }

func (p *Identity) Project(s subdomain.Subdomain, dst subdomain.Type) (subdomain.Subdomain, error) {
	if _, err := p.direction(KindIdentity, s, dst); err != nil {
		return subdomain.Subdomain{}, err
	}
	return subdomain.New(dst, s.IDs()...), nil
}

// SourceIDs returns false: an Identity Projection relates identifier
// spaces, not particular identifiers.
func (*Identity) SourceIDs() ([]int, bool)      { return nil, false }
func (*Identity) DestinationIDs() ([]int, bool) { return nil, false }

func (p *Identity) String() string {
	return fmt.Sprintf("identity(%s, %s)", p.src, p.dst)
}

// multimap maps an identifier to the identifiers it relates to.
type multimap map[int][]int

// keys returns the sorted keys of m.
func (m multimap) keys() []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// lookup returns the concatenation of m's values for ids, in order.
func (m multimap) lookup(ids []int) []int {
	out := []int{}
	for _, id := range ids {
		out = append(out, m[id]...)
	}
	return out
}

// lookupSet returns the sorted, distinct values of m for ids.
func (m multimap) lookupSet(ids []int) []int {
	seen := make(map[int]bool)
	out := []int{}
	for _, id := range ids {
		for _, v := range m[id] {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Ints(out)
	return out
}
