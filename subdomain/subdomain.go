// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subdomain

import (
	"fmt"
	"strings"
)

// A Subdomain is an immutable, ordered sequence of identifiers of a
// single Type.
//
// Each element of a Subdomain is either a single identifier or, for
// grouped Subdomains, a group of identifiers. Operations that treat a
// Subdomain as a flat set of identifiers use IDs.
type Subdomain struct {
	typ Type
	// elems holds one slice per element. For an ungrouped
	// Subdomain every element has length 1.
	elems   [][]int
	grouped bool
}

// New returns an ungrouped Subdomain of type t containing ids.
func New(t Type, ids ...int) Subdomain {
	elems := make([][]int, len(ids))
	flat := append([]int(nil), ids...)
	for i := range flat {
		elems[i] = flat[i : i+1 : i+1]
	}
	return Subdomain{typ: t, elems: elems}
}

// NewGrouped returns a grouped Subdomain of type t. Each group is one
// element of the Subdomain.
func NewGrouped(t Type, groups [][]int) Subdomain {
	elems := make([][]int, len(groups))
	for i, g := range groups {
		elems[i] = append([]int(nil), g...)
	}
	return Subdomain{typ: t, elems: elems, grouped: true}
}

// New instantiates a Subdomain of type t. It is shorthand for
// subdomain.New(t, ids...).
func (t Type) New(ids ...int) Subdomain {
	return New(t, ids...)
}

// Type returns the Type of s.
func (s Subdomain) Type() Type {
	return s.typ
}

// Len returns the number of elements in s.
func (s Subdomain) Len() int {
	return len(s.elems)
}

// Grouped reports whether s was constructed from groups of
// identifiers.
func (s Subdomain) Grouped() bool {
	return s.grouped
}

// IDs returns the identifiers of s flattened in element order.
//
// The caller may modify the returned slice.
func (s Subdomain) IDs() []int {
	n := 0
	for _, e := range s.elems {
		n += len(e)
	}
	out := make([]int, 0, n)
	for _, e := range s.elems {
		out = append(out, e...)
	}
	return out
}

// Element returns the identifiers of element i.
//
// The caller must not modify the returned slice.
func (s Subdomain) Element(i int) []int {
	return s.elems[i]
}

// Elements returns every element of s as a group of identifiers.
//
// The caller must not modify the inner slices.
func (s Subdomain) Elements() [][]int {
	return append([][]int(nil), s.elems...)
}

// Retag returns a Subdomain with the same elements as s but of type t.
func (s Subdomain) Retag(t Type) Subdomain {
	s.typ = t
	return s
}

// String returns s in the form "HW_Node[0 1 2]". Grouped elements are
// written in braces.
func (s Subdomain) String() string {
	var buf strings.Builder
	buf.WriteString(s.typ.String())
	buf.WriteByte('[')
	for i, e := range s.elems {
		if i > 0 {
			buf.WriteByte(' ')
		}
		if s.grouped {
			fmt.Fprint(&buf, "{")
			for j, id := range e {
				if j > 0 {
					buf.WriteByte(' ')
				}
				fmt.Fprint(&buf, id)
			}
			fmt.Fprint(&buf, "}")
		} else {
			fmt.Fprint(&buf, e[0])
		}
	}
	buf.WriteByte(']')
	return buf.String()
}
