// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package subdomain defines the closed set of identifier spaces that
// performance data can be keyed by, and instances of those spaces.
//
// A Domain is a coarse category of measurement space, such as the
// hardware ("HW") or the communication layer ("Comm"). A Type is a
// concrete, instantiable identifier space within a Domain, such as
// "HW_Node" or "Comm_Rank". The set of Types is fixed when the program
// is built; there is no runtime registration.
//
// A Subdomain is an immutable, ordered sequence of identifiers tagged
// with a Type. Each element is either a single identifier or a group
// of identifiers, which supports multi-valued queries such as "the
// mean over each of these sets of ranks".
package subdomain

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnknownSubdomain is returned when a domain/type pair or key is
// not in the registry.
var ErrUnknownSubdomain = errors.New("unknown subdomain")

// A Domain is a coarse category of measurement space.
type Domain string

const (
	HW          Domain = "HW"
	Comm        Domain = "Comm"
	Application Domain = "Application"
)

// A Type identifies a concrete subdomain type: a pair of a Domain and
// a type name within that domain.
//
// Types are comparable and may be used as map keys. The zero Type is
// not a valid registry entry.
type Type struct {
	Domain Domain
	Name   string
}

// Registered subdomain types.
var (
	Node         = Type{HW, "Node"}
	Core         = Type{HW, "Core"}
	Link         = Type{HW, "Link"}
	Rank         = Type{Comm, "Rank"}
	Communicator = Type{Comm, "Communicator"}
	Patch        = Type{Application, "Patch"}
)

// registry lists every leaf type, grouped by domain. The position of a
// type in this slice is its Index.
var registry = []Type{
	Node, Core, Link,
	Rank, Communicator,
	Patch,
}

var domains = []Domain{HW, Comm, Application}

var byKey = func() map[string]int {
	m := make(map[string]int, len(registry))
	for i, t := range registry {
		m[t.Key()] = i
	}
	return m
}()

// Key returns the canonical key of t, which is the domain and type
// name joined by "_", for example "HW_Node".
func (t Type) Key() string {
	return string(t.Domain) + "_" + t.Name
}

func (t Type) String() string {
	if t.IsZero() {
		return "<none>"
	}
	return t.Key()
}

// IsZero reports whether t is the zero Type.
func (t Type) IsZero() bool {
	return t == Type{}
}

// Index returns the position of t in the registry, or -1 if t is not
// registered. Index gives a stable total order over types.
func (t Type) Index() int {
	if i, ok := byKey[t.Key()]; ok && registry[i] == t {
		return i
	}
	return -1
}

// Resolve returns the registered Type with the given domain and type
// name.
func Resolve(domain, name string) (Type, error) {
	t := Type{Domain(domain), name}
	if t.Index() < 0 {
		return Type{}, errors.Wrapf(ErrUnknownSubdomain, "%s/%s", domain, name)
	}
	return t, nil
}

// ResolveKey returns the registered Type whose Key is key.
func ResolveKey(key string) (Type, error) {
	i, ok := byKey[key]
	if !ok {
		err := errors.Wrapf(ErrUnknownSubdomain, "key %q", key)
		if !strings.Contains(key, "_") {
			err = errors.WithHint(err, `keys have the form "<domain>_<type>", for example "HW_Node"`)
		}
		return Type{}, err
	}
	return registry[i], nil
}

// MustResolveKey is like ResolveKey, but panics if key is unknown.
func MustResolveKey(key string) Type {
	t, err := ResolveKey(key)
	if err != nil {
		panic(fmt.Sprintf("subdomain: %v", err))
	}
	return t
}

// LeafTypes returns every concrete subdomain type in registry order.
// Domains themselves are abstract and never appear here.
//
// The caller may modify the returned slice.
func LeafTypes() []Type {
	return append([]Type(nil), registry...)
}

// Domains returns the registered domains.
func Domains() []Domain {
	return append([]Domain(nil), domains...)
}

// TypesOf returns the leaf types belonging to domain d.
func TypesOf(d Domain) []Type {
	var out []Type
	for _, t := range registry {
		if t.Domain == d {
			out = append(out, t)
		}
	}
	return out
}
