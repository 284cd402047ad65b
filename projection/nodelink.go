// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/LLNL/boxfish/aggregate"
	"github.com/LLNL/boxfish/subdomain"
	"github.com/LLNL/boxfish/table"
)

// A Policy selects which endpoints of a link participate in a
// NodeLink mapping.
type Policy int

const (
	Source Policy = iota
	Destination
	Both
)

func (p Policy) String() string {
	switch p {
	case Source:
		return "source"
	case Destination:
		return "destination"
	case Both:
		return "both"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses a Policy name. Names are case-insensitive.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "source":
		return Source, nil
	case "destination":
		return Destination, nil
	case "both":
		return Both, nil
	}
	return 0, errors.WithHint(errors.Newf("unknown link policy %q", s),
		"valid policies are source, destination, both")
}

// NodeLinkConfig describes how to derive a NodeLink Projection from a
// node table and a link table that share coordinate axes.
type NodeLinkConfig struct {
	// Nodes is keyed by node identifier and has the Coords
	// columns.
	Nodes *table.Table
	// Links is keyed by link identifier and has the
	// SourceCoords and DestinationCoords columns.
	Links *table.Table

	Coords            []string
	SourceCoords      []string
	DestinationCoords []string

	// NodePolicy selects which links a node maps to: those it is
	// the source of, the destination of, or both.
	NodePolicy Policy
	// LinkPolicy selects which nodes a link maps to.
	LinkPolicy Policy
}

// A NodeLink Projection relates nodes and links that meet at the same
// coordinates.
//
// Projecting does not remove duplicates. Under the Both policy, a link
// between two nodes in the input appears once for each of them.
type NodeLink struct {
	endpoints
	nodeToLinks, linkToNodes multimap
	nodeIDs, linkIDs         []int
}

// NewNodeLink builds a NodeLink Projection from the node type to the
// link type described by cfg.
func NewNodeLink(cfg NodeLinkConfig) (*NodeLink, error) {
	if cfg.Nodes == nil || cfg.Links == nil {
		return nil, errors.New("node link projection needs node and link tables")
	}
	if len(cfg.Coords) == 0 || len(cfg.SourceCoords) != len(cfg.Coords) || len(cfg.DestinationCoords) != len(cfg.Coords) {
		return nil, errors.Newf("node link projection: %d node coordinates, %d source and %d destination link coordinates",
			len(cfg.Coords), len(cfg.SourceCoords), len(cfg.DestinationCoords))
	}
	nodes, links := cfg.Nodes, cfg.Links

	// Map each node coordinate to the node at it.
	nodeGroups, err := nodes.GroupByAttributes(nodes.Identifiers(), cfg.Coords, []string{nodes.Key()}, aggregate.Identity)
	if err != nil {
		return nil, errors.Wrap(err, "node link projection: grouping nodes")
	}
	nodeAt := make(map[string]int)
	for _, g := range nodeGroups {
		nodeAt[coordKey(g.Key)] = int(g.Values[0])
	}

	// Map each link to the nodes at its endpoints.
	n := len(cfg.Coords)
	linkCoords := append(append([]string{}, cfg.SourceCoords...), cfg.DestinationCoords...)
	linkGroups, err := links.GroupByAttributes(links.Identifiers(), linkCoords, []string{links.Key()}, aggregate.Identity)
	if err != nil {
		return nil, errors.Wrap(err, "node link projection: grouping links")
	}

	p := &NodeLink{
		endpoints:   endpoints{nodes.Type(), links.Type()},
		nodeToLinks: make(multimap),
		linkToNodes: make(multimap),
		nodeIDs:     nodes.DistinctKeys(),
		linkIDs:     links.DistinctKeys(),
	}
	for _, g := range linkGroups {
		link := int(g.Values[0])
		src, srcOK := nodeAt[coordKey(g.Key[:n])]
		dst, dstOK := nodeAt[coordKey(g.Key[n:])]
		if srcOK && cfg.NodePolicy != Destination {
			p.nodeToLinks[src] = append(p.nodeToLinks[src], link)
		}
		if dstOK && cfg.NodePolicy != Source {
			p.nodeToLinks[dst] = append(p.nodeToLinks[dst], link)
		}
		if srcOK && cfg.LinkPolicy != Destination {
			p.linkToNodes[link] = append(p.linkToNodes[link], src)
		}
		if dstOK && cfg.LinkPolicy != Source {
			p.linkToNodes[link] = append(p.linkToNodes[link], dst)
		}
	}
	return p, nil
}

// coordKey returns a map key for a coordinate tuple. Integral float
// coordinates format the same as ints.
func coordKey(coords []interface{}) string {
	return fmt.Sprintf("%v", coords)
}

func (*NodeLink) isProjection() {}

func (*NodeLink) Kind() Kind { return KindNodeLink }

func (p *NodeLink) Project(s subdomain.Subdomain, dst subdomain.Type) (subdomain.Subdomain, error) {
	forward, err := p.direction(KindNodeLink, s, dst)
	if err != nil {
		return subdomain.Subdomain{}, err
	}
	m := p.linkToNodes
	if forward {
		m = p.nodeToLinks
	}
	return subdomain.New(dst, m.lookup(s.IDs())...), nil
}

func (p *NodeLink) SourceIDs() ([]int, bool)      { return append([]int{}, p.nodeIDs...), true }
func (p *NodeLink) DestinationIDs() ([]int, bool) { return append([]int{}, p.linkIDs...), true }

func (p *NodeLink) String() string {
	return fmt.Sprintf("node link(%s, %s)", p.src, p.dst)
}
