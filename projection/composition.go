// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/LLNL/boxfish/subdomain"
)

// A Step is one hop of a Composition: Projection applied from type
// From to type To.
type Step struct {
	Projection Projection
	From, To   subdomain.Type
}

// A Composition chains Projections end to end. It relates the From
// type of its first step and the To type of its last step.
type Composition struct {
	endpoints
	steps []Step
}

// NewComposition returns a Composition of steps. Each step's
// Projection must relate its From and To types, and each step must
// start where the previous one ended.
func NewComposition(steps ...Step) (*Composition, error) {
	if len(steps) == 0 {
		return nil, errors.New("composition with no steps")
	}
	for i, st := range steps {
		if st.Projection == nil || !st.Projection.Relates(st.From, st.To) {
			return nil, errors.Wrapf(ErrUnrelated, "composition step %d: %v does not map %s to %s", i, st.Projection, st.From, st.To)
		}
		if i > 0 && steps[i-1].To != st.From {
			return nil, errors.Newf("composition step %d starts at %s, but step %d ends at %s", i, st.From, i-1, steps[i-1].To)
		}
	}
	return &Composition{
		endpoints: endpoints{steps[0].From, steps[len(steps)-1].To},
		steps:     append([]Step{}, steps...),
	}, nil
}

func (*Composition) isProjection() {}

func (*Composition) Kind() Kind { return KindComposition }

// Steps returns the steps of p in forward order.
func (p *Composition) Steps() []Step {
	return append([]Step{}, p.steps...)
}

// Project applies each step in order when mapping from source to
// destination, and each step in reverse toward its From type
// otherwise.
func (p *Composition) Project(s subdomain.Subdomain, dst subdomain.Type) (subdomain.Subdomain, error) {
	forward, err := p.direction(KindComposition, s, dst)
	if err != nil {
		return subdomain.Subdomain{}, err
	}
	cur := s
	if forward {
		for _, st := range p.steps {
			if cur, err = st.Projection.Project(cur, st.To); err != nil {
				return subdomain.Subdomain{}, err
			}
		}
		return cur, nil
	}
	for i := len(p.steps) - 1; i >= 0; i-- {
		st := p.steps[i]
		if cur, err = st.Projection.Project(cur, st.From); err != nil {
			return subdomain.Subdomain{}, err
		}
	}
	return cur, nil
}

func (p *Composition) SourceIDs() ([]int, bool) {
	first := p.steps[0]
	return IDsFor(first.Projection, first.From)
}

func (p *Composition) DestinationIDs() ([]int, bool) {
	last := p.steps[len(p.steps)-1]
	return IDsFor(last.Projection, last.To)
}

func (p *Composition) String() string {
	parts := make([]string, len(p.steps))
	for i, st := range p.steps {
		parts[i] = st.Projection.String()
	}
	return "composition(" + strings.Join(parts, " -> ") + ")"
}
