// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aggregate provides the reduction functions used to combine
// repeated measurements into a single value.
//
// Each Func is a pure function from a sequence of float64 values to a
// float64. Every Func maps an empty sequence to 0, which lets callers
// treat "no matching measurements" as a zero-filled result.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"
	"github.com/cockroachdb/errors"
)

// A Func is a reduction over a sequence of values.
type Func int

const (
	Sum Func = iota
	Mean
	Max
	Min
	Var
	Count
	Identity
)

var funcNames = []string{
	Sum:      "sum",
	Mean:     "mean",
	Max:      "max",
	Min:      "min",
	Var:      "var",
	Count:    "count",
	Identity: "identity",
}

// Funcs returns all Funcs in declaration order.
func Funcs() []Func {
	out := make([]Func, len(funcNames))
	for i := range out {
		out[i] = Func(i)
	}
	return out
}

// Parse returns the Func named name. Names are case-insensitive.
func Parse(name string) (Func, error) {
	lname := strings.ToLower(name)
	for i, n := range funcNames {
		if n == lname {
			return Func(i), nil
		}
	}
	return 0, errors.WithHint(errors.Newf("unknown aggregator %q", name),
		"valid aggregators are "+strings.Join(funcNames, ", "))
}

func (f Func) String() string {
	if f >= 0 && int(f) < len(funcNames) {
		return funcNames[f]
	}
	return fmt.Sprintf("Func(%d)", int(f))
}

// Apply reduces xs to a single value.
//
// Var is the population variance. Identity returns the first value,
// which is the natural result when each group holds one measurement.
func (f Func) Apply(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	switch f {
	case Sum:
		return vec.Sum(xs)
	case Mean:
		return stats.Mean(xs)
	case Max:
		_, max := stats.Bounds(xs)
		return max
	case Min:
		min, _ := stats.Bounds(xs)
		return min
	case Var:
		// stats.Variance is the sample variance. Rescale to
		// the population variance.
		n := float64(len(xs))
		if n < 2 {
			return 0
		}
		return stats.Variance(xs) * (n - 1) / n
	case Count:
		return float64(len(xs))
	case Identity:
		return xs[0]
	}
	panic(fmt.Sprintf("unknown aggregator %v", f))
}
