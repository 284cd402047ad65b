// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"fmt"

	"github.com/aclements/go-gg/generic/slice"
)

// Values is a typed column of values: a []int, []float64, or []string
// according to Kind.
type Values struct {
	Kind Kind
	data interface{}
}

// Len returns the number of values in v.
func (v Values) Len() int {
	switch d := v.data.(type) {
	case []int:
		return len(d)
	case []float64:
		return len(d)
	case []string:
		return len(d)
	}
	return 0
}

// Ints returns v's values if v is an Int column, or nil otherwise.
func (v Values) Ints() []int {
	d, _ := v.data.([]int)
	return d
}

// Floats returns v's values as float64s if v is numeric, or nil
// otherwise.
func (v Values) Floats() []float64 {
	switch d := v.data.(type) {
	case []float64:
		return d
	case []int:
		var out []float64
		slice.Convert(&out, d)
		return out
	}
	return nil
}

// Strings returns v's values if v is a String column, or nil
// otherwise.
func (v Values) Strings() []string {
	d, _ := v.data.([]string)
	return d
}

// At returns the i'th value of v.
func (v Values) At(i int) interface{} {
	switch d := v.data.(type) {
	case []int:
		return d[i]
	case []float64:
		return d[i]
	case []string:
		return d[i]
	}
	panic(fmt.Sprintf("index %d out of range of empty Values", i))
}

// Interface returns the underlying slice of v.
func (v Values) Interface() interface{} {
	return v.data
}

// Format returns the i'th value of v as text.
func (v Values) Format(i int) string {
	return fmt.Sprint(v.At(i))
}
