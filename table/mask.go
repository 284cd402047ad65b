// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

// A mask is a bitmap over the positions of a row selection.
type mask []uint32

func newMask(n int) mask {
	return mask(make([]uint32, (n+31)/32))
}

func (m mask) set(i int) {
	m[i/32] |= 1 << (i % 32)
}

func (m mask) test(i int) bool {
	return m[i/32]&(1<<(i%32)) != 0
}

func (m mask) and(n mask) {
	for i := range m {
		m[i] &= n[i]
	}
}

func (m mask) or(n mask) {
	for i := range m {
		m[i] |= n[i]
	}
}

// selectRows returns the elements of rows whose positions are set in
// m, in order.
func (m mask) selectRows(rows []int) []int {
	out := []int{}
	for i, r := range rows {
		if m.test(i) {
			out = append(out, r)
		}
	}
	return out
}
