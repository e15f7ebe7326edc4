// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Package ranges implements half-open, strided integer ranges and
// their intersection. It generalizes the teacher corpus's unit-step
// interval type to arbitrary non-zero steps (including negative ones),
// which Column slicing needs to resolve requests like t[3:20:2] against
// page boundaries.
package ranges

// Range is a half-open arithmetic progression: Start, Start+Step,
// Start+2*Step, ... for as long as the value stays on the Start side
// of Stop (exclusive), matching Python's range() semantics. Step must
// be non-zero.
type Range struct {
	Start, Stop, Step int
}

// New constructs a Range, panicking if step is zero (a zero step is a
// caller bug, not a runtime condition — same contract as Python's
// range(), which raises ValueError for step==0).
func New(start, stop, step int) Range {
	if step == 0 {
		panic("ranges: step must not be zero")
	}
	return Range{start, stop, step}
}

// Len returns the number of integers the range produces.
func (r Range) Len() int {
	if r.Step > 0 {
		if r.Stop <= r.Start {
			return 0
		}
		return (r.Stop-r.Start+r.Step-1) / r.Step
	}
	if r.Stop >= r.Start {
		return 0
	}
	negStep := -r.Step
	return (r.Start-r.Stop+negStep-1) / negStep
}

// Empty reports whether r produces zero integers.
func (r Range) Empty() bool { return r.Len() == 0 }

// At returns the i'th integer produced by r (0-indexed). The caller
// must ensure 0 <= i < r.Len().
func (r Range) At(i int) int { return r.Start + i*r.Step }

// Last returns the last integer r produces. Panics if r is empty.
func (r Range) Last() int {
	n := r.Len()
	if n == 0 {
		panic("ranges: Last called on an empty range")
	}
	return r.At(n - 1)
}

// Values materializes every integer in r, in order.
func (r Range) Values() []int {
	n := r.Len()
	out := make([]int, n)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// ascending returns (start, step, count) describing the same set of
// integers as r but walked in ascending order with a positive step.
// This is the normal form intersect works in internally.
func (r Range) ascending() (start, step, count int) {
	n := r.Len()
	if n == 0 {
		return 0, 1, 0
	}
	if r.Step > 0 {
		return r.Start, r.Step, n
	}
	return r.At(n - 1), -r.Step, n
}

func gcdExt(a, b int) (g, x, y int) {
	if b == 0 {
		return a, 1, 0
	}
	g, x1, y1 := gcdExt(b, a%b)
	return g, y1, x1 - (a/b)*y1
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// emptyRange is the canonical empty result, matching the teacher
// corpus's Intervals.Visit convention of representing "nothing" as the
// degenerate (0,0) pair.
var emptyRange = Range{0, 0, 1}

// Intersect returns the set of integers common to a and b, as a
// single ascending Range with a positive step (the lcm of a and b's
// strides where they overlap at all). The result is always normalized
// to ascending order, regardless of a and b's own directions — see the
// package tests for the two canonical spec examples this matches.
//
// This solves the simultaneous congruence "a1 + i*s1 == a2 + j*s2 for
// some i in [0,n1), j in [0,n2)" via the extended Euclidean algorithm,
// the standard approach for intersecting two arithmetic progressions.
func Intersect(a, b Range) Range {
	a1, s1, n1 := a.ascending()
	a2, s2, n2 := b.ascending()
	if n1 == 0 || n2 == 0 {
		return emptyRange
	}

	g, p, _ := gcdExt(s1, s2)
	diff := a2 - a1
	if diff%g != 0 {
		return emptyRange
	}

	lcm := s1 / g * s2

	// Smallest non-negative i (mod s2/g) such that a1+i*s1 === a2 (mod s2).
	modulus := s2 / g
	i0 := (diff / g % modulus * p) % modulus
	if i0 < 0 {
		i0 += modulus
	}
	start := a1 + i0*s1

	last1 := a1 + (n1-1)*s1
	last2 := a2 + (n2-1)*s2
	lo := a1
	if a2 > lo {
		lo = a2
	}
	hi := last1
	if last2 < hi {
		hi = last2
	}

	if start < lo {
		start += ceilDiv(lo-start, lcm) * lcm
	}
	if start > hi {
		return emptyRange
	}

	count := (hi-start)/lcm + 1
	return Range{start, start + count*lcm, lcm}
}
