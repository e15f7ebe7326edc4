// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package ops

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/omenSi/tablite/value"
)

// AggKind names one of the eleven group-by aggregator kinds spec.md
// §4.F defines.
type AggKind int

const (
	Min AggKind = iota
	Max
	Sum
	First
	Last
	Count
	CountUnique
	Avg
	Stdev
	Median
	Mode
)

func (k AggKind) String() string {
	switch k {
	case Min:
		return "min"
	case Max:
		return "max"
	case Sum:
		return "sum"
	case First:
		return "first"
	case Last:
		return "last"
	case Count:
		return "count"
	case CountUnique:
		return "count_unique"
	case Avg:
		return "avg"
	case Stdev:
		return "stdev"
	case Median:
		return "median"
	case Mode:
		return "mode"
	default:
		return "?"
	}
}

// Aggregator is one (source column, kind) pair in a GroupBy call. Name
// is the output column name; it defaults to "<kind>(<column>)" if
// left blank.
type Aggregator struct {
	Column string
	Kind   AggKind
	Name   string
}

func (a Aggregator) outputName() string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("%s(%s)", a.Kind, a.Column)
}

// aggState accumulates one aggregator's running state for one group.
type aggState struct {
	kind AggKind

	count      int64
	sum        float64
	min, max   value.Value
	haveMinMax bool
	first, last value.Value
	haveFirst  bool

	// Welford's online algorithm for stdev.
	mean, m2 float64

	seen     []value.Value // Median: every non-null value, for exact median at finalize.
	uniq     map[string]bool
	freq     map[string]int
	freqVals map[string]value.Value
	freqOrd  []string // first-occurrence order of distinct renderings, for mode's tie-break.
}

func newAggState(kind AggKind) *aggState {
	s := &aggState{kind: kind}
	switch kind {
	case CountUnique:
		s.uniq = map[string]bool{}
	case Mode:
		s.freq = map[string]int{}
		s.freqVals = map[string]value.Value{}
	}
	return s
}

func (s *aggState) update(v value.Value) {
	switch s.kind {
	case Min, Max:
		if v.IsNull() {
			return
		}
		if !s.haveMinMax {
			s.min, s.max = v, v
			s.haveMinMax = true
			return
		}
		if value.Compare(v, s.min) < 0 {
			s.min = v
		}
		if value.Compare(v, s.max) > 0 {
			s.max = v
		}
	case Sum, Avg:
		f, _ := v.Numeric()
		if !v.IsNull() {
			s.sum += f
			s.count++
		}
	case First:
		if !s.haveFirst && !v.IsNull() {
			s.first = v
			s.haveFirst = true
		}
	case Last:
		if !v.IsNull() {
			s.last = v
		}
	case Count:
		if !v.IsNull() {
			s.count++
		}
	case CountUnique:
		if !v.IsNull() {
			s.uniq[keyString([]value.Value{v})] = true
		}
	case Stdev:
		if v.IsNull() {
			return
		}
		f, _ := v.Numeric()
		s.count++
		delta := f - s.mean
		s.mean += delta / float64(s.count)
		delta2 := f - s.mean
		s.m2 += delta * delta2
	case Median:
		if !v.IsNull() {
			s.seen = append(s.seen, v)
		}
	case Mode:
		if v.IsNull() {
			return
		}
		k := keyString([]value.Value{v})
		if _, ok := s.freq[k]; !ok {
			s.freqOrd = append(s.freqOrd, k)
			s.freqVals[k] = v
		}
		s.freq[k]++
	}
}

func (s *aggState) finalize() value.Value {
	switch s.kind {
	case Min:
		if !s.haveMinMax {
			return value.NullValue
		}
		return s.min
	case Max:
		if !s.haveMinMax {
			return value.NullValue
		}
		return s.max
	case Sum:
		return value.OfFloat(s.sum)
	case First:
		if !s.haveFirst {
			return value.NullValue
		}
		return s.first
	case Last:
		if s.last.IsNull() {
			return value.NullValue
		}
		return s.last
	case Count:
		return value.OfInt(s.count)
	case CountUnique:
		return value.OfInt(int64(len(s.uniq)))
	case Avg:
		if s.count == 0 {
			return value.NullValue
		}
		return value.OfFloat(s.sum / float64(s.count))
	case Stdev:
		if s.count < 2 {
			return value.NullValue
		}
		return value.OfFloat(math.Sqrt(s.m2 / float64(s.count-1)))
	case Median:
		if len(s.seen) == 0 {
			return value.NullValue
		}
		sorted := append([]value.Value(nil), s.seen...)
		slices.SortFunc(sorted, func(a, b value.Value) bool { return value.Less(a, b) })
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid]
		}
		lo, hi := sorted[mid-1], sorted[mid]
		lf, lok := lo.Numeric()
		hf, hok := hi.Numeric()
		if lok && hok {
			return value.OfFloat((lf + hf) / 2)
		}
		return lo
	case Mode:
		if len(s.freqOrd) == 0 {
			return value.NullValue
		}
		best := s.freqOrd[0]
		for _, k := range s.freqOrd[1:] {
			if s.freq[k] > s.freq[best] {
				best = k
			}
		}
		return s.freqVals[best]
	default:
		return value.NullValue
	}
}
