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

package infer

import (
	"fmt"
	"math"
	"sort"

	"github.com/omenSi/tablite/value"
)

// Summary is the dict summary() returns in spec: min/max/mean/median/
// stdev/mode/distinct/iqr_low/iqr_high/iqr/sum, plus the summary type
// used to compute them and a value frequency histogram. NA is true
// for a null-only column, in which case every other field is zero and
// should be rendered as "n/a" by a caller.
type Summary struct {
	NA         bool
	Type       value.Type
	Min, Max   value.Value
	Mean       float64
	Median     float64
	Stdev      float64
	Mode       value.Value
	Distinct   int
	IQRLow     float64
	IQRHigh    float64
	IQR        float64
	Sum        float64
	Histogram  map[string]int
}

// Summarize computes Summary over vals, which must already be typed
// (the output of InferColumn/InferColumnPinned). Bool is summarized
// numerically on 0/1 and the min/max/mode are cast back to bool, per
// spec's "for bool compute via numeric on 0/1 and cast back".
func Summarize(vals []value.Value) Summary {
	nonNull := make([]value.Value, 0, len(vals))
	for _, v := range vals {
		if !v.IsNull() {
			nonNull = append(nonNull, v)
		}
	}
	if len(nonNull) == 0 {
		return Summary{NA: true}
	}

	typ := nonNull[0].Type
	hist, mode := frequency(nonNull)
	distinct := len(hist)

	switch typ {
	case value.String:
		return summarizeByLength(nonNull, hist, mode, distinct)
	case value.Date, value.Time, value.DateTime:
		return summarizeTime(typ, nonNull, hist, mode, distinct)
	default:
		return summarizeNumeric(typ, nonNull, hist, mode, distinct)
	}
}

// frequency returns a histogram keyed by each value's display string,
// plus the mode: the most frequent value, ties broken by first
// occurrence in vals.
func frequency(vals []value.Value) (map[string]int, value.Value) {
	hist := make(map[string]int, len(vals))
	order := make([]string, 0, len(vals))
	first := make(map[string]value.Value, len(vals))
	for _, v := range vals {
		key := v.String()
		if _, seen := first[key]; !seen {
			first[key] = v
			order = append(order, key)
		}
		hist[key]++
	}
	best := order[0]
	for _, key := range order[1:] {
		if hist[key] > hist[best] {
			best = key
		}
	}
	return hist, first[best]
}

func sortedFloats(vals []value.Value, extract func(value.Value) float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = extract(v)
	}
	sort.Float64s(out)
	return out
}

// numericStats computes sum/mean/median/sample-stdev/iqr over a
// sorted slice: one pass for the sum, one for the squared deviations,
// plus a couple of percentile lookups,
// matching spec's "compute in a single sorted pass" numeric summary.
func numericStats(sorted []float64) (sum, mean, median, stdev, iqrLow, iqrHigh, iqr float64) {
	n := len(sorted)
	for _, f := range sorted {
		sum += f
	}
	mean = sum / float64(n)
	median = percentile(sorted, 0.5)
	iqrLow = percentile(sorted, 0.25)
	iqrHigh = percentile(sorted, 0.75)
	iqr = iqrHigh - iqrLow
	if n < 2 {
		return sum, mean, median, 0, iqrLow, iqrHigh, iqr
	}
	var sq float64
	for _, f := range sorted {
		d := f - mean
		sq += d * d
	}
	stdev = math.Sqrt(sq / float64(n-1))
	return sum, mean, median, stdev, iqrLow, iqrHigh, iqr
}

// percentile linearly interpolates the q'th percentile (0<=q<=1) of
// an already-sorted slice.
func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func summarizeNumeric(typ value.Type, vals []value.Value, hist map[string]int, mode value.Value, distinct int) Summary {
	sorted := sortedFloats(vals, func(v value.Value) float64 {
		f, _ := v.Numeric()
		return f
	})
	sum, mean, median, stdev, iqrLow, iqrHigh, iqr := numericStats(sorted)

	minV, maxV := vals[0], vals[0]
	for _, v := range vals {
		if value.Less(v, minV) {
			minV = v
		}
		if value.Less(maxV, v) {
			maxV = v
		}
	}
	if typ == value.Bool {
		minV = value.OfBool(sorted[0] != 0)
		maxV = value.OfBool(sorted[len(sorted)-1] != 0)
	}

	return Summary{
		Type: typ, Min: minV, Max: maxV, Mean: mean, Median: median, Stdev: stdev,
		Mode: mode, Distinct: distinct, IQRLow: iqrLow, IQRHigh: iqrHigh, IQR: iqr,
		Sum: sum, Histogram: hist,
	}
}

func summarizeByLength(vals []value.Value, hist map[string]int, mode value.Value, distinct int) Summary {
	sorted := sortedFloats(vals, func(v value.Value) float64 {
		return float64(len(v.String_()))
	})
	sum, mean, median, stdev, iqrLow, iqrHigh, iqr := numericStats(sorted)

	minV, maxV := vals[0], vals[0]
	for _, v := range vals {
		if value.Less(v, minV) {
			minV = v
		}
		if value.Less(maxV, v) {
			maxV = v
		}
	}
	return Summary{
		Type: value.String, Min: minV, Max: maxV, Mean: mean, Median: median, Stdev: stdev,
		Mode: mode, Distinct: distinct, IQRLow: iqrLow, IQRHigh: iqrHigh, IQR: iqr,
		Sum: sum, Histogram: hist,
	}
}

func summarizeTime(typ value.Type, vals []value.Value, hist map[string]int, mode value.Value, distinct int) Summary {
	sorted := sortedFloats(vals, func(v value.Value) float64 {
		return float64(v.AsTime().Unix())
	})
	sum, mean, median, stdev, iqrLow, iqrHigh, iqr := numericStats(sorted)

	minV, maxV := vals[0], vals[0]
	for _, v := range vals {
		if value.Less(v, minV) {
			minV = v
		}
		if value.Less(maxV, v) {
			maxV = v
		}
	}
	return Summary{
		Type: typ, Min: minV, Max: maxV, Mean: mean, Median: median, Stdev: stdev,
		Mode: mode, Distinct: distinct, IQRLow: iqrLow, IQRHigh: iqrHigh, IQR: iqr,
		Sum: sum, Histogram: hist,
	}
}

// String renders s the way a CLI summary table would, with "n/a" for
// an empty/null-only column.
func (s Summary) String() string {
	if s.NA {
		return "n/a"
	}
	return fmt.Sprintf("type=%s min=%v max=%v mean=%g median=%g stdev=%g mode=%v distinct=%d iqr=[%g,%g] (%g) sum=%g",
		s.Type, s.Min, s.Max, s.Mean, s.Median, s.Stdev, s.Mode, s.Distinct, s.IQRLow, s.IQRHigh, s.IQR, s.Sum)
}
