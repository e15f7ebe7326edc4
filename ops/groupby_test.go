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
	"reflect"
	"testing"

	"github.com/omenSi/tablite/table"
)

// TestGroupBySumWorkedExample reproduces spec.md §8's worked example:
// Sum(qty) over {date:[1,1,1,2,2,2], sku:[1,2,3,1,2,3], qty:[4,5,4,5,3,7]}
// grouped by sku yields (1,9), (2,8), (3,11).
func TestGroupBySumWorkedExample(t *testing.T) {
	ws := newTestWorkspace(t)
	tbl := table.New(ws)
	mustSet(t, tbl, "date", ints(1, 1, 1, 2, 2, 2))
	mustSet(t, tbl, "sku", ints(1, 2, 3, 1, 2, 3))
	mustSet(t, tbl, "qty", ints(4, 5, 4, 5, 3, 7))

	out, err := GroupBy(tbl, []string{"sku"}, []Aggregator{{Column: "qty", Kind: Sum}})
	if err != nil {
		t.Fatalf("GroupBy: %v", err)
	}
	gotSku := colInts(t, out, "sku")
	gotSum := colInts(t, out, "sum(qty)")
	wantSku := []int64{1, 2, 3}
	wantSum := []int64{9, 8, 11}
	if !reflect.DeepEqual(gotSku, wantSku) {
		t.Fatalf("sku = %v, want %v", gotSku, wantSku)
	}
	if !reflect.DeepEqual(gotSum, wantSum) {
		t.Fatalf("sum(qty) = %v, want %v", gotSum, wantSum)
	}
}

func TestGroupByAllAggregatorKinds(t *testing.T) {
	ws := newTestWorkspace(t)
	tbl := table.New(ws)
	mustSet(t, tbl, "g", ints(1, 1, 1, 1, 2))
	mustSet(t, tbl, "v", ints(1, 2, 2, 3, 10))

	out, err := GroupBy(tbl, []string{"g"}, []Aggregator{
		{Column: "v", Kind: Min},
		{Column: "v", Kind: Max},
		{Column: "v", Kind: Sum},
		{Column: "v", Kind: First},
		{Column: "v", Kind: Last},
		{Column: "v", Kind: Count},
		{Column: "v", Kind: CountUnique},
		{Column: "v", Kind: Avg},
		{Column: "v", Kind: Median},
		{Column: "v", Kind: Mode},
	})
	if err != nil {
		t.Fatalf("GroupBy: %v", err)
	}

	check := func(name string, want []int64) {
		t.Helper()
		got := colInts(t, out, name)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}
	check("min(v)", []int64{1, 10})
	check("max(v)", []int64{3, 10})
	check("sum(v)", []int64{8, 10})
	check("first(v)", []int64{1, 10})
	check("last(v)", []int64{3, 10})
	check("count(v)", []int64{4, 1})
	check("count_unique(v)", []int64{3, 1})
	check("avg(v)", []int64{2, 10})
	check("median(v)", []int64{2, 10})
	check("mode(v)", []int64{2, 10})
}

func TestGroupByStdev(t *testing.T) {
	ws := newTestWorkspace(t)
	tbl := table.New(ws)
	mustSet(t, tbl, "g", ints(1, 1, 1, 1))
	mustSet(t, tbl, "v", ints(2, 4, 4, 4))

	out, err := GroupBy(tbl, []string{"g"}, []Aggregator{{Column: "v", Kind: Stdev}})
	if err != nil {
		t.Fatalf("GroupBy: %v", err)
	}
	col, err := out.Column("stdev(v)")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	next := col.Iter()
	v, ok := next()
	if !ok {
		t.Fatal("expected one row")
	}
	f, _ := v.Numeric()
	// sample variance of [2,4,4,4] (n-1 denominator) = 3/3 = 1,
	// stdev = 1.
	if f < 0.99 || f > 1.01 {
		t.Fatalf("stdev(v) = %v, want ~1", f)
	}
}

func TestGroupByUnknownColumnFails(t *testing.T) {
	ws := newTestWorkspace(t)
	tbl := table.New(ws)
	mustSet(t, tbl, "g", ints(1, 2))

	if _, err := GroupBy(tbl, []string{"missing"}, nil); err == nil {
		t.Fatal("expected error for unknown group key column")
	}
}

func TestPivotColumnNaming(t *testing.T) {
	ws := newTestWorkspace(t)
	tbl := table.New(ws)
	mustSet(t, tbl, "region", strs("east", "east", "west", "west"))
	mustSet(t, tbl, "quarter", strs("q1", "q2", "q1", "q2"))
	mustSet(t, tbl, "sales", ints(10, 20, 30, 40))

	aggs := []Aggregator{{Column: "sales", Kind: Sum}}
	grouped, err := GroupBy(tbl, []string{"region", "quarter"}, aggs)
	if err != nil {
		t.Fatalf("GroupBy: %v", err)
	}
	pivoted, err := Pivot(grouped, []string{"region"}, aggs, []string{"quarter"})
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}

	gotRegion := colStrings(t, pivoted, "region")
	wantRegion := []string{"east", "west"}
	if !reflect.DeepEqual(gotRegion, wantRegion) {
		t.Fatalf("region = %v, want %v", gotRegion, wantRegion)
	}

	q1Col, err := pivoted.Column("sum(sales,quarter=q1)")
	if err != nil {
		t.Fatalf("missing expected pivot column: %v", err)
	}
	if q1Col.Len() != 2 {
		t.Fatalf("sum(sales,quarter=q1) len = %d, want 2", q1Col.Len())
	}
	got := colInts(t, pivoted, "sum(sales,quarter=q1)")
	want := []int64{10, 30}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sum(sales,quarter=q1) = %v, want %v", got, want)
	}
}
