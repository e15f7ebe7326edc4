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

func buildJoinTables(t *testing.T) (left, right *table.Table) {
	ws := newTestWorkspace(t)
	left = table.New(ws)
	mustSet(t, left, "id", ints(1, 2, 3))
	mustSet(t, left, "name", strs("a", "b", "c"))

	right = table.New(ws)
	mustSet(t, right, "id", ints(2, 3, 4))
	mustSet(t, right, "score", ints(20, 30, 40))
	return left, right
}

func TestInnerJoin(t *testing.T) {
	left, right := buildJoinTables(t)
	out, err := Join(left, right, []string{"id"}, []string{"id"}, InnerJoin)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", out.Len())
	}
	gotNames := colStrings(t, out, "name")
	wantNames := []string{"b", "c"}
	if !reflect.DeepEqual(gotNames, wantNames) {
		t.Fatalf("name = %v, want %v", gotNames, wantNames)
	}
}

func TestLeftJoinPadsUnmatchedWithNull(t *testing.T) {
	left, right := buildJoinTables(t)
	out, err := Join(left, right, []string{"id"}, []string{"id"}, LeftJoin)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if out.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", out.Len())
	}
	gotScore := colInts(t, out, "score")
	wantScore := []int64{-1, 20, 30} // id=1 has no match -> null (-1 sentinel from colInts)
	if !reflect.DeepEqual(gotScore, wantScore) {
		t.Fatalf("score = %v, want %v", gotScore, wantScore)
	}
}

// TestLeftJoinIdentity verifies spec.md §8's Testable Property: a left
// join of t against an empty table on any key equals t padded with
// null on every right-side column.
func TestLeftJoinIdentity(t *testing.T) {
	ws := newTestWorkspace(t)
	left := table.New(ws)
	mustSet(t, left, "id", ints(1, 2, 3))
	mustSet(t, left, "name", strs("a", "b", "c"))

	right := table.New(ws)
	mustSet(t, right, "id", nil)
	mustSet(t, right, "other", nil)

	out, err := Join(left, right, []string{"id"}, []string{"id"}, LeftJoin)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if out.Len() != left.Len() {
		t.Fatalf("Len() = %d, want %d", out.Len(), left.Len())
	}
	gotIDs := colInts(t, out, "id")
	wantIDs := colInts(t, left, "id")
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Fatalf("id = %v, want %v", gotIDs, wantIDs)
	}
	otherCol, err := out.Column("other")
	if err != nil {
		t.Fatalf("missing right-side column: %v", err)
	}
	next := otherCol.Iter()
	for {
		v, ok := next()
		if !ok {
			break
		}
		if !v.IsNull() {
			t.Fatalf("expected null, got %v", v)
		}
	}
}

// TestLeftJoinPreservesRowOrderWithRepeatedKey guards against grouping
// a left join's output by key (bucket order) instead of walking the
// left table's original row order when a key repeats non-contiguously.
func TestLeftJoinPreservesRowOrderWithRepeatedKey(t *testing.T) {
	ws := newTestWorkspace(t)
	left := table.New(ws)
	mustSet(t, left, "k", ints(1, 2, 1))
	mustSet(t, left, "seq", ints(0, 1, 2))

	right := table.New(ws)
	mustSet(t, right, "k", ints(1, 2))
	mustSet(t, right, "tag", strs("r1", "r2"))

	out, err := Join(left, right, []string{"k"}, []string{"k"}, LeftJoin)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	gotSeq := colInts(t, out, "seq")
	wantSeq := []int64{0, 1, 2}
	if !reflect.DeepEqual(gotSeq, wantSeq) {
		t.Fatalf("seq = %v, want %v (left join must preserve left row order)", gotSeq, wantSeq)
	}
}

// TestLeftJoinIdentityWithRepeatedKey is TestLeftJoinIdentity's
// repeated-key variant: a left join against an empty right table must
// equal the left table exactly, row for row, even when a key repeats
// out of bucket order.
func TestLeftJoinIdentityWithRepeatedKey(t *testing.T) {
	ws := newTestWorkspace(t)
	left := table.New(ws)
	mustSet(t, left, "k", ints(1, 2, 1))
	mustSet(t, left, "seq", ints(0, 1, 2))

	right := table.New(ws)
	mustSet(t, right, "k", nil)
	mustSet(t, right, "other", nil)

	out, err := Join(left, right, []string{"k"}, []string{"k"}, LeftJoin)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	gotSeq := colInts(t, out, "seq")
	wantSeq := colInts(t, left, "seq")
	if !reflect.DeepEqual(gotSeq, wantSeq) {
		t.Fatalf("seq = %v, want %v", gotSeq, wantSeq)
	}
}

// TestInnerJoinSortsKeysAscending verifies spec.md §5: inner join
// output is ordered by ascending key, independent of either side's row
// insertion order.
func TestInnerJoinSortsKeysAscending(t *testing.T) {
	ws := newTestWorkspace(t)
	left := table.New(ws)
	mustSet(t, left, "k", ints(2, 1))
	mustSet(t, left, "tag", strs("two", "one"))

	right := table.New(ws)
	mustSet(t, right, "k", ints(1, 2))
	mustSet(t, right, "tag2", strs("one", "two"))

	out, err := Join(left, right, []string{"k"}, []string{"k"}, InnerJoin)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	got := colInts(t, out, "k")
	want := []int64{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("k = %v, want %v (inner join must sort ascending by key)", got, want)
	}
}

// TestOuterJoinSortsKeysAscending is TestInnerJoinSortsKeysAscending's
// outer-join analog, also covering each side's unmatched rows. Left
// and right use distinct key column names so an unmatched side's null
// key cell can't be confused with the other side's real key value.
func TestOuterJoinSortsKeysAscending(t *testing.T) {
	ws := newTestWorkspace(t)
	left := table.New(ws)
	mustSet(t, left, "k", ints(3, 1))
	mustSet(t, left, "tagL", strs("L3", "L1"))

	right := table.New(ws)
	mustSet(t, right, "k2", ints(1, 2))
	mustSet(t, right, "tagR", strs("R1", "R2"))

	out, err := Join(left, right, []string{"k"}, []string{"k2"}, OuterJoin)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	gotL := colStrings(t, out, "tagL")
	gotR := colStrings(t, out, "tagR")
	wantL := []string{"L1", "<null>", "L3"}
	wantR := []string{"R1", "R2", "<null>"}
	if !reflect.DeepEqual(gotL, wantL) || !reflect.DeepEqual(gotR, wantR) {
		t.Fatalf("tagL=%v tagR=%v, want tagL=%v tagR=%v (outer join must sort ascending by key)", gotL, gotR, wantL, wantR)
	}
}

func TestOuterJoinIncludesBothUnmatchedSides(t *testing.T) {
	left, right := buildJoinTables(t)
	out, err := Join(left, right, []string{"id"}, []string{"id"}, OuterJoin)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if out.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", out.Len())
	}
}

func TestCrossJoinIsCartesianProduct(t *testing.T) {
	left, right := buildJoinTables(t)
	out, err := Join(left, right, nil, nil, CrossJoin)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if out.Len() != left.Len()*right.Len() {
		t.Fatalf("Len() = %d, want %d", out.Len(), left.Len()*right.Len())
	}
}

func TestJoinCollidingColumnNamesAreSuffixed(t *testing.T) {
	ws := newTestWorkspace(t)
	left := table.New(ws)
	mustSet(t, left, "id", ints(1, 2))
	mustSet(t, left, "name", strs("a", "b"))

	right := table.New(ws)
	mustSet(t, right, "id", ints(1, 2))
	mustSet(t, right, "name", strs("x", "y"))

	out, err := Join(left, right, []string{"id"}, []string{"id"}, InnerJoin)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := out.Column("name"); err != nil {
		t.Fatalf("expected left name column to keep its name: %v", err)
	}
	if _, err := out.Column("name_1"); err != nil {
		t.Fatalf("expected right name column suffixed to name_1: %v", err)
	}
}

func TestJoinTypeMismatchFails(t *testing.T) {
	ws := newTestWorkspace(t)
	left := table.New(ws)
	mustSet(t, left, "id", ints(1, 2))

	right := table.New(ws)
	mustSet(t, right, "id", strs("a", "b"))

	if _, err := Join(left, right, []string{"id"}, []string{"id"}, InnerJoin); err == nil {
		t.Fatal("expected JoinTypeMismatch error for incompatible key types")
	}
}

func TestJoinSingleVsMultiProcessAgree(t *testing.T) {
	ws := newTestWorkspace(t)
	left := table.New(ws)
	right := table.New(ws)

	const n = 64
	leftIDs := make([]int64, n)
	rightIDs := make([]int64, n)
	for i := 0; i < n; i++ {
		leftIDs[i] = int64(i)
		rightIDs[i] = int64(i)
	}
	mustSet(t, left, "id", intSlice(leftIDs))
	mustSet(t, left, "v", intSlice(leftIDs))
	mustSet(t, right, "id", intSlice(rightIDs))
	mustSet(t, right, "w", intSlice(rightIDs))

	saved := SingleProcessingLimit
	defer func() { SingleProcessingLimit = saved }()

	SingleProcessingLimit = 1 << 30
	single, err := Join(left, right, []string{"id"}, []string{"id"}, InnerJoin)
	if err != nil {
		t.Fatalf("single-process Join: %v", err)
	}

	SingleProcessingLimit = 0
	multi, err := Join(left, right, []string{"id"}, []string{"id"}, InnerJoin)
	if err != nil {
		t.Fatalf("multi-process Join: %v", err)
	}

	if single.Len() != multi.Len() {
		t.Fatalf("Len() single=%d multi=%d", single.Len(), multi.Len())
	}
	gotSingle := colInts(t, single, "w")
	gotMulti := colInts(t, multi, "w")
	if !reflect.DeepEqual(gotSingle, gotMulti) {
		t.Fatalf("w single=%v multi=%v", gotSingle, gotMulti)
	}
}
