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
	"github.com/omenSi/tablite/value"
)

func TestBuildIndexBucketsByKeyTuple(t *testing.T) {
	ws := newTestWorkspace(t)
	tbl := table.New(ws)
	mustSet(t, tbl, "k", ints(1, 2, 1, 2, 1))

	idx, err := BuildIndex(tbl, []string{"k"})
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	got := idx.Rows([]value.Value{value.OfInt(1)})
	want := []int{0, 2, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rows(1) = %v, want %v", got, want)
	}
	got2 := idx.Rows([]value.Value{value.OfInt(2)})
	want2 := []int{1, 3}
	if !reflect.DeepEqual(got2, want2) {
		t.Fatalf("Rows(2) = %v, want %v", got2, want2)
	}
	if missing := idx.Rows([]value.Value{value.OfInt(99)}); missing != nil {
		t.Fatalf("Rows(99) = %v, want nil", missing)
	}
}

func TestBuildIndexNullIsLegalKey(t *testing.T) {
	ws := newTestWorkspace(t)
	tbl := table.New(ws)
	mustSet(t, tbl, "k", []value.Value{value.OfInt(1), value.NullValue, value.NullValue})

	idx, err := BuildIndex(tbl, []string{"k"})
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	got := idx.Rows([]value.Value{value.NullValue})
	want := []int{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rows(null) = %v, want %v", got, want)
	}
}
