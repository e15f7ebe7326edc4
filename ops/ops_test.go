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
	"testing"

	"github.com/omenSi/tablite/table"
	"github.com/omenSi/tablite/value"
	"github.com/omenSi/tablite/workspace"
)

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Ensure(t.TempDir())
	if err != nil {
		t.Fatalf("workspace.Ensure: %v", err)
	}
	t.Cleanup(ws.Shutdown)
	return ws
}

func mustSet(t *testing.T, tbl *table.Table, name string, vals []value.Value) {
	t.Helper()
	if err := tbl.Set(name, vals); err != nil {
		t.Fatalf("Set(%q): %v", name, err)
	}
}

func intSlice(xs []int64) []value.Value {
	out := make([]value.Value, len(xs))
	for i, x := range xs {
		out[i] = value.OfInt(x)
	}
	return out
}

func ints(xs ...int64) []value.Value {
	out := make([]value.Value, len(xs))
	for i, x := range xs {
		out[i] = value.OfInt(x)
	}
	return out
}

func strs(xs ...string) []value.Value {
	out := make([]value.Value, len(xs))
	for i, x := range xs {
		out[i] = value.OfString(x)
	}
	return out
}

func colInts(t *testing.T, tbl *table.Table, name string) []int64 {
	t.Helper()
	col, err := tbl.Column(name)
	if err != nil {
		t.Fatalf("Column(%q): %v", name, err)
	}
	out := make([]int64, 0, col.Len())
	next := col.Iter()
	for {
		v, ok := next()
		if !ok {
			break
		}
		if v.IsNull() {
			out = append(out, -1)
		} else {
			f, _ := v.Numeric()
			out = append(out, int64(f))
		}
	}
	return out
}

func colStrings(t *testing.T, tbl *table.Table, name string) []string {
	t.Helper()
	col, err := tbl.Column(name)
	if err != nil {
		t.Fatalf("Column(%q): %v", name, err)
	}
	out := make([]string, 0, col.Len())
	next := col.Iter()
	for {
		v, ok := next()
		if !ok {
			break
		}
		if v.IsNull() {
			out = append(out, "<null>")
		} else {
			out = append(out, v.String())
		}
	}
	return out
}
