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
	"strings"

	"github.com/omenSi/tablite/errs"
	"github.com/omenSi/tablite/ranges"
	"github.com/omenSi/tablite/table"
	"github.com/omenSi/tablite/value"
)

// projectKeys reads names' columns in full and returns, for each row
// i in [0, n), the tuple of its values across those columns.
func projectKeys(t *table.Table, names []string) ([][]value.Value, error) {
	n := t.Len()
	arrays := make([][]value.Value, len(names))
	for i, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		arr, err := col.Read(ranges.New(0, n, 1))
		if err != nil {
			return nil, err
		}
		vals := make([]value.Value, n)
		for j := 0; j < n; j++ {
			if j < arr.Len {
				vals[j] = arr.At(j)
			} else {
				vals[j] = value.NullValue
			}
		}
		arrays[i] = vals
	}

	rows := make([][]value.Value, n)
	for i := range rows {
		row := make([]value.Value, len(names))
		for c := range names {
			row[c] = arrays[c][i]
		}
		rows[i] = row
	}
	return rows, nil
}

// keyString renders a value tuple into a string usable as a Go map
// key: tuples compare equal (per value.Equal's dtype-and-contents
// rule) iff their rendering is identical, since each value is tagged
// with its Type before its contents.
func keyString(tuple []value.Value) string {
	var sb strings.Builder
	for _, v := range tuple {
		fmt.Fprintf(&sb, "%d:%s|", v.Type, v.String())
	}
	return sb.String()
}

// Index maps a key-tuple (in key-column order) to the set of row
// indices that produced it, insertion order preserved within each
// bucket.
type Index struct {
	Keys    []string
	order   []string
	buckets map[string][]int
	tuples  map[string][]value.Value
	// rowKeys[i] is row i's key-tuple rendering, in original row order
	// — lets a join walk rows in source order instead of bucket order.
	rowKeys []string
}

// BuildIndex computes index(*keys): a single pass over t projected to
// keys, bucketing row indices by key-tuple value equality. Null is a
// legal key component.
func BuildIndex(t *table.Table, keys []string) (*Index, error) {
	rows, err := projectKeys(t, keys)
	if err != nil {
		return nil, err
	}
	idx := &Index{
		Keys:    keys,
		buckets: make(map[string][]int),
		tuples:  make(map[string][]value.Value),
		rowKeys: make([]string, len(rows)),
	}
	for i, row := range rows {
		k := keyString(row)
		if _, ok := idx.tuples[k]; !ok {
			idx.order = append(idx.order, k)
			idx.tuples[k] = row
		}
		idx.buckets[k] = append(idx.buckets[k], i)
		idx.rowKeys[i] = k
	}
	return idx, nil
}

// Rows returns the row indices sharing tuple's key, or nil if tuple
// was never observed.
func (idx *Index) Rows(tuple []value.Value) []int {
	return idx.buckets[keyString(tuple)]
}

// Tuples returns the distinct key tuples in first-occurrence order.
func (idx *Index) Tuples() [][]value.Value {
	out := make([][]value.Value, len(idx.order))
	for i, k := range idx.order {
		out[i] = idx.tuples[k]
	}
	return out
}

func requireColumns(t *table.Table, names []string) error {
	for _, name := range names {
		if _, err := t.Column(name); err != nil {
			return errs.KeyMissingf("ops: %v", err)
		}
	}
	return nil
}
