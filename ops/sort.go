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
	"sort"

	"github.com/omenSi/tablite/table"
)

// Sort returns a new Table with every row permuted according to
// order: a multi-key stable sort over the named key columns, ties
// broken by original row order. Implementation follows spec.md §4.F:
// project the key columns, then stable-sort row indices by the
// resulting tuples under compareTuples, which folds each key's
// direction and nulls placement into the comparison — the composite
// rank vector the spec describes, computed lazily per comparison
// rather than materialized up front.
func Sort(t *table.Table, order []KeyOrder) (*table.Table, error) {
	names := make([]string, len(order))
	for i, o := range order {
		names[i] = o.Column
	}
	if err := requireColumns(t, names); err != nil {
		return nil, err
	}
	rows, err := projectKeys(t, names)
	if err != nil {
		return nil, err
	}

	perm := make([]int, len(rows))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		return compareTuples(rows[perm[i]], rows[perm[j]], order) < 0
	})

	return Gather(t, perm)
}
