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

// Package ops implements the relational operator kernels that run on
// top of table.Table: index, sort, all/any, group-by (with pivot), and
// the four join kinds.
package ops

import "github.com/omenSi/tablite/value"

// Direction encodes a sort column's direction.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// NullsOrder encodes where nulls fall in a sorted column.
type NullsOrder int

const (
	NullsFirst NullsOrder = iota
	NullsLast
)

// KeyOrder is one (column, direction, nulls placement) entry in a
// sort's order_map, applied in the given sequence with the first
// entry the primary key.
type KeyOrder struct {
	Column    string
	Direction Direction
	Nulls     NullsOrder
}

// compareValues orders a against b the way value.Compare does, then
// applies direction and nulls placement. Total order across types:
// null < bool < int/float < str < date < time < datetime (spec.md
// §9 Open Question (a), resolved by value.Compare's rank table).
func compareValues(a, b value.Value, dir Direction, nulls NullsOrder) int {
	if a.IsNull() || b.IsNull() {
		if a.IsNull() && b.IsNull() {
			return 0
		}
		rel := 1 // non-null sorts after null by default
		if a.IsNull() {
			rel = -1
		}
		if nulls == NullsLast {
			rel = -rel
		}
		return rel
	}
	return int(dir) * value.Compare(a, b)
}

// compareTuples compares two equal-length key tuples field by field
// under orders, short-circuiting at the first unequal field — the
// same shape as the teacher's compareEquallySizedTuplesUnsafe, ported
// from raw ion byte tuples to value.Value tuples.
func compareTuples(a, b []value.Value, orders []KeyOrder) int {
	for i := range orders {
		if rel := compareValues(a[i], b[i], orders[i].Direction, orders[i].Nulls); rel != 0 {
			return rel
		}
	}
	return 0
}
