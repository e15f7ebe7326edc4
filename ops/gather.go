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
	"github.com/omenSi/tablite/ranges"
	"github.com/omenSi/tablite/table"
	"github.com/omenSi/tablite/value"
)

// Gather builds a new Table with t's columns (same names, same order)
// but only the rows at rowIDs, in that order; a negative rowID (or one
// past the column's length) produces a null cell for every column at
// that output position — the representation every/join/filter/sort
// output uses for an unmatched side.
func Gather(t *table.Table, rowIDs []int) (*table.Table, error) {
	out := table.New(t.Workspace())
	for _, name := range t.Names() {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		n := col.Len()
		vals := make([]value.Value, len(rowIDs))
		if n > 0 {
			full, err := col.Read(ranges.New(0, n, 1))
			if err != nil {
				return nil, err
			}
			for i, id := range rowIDs {
				if id >= 0 && id < n {
					vals[i] = full.At(id)
				} else {
					vals[i] = value.NullValue
				}
			}
		} else {
			for i := range vals {
				vals[i] = value.NullValue
			}
		}
		if err := out.Set(name, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}
