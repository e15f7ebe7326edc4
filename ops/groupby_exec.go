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

	"golang.org/x/exp/slices"

	"github.com/omenSi/tablite/ranges"
	"github.com/omenSi/tablite/table"
	"github.com/omenSi/tablite/value"
)

// GroupBy implements groupby(keys, aggregators): one pass assigning
// every row to its key tuple's aggregator bundle, then one output row
// per distinct key (sorted ascending on keys, per spec.md §4.F).
func GroupBy(t *table.Table, keys []string, aggregators []Aggregator) (*table.Table, error) {
	aggCols := make([]string, len(aggregators))
	for i, a := range aggregators {
		aggCols[i] = a.Column
	}
	if err := requireColumns(t, keys); err != nil {
		return nil, err
	}
	if err := requireColumns(t, aggCols); err != nil {
		return nil, err
	}

	n := t.Len()
	keyRows, err := projectKeys(t, keys)
	if err != nil {
		return nil, err
	}
	aggValues := make([][]value.Value, len(aggregators))
	for i, col := range aggCols {
		c, _ := t.Column(col)
		arr, err := c.Read(ranges.New(0, n, 1))
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
		aggValues[i] = vals
	}

	type group struct {
		tuple []value.Value
		states []*aggState
	}
	groups := map[string]*group{}
	var order []string
	for row := 0; row < n; row++ {
		k := keyString(keyRows[row])
		g, ok := groups[k]
		if !ok {
			states := make([]*aggState, len(aggregators))
			for i, a := range aggregators {
				states[i] = newAggState(a.Kind)
			}
			g = &group{tuple: keyRows[row], states: states}
			groups[k] = g
			order = append(order, k)
		}
		for i := range aggregators {
			g.states[i].update(aggValues[i][row])
		}
	}

	slices.SortFunc(order, func(a, b string) bool {
		return compareTuples(groups[a].tuple, groups[b].tuple, ascendingOrders(keys)) < 0
	})

	out := table.New(t.Workspace())
	for i, name := range keys {
		vals := make([]value.Value, len(order))
		for r, k := range order {
			vals[r] = groups[k].tuple[i]
		}
		if err := out.Set(name, vals); err != nil {
			return nil, err
		}
	}
	for i, a := range aggregators {
		vals := make([]value.Value, len(order))
		for r, k := range order {
			vals[r] = groups[k].states[i].finalize()
		}
		if err := out.Set(a.outputName(), vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func ascendingOrders(names []string) []KeyOrder {
	out := make([]KeyOrder, len(names))
	for i, n := range names {
		out[i] = KeyOrder{Column: n, Direction: Ascending, Nulls: NullsFirst}
	}
	return out
}

// Pivot re-projects a completed GroupBy's result so that distinct
// value-tuples of pivotCols become additional output columns: each
// aggregator column is expanded to one column per distinct pivot
// tuple, named "<aggName>(<sourceCol>,<pivotKey>=<val>,...)".
//
// grouped must be the Table GroupBy returned, aggregators the same
// list passed to it (Pivot needs their source column/kind to name the
// expanded columns, which the flat Table alone no longer carries).
func Pivot(grouped *table.Table, keys []string, aggregators []Aggregator, pivotCols []string) (*table.Table, error) {
	if err := requireColumns(grouped, pivotCols); err != nil {
		return nil, err
	}
	n := grouped.Len()
	pivotRows, err := projectKeys(grouped, pivotCols)
	if err != nil {
		return nil, err
	}
	keyRows, err := projectKeys(grouped, keys)
	if err != nil {
		return nil, err
	}

	type pivotGroup struct {
		key    []value.Value
		rowsBy map[string]int // pivot-tuple key -> row index in grouped
	}
	byKey := map[string]*pivotGroup{}
	var keyOrder []string
	var pivotOrder []string
	pivotTuples := map[string][]value.Value{}
	for row := 0; row < n; row++ {
		kk := keyString(keyRows[row])
		pg, ok := byKey[kk]
		if !ok {
			pg = &pivotGroup{key: keyRows[row], rowsBy: map[string]int{}}
			byKey[kk] = pg
			keyOrder = append(keyOrder, kk)
		}
		pk := keyString(pivotRows[row])
		if _, ok := pivotTuples[pk]; !ok {
			pivotTuples[pk] = pivotRows[row]
			pivotOrder = append(pivotOrder, pk)
		}
		pg.rowsBy[pk] = row
	}
	slices.SortFunc(keyOrder, func(a, b string) bool {
		return compareTuples(byKey[a].key, byKey[b].key, ascendingOrders(keys)) < 0
	})
	slices.SortFunc(pivotOrder, func(a, b string) bool {
		return compareTuples(pivotTuples[a], pivotTuples[b], ascendingOrders(pivotCols)) < 0
	})

	out := table.New(grouped.Workspace())
	for i, name := range keys {
		vals := make([]value.Value, len(keyOrder))
		for r, kk := range keyOrder {
			vals[r] = byKey[kk].key[i]
		}
		if err := out.Set(name, vals); err != nil {
			return nil, err
		}
	}
	for _, a := range aggregators {
		srcCol, err := grouped.Column(a.outputName())
		if err != nil {
			return nil, err
		}
		srcArr, err := srcCol.Read(ranges.New(0, n, 1))
		if err != nil {
			return nil, err
		}
		for _, pk := range pivotOrder {
			colName := pivotColumnName(a, pivotCols, pivotTuples[pk])
			vals := make([]value.Value, len(keyOrder))
			for r, kk := range keyOrder {
				row, ok := byKey[kk].rowsBy[pk]
				if !ok || row >= srcArr.Len {
					vals[r] = value.NullValue
					continue
				}
				vals[r] = srcArr.At(row)
			}
			if err := out.Set(colName, vals); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func pivotColumnName(a Aggregator, pivotCols []string, tuple []value.Value) string {
	name := fmt.Sprintf("%s(%s", a.Kind, a.Column)
	for i, col := range pivotCols {
		name += fmt.Sprintf(",%s=%s", col, tuple[i].String())
	}
	return name + ")"
}
