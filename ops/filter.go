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

// Predicate is one column's test in an All/Any call: either a literal
// value tested for equality, or a callable tested on every cell.
// Exactly one of Equals/Func should be set; Func takes priority if
// both are (matches spec's "either a literal value ... or a unary
// boolean callable").
type Predicate struct {
	Equals value.Value
	Func   func(value.Value) bool
}

// ValuePredicate builds an equality Predicate.
func ValuePredicate(v value.Value) Predicate { return Predicate{Equals: v} }

// CallablePredicate builds a callable Predicate.
func CallablePredicate(fn func(value.Value) bool) Predicate { return Predicate{Func: fn} }

func (p Predicate) test(v value.Value) bool {
	if p.Func != nil {
		return p.Func(v)
	}
	return value.Equal(v, p.Equals)
}

// All returns the rows of t for which every predicate (by column name)
// holds, as a new Table with t's column order. The empty predicate map
// selects every row.
func All(t *table.Table, predicates map[string]Predicate) (*table.Table, error) {
	return filter(t, predicates, true)
}

// Any returns the rows of t for which at least one predicate holds.
// An empty predicate map selects no rows.
func Any(t *table.Table, predicates map[string]Predicate) (*table.Table, error) {
	return filter(t, predicates, false)
}

func filter(t *table.Table, predicates map[string]Predicate, conjunction bool) (*table.Table, error) {
	names := make([]string, 0, len(predicates))
	for name := range predicates {
		names = append(names, name)
	}
	if err := requireColumns(t, names); err != nil {
		return nil, err
	}

	n := t.Len()
	columnValues := make(map[string][]value.Value, len(names))
	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		arr, err := col.Read(ranges.New(0, n, 1))
		if err != nil {
			return nil, err
		}
		vals := make([]value.Value, n)
		for i := 0; i < n; i++ {
			if i < arr.Len {
				vals[i] = arr.At(i)
			} else {
				vals[i] = value.NullValue
			}
		}
		columnValues[name] = vals
	}

	var rowIDs []int
	for i := 0; i < n; i++ {
		if conjunction {
			if rowMatchesAll(predicates, columnValues, i) {
				rowIDs = append(rowIDs, i)
			}
		} else if rowMatchesAny(predicates, columnValues, i) {
			rowIDs = append(rowIDs, i)
		}
	}
	return Gather(t, rowIDs)
}

func rowMatchesAll(predicates map[string]Predicate, columnValues map[string][]value.Value, row int) bool {
	for name, p := range predicates {
		if !p.test(columnValues[name][row]) {
			return false
		}
	}
	return true
}

func rowMatchesAny(predicates map[string]Predicate, columnValues map[string][]value.Value, row int) bool {
	for name, p := range predicates {
		if p.test(columnValues[name][row]) {
			return true
		}
	}
	return false
}
