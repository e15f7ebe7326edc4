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
	"strconv"

	"golang.org/x/exp/slices"

	"github.com/omenSi/tablite/errs"
	"github.com/omenSi/tablite/table"
	"github.com/omenSi/tablite/value"
)

// JoinKind selects one of the four join skeletons spec.md §4.F
// describes, all built on the same left/right index and (L[], R[])
// row-id gather.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	OuterJoin
	CrossJoin
)

// SingleProcessingLimit is the |L| x (leftCols+rightCols) threshold
// below which a join's gather runs in the current goroutine; at or
// above it, Join partitions the output across a worker pool. Exported
// so callers can tune it per spec.md §5's "configurable" dispatch
// point without needing a second entry point.
var SingleProcessingLimit = 1_000_000

// Join computes one of the four join kinds between left and right on
// the given key-column pairs (leftKeys[i] joins rightKeys[i]).
func Join(left, right *table.Table, leftKeys, rightKeys []string, kind JoinKind) (*table.Table, error) {
	if len(leftKeys) != len(rightKeys) || len(leftKeys) == 0 {
		if kind != CrossJoin {
			return nil, errs.ArgumentInvalidf("join: leftKeys and rightKeys must be equal-length and non-empty")
		}
	}
	if kind != CrossJoin {
		if err := checkKeyTypeCompatibility(left, leftKeys, right, rightKeys); err != nil {
			return nil, err
		}
	}

	var L, R []int
	switch kind {
	case CrossJoin:
		L, R = crossRowIDs(left.Len(), right.Len())
	case InnerJoin:
		leftIdx, err := BuildIndex(left, leftKeys)
		if err != nil {
			return nil, err
		}
		rightIdx, err := BuildIndex(right, rightKeys)
		if err != nil {
			return nil, err
		}
		L, R = innerRowIDs(leftIdx, rightIdx)
	case LeftJoin:
		leftIdx, err := BuildIndex(left, leftKeys)
		if err != nil {
			return nil, err
		}
		rightIdx, err := BuildIndex(right, rightKeys)
		if err != nil {
			return nil, err
		}
		L, R = leftRowIDs(leftIdx, rightIdx)
	case OuterJoin:
		leftIdx, err := BuildIndex(left, leftKeys)
		if err != nil {
			return nil, err
		}
		rightIdx, err := BuildIndex(right, rightKeys)
		if err != nil {
			return nil, err
		}
		L, R = outerRowIDs(leftIdx, rightIdx)
	default:
		return nil, errs.ArgumentInvalidf("join: unknown kind %d", kind)
	}

	leftNames := left.Names()
	rightNames := resolveRightNames(leftNames, right.Names())
	return gatherJoin(left, right, leftNames, rightNames, L, R)
}

// checkKeyTypeCompatibility fails with JoinTypeMismatch unless every
// left/right key pair shares at least one observed value.Type. A pair
// in which either column holds no values is not checked.
func checkKeyTypeCompatibility(left *table.Table, leftKeys []string, right *table.Table, rightKeys []string) error {
	for i := range leftKeys {
		lt, err := observedTypes(left, leftKeys[i])
		if err != nil {
			return err
		}
		rt, err := observedTypes(right, rightKeys[i])
		if err != nil {
			return err
		}
		if len(lt) > 0 && len(rt) > 0 && !typesIntersect(lt, rt) {
			return errs.JoinTypeMismatchf("join: key %q/%q share no observed type", leftKeys[i], rightKeys[i])
		}
	}
	return nil
}

func observedTypes(t *table.Table, name string) (map[value.Type]bool, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := map[value.Type]bool{}
	next := col.Iter()
	for {
		v, ok := next()
		if !ok {
			break
		}
		out[v.Type] = true
	}
	return out, nil
}

func typesIntersect(a, b map[value.Type]bool) bool {
	for t := range a {
		if b[t] {
			return true
		}
	}
	return false
}

// resolveRightNames suffixes any right-side name that collides with a
// left-side name, _1, _2, ..., per spec.md §4.F.
func resolveRightNames(leftNames, rightNames []string) []string {
	used := map[string]bool{}
	for _, n := range leftNames {
		used[n] = true
	}
	out := make([]string, len(rightNames))
	for i, n := range rightNames {
		out[i] = dedupOneName(used, n)
	}
	return out
}

func dedupOneName(used map[string]bool, base string) string {
	name := base
	for n := 1; used[name]; n++ {
		name = base + "_" + strconv.Itoa(n)
	}
	used[name] = true
	return name
}

func crossRowIDs(leftN, rightN int) (L, R []int) {
	L = make([]int, 0, leftN*rightN)
	R = make([]int, 0, leftN*rightN)
	for i := 0; i < leftN; i++ {
		for j := 0; j < rightN; j++ {
			L = append(L, i)
			R = append(R, j)
		}
	}
	return L, R
}

// innerRowIDs gathers matched rows in ascending key order, per spec.md
// §5 ("inner/outer join sort keys ascending").
func innerRowIDs(left, right *Index) (L, R []int) {
	for _, k := range intersectKeysAscending(left, right) {
		for _, li := range left.buckets[k] {
			for _, ri := range right.buckets[k] {
				L = append(L, li)
				R = append(R, ri)
			}
		}
	}
	return L, R
}

// leftRowIDs walks left's rows in their original order (spec.md §5:
// "left join preserves left-table row order"), appending every
// matching right row — or a single null placeholder — per left row.
func leftRowIDs(left, right *Index) (L, R []int) {
	for li, k := range left.rowKeys {
		rightRows, ok := right.buckets[k]
		if !ok || len(rightRows) == 0 {
			L = append(L, li)
			R = append(R, -1)
			continue
		}
		for _, ri := range rightRows {
			L = append(L, li)
			R = append(R, ri)
		}
	}
	return L, R
}

// outerRowIDs gathers matched and unmatched rows from both sides in
// ascending key order, per spec.md §5.
func outerRowIDs(left, right *Index) (L, R []int) {
	for _, k := range unionKeysAscending(left, right) {
		leftRows, leftOK := left.buckets[k]
		rightRows, rightOK := right.buckets[k]
		switch {
		case leftOK && rightOK:
			for _, li := range leftRows {
				for _, ri := range rightRows {
					L = append(L, li)
					R = append(R, ri)
				}
			}
		case leftOK:
			for _, li := range leftRows {
				L = append(L, li)
				R = append(R, -1)
			}
		case rightOK:
			for _, ri := range rightRows {
				L = append(L, -1)
				R = append(R, ri)
			}
		}
	}
	return L, R
}

// intersectKeysAscending returns the keys present in both indexes,
// sorted ascending on the key tuple.
func intersectKeysAscending(left, right *Index) []string {
	var keys []string
	for _, k := range left.order {
		if _, ok := right.buckets[k]; ok {
			keys = append(keys, k)
		}
	}
	sortKeysAscending(keys, left, right)
	return keys
}

// unionKeysAscending returns the keys present in either index, sorted
// ascending on the key tuple.
func unionKeysAscending(left, right *Index) []string {
	seen := make(map[string]bool, len(left.order)+len(right.order))
	keys := make([]string, 0, len(left.order)+len(right.order))
	for _, k := range left.order {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, k := range right.order {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sortKeysAscending(keys, left, right)
	return keys
}

func sortKeysAscending(keys []string, left, right *Index) {
	orders := ascendingKeyOrders(len(left.Keys))
	tupleOf := func(k string) []value.Value {
		if t, ok := left.tuples[k]; ok {
			return t
		}
		return right.tuples[k]
	}
	slices.SortFunc(keys, func(a, b string) bool {
		return compareTuples(tupleOf(a), tupleOf(b), orders) < 0
	})
}

func ascendingKeyOrders(width int) []KeyOrder {
	out := make([]KeyOrder, width)
	for i := range out {
		out[i] = KeyOrder{Direction: Ascending, Nulls: NullsFirst}
	}
	return out
}
