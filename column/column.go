// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Package column implements Column: an ordered list of Pages that
// presents a flat indexed view and produces sub-columns by page
// sharing. A Column never edits a page in place; every mutation is
// either an append (new pages) or the construction of a new Column
// that references a subset of existing pages.
package column

import (
	"github.com/omenSi/tablite/page"
	"github.com/omenSi/tablite/ranges"
	"github.com/omenSi/tablite/value"
)

// DefaultPageSize is PAGE_SIZE's default: the max number of values a
// single Page holds before Column.Append starts a new one.
const DefaultPageSize = 1_000_000

// Column is an ordered list of Pages plus the allocator new pages are
// written through.
type Column struct {
	alloc    page.Allocator
	pageSize int
	pages    []*page.Page
}

// New returns an empty Column. pageSize <= 0 means DefaultPageSize.
func New(alloc page.Allocator, pageSize int) *Column {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Column{alloc: alloc, pageSize: pageSize}
}

// FromPages wraps an existing, ordered page list (used by Workspace
// load and by operators that reuse pages wholesale, e.g. a table
// slice that aligns to page boundaries).
func FromPages(alloc page.Allocator, pageSize int, pages []*page.Page) *Column {
	c := New(alloc, pageSize)
	c.pages = pages
	return c
}

// Len is the sum of the column's page lengths.
func (c *Column) Len() int {
	n := 0
	for _, p := range c.pages {
		n += p.Len()
	}
	return n
}

// Pages returns the column's page list. The caller must not mutate
// the returned slice's contents in place.
func (c *Column) Pages() []*page.Page { return c.pages }

// AppendPage attaches an existing page in O(1), used by slicing and
// join/groupby output that reuse whole pages verbatim.
func (c *Column) AppendPage(p *page.Page) {
	c.pages = append(c.pages, p)
}

// Append splits arr into pageSize-sized chunks and writes one Page
// per chunk, in order. The final chunk may be shorter than pageSize;
// a later Append does not backfill it — a fresh full-sized sequence
// starts after it, per spec.
func (c *Column) Append(arr page.Array) error {
	for start := 0; start < arr.Len; start += c.pageSize {
		end := start + c.pageSize
		if end > arr.Len {
			end = arr.Len
		}
		chunk := page.Slice(arr, start, end)
		p, err := page.New(c.alloc, chunk)
		if err != nil {
			return err
		}
		c.pages = append(c.pages, p)
	}
	return nil
}

// pageBounds returns page i's [start, end) logical offset interval.
func (c *Column) pageBounds(i int) (start, end int) {
	for j := 0; j < i; j++ {
		start += c.pages[j].Len()
	}
	return start, start + c.pages[i].Len()
}

// Read resolves r (a half-open, possibly strided range over the
// column's logical indices) against page boundaries: pages fully
// inside r are read whole, partially overlapped pages are read and
// sub-gathered, pages with no overlap are skipped. Segments are
// concatenated in order; if they end up with mismatched dtypes the
// result is promoted to a generic/object array.
func (c *Column) Read(r ranges.Range) (page.Array, error) {
	if r.Empty() {
		return page.Array{DType: page.DObject}, nil
	}

	var segments []page.Array
	for i := range c.pages {
		start, end := c.pageBounds(i)
		overlap := ranges.Intersect(ranges.New(start, end, 1), r)
		if overlap.Empty() {
			continue
		}
		arr, err := c.pages[i].Read()
		if err != nil {
			return page.Array{}, err
		}
		idxs := make([]int, overlap.Len())
		for j := range idxs {
			idxs[j] = overlap.At(j) - start
		}
		segments = append(segments, page.Take(arr, idxs))
	}
	if r.Step < 0 {
		reverseSegments(segments)
	}
	return page.Concat(segments), nil
}

func reverseSegments(segs []page.Array) {
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	for i := range segs {
		segs[i] = reverseArray(segs[i])
	}
}

func reverseArray(a page.Array) page.Array {
	idxs := make([]int, a.Len)
	for i := range idxs {
		idxs[i] = a.Len - 1 - i
	}
	return page.Take(a, idxs)
}

// PageOrArray is one element of PagesFor's result: either a whole
// Page (Whole != nil, slice request covered it exactly) or a
// materialized sub-array (Partial) for a page only partly covered.
type PageOrArray struct {
	Whole   *page.Page
	Partial *page.Array
}

// PagesFor is the zero-copy accessor behind page-sharing slices: it
// returns whole-page references for pages entirely covered by r and
// materialized sub-arrays otherwise. A non-unit step is served by a
// single array materialized through Column.Read.
func (c *Column) PagesFor(r ranges.Range) ([]PageOrArray, error) {
	if r.Step != 1 {
		// Non-unit/negative strides never align to whole pages; fall
		// back to a single materialized segment via Read.
		arr, err := c.Read(r)
		if err != nil {
			return nil, err
		}
		return []PageOrArray{{Partial: &arr}}, nil
	}
	var out []PageOrArray
	for i := range c.pages {
		start, end := c.pageBounds(i)
		overlap := ranges.Intersect(ranges.New(start, end, 1), r)
		if overlap.Empty() {
			continue
		}
		if overlap.Start == start && overlap.Len() == c.pages[i].Len() {
			out = append(out, PageOrArray{Whole: c.pages[i]})
			continue
		}
		arr, err := c.pages[i].Read()
		if err != nil {
			return nil, err
		}
		sub := page.Slice(arr, overlap.Start-start, overlap.Start-start+overlap.Len())
		out = append(out, PageOrArray{Partial: &sub})
	}
	return out, nil
}

// Iter returns a closure producing the column's values lazily, in
// order; it returns ok=false once exhausted. The returned closure is
// not restartable, but Iter may be called again for a fresh pass.
func (c *Column) Iter() func() (value.Value, bool) {
	pageIdx := 0
	var cur page.Array
	var curErr error
	pos := 0
	loaded := false
	return func() (value.Value, bool) {
		for {
			if !loaded {
				if pageIdx >= len(c.pages) {
					return value.Value{}, false
				}
				cur, curErr = c.pages[pageIdx].Read()
				if curErr != nil {
					return value.Value{}, false
				}
				pos = 0
				loaded = true
			}
			if pos < cur.Len {
				v := cur.At(pos)
				pos++
				return v, true
			}
			pageIdx++
			loaded = false
		}
	}
}

// Equal reports whether c and other have the same length and agree
// elementwise, short-circuiting when they reference the identical
// page list (same *Page pointers in the same order).
func (c *Column) Equal(other *Column) bool {
	if c.Len() != other.Len() {
		return false
	}
	if samePages(c.pages, other.pages) {
		return true
	}
	left, right := c.Iter(), other.Iter()
	for {
		lv, lok := left()
		rv, rok := right()
		if lok != rok {
			return false
		}
		if !lok {
			return true
		}
		if !value.Equal(lv, rv) {
			return false
		}
	}
}

func samePages(a, b []*page.Page) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
