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

// Package table implements Table: an ordered mapping from column name
// to Column, plus save/load through a Workspace's .tpz archive
// format.
package table

import (
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/omenSi/tablite/column"
	"github.com/omenSi/tablite/errs"
	"github.com/omenSi/tablite/page"
	"github.com/omenSi/tablite/ranges"
	"github.com/omenSi/tablite/value"
	"github.com/omenSi/tablite/workspace"
)

// Table is an ordered name -> Column mapping. Iteration, display and
// save all follow insertion order; a name is unique within a Table.
type Table struct {
	ws       *workspace.Workspace
	pageSize int
	names    []string
	columns  map[string]*column.Column
}

// New returns an empty Table backed by ws, using column.DefaultPageSize.
func New(ws *workspace.Workspace) *Table {
	return NewWithPageSize(ws, column.DefaultPageSize)
}

// NewWithPageSize is New with an explicit PAGE_SIZE.
func NewWithPageSize(ws *workspace.Workspace, pageSize int) *Table {
	return &Table{ws: ws, pageSize: pageSize, columns: map[string]*column.Column{}}
}

// Names returns the table's column names in insertion order. The
// caller must not mutate the returned slice.
func (t *Table) Names() []string { return t.names }

// Workspace returns the workspace t allocates its pages through, so
// operators building a derived Table (sort, filter, group-by, join)
// can allocate output columns in the same workspace as their input.
func (t *Table) Workspace() *workspace.Workspace { return t.ws }

// PageSize returns t's configured PAGE_SIZE.
func (t *Table) PageSize() int { return t.pageSize }

// Len is the table's logical length: the max over its columns'
// lengths (shorter columns read as null past their end).
func (t *Table) Len() int {
	n := 0
	for _, name := range t.names {
		if l := t.columns[name].Len(); l > n {
			n = l
		}
	}
	return n
}

// Set materializes values into a new Column under name, replacing any
// prior column of that name (its old position in Names is kept).
func (t *Table) Set(name string, values []value.Value) error {
	return t.setArray(name, page.FromValues(values))
}

func (t *Table) setArray(name string, arr page.Array) error {
	col := column.New(t.ws, t.pageSize)
	if err := col.Append(arr); err != nil {
		return err
	}
	if _, exists := t.columns[name]; !exists {
		t.names = append(t.names, name)
	}
	t.columns[name] = col
	return nil
}

// SetColumn installs col under name as-is, without rechunking it to
// the table's PAGE_SIZE. Ingest uses this to attach pages it already
// built at its own task granularity, since re-chunking through Set
// would defeat the one-task-one-page construction it relies on.
func (t *Table) SetColumn(name string, col *column.Column) {
	if _, exists := t.columns[name]; !exists {
		t.names = append(t.names, name)
	}
	t.columns[name] = col
}

// Column returns the named column, or KeyMissing if it does not exist.
func (t *Table) Column(name string) (*column.Column, error) {
	c, ok := t.columns[name]
	if !ok {
		return nil, errs.KeyMissingf("no such column %q", name)
	}
	return c, nil
}

// Row returns the row at index i as a tuple of scalars, one per
// column in insertion order; a column shorter than i+1 contributes
// null.
func (t *Table) Row(i int) ([]value.Value, error) {
	out := make([]value.Value, len(t.names))
	for idx, name := range t.names {
		c := t.columns[name]
		if i < 0 || i >= c.Len() {
			out[idx] = value.NullValue
			continue
		}
		arr, err := c.Read(ranges.New(i, i+1, 1))
		if err != nil {
			return nil, err
		}
		out[idx] = arr.At(0)
	}
	return out, nil
}

// Slice returns a new Table with every column sliced by r, sharing
// whole pages with the source wherever r aligns to page boundaries.
func (t *Table) Slice(r ranges.Range) (*Table, error) {
	return t.Select(t.names, &r)
}

// Select returns a new Table containing only the named columns, in
// the given order (duplicates allowed — repeats are suffixed _1, _2,
// … to keep column names unique), each sliced by r if r is non-nil.
func (t *Table) Select(names []string, r *ranges.Range) (*Table, error) {
	out := NewWithPageSize(t.ws, t.pageSize)
	used := map[string]bool{}
	for _, name := range names {
		src, ok := t.columns[name]
		if !ok {
			return nil, errs.KeyMissingf("no such column %q", name)
		}
		dst := column.New(t.ws, t.pageSize)
		if r == nil {
			for _, p := range src.Pages() {
				dst.AppendPage(p)
			}
		} else {
			segs, err := src.PagesFor(*r)
			if err != nil {
				return nil, err
			}
			for _, seg := range segs {
				if seg.Whole != nil {
					dst.AppendPage(seg.Whole)
				} else if err := dst.Append(*seg.Partial); err != nil {
					return nil, err
				}
			}
		}
		outName := dedupName(used, name)
		out.names = append(out.names, outName)
		out.columns[outName] = dst
	}
	return out, nil
}

func dedupName(used map[string]bool, base string) string {
	if !used[base] {
		used[base] = true
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

// Equal reports whether t and other have the same set of column names
// (order-insensitive) and, for each, equal columns.
func (t *Table) Equal(other *Table) bool {
	if len(t.names) != len(other.names) {
		return false
	}
	for name, col := range t.columns {
		oc, ok := other.columns[name]
		if !ok || !col.Equal(oc) {
			return false
		}
	}
	return true
}

// Stack row-concatenates t and other: the result's columns are the
// union of both sides' columns, left-then-right-new order; a side
// missing a column is padded with null for its own length.
func (t *Table) Stack(other *Table) (*Table, error) {
	order := append([]string{}, t.names...)
	seen := map[string]bool{}
	for _, n := range order {
		seen[n] = true
	}
	for _, n := range other.names {
		if !seen[n] {
			order = append(order, n)
			seen[n] = true
		}
	}

	out := NewWithPageSize(t.ws, t.pageSize)
	for _, name := range order {
		leftArr, err := readWholeOrNull(t, name)
		if err != nil {
			return nil, err
		}
		rightArr, err := readWholeOrNull(other, name)
		if err != nil {
			return nil, err
		}
		combined := page.Concat([]page.Array{leftArr, rightArr})
		if err := out.setArray(name, combined); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readWholeOrNull(t *Table, name string) (page.Array, error) {
	c, ok := t.columns[name]
	if !ok {
		return page.FromValues(make([]value.Value, t.Len())), nil
	}
	return c.Read(ranges.New(0, c.Len(), 1))
}

// Save writes t as a .tpz archive at path, delegating the container
// format to workspace.SaveArchive.
func (t *Table) Save(path string) error {
	var m manifest
	seenPages := map[int64]bool{}
	var pageFiles []workspace.PageFile
	for _, name := range t.names {
		col := t.columns[name]
		entry := manifestColumn{Name: name}
		for _, p := range col.Pages() {
			entry.Pages = append(entry.Pages, page.FileName(p.ID()))
			entry.Length = append(entry.Length, p.Len())
			if p.Object() {
				entry.Types = append(entry.Types, 1)
			} else {
				entry.Types = append(entry.Types, 0)
			}
			if !seenPages[p.ID()] {
				seenPages[p.ID()] = true
				pageFiles = append(pageFiles, workspace.PageFile{Name: page.FileName(p.ID()), Path: p.Path()})
				p.MarkSaved(true)
			}
		}
		m.Columns = append(m.Columns, entry)
	}

	manifestYAML, err := yaml.Marshal(&m)
	if err != nil {
		return errs.IoFailuref(err, "marshaling manifest for %q", path)
	}
	return workspace.SaveArchive(path, manifestYAML, pageFiles)
}

// Load reads a .tpz archive written by Save, extracting each page
// into ws as a freshly-allocated page and reassembling the Table.
func Load(ws *workspace.Workspace, path string) (*Table, error) {
	manifestYAML, pageBytes, err := workspace.LoadArchive(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(manifestYAML, &m); err != nil {
		return nil, errs.IoFailuref(err, "unmarshaling manifest from %q", path)
	}

	out := New(ws)
	extracted := map[string]*page.Page{}
	for _, entry := range m.Columns {
		col := column.New(ws, column.DefaultPageSize)
		for i, pageName := range entry.Pages {
			p, ok := extracted[pageName]
			if !ok {
				data, ok := pageBytes[pageName]
				if !ok {
					return nil, errs.IoFailuref(nil, "archive %q missing page entry %s", path, pageName)
				}
				p, err = extractPage(ws, pageName, data, entry.Length[i])
				if err != nil {
					return nil, err
				}
				extracted[pageName] = p
			}
			col.AppendPage(p)
		}
		out.names = append(out.names, entry.Name)
		out.columns[entry.Name] = col
	}
	return out, nil
}

func extractPage(ws *workspace.Workspace, name string, data []byte, length int) (*page.Page, error) {
	id := ws.NewPageID()
	dstPath := filepath.Join(ws.PagesDir(), page.FileName(id))
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		return nil, errs.IoFailuref(err, "extracting page %s", name)
	}
	dtype, err := page.ProbeDType(dstPath)
	if err != nil {
		return nil, errs.IoFailuref(err, "probing extracted page %s", name)
	}
	p := page.Open(dstPath, id, length, dtype)
	p.MarkSaved(true)
	return p, nil
}
