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

// Package page implements the Page contract: an immutable, append-only
// binary blob holding exactly one array of values of one physical
// dtype, persisted as a single file under a workspace's pages/
// directory. A Page is content-owned by the workspace, never by any
// single Column — see the column package for how multiple columns
// come to share one.
package page

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/omenSi/tablite/errs"
)

// Allocator is the subset of Workspace a Page needs to create or drop
// itself: an id source and the directory new page files live in. This
// indirection keeps this package from importing workspace, which
// itself imports page to load/save pages.
type Allocator interface {
	NewPageID() int64
	PagesDir() string
}

// Page is an immutable reference to one on-disk array. The zero value
// is not usable; construct with New or Open.
type Page struct {
	id   int64
	path string
	len  int
	typ  DType
	// object is true when the stored array is object-encoded (per
	// the archive manifest's types[i] != 0 convention) rather than a
	// native fixed-width array of typ.
	object bool

	mu    sync.Mutex
	saved bool // true while referenced by a currently-open user archive
}

// ID is the page's workspace-unique identifier.
func (p *Page) ID() int64 { return p.id }

// Path is the page's file location.
func (p *Page) Path() string { return p.path }

// Len is the number of elements the page's array holds.
func (p *Page) Len() int { return p.len }

// DType is the array's physical element type.
func (p *Page) DType() DType { return p.typ }

// Object reports whether the stored array is generic/object-encoded
// rather than a native fixed-width array.
func (p *Page) Object() bool { return p.object }

// MarkSaved flags (or unflags) the page as referenced by a
// currently-open user archive. A saved page survives Drop.
func (p *Page) MarkSaved(saved bool) {
	p.mu.Lock()
	p.saved = saved
	p.mu.Unlock()
}

// Saved reports the page's current saved flag.
func (p *Page) Saved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved
}

func pagePath(a Allocator, id int64) string {
	return filepath.Join(a.PagesDir(), FileName(id))
}

// FileName is the page filename convention used both for in-workspace
// storage and for archive entry names, so Workspace can compute a
// page's archive entry name without reaching into this package's
// internals.
func FileName(id int64) string {
	return "page-" + strconv.FormatInt(id, 10) + ".bin"
}

// New writes arr to a freshly allocated page file under a's pages
// directory and returns the Page referencing it.
func New(a Allocator, arr Array) (*Page, error) {
	id := a.NewPageID()
	path := pagePath(a, id)
	if err := writeFile(path, arr); err != nil {
		return nil, errs.IoFailuref(err, "writing page %d", id)
	}
	return &Page{id: id, path: path, len: arr.Len, typ: arr.DType, object: arr.DType == DObject}, nil
}

// Open references an already-materialized page file (e.g. one just
// extracted from an archive, or discovered during workspace load),
// without re-deriving its length/dtype from the file — the caller
// supplies those from the manifest, which is the source of truth.
func Open(path string, id int64, length int, typ DType) *Page {
	return &Page{id: id, path: path, len: length, typ: typ, object: typ == DObject}
}

// Read loads and decodes the page's stored array.
func (p *Page) Read() (Array, error) {
	arr, err := readFile(p.path)
	if err != nil {
		return Array{}, errs.IoFailuref(err, "reading page %d", p.id)
	}
	return arr, nil
}

// Drop deletes the page's file unless it is flagged saved. Deletion
// is best-effort: an error removing the file is swallowed, matching
// spec's "logs but does not propagate" contract (there being no
// logger threaded through here, the failure is simply discarded —
// the file is orphaned on disk, which a future workspace sweep can
// reclaim).
func (p *Page) Drop() {
	if p.Saved() {
		return
	}
	_ = os.Remove(p.path)
}
