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

// Package workspace implements Workspace: a per-process root directory
// that owns page-id/table-id allocation, the pages/tables/index
// directory layout, and the .tpz archive container format. A Workspace
// is created lazily on first use, registered in a process-wide
// registry, and removed on shutdown by a hook that refuses to touch
// any path not tagged with the current pid (see Shutdown).
package workspace

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/omenSi/tablite/errs"
)

// Workspace is a pid-scoped storage root with subdirectories
// tables/, pages/, index/. It implements page.Allocator.
type Workspace struct {
	root string
	pid  int

	pageCounter  int64
	tableCounter int64
}

// Ensure creates (or reopens) the workspace rooted at
// <workdir>/pid-<pid>, sweeping any dead pid-* siblings first. An
// empty workdir falls back to the OS temp directory, per spec's
// WORKDIR environment convention.
func Ensure(workdir string) (*Workspace, error) {
	if workdir == "" {
		workdir = os.TempDir()
	}
	sweepDeadWorkspaces(workdir)

	pid := os.Getpid()
	root := filepath.Join(workdir, fmt.Sprintf("pid-%d", pid))
	ws := &Workspace{root: root, pid: pid}

	for _, dir := range []string{ws.TablesDir(), ws.PagesDir(), ws.IndexDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.IoFailuref(err, "creating workspace directory %s", dir)
		}
	}

	register(ws)
	return ws, nil
}

// Root is the workspace's pid-scoped root directory.
func (w *Workspace) Root() string { return w.root }

// TablesDir, PagesDir and IndexDir are the workspace's three
// subdirectories: saved table manifests, page files, and index files
// respectively. Ensure creates index/; no package writes to it.
func (w *Workspace) TablesDir() string { return filepath.Join(w.root, "tables") }
func (w *Workspace) PagesDir() string  { return filepath.Join(w.root, "pages") }
func (w *Workspace) IndexDir() string  { return filepath.Join(w.root, "index") }

// NewPageID returns a fresh, workspace-unique page id.
func (w *Workspace) NewPageID() int64 { return atomic.AddInt64(&w.pageCounter, 1) }

// NewTableID returns a fresh, workspace-unique table id.
func (w *Workspace) NewTableID() int64 { return atomic.AddInt64(&w.tableCounter, 1) }

// Shutdown recursively removes the workspace root, refusing to do so
// if the root's path does not contain this workspace's pid tag — a
// guard against a corrupted registry entry deleting an unrelated
// directory.
func (w *Workspace) Shutdown() {
	tag := fmt.Sprintf("pid-%d", w.pid)
	if !strings.Contains(w.root, tag) {
		return
	}
	_ = os.RemoveAll(w.root)
	unregister(w)
}

var (
	registryMu sync.Mutex
	registry   = map[*Workspace]struct{}{}
	hookOnce   sync.Once
)

func register(ws *Workspace) {
	registryMu.Lock()
	registry[ws] = struct{}{}
	registryMu.Unlock()
	installShutdownHook()
}

func unregister(ws *Workspace) {
	registryMu.Lock()
	delete(registry, ws)
	registryMu.Unlock()
}

// installShutdownHook arranges for ShutdownAll to run once if the
// process receives SIGINT/SIGTERM, so a workspace is not orphaned by
// an interrupted run. Normal termination still requires the caller to
// invoke ShutdownAll explicitly (typically via defer in main).
func installShutdownHook() {
	hookOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-ch
			ShutdownAll()
			os.Exit(1)
		}()
	})
}

// ShutdownAll walks the process-wide registry and shuts down every
// live Workspace.
func ShutdownAll() {
	registryMu.Lock()
	all := make([]*Workspace, 0, len(registry))
	for ws := range registry {
		all = append(all, ws)
	}
	registryMu.Unlock()
	for _, ws := range all {
		ws.Shutdown()
	}
}

// sweepDeadWorkspaces removes pid-* directories under workdir whose
// owning process is no longer alive. It is best-effort: errors
// listing or removing are silently skipped, matching Page.Drop's
// "deletion is best-effort" contract.
func sweepDeadWorkspaces(workdir string) {
	entries, err := os.ReadDir(workdir)
	if err != nil {
		return
	}
	self := os.Getpid()
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "pid-") {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimPrefix(e.Name(), "pid-"))
		if err != nil || pid == self || processAlive(pid) {
			continue
		}
		_ = os.RemoveAll(filepath.Join(workdir, e.Name()))
	}
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
