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

package ingest

import "github.com/omenSi/tablite/sysinfo"

// perLineOverhead is the assumed in-memory bytes a single ingested
// cell costs a worker (raw string plus inferred value plus
// bookkeeping), used only to size task windows conservatively.
const perLineOverhead = 256

// task is one (column, window) unit of work: read lines [start,end)
// of column columnIndex (named name) from source, write one page.
// window is this column's sequence number among its own windows, used
// to reattach the resulting page in source order regardless of which
// order tasks complete in.
type task struct {
	columnIndex int
	name        string
	start, end  int
	window      int
}

// linesPerTask implements spec's resource-limit formula:
// max(1, min(PAGE_SIZE, freeMemory / (cpuCount * perLineOverhead))).
func linesPerTask(pageSize, cpuCount int) int {
	if cpuCount < 1 {
		cpuCount = 1
	}
	budget := sysinfo.FreeMemory() / (int64(cpuCount) * perLineOverhead)
	n := pageSize
	if budget < int64(n) {
		n = int(budget)
	}
	if n < 1 {
		n = 1
	}
	return n
}

// plan partitions the row range [start, start+limit) into contiguous
// windows of window lines and emits one task per (column, window)
// pair, in column-major then window order — the order doesn't affect
// correctness (each task is independent) but keeps related tasks for
// the same column adjacent for the worker pool's cache locality.
func plan(names []string, start, limit, window int) []task {
	var tasks []task
	for col, name := range names {
		w := 0
		for s := start; s < start+limit; s += window {
			e := s + window
			if e > start+limit {
				e = start + limit
			}
			tasks = append(tasks, task{columnIndex: col, name: name, start: s, end: e, window: w})
			w++
		}
	}
	return tasks
}

// windowCount returns how many windows plan would emit per column for
// a range of limit lines, so the caller can preallocate per-column
// page slices before dispatching tasks.
func windowCount(limit, window int) int {
	if limit <= 0 {
		return 0
	}
	return (limit + window - 1) / window
}
