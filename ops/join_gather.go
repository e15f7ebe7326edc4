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
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/omenSi/tablite/column"
	"github.com/omenSi/tablite/errs"
	"github.com/omenSi/tablite/page"
	"github.com/omenSi/tablite/ranges"
	"github.com/omenSi/tablite/table"
	"github.com/omenSi/tablite/value"
	"github.com/omenSi/tablite/workspace"
)

// joinGatherChunk is the lines_per_task equivalent for a join's
// output: how many output rows one worker gathers per page/task.
const joinGatherChunk = 1 << 16

// outputColumn is one column of a join's output: its name after
// collision-suffixing, the table it actually comes from, and its name
// within that source table (identical to name unless a collision with
// the other side forced a suffix).
type outputColumn struct {
	name   string
	src    *table.Table
	srcCol string
	rowIDs []int
}

func joinOutputColumns(left, right *table.Table, leftNames, rightNames []string, L, R []int) []outputColumn {
	srcLeft := left.Names()
	srcRight := right.Names()
	cols := make([]outputColumn, 0, len(leftNames)+len(rightNames))
	for i, name := range leftNames {
		cols = append(cols, outputColumn{name: name, src: left, srcCol: srcLeft[i], rowIDs: L})
	}
	for i, name := range rightNames {
		cols = append(cols, outputColumn{name: name, src: right, srcCol: srcRight[i], rowIDs: R})
	}
	return cols
}

// gatherJoin builds the joined Table from left/right's columns (under
// leftNames/rightNames respectively, already collision-resolved) by
// gathering rows L[i]/R[i] for every output row i. Below
// SingleProcessingLimit it runs in the current goroutine; at or above
// it, it partitions the output row range across a worker pool, one
// task per (column, chunk) pair, mirroring the ingest pipeline's
// page-window fan-out.
func gatherJoin(left, right *table.Table, leftNames, rightNames []string, L, R []int) (*table.Table, error) {
	cols := joinOutputColumns(left, right, leftNames, rightNames, L, R)
	ws := left.Workspace()
	if len(L)*len(cols) < SingleProcessingLimit {
		return gatherJoinSingleProcess(ws, cols)
	}
	return gatherJoinMultiProcess(ws, left.PageSize(), cols)
}

func gatherJoinSingleProcess(ws *workspace.Workspace, cols []outputColumn) (*table.Table, error) {
	out := table.New(ws)
	for _, c := range cols {
		col, err := c.src.Column(c.srcCol)
		if err != nil {
			return nil, err
		}
		vals, err := gatherColumnValues(col, c.rowIDs)
		if err != nil {
			return nil, err
		}
		if err := out.Set(c.name, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func gatherColumnValues(col *column.Column, rowIDs []int) ([]value.Value, error) {
	n := col.Len()
	vals := make([]value.Value, len(rowIDs))
	if n == 0 {
		for i := range vals {
			vals[i] = value.NullValue
		}
		return vals, nil
	}
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
	return vals, nil
}

// gatherJoinMultiProcess partitions the output row range into
// joinGatherChunk-sized windows and gathers each window's page, for
// every output column, on a worker pool — the large-output-join analog
// of ingest's page-window task plan. Each task is tagged with a uuid
// purely for failure attribution (workspace page ids are already
// allocated atomically by Workspace.NewPageID, so there is no actual
// filename race to guard against; the tag just lets a failed chunk be
// pointed to unambiguously in an aggregated error).
func gatherJoinMultiProcess(ws *workspace.Workspace, pageSize int, cols []outputColumn) (*table.Table, error) {
	n := 0
	if len(cols) > 0 {
		n = len(cols[0].rowIDs)
	}
	nChunks := (n + joinGatherChunk - 1) / joinGatherChunk
	if nChunks < 1 {
		nChunks = 1
	}

	pagesByCol := make([][]*page.Page, len(cols))
	for i := range pagesByCol {
		pagesByCol[i] = make([]*page.Page, nChunks)
	}

	type chunkTask struct {
		colIdx int
		chunk  int
		tag    string
	}
	var tasks []chunkTask
	for i := range cols {
		for c := 0; c < nChunks; c++ {
			tasks = append(tasks, chunkTask{colIdx: i, chunk: c, tag: uuid.New().String()})
		}
	}

	workers := runtime.NumCPU() - 1
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers < 1 {
		workers = 1
	}
	pool := newWorkerPool(workers)

	var (
		mu       sync.Mutex
		failures []errs.TaskFailure
		wg       sync.WaitGroup
	)
	for _, t := range tasks {
		t := t
		c := cols[t.colIdx]
		wg.Add(1)
		pool.enqueue(func() {
			defer wg.Done()
			start := t.chunk * joinGatherChunk
			end := start + joinGatherChunk
			if end > len(c.rowIDs) {
				end = len(c.rowIDs)
			}
			srcCol, err := c.src.Column(c.srcCol)
			if err != nil {
				mu.Lock()
				failures = append(failures, errs.TaskFailure{Column: c.name + ":" + t.tag, Start: start, End: end, Err: err})
				mu.Unlock()
				return
			}
			vals, err := gatherColumnValues(srcCol, c.rowIDs[start:end])
			if err != nil {
				mu.Lock()
				failures = append(failures, errs.TaskFailure{Column: c.name + ":" + t.tag, Start: start, End: end, Err: err})
				mu.Unlock()
				return
			}
			p, err := page.New(ws, page.FromValues(vals))
			if err != nil {
				mu.Lock()
				failures = append(failures, errs.TaskFailure{Column: c.name + ":" + t.tag, Start: start, End: end, Err: err})
				mu.Unlock()
				return
			}
			pagesByCol[t.colIdx][t.chunk] = p
		})
	}
	wg.Wait()
	pool.closeAndWait()

	if err := errs.NewIngestTaskFailures(failures); err != nil {
		return nil, err
	}

	out := table.New(ws)
	for i, c := range cols {
		out.SetColumn(c.name, column.FromPages(ws, pageSize, pagesByCol[i]))
	}
	return out, nil
}
