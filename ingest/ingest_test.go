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

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/omenSi/tablite/value"
	"github.com/omenSi/tablite/workspace"
)

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Ensure(t.TempDir())
	if err != nil {
		t.Fatalf("workspace.Ensure: %v", err)
	}
	t.Cleanup(ws.Shutdown)
	return ws
}

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestImportBasicCSV(t *testing.T) {
	ws := newTestWorkspace(t)
	path := writeFile(t, "a,b\n1,x\n2,y\n3,z\n")

	tbl, err := Import(ws, path, Options{GuessDatatypes: true})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := tbl.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Names() = %v, want [a b]", got)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}
	row, err := tbl.Row(0)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if !value.Equal(row[0], value.OfInt(1)) {
		t.Fatalf("row[0][0] = %v, want 1 (guessed int)", row[0])
	}
	if !value.Equal(row[1], value.OfString("x")) {
		t.Fatalf("row[0][1] = %v, want \"x\"", row[1])
	}
}

func TestImportEmptyFileReturnsEmptyTable(t *testing.T) {
	ws := newTestWorkspace(t)
	path := writeFile(t, "")

	tbl, err := Import(ws, path, Options{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tbl.Len())
	}
	if len(tbl.Names()) != 0 {
		t.Fatalf("Names() = %v, want none", tbl.Names())
	}
}

func TestImportHeaderOnlyNoDataReturnsEmptyTableWithColumns(t *testing.T) {
	ws := newTestWorkspace(t)
	path := writeFile(t, "a,b,c\n")

	tbl, err := Import(ws, path, Options{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tbl.Len())
	}
	want := []string{"a", "b", "c"}
	got := tbl.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestImportNoHeaderSynthesizesNames(t *testing.T) {
	ws := newTestWorkspace(t)
	path := writeFile(t, "1,2\n3,4\n")

	tbl, err := Import(ws, path, Options{NoHeader: true, GuessDatatypes: true})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	want := []string{"_1", "_2"}
	got := tbl.Names()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
}

func TestImportDuplicateHeaderNamesAreDeduped(t *testing.T) {
	ws := newTestWorkspace(t)
	path := writeFile(t, "a,a\n1,2\n")

	tbl, err := Import(ws, path, Options{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	want := []string{"a", "a_1"}
	got := tbl.Names()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestImportShortRowIsNullFilled(t *testing.T) {
	ws := newTestWorkspace(t)
	path := writeFile(t, "a,b\n1\n2,3\n")

	tbl, err := Import(ws, path, Options{GuessDatatypes: true})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	row0, err := tbl.Row(0)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if !row0[1].IsNull() {
		t.Fatalf("row0[1] = %v, want null (row was short)", row0[1])
	}
}

func TestImportQuotedFieldWithEmbeddedDelimiterAndNewline(t *testing.T) {
	ws := newTestWorkspace(t)
	path := writeFile(t, "a,b\n\"hello, world\",\"multi\nline\"\n")

	tbl, err := Import(ws, path, Options{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
	row, err := tbl.Row(0)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if row[0].String_() != "hello, world" {
		t.Fatalf("row[0] = %q, want %q", row[0].String_(), "hello, world")
	}
	if row[1].String_() != "multi\nline" {
		t.Fatalf("row[1] = %q, want %q", row[1].String_(), "multi\nline")
	}
}

func TestImportPageWindowsByPageSize(t *testing.T) {
	ws := newTestWorkspace(t)
	var sb []byte
	sb = append(sb, []byte("a\n")...)
	for i := 0; i < 25; i++ {
		sb = append(sb, []byte("x\n")...)
	}
	path := writeFile(t, string(sb))

	// A single-column file has no delimiter to detect, so it is given.
	tbl, err := Import(ws, path, Options{PageSize: 10, Delimiter: ","})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	col, err := tbl.Column("a")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if col.Len() != 25 {
		t.Fatalf("Len() = %d, want 25", col.Len())
	}
	if len(col.Pages()) != 3 {
		t.Fatalf("got %d pages, want 3 (windows of 10, 10, 5)", len(col.Pages()))
	}
}

func TestImportSemicolonDelimiterIsDetected(t *testing.T) {
	ws := newTestWorkspace(t)
	path := writeFile(t, "a;b\n1;2\n3;4\n")

	tbl, err := Import(ws, path, Options{GuessDatatypes: true})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	row, _ := tbl.Row(0)
	if !value.Equal(row[0], value.OfInt(1)) {
		t.Fatalf("row[0] = %v, want 1", row[0])
	}
}

func TestImportColumnsOptionSelectsSubset(t *testing.T) {
	ws := newTestWorkspace(t)
	path := writeFile(t, "a,b,c\n1,2,3\n")

	tbl, err := Import(ws, path, Options{Columns: []string{"c", "a"}, GuessDatatypes: true})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	want := []string{"c", "a"}
	got := tbl.Names()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	row, _ := tbl.Row(0)
	if !value.Equal(row[0], value.OfInt(3)) {
		t.Fatalf("row[0] (c) = %v, want 3", row[0])
	}
}

func TestImportDeterministicAcrossRuns(t *testing.T) {
	path := writeFile(t, "a,b\n1,x\n2,y\n3,z\n4,w\n5,v\n")

	ws1 := newTestWorkspace(t)
	t1, err := Import(ws1, path, Options{GuessDatatypes: true, PageSize: 2})
	if err != nil {
		t.Fatalf("Import 1: %v", err)
	}
	ws2 := newTestWorkspace(t)
	t2, err := Import(ws2, path, Options{GuessDatatypes: true, PageSize: 2})
	if err != nil {
		t.Fatalf("Import 2: %v", err)
	}
	if !t1.Equal(t2) {
		t.Fatal("two imports of the same file should produce equal tables")
	}
}
