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

// Command tablite is a thin CLI wrapper over ingest/table/ops: enough
// to import a delimited text file, sort/group/join the result, and
// dump it back out, standing in for the interactive surface spec.md
// places out of scope.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/omenSi/tablite/ingest"
	"github.com/omenSi/tablite/ops"
	"github.com/omenSi/tablite/table"
	"github.com/omenSi/tablite/value"
	"github.com/omenSi/tablite/workspace"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ws, err := workspace.Ensure(os.Getenv("WORKDIR"))
	if err != nil {
		log.Fatalf("tablite: %v", err)
	}
	defer ws.Shutdown()

	var cmdErr error
	switch os.Args[1] {
	case "import":
		cmdErr = runImport(ws, os.Args[2:])
	case "dump":
		cmdErr = runDump(ws, os.Args[2:])
	case "sort":
		cmdErr = runSort(ws, os.Args[2:])
	case "groupby":
		cmdErr = runGroupBy(ws, os.Args[2:])
	case "join":
		cmdErr = runJoin(ws, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		log.Fatalf("tablite %s: %v", os.Args[1], cmdErr)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: tablite <command> [flags]

commands:
  import   -in FILE -out FILE.tpz [-no-header] [-guess-types] [-pagesize N] [-columns a,b,c]
  dump     FILE.tpz
  sort     -in FILE.tpz -out FILE.tpz -by col[:desc],col[:desc]...
  groupby  -in FILE.tpz -out FILE.tpz -keys a,b -agg col:kind[:name],...
  join     -left FILE.tpz -right FILE.tpz -out FILE.tpz -leftkeys a,b -rightkeys a,b -kind inner|left|outer|cross`)
}

func runImport(ws *workspace.Workspace, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("in", "", "input delimited text file")
	out := fs.String("out", "", "output .tpz path")
	noHeader := fs.Bool("no-header", false, "first line is data, not a header")
	guess := fs.Bool("guess-types", true, "infer column datatypes")
	pageSize := fs.Int("pagesize", 0, "override the default page size")
	columns := fs.String("columns", "", "comma-separated subset of columns to import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("-in and -out are required")
	}

	opts := ingest.Options{NoHeader: *noHeader, GuessDatatypes: *guess, PageSize: *pageSize}
	if *columns != "" {
		opts.Columns = strings.Split(*columns, ",")
	}
	tbl, err := ingest.Import(ws, *in, opts)
	if err != nil {
		return err
	}
	log.Printf("imported %d rows, %d columns", tbl.Len(), len(tbl.Names()))
	return tbl.Save(*out)
}

func runDump(ws *workspace.Workspace, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("dump requires exactly one FILE.tpz argument")
	}
	tbl, err := table.Load(ws, args[0])
	if err != nil {
		return err
	}
	return printTable(tbl)
}

func runSort(ws *workspace.Workspace, args []string) error {
	fs := flag.NewFlagSet("sort", flag.ExitOnError)
	in := fs.String("in", "", "input .tpz path")
	out := fs.String("out", "", "output .tpz path")
	by := fs.String("by", "", "comma-separated key columns, each optionally suffixed :desc")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" || *by == "" {
		return fmt.Errorf("-in, -out and -by are required")
	}

	tbl, err := table.Load(ws, *in)
	if err != nil {
		return err
	}
	order, err := parseKeyOrders(*by)
	if err != nil {
		return err
	}
	sorted, err := ops.Sort(tbl, order)
	if err != nil {
		return err
	}
	return sorted.Save(*out)
}

func runGroupBy(ws *workspace.Workspace, args []string) error {
	fs := flag.NewFlagSet("groupby", flag.ExitOnError)
	in := fs.String("in", "", "input .tpz path")
	out := fs.String("out", "", "output .tpz path")
	keys := fs.String("keys", "", "comma-separated group key columns")
	aggSpec := fs.String("agg", "", "comma-separated col:kind[:name] aggregator specs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" || *keys == "" || *aggSpec == "" {
		return fmt.Errorf("-in, -out, -keys and -agg are required")
	}

	tbl, err := table.Load(ws, *in)
	if err != nil {
		return err
	}
	aggs, err := parseAggregators(*aggSpec)
	if err != nil {
		return err
	}
	grouped, err := ops.GroupBy(tbl, strings.Split(*keys, ","), aggs)
	if err != nil {
		return err
	}
	return grouped.Save(*out)
}

func runJoin(ws *workspace.Workspace, args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	left := fs.String("left", "", "left .tpz path")
	right := fs.String("right", "", "right .tpz path")
	out := fs.String("out", "", "output .tpz path")
	leftKeys := fs.String("leftkeys", "", "comma-separated left key columns")
	rightKeys := fs.String("rightkeys", "", "comma-separated right key columns")
	kind := fs.String("kind", "inner", "inner|left|outer|cross")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *left == "" || *right == "" || *out == "" {
		return fmt.Errorf("-left, -right and -out are required")
	}

	leftTbl, err := table.Load(ws, *left)
	if err != nil {
		return err
	}
	rightTbl, err := table.Load(ws, *right)
	if err != nil {
		return err
	}
	jk, err := parseJoinKind(*kind)
	if err != nil {
		return err
	}
	var lk, rk []string
	if *leftKeys != "" {
		lk = strings.Split(*leftKeys, ",")
	}
	if *rightKeys != "" {
		rk = strings.Split(*rightKeys, ",")
	}
	joined, err := ops.Join(leftTbl, rightTbl, lk, rk, jk)
	if err != nil {
		return err
	}
	return joined.Save(*out)
}

func parseKeyOrders(spec string) ([]ops.KeyOrder, error) {
	parts := strings.Split(spec, ",")
	orders := make([]ops.KeyOrder, len(parts))
	for i, p := range parts {
		col, mod, _ := strings.Cut(p, ":")
		dir := ops.Ascending
		if mod == "desc" {
			dir = ops.Descending
		}
		orders[i] = ops.KeyOrder{Column: col, Direction: dir}
	}
	return orders, nil
}

func parseAggregators(spec string) ([]ops.Aggregator, error) {
	parts := strings.Split(spec, ",")
	aggs := make([]ops.Aggregator, len(parts))
	for i, p := range parts {
		fields := strings.Split(p, ":")
		if len(fields) < 2 {
			return nil, fmt.Errorf("invalid aggregator spec %q, want col:kind[:name]", p)
		}
		kind, err := parseAggKind(fields[1])
		if err != nil {
			return nil, err
		}
		a := ops.Aggregator{Column: fields[0], Kind: kind}
		if len(fields) > 2 {
			a.Name = fields[2]
		}
		aggs[i] = a
	}
	return aggs, nil
}

func parseAggKind(s string) (ops.AggKind, error) {
	switch s {
	case "min":
		return ops.Min, nil
	case "max":
		return ops.Max, nil
	case "sum":
		return ops.Sum, nil
	case "first":
		return ops.First, nil
	case "last":
		return ops.Last, nil
	case "count":
		return ops.Count, nil
	case "count_unique":
		return ops.CountUnique, nil
	case "avg":
		return ops.Avg, nil
	case "stdev":
		return ops.Stdev, nil
	case "median":
		return ops.Median, nil
	case "mode":
		return ops.Mode, nil
	default:
		return 0, fmt.Errorf("unknown aggregator kind %q", s)
	}
}

func parseJoinKind(s string) (ops.JoinKind, error) {
	switch s {
	case "inner":
		return ops.InnerJoin, nil
	case "left":
		return ops.LeftJoin, nil
	case "outer":
		return ops.OuterJoin, nil
	case "cross":
		return ops.CrossJoin, nil
	default:
		return 0, fmt.Errorf("unknown join kind %q", s)
	}
}

func printTable(tbl *table.Table) error {
	names := tbl.Names()
	fmt.Println(strings.Join(names, "\t"))
	n := tbl.Len()
	for i := 0; i < n; i++ {
		row, err := tbl.Row(i)
		if err != nil {
			return err
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	return nil
}

func cellString(v value.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}
