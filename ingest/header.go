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
	"fmt"
	"strconv"
)

// synthNames builds "_1".."_n" column names for a headerless source.
func synthNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "_" + strconv.Itoa(i+1)
	}
	return names
}

// dedupNames rewrites any repeated header name to "<name>_1",
// "<name>_2", ... — the same scheme table.dedupName and the Python
// original's unique_name both use.
func dedupNames(fields []string) []string {
	used := map[string]bool{}
	out := make([]string, len(fields))
	for i, f := range fields {
		name := f
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", f, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}
