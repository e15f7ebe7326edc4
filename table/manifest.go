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

package table

// manifest is table.yml's shape. spec.md describes columns as a
// name-keyed map, but a YAML/JSON object has no preserved key order —
// marshaling a Go map would silently break Table's "insertion order
// preserved" invariant across save/load. An ordered slice of named
// entries carries the same information without that loss.
type manifest struct {
	Temp    bool             `json:"temp"`
	Columns []manifestColumn `json:"columns"`
}

// manifestColumn lists one column's pages, positionally aligned with
// their lengths and type codes: types[i] == 0 is a native fixed-width
// page, nonzero is object-encoded. The codec re-derives each page's
// exact dtype from the page file's own header at load time — this
// flag is kept because spec's archive format names it explicitly, not
// because reconstruction depends on it.
type manifestColumn struct {
	Name   string   `json:"name"`
	Pages  []string `json:"pages"`
	Length []int    `json:"length"`
	Types  []int    `json:"types"`
}
