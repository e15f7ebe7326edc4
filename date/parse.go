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

package date

import (
	"strings"
	"time"
)

// rfc3339Layouts are tried, in order, by parse. Nanosecond precision
// is attempted first so that sub-second components are not truncated.
// Besides strict RFC3339, a handful of non-conforming-but-unambiguous
// variants are accepted: a space instead of 'T', and a missing
// offset (assumed UTC).
var rfc3339Layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parse decomposes an RFC3339-ish timestamp in data into its calendar
// components, normalized to UTC. It is the low-level scanner that
// Parse builds on.
func parse(data []byte) (year, month, day, hour, min, sec, ns int, ok bool) {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, 0, 0, 0, 0, 0, 0, false
	}
	for _, layout := range rfc3339Layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		return t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), true
	}
	return 0, 0, 0, 0, 0, 0, 0, false
}
