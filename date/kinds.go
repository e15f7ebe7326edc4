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

// Kind distinguishes the three calendar shapes infer.go needs to tell
// apart: a bare date, a bare time-of-day, and a combined date+time.
// Parse/Date/Time all produce the same Time representation; Kind is
// metadata about which rungs of the value were actually present in
// the source text.
type Kind uint8

const (
	// KindNone means the text didn't parse as any calendar type.
	KindNone Kind = iota
	KindDate
	KindTime
	KindDateTime
)

// dateLayouts are tried, in order, by ParseDate. The earliest-listed
// layout that matches wins when a string is ambiguous (e.g. a locale
// using day-first vs month-first order).
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// timeLayouts are tried, in order, by ParseTime.
var timeLayouts = []string{
	"15:04:05.999999999",
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
}

// ParseDate parses a date-only string (no time-of-day component).
// The returned Time has its time-of-day fields zeroed.
func ParseDate(s string) (Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return Date(t.Year(), int(t.Month()), t.Day(), 0, 0, 0, 0), true
	}
	return Time{}, false
}

// ParseTime parses a time-of-day string (no date component). The
// returned Time carries the zero date (year 0, January 1st).
func ParseTime(s string) (Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond()), true
	}
	return Time{}, false
}

// ParseDateTime parses a combined date+time string, trying RFC3339
// first and then a short list of common locale datetime layouts.
func ParseDateTime(s string) (Time, bool) {
	if t, ok := Parse([]byte(s)); ok {
		return t, true
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"01/02/2006 15:04:05",
		"01/02/2006 3:04:05 PM",
	} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return FromTime(t), true
	}
	return Time{}, false
}

// ParseAny tries ParseDateTime, then ParseDate, then ParseTime, and
// reports which Kind matched (or KindNone if none did).
func ParseAny(s string) (Time, Kind) {
	if strings.ContainsAny(s, ":") && strings.ContainsAny(s, "-/") {
		if t, ok := ParseDateTime(s); ok {
			return t, KindDateTime
		}
	}
	if t, ok := ParseDate(s); ok {
		return t, KindDate
	}
	if t, ok := ParseTime(s); ok {
		return t, KindTime
	}
	if t, ok := ParseDateTime(s); ok {
		return t, KindDateTime
	}
	return Time{}, KindNone
}
