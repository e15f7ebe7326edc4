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

// Package infer implements the per-column type coercion ladder
// (bool -> int -> float -> date -> time -> datetime -> str) and the
// summary statistics computed over an inferred column.
package infer

import (
	"strconv"
	"strings"

	"github.com/omenSi/tablite/date"
	"github.com/omenSi/tablite/value"
)

type rung struct {
	typ   value.Type
	parse func(string) (value.Value, bool)
}

// ladder is tried in order; the first rung that parses every non-empty
// value in a column wins. Bool is deliberately strict (only the
// conventional textual spellings) so that a numeric "0"/"1" column is
// not misread as booleans before int gets a chance.
var ladder = []rung{
	{value.Bool, parseBoolValue},
	{value.Int, parseIntValue},
	{value.Float, parseFloatValue},
	{value.Date, parseDateValue},
	{value.Time, parseTimeValue},
	{value.DateTime, parseDateTimeValue},
}

func parseBoolValue(s string) (value.Value, bool) {
	switch {
	case strings.EqualFold(s, "true"):
		return value.OfBool(true), true
	case strings.EqualFold(s, "false"):
		return value.OfBool(false), true
	default:
		return value.Value{}, false
	}
}

func parseIntValue(s string) (value.Value, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return value.Value{}, false
	}
	return value.OfInt(i), true
}

func parseFloatValue(s string) (value.Value, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return value.Value{}, false
	}
	return value.OfFloat(f), true
}

func parseDateValue(s string) (value.Value, bool) {
	d, ok := date.ParseDate(s)
	if !ok {
		return value.Value{}, false
	}
	return value.OfDate(d), true
}

func parseTimeValue(s string) (value.Value, bool) {
	t, ok := date.ParseTime(s)
	if !ok {
		return value.Value{}, false
	}
	return value.OfTime(t), true
}

func parseDateTimeValue(s string) (value.Value, bool) {
	dt, ok := date.ParseDateTime(s)
	if !ok {
		return value.Value{}, false
	}
	return value.OfDateTime(dt), true
}

func parserFor(t value.Type) func(string) (value.Value, bool) {
	for _, r := range ladder {
		if r.typ == t {
			return r.parse
		}
	}
	return func(s string) (value.Value, bool) { return value.OfString(s), true }
}

// Infer coerces a single raw field through the ladder independent of
// any column context; it is what a one-off/ad-hoc conversion (e.g. a
// predicate literal) uses. Column ingestion uses InferColumn instead,
// which requires every value in the column to agree on a type.
func Infer(s string) value.Value {
	if s == "" {
		return value.NullValue
	}
	for _, r := range ladder {
		if v, ok := r.parse(s); ok {
			return v
		}
	}
	return value.OfString(s)
}

// InferColumn infers one shared type for an entire raw column: the
// tightest ladder rung that every non-empty value parses as. Empty
// strings are always null (and set allowEmpty) regardless of the
// winning type. If no rung parses every value, the column falls back
// to str.
func InferColumn(raw []string) (typ value.Type, vals []value.Value, allowEmpty bool) {
	for _, s := range raw {
		if s == "" {
			allowEmpty = true
			break
		}
	}
rungs:
	for _, r := range ladder {
		vals = make([]value.Value, len(raw))
		for i, s := range raw {
			if s == "" {
				vals[i] = value.NullValue
				continue
			}
			v, ok := r.parse(s)
			if !ok {
				continue rungs
			}
			vals[i] = v
		}
		return r.typ, vals, allowEmpty
	}

	vals = make([]value.Value, len(raw))
	for i, s := range raw {
		if s == "" {
			vals[i] = value.NullValue
			continue
		}
		vals[i] = value.OfString(s)
	}
	return value.String, vals, allowEmpty
}

// InferColumnPinned coerces raw through target's parser, falling back
// to str per-value (not for the whole column) when a value fails to
// coerce — per spec, a user type pin still tolerates individual bad
// values by degrading just that cell to a string, which leaves the
// column's physical representation mixed (object-encoded).
func InferColumnPinned(raw []string, target value.Type) []value.Value {
	parse := parserFor(target)
	vals := make([]value.Value, len(raw))
	for i, s := range raw {
		if s == "" {
			vals[i] = value.NullValue
			continue
		}
		if v, ok := parse(s); ok {
			vals[i] = v
		} else {
			vals[i] = value.OfString(s)
		}
	}
	return vals
}
