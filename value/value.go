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

// Package value defines the scalar cell type shared by Page, Column,
// Table and the relational operators: a small tagged union over
// null/bool/int/float/string/date/time/datetime, plus the total order
// those types are compared under when a column (or a join/group-by
// key) mixes them.
package value

import (
	"fmt"
	"strings"

	"github.com/omenSi/tablite/date"
)

// Type is the physical dtype tag of a Value.
type Type uint8

const (
	Null Type = iota
	Bool
	Int
	Float
	String
	Date
	Time
	DateTime
)

func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "str"
	case Date:
		return "date"
	case Time:
		return "time"
	case DateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// rank gives the total order between dissimilar types, per SPEC_FULL's
// resolution of spec.md's Open Question (a):
//
//	null < bool < int/float (numeric order) < str (lexicographic) < date < time < datetime
var rank = [...]int{
	Null:     0,
	Bool:     1,
	Int:      2,
	Float:    2,
	String:   3,
	Date:     4,
	Time:     5,
	DateTime: 6,
}

// Value is a single table cell. The zero Value is Null.
type Value struct {
	Type Type
	b    bool
	i    int64
	f    float64
	s    string
	// t is nanoseconds since the Unix epoch for Date/Time/DateTime.
	t int64
}

// NullValue is the Null-typed value.
var NullValue = Value{Type: Null}

func OfBool(b bool) Value    { return Value{Type: Bool, b: b} }
func OfInt(i int64) Value    { return Value{Type: Int, i: i} }
func OfFloat(f float64) Value { return Value{Type: Float, f: f} }
func OfString(s string) Value { return Value{Type: String, s: s} }

func OfDate(t date.Time) Value     { return Value{Type: Date, t: t.UnixNano()} }
func OfTime(t date.Time) Value     { return Value{Type: Time, t: t.UnixNano()} }
func OfDateTime(t date.Time) Value { return Value{Type: DateTime, t: t.UnixNano()} }

func (v Value) IsNull() bool { return v.Type == Null }

func (v Value) Bool() bool { return v.b }
func (v Value) Int() int64 { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) String_() string { return v.s }

// AsTime reinterprets a Date/Time/DateTime value as a date.Time. It
// panics if v is not one of those three types.
func (v Value) AsTime() date.Time {
	switch v.Type {
	case Date, Time, DateTime:
		return date.Unix(v.t/1e9, v.t%1e9)
	default:
		panic(fmt.Sprintf("value: AsTime called on a %s value", v.Type))
	}
}

// Numeric reports whether v holds a number, and its float64 value. A
// Bool counts as a number: true is 1, false is 0.
func (v Value) Numeric() (float64, bool) {
	switch v.Type {
	case Int:
		return float64(v.i), true
	case Float:
		return v.f, true
	case Bool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// String renders v for display/debugging.
func (v Value) String() string {
	switch v.Type {
	case Null:
		return "null"
	case Bool:
		return fmt.Sprintf("%t", v.b)
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Float:
		return fmt.Sprintf("%g", v.f)
	case String:
		return v.s
	case Date, Time, DateTime:
		return v.AsTime().String()
	default:
		return "?"
	}
}

// Equal reports value equality: same type and same contents. Two Null
// values are equal to each other (SQL NULL semantics do not apply
// here — spec.md treats null as a legal, comparable key component).
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case Int:
		return a.i == b.i
	case Float:
		return a.f == b.f
	case String:
		return a.s == b.s
	case Date, Time, DateTime:
		return a.t == b.t
	default:
		return false
	}
}

// Compare implements the fixed total order described in the package
// doc: it returns -1, 0, or 1 the way bytes.Compare does. Numeric
// comparisons between Int and Float use their float64 value.
func Compare(a, b Value) int {
	if a.Type != b.Type {
		ra, rb := rank[a.Type], rank[b.Type]
		if ra != rb {
			if ra < rb {
				return -1
			}
			return 1
		}
		// same rank, different type: only Int vs Float share rank 2
		af, _ := a.Numeric()
		bf, _ := b.Numeric()
		return compareFloat(af, bf)
	}
	switch a.Type {
	case Null:
		return 0
	case Bool:
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case Int:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		default:
			return 0
		}
	case Float:
		return compareFloat(a.f, b.f)
	case String:
		return strings.Compare(a.s, b.s)
	case Date, Time, DateTime:
		switch {
		case a.t < b.t:
			return -1
		case a.t > b.t:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts strictly before b under Compare.
func Less(a, b Value) bool { return Compare(a, b) < 0 }
