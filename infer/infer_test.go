package infer

import (
	"testing"

	"github.com/omenSi/tablite/value"
)

func TestInferColumnPicksTightestType(t *testing.T) {
	typ, vals, allowEmpty := InferColumn([]string{"1", "2", "3"})
	if typ != value.Int {
		t.Fatalf("typ = %s, want int", typ)
	}
	if allowEmpty {
		t.Fatal("did not expect allowEmpty")
	}
	for i, want := range []int64{1, 2, 3} {
		if !value.Equal(vals[i], value.OfInt(want)) {
			t.Fatalf("vals[%d] = %v, want %d", i, vals[i], want)
		}
	}
}

func TestInferColumnFloatWhenNotAllInt(t *testing.T) {
	typ, vals, _ := InferColumn([]string{"1", "2.5", "3"})
	if typ != value.Float {
		t.Fatalf("typ = %s, want float", typ)
	}
	if !value.Equal(vals[1], value.OfFloat(2.5)) {
		t.Fatalf("vals[1] = %v, want 2.5", vals[1])
	}
}

func TestInferColumnBoolIsStrict(t *testing.T) {
	typ, _, _ := InferColumn([]string{"1", "0"})
	if typ != value.Int {
		t.Fatalf("typ = %s, want int (bare 0/1 should not be read as bool)", typ)
	}
	typ, vals, _ := InferColumn([]string{"true", "false", "TRUE"})
	if typ != value.Bool {
		t.Fatalf("typ = %s, want bool", typ)
	}
	if !value.Equal(vals[2], value.OfBool(true)) {
		t.Fatalf("vals[2] = %v, want true", vals[2])
	}
}

func TestInferColumnEmptyIsNullAndSetsAllowEmpty(t *testing.T) {
	typ, vals, allowEmpty := InferColumn([]string{"1", "", "3"})
	if typ != value.Int {
		t.Fatalf("typ = %s, want int", typ)
	}
	if !allowEmpty {
		t.Fatal("expected allowEmpty")
	}
	if !vals[1].IsNull() {
		t.Fatalf("vals[1] = %v, want null", vals[1])
	}
}

func TestInferColumnFallsBackToString(t *testing.T) {
	typ, vals, _ := InferColumn([]string{"1", "two", "3"})
	if typ != value.String {
		t.Fatalf("typ = %s, want str", typ)
	}
	if vals[0].String_() != "1" {
		t.Fatalf("vals[0] = %v, want \"1\"", vals[0])
	}
}

func TestInferColumnPinnedDegradesBadValuesToString(t *testing.T) {
	vals := InferColumnPinned([]string{"1", "notanumber", "3"}, value.Int)
	if !value.Equal(vals[0], value.OfInt(1)) {
		t.Fatalf("vals[0] = %v, want 1", vals[0])
	}
	if vals[1].Type != value.String || vals[1].String_() != "notanumber" {
		t.Fatalf("vals[1] = %v, want string \"notanumber\"", vals[1])
	}
}

func TestInferSingleValue(t *testing.T) {
	if v := Infer(""); !v.IsNull() {
		t.Fatalf("Infer(\"\") = %v, want null", v)
	}
	if v := Infer("42"); v.Type != value.Int {
		t.Fatalf("Infer(\"42\").Type = %s, want int", v.Type)
	}
	if v := Infer("hello"); v.Type != value.String {
		t.Fatalf("Infer(\"hello\").Type = %s, want str", v.Type)
	}
}

func TestSummarizeNumeric(t *testing.T) {
	_, vals, _ := InferColumn([]string{"1", "2", "3", "4", "5"})
	s := Summarize(vals)
	if s.NA {
		t.Fatal("did not expect NA")
	}
	if s.Sum != 15 {
		t.Fatalf("Sum = %v, want 15", s.Sum)
	}
	if s.Mean != 3 {
		t.Fatalf("Mean = %v, want 3", s.Mean)
	}
	if s.Median != 3 {
		t.Fatalf("Median = %v, want 3", s.Median)
	}
	if s.Distinct != 5 {
		t.Fatalf("Distinct = %d, want 5", s.Distinct)
	}
}

func TestSummarizeAllNullIsNA(t *testing.T) {
	s := Summarize([]value.Value{value.NullValue, value.NullValue})
	if !s.NA {
		t.Fatal("expected NA for an all-null column")
	}
}

func TestSummarizeStringUsesLengthStatsAndValueMode(t *testing.T) {
	_, vals, _ := InferColumn([]string{"a", "bb", "a", "ccc"})
	s := Summarize(vals)
	if s.Type != value.String {
		t.Fatalf("Type = %s, want str", s.Type)
	}
	if s.Sum != 7 {
		t.Fatalf("Sum = %v, want 7 (total of the lengths 1+2+1+3)", s.Sum)
	}
	if s.Mode.String_() != "a" {
		t.Fatalf("Mode = %v, want \"a\" (most frequent)", s.Mode)
	}
	if s.Distinct != 3 {
		t.Fatalf("Distinct = %d, want 3", s.Distinct)
	}
}
