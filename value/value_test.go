package value

import (
	"sort"
	"testing"

	"github.com/omenSi/tablite/date"
)

func TestTotalOrder(t *testing.T) {
	dt, ok := date.Parse([]byte("2020-01-02T03:04:05Z"))
	if !ok {
		t.Fatal("failed to parse reference datetime")
	}
	vals := []Value{
		OfDateTime(dt),
		OfString("zzz"),
		NullValue,
		OfInt(5),
		OfBool(true),
		OfFloat(4.5),
		OfString("aaa"),
	}
	sort.Slice(vals, func(i, j int) bool { return Less(vals[i], vals[j]) })
	wantTypes := []Type{Null, Bool, Float, Int, String, String, DateTime}
	for i, v := range vals {
		if v.Type != wantTypes[i] {
			t.Fatalf("position %d: got %s, want %s", i, v.Type, wantTypes[i])
		}
	}
	if vals[4].String_() != "aaa" || vals[5].String_() != "zzz" {
		t.Fatalf("string ordering wrong: %v", vals[4:6])
	}
}

func TestEqual(t *testing.T) {
	if !Equal(NullValue, NullValue) {
		t.Error("two nulls should be equal")
	}
	if Equal(OfInt(1), OfFloat(1)) {
		t.Error("Int(1) and Float(1) have different Type tags and should not be Equal")
	}
	if !Equal(OfString("x"), OfString("x")) {
		t.Error("equal strings should compare equal")
	}
}
