package ranges

import (
	"math/rand"
	"testing"
)

func set(r Range) map[int]bool {
	m := make(map[int]bool)
	for _, v := range r.Values() {
		m[v] = true
	}
	return m
}

func TestSpecExamples(t *testing.T) {
	got := Intersect(New(4, 20, 3), New(0, 16, 2))
	want := New(4, 16, 6)
	if got != want {
		t.Errorf("range(4,20,3) ^ range(0,16,2) = %+v, want %+v", got, want)
	}

	got = Intersect(New(9, 0, -1), New(7, 10, 1))
	want = New(7, 10, 1)
	if got != want {
		t.Errorf("range(9,0,-1) ^ range(7,10,1) = %+v, want %+v", got, want)
	}
}

func TestIntersectAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 2000; trial++ {
		a := randomRange(rng)
		b := randomRange(rng)
		got := Intersect(a, b)

		wantSet := make(map[int]bool)
		for k := range set(a) {
			if set(b)[k] {
				wantSet[k] = true
			}
		}
		gotSet := set(got)
		if len(gotSet) != len(wantSet) {
			t.Fatalf("trial %d: a=%+v b=%+v got len=%d want len=%d (got=%v want=%v)",
				trial, a, b, len(gotSet), len(wantSet), gotSet, wantSet)
		}
		for k := range wantSet {
			if !gotSet[k] {
				t.Fatalf("trial %d: a=%+v b=%+v missing %d from intersection", trial, a, b, k)
			}
		}
	}
}

func randomRange(rng *rand.Rand) Range {
	step := rng.Intn(7) - 3
	if step == 0 {
		step = 1
	}
	start := rng.Intn(41) - 20
	length := rng.Intn(10)
	stop := start + length*step + (rng.Intn(3) - 1)
	return New(start, stop, step)
}

func TestEmptyRange(t *testing.T) {
	if !New(5, 5, 1).Empty() {
		t.Error("range(5,5,1) should be empty")
	}
	if !New(5, 10, -1).Empty() {
		t.Error("range(5,10,-1) should be empty")
	}
	if Intersect(New(0, 10, 1), New(20, 30, 1)) != emptyRange {
		t.Error("disjoint ranges should intersect to empty")
	}
}
