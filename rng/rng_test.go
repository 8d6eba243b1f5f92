package rng

import "testing"

func TestResetReplaysStream(t *testing.T) {
	s := New(50365756705)
	first := make([]float64, 16)
	for i := range first {
		first[i] = s.Float()
	}

	s.Reset()
	for i, want := range first {
		if got := s.Float(); got != want {
			t.Fatalf("draw %d after reset = %v, want %v", i, got, want)
		}
	}
}

func TestSeedsDiverge(t *testing.T) {
	a, b := New(1), New(2)
	same := 0
	for range 8 {
		if a.Float() == b.Float() {
			same++
		}
	}
	if same == 8 {
		t.Error("different seeds produced the same stream")
	}
}

func TestPickStaysInRange(t *testing.T) {
	s := New(7)
	choices := []int{3, 4}
	for range 100 {
		v := Pick(s, choices)
		if v != 3 && v != 4 {
			t.Fatalf("Pick returned %d", v)
		}
	}
}

func TestFloatRange(t *testing.T) {
	s := New(99)
	for range 1000 {
		if f := s.Float(); f < 0 || f >= 1 {
			t.Fatalf("Float() = %v outside [0,1)", f)
		}
	}
}
