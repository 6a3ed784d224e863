package prng

import "testing"

func TestNextDeterministic(t *testing.T) {
	a := New(12345)
	b := New(12345)
	for i := 0; i < 100; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("same seed diverged at iteration %d", i)
		}
	}
}

func TestRangeBounds(t *testing.T) {
	s := New(1)
	for i := 0; i < 1000; i++ {
		v := s.Range(3, 7)
		if v < 3 || v > 7 {
			t.Fatalf("Range(3,7) produced out-of-bounds value %d", v)
		}
	}
}

func TestRangeDegenerate(t *testing.T) {
	s := New(1)
	if v := s.Range(5, 5); v != 5 {
		t.Fatalf("Range(5,5) = %d, want 5", v)
	}
	if v := s.Range(9, 2); v != 9 {
		t.Fatalf("Range(9,2) = %d, want 9 (lo returned when lo >= hi)", v)
	}
}

func TestFloat01Bounds(t *testing.T) {
	s := New(42)
	for i := 0; i < 1000; i++ {
		f := s.Float01()
		if f < 0 || f >= 1 {
			t.Fatalf("Float01 out of [0,1): %f", f)
		}
	}
}

func TestIndependentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)
	same := true
	for i := 0; i < 8; i++ {
		if a.Next() != b.Next() {
			same = false
		}
	}
	if same {
		t.Fatalf("different seeds produced identical streams")
	}
}
