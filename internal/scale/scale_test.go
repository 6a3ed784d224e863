package scale

import "testing"

func TestOffPassesThrough(t *testing.T) {
	for n := 0; n <= 127; n++ {
		if got := Quantize(n, 0, Off); got != n {
			t.Fatalf("Quantize(%d, Off) = %d, want %d", n, got, n)
		}
	}
}

func TestIdempotent(t *testing.T) {
	for typ := Off; typ < count; typ++ {
		for n := 0; n <= 127; n++ {
			once := Quantize(n, 0, typ)
			twice := Quantize(once, 0, typ)
			if once != twice {
				t.Fatalf("scale %d: Quantize(Quantize(%d)) = %d, want %d", typ, n, twice, once)
			}
		}
	}
}

func TestInRange(t *testing.T) {
	for typ := Off; typ < count; typ++ {
		for n := 0; n <= 127; n++ {
			got := Quantize(n, 5, typ)
			if got < 0 || got > 127 {
				t.Fatalf("scale %d: Quantize(%d) = %d, out of MIDI range", typ, n, got)
			}
		}
	}
}

func TestIonianMapsWhiteKeysToSelf(t *testing.T) {
	// With root=0, Ionian degrees reproduce the classic C-major white keys.
	cases := map[int]int{
		60: 60, // C4 -> C4
		62: 62, // D4 -> D4
		61: 60, // C#4 snaps down to C4's white key, degree 0 -> C
	}
	for in, want := range cases {
		if got := Quantize(in, 0, Ionian); got != want {
			t.Fatalf("Quantize(%d, Ionian) = %d, want %d", in, got, want)
		}
	}
}
