package util

import (
	"math/rand"
	"testing"
)

func TestGenerateLutIsSymmetric(t *testing.T) {
	lut := GenerateLut(12)
	if len(lut) != 12 {
		t.Fatalf("len = %d, want 12", len(lut))
	}
	if lut[0] != 0 || lut[11] != 0 {
		t.Errorf("ends = %v, %v, want 0", lut[0], lut[11])
	}
	for i, j := 0, len(lut)-1; i < j; i, j = i+1, j-1 {
		if lut[i] != lut[j] {
			t.Errorf("lut[%d]=%v != lut[%d]=%v", i, lut[i], j, lut[j])
		}
	}
	for i := 1; i < 6; i++ {
		if lut[i] < lut[i-1] {
			t.Errorf("rise not monotonic at %d", i)
		}
	}
}

func TestGenerateLutMemoized(t *testing.T) {
	m := NewMemoizer()
	a := GenerateLutMemoized(20, m)
	b := GenerateLutMemoized(20, m)
	if &a[0] != &b[0] {
		t.Fatal("expected the cached table to be reused")
	}
}

func TestFalloff(t *testing.T) {
	m := NewMemoizer()
	gains := m.Falloff(3)
	if len(gains) != 4 {
		t.Fatalf("len = %d, want 4", len(gains))
	}
	if gains[0] != 1 {
		t.Errorf("centre gain = %v, want 1", gains[0])
	}
	for d := 1; d < len(gains); d++ {
		if gains[d] >= gains[d-1] || gains[d] <= 0 {
			t.Errorf("gain %d = %v, previous %v", d, gains[d], gains[d-1])
		}
	}

	if z := m.Falloff(0); len(z) != 1 || z[0] != 1 {
		t.Errorf("Falloff(0) = %v, want [1]", z)
	}
}

func TestRandomiseSaturation(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		v := RandomiseSaturation(r, 0.2, 0.4)
		if v < 0.2 || v >= 0.4 {
			t.Fatalf("value %v out of range", v)
		}
	}
}
