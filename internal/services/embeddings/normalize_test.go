package embeddings

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	got := Normalize([]float32{3, 4})

	var sum float64
	for _, v := range got {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("normalized vector has squared norm %v, want 1", sum)
	}
	if math.Abs(float64(got[0])-0.6) > 1e-6 || math.Abs(float64(got[1])-0.8) > 1e-6 {
		t.Errorf("Normalize([3 4]) = %v, want [0.6 0.8]", got)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	in := []float32{0, 0, 0}
	got := Normalize(in)

	for i, v := range got {
		if v != 0 {
			t.Errorf("zero vector changed at %d: %v", i, v)
		}
	}
}

func TestNormalize_UnitVectorUnchanged(t *testing.T) {
	got := Normalize([]float32{1, 0, 0})
	if got[0] != 1 || got[1] != 0 || got[2] != 0 {
		t.Errorf("unit vector should stay unit: %v", got)
	}
}
