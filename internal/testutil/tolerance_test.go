package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	a := []complex128{1, 2i, 3}
	b := []complex128{1, 2.1i, 3}

	d, err := MaxAbsDiff(a, b)
	if err != nil {
		t.Fatalf("MaxAbsDiff error: %v", err)
	}
	if math.Abs(d-0.1) > 1e-15 {
		t.Fatalf("MaxAbsDiff = %v, want 0.1", d)
	}
}

func TestMaxAbsDiffLengthMismatch(t *testing.T) {
	_, err := MaxAbsDiff([]complex128{1}, []complex128{1, 2})
	if err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestRequireComplexNearlyEqual(t *testing.T) {
	RequireComplexNearlyEqual(t, []complex128{1 + 1i}, []complex128{1 + 1.0000001i}, 1e-6)
	RequireFinite(t, 0, 1, 2)
}
