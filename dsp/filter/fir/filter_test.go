package fir

import (
	"math/cmplx"
	"testing"
)

const eps = 1e-12

func almostEqual(a, b complex128, tol float64) bool {
	return cmplx.Abs(a-b) <= tol
}

func TestProcessSampleImpulse(t *testing.T) {
	// Impulse response of FIR should equal the coefficients.
	coeffs := []float64{0.25, 0.5, 0.25}
	f := New[complex128](coeffs)
	if f.Order() != 2 {
		t.Fatalf("Order: got %d, want 2", f.Order())
	}

	for i, want := range coeffs {
		var x complex128
		if i == 0 {
			x = 1i
		}
		y := f.ProcessSample(x)
		if !almostEqual(y, complex(0, want), eps) {
			t.Errorf("sample %d: got %v, want %vi", i, y, want)
		}
	}
	for i := range 5 {
		if y := f.ProcessSample(0); !almostEqual(y, 0, eps) {
			t.Errorf("post-IR sample %d: got %v, want 0", i, y)
		}
	}
}

func TestProcessSampleDifferentiator(t *testing.T) {
	f := New[complex64]([]float32{1, -1})
	input := []complex64{0, 1, 3 + 1i, 6, 10}
	want := []complex64{0, 1, 2 + 1i, 3 - 1i, 4}
	for i, x := range input {
		if y := f.ProcessSample(x); y != want[i] {
			t.Errorf("sample %d: got %v, want %v", i, y, want[i])
		}
	}
}

func TestProcessBlockMatchesSample(t *testing.T) {
	coeffs := []float64{0.1, -0.4, 0.7, 0.2}
	input := []complex128{1, 2i, -1, 0.5 + 0.5i, 3, -2i, 0, 1}

	a := New[complex128](coeffs)
	b := New[complex128](coeffs)

	block := append([]complex128(nil), input...)
	b.ProcessBlock(block)
	for i, x := range input {
		if y := a.ProcessSample(x); !almostEqual(y, block[i], eps) {
			t.Fatalf("sample %d: block %v, sample %v", i, block[i], y)
		}
	}
}

func TestReset(t *testing.T) {
	f := New[complex128]([]float64{1, 1, 1})
	f.ProcessSample(5)
	f.ProcessSample(5)
	f.Reset()
	if y := f.ProcessSample(1); !almostEqual(y, 1, eps) {
		t.Fatalf("after reset got %v, want 1", y)
	}
}
