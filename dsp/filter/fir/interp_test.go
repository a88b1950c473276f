package fir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInterpolatorValidation(t *testing.T) {
	_, err := NewInterpolator[complex128](0, []float64{1})
	require.Error(t, err)

	_, err = NewInterpolator[complex128](2, []float64{})
	require.Error(t, err)
}

func TestInterpolatorMatchesZeroStuffedFilter(t *testing.T) {
	const k = 3
	h := []float64{0.1, 0.3, 0.6, 1.0, 0.6, 0.3, 0.1}
	symbols := []complex128{1, -1, 1i, -1i, 0.5 + 0.5i, 0, 0, 0}

	p, err := NewInterpolator[complex128](k, h)
	require.NoError(t, err)
	assert.Equal(t, k, p.Factor())

	got := make([]complex128, k*len(symbols))
	p.ExecuteBlock(got, symbols)

	ref := New[complex128](h)
	for i, s := range symbols {
		for j := range k {
			x := complex128(0)
			if j == 0 {
				x = s
			}
			want := ref.ProcessSample(x)
			if !almostEqual(got[i*k+j], want, 1e-12) {
				t.Fatalf("output %d: got %v, want %v", i*k+j, got[i*k+j], want)
			}
		}
	}
}

func TestInterpolatorReset(t *testing.T) {
	p, err := NewInterpolator[complex64](2, []float32{1, 0.5, 0.25})
	require.NoError(t, err)

	out := make([]complex64, 2)
	p.Execute(1, out)
	p.Reset()
	p.Execute(0, out)
	assert.Equal(t, []complex64{0, 0}, out)
}
