package fir

import (
	"github.com/cwbudde/algo-sdr/dsp/core"
)

// Filter implements a direct-form FIR filter using a circular-buffer delay line.
type Filter[T core.Complex] struct {
	coeffs []T
	delay  []T
	pos    int
}

// New creates a FIR filter from the given real coefficients.
// The coefficients are copied. The filter order is len(coeffs)-1.
func New[T core.Complex, C core.Float](coeffs []C) *Filter[T] {
	c := make([]T, len(coeffs))
	for i, v := range coeffs {
		c[i] = core.FromReal[T](v)
	}
	return &Filter[T]{
		coeffs: c,
		delay:  make([]T, max(len(coeffs), 1)),
	}
}

// ProcessSample filters one input sample.
//
//	y[n] = sum_{k=0}^{N-1} h[k] * x[n-k]
func (f *Filter[T]) ProcessSample(x T) T {
	f.delay[f.pos] = x
	var y T
	n := len(f.coeffs)
	p := f.pos
	for k := range n {
		y += f.coeffs[k] * f.delay[p]
		p--
		if p < 0 {
			p = n - 1
		}
	}
	f.pos++
	if f.pos >= len(f.delay) {
		f.pos = 0
	}
	return y
}

// ProcessBlock filters a block of samples in-place.
func (f *Filter[T]) ProcessBlock(buf []T) {
	for i, x := range buf {
		buf[i] = f.ProcessSample(x)
	}
}

// Reset clears the delay line to zero.
func (f *Filter[T]) Reset() {
	clear(f.delay)
	f.pos = 0
}

// Order returns the filter order (len(coeffs) - 1).
func (f *Filter[T]) Order() int {
	return len(f.coeffs) - 1
}
