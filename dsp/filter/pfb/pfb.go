// Package pfb implements a polyphase filter bank: npfb sub-filters split
// from one prototype, sharing a single delay line. Sub-filter i evaluates
// the prototype at a fractional delay of i/npfb input samples, which lets a
// timing loop interpolate between samples by choosing an index.
package pfb

import (
	"fmt"

	"github.com/cwbudde/algo-sdr/dsp/buffer"
	"github.com/cwbudde/algo-sdr/dsp/core"
)

// Split decomposes the prototype h into npfb sub-filters. Sub-filter i holds
// h[i], h[i+npfb], h[i+2*npfb], ...; missing taps are zero so all sub-filters
// have the same length.
func Split(h []float64, npfb int) [][]float64 {
	n := (len(h) + npfb - 1) / npfb
	subs := make([][]float64, npfb)
	for i := range subs {
		s := make([]float64, n)
		for j := range n {
			if idx := j*npfb + i; idx < len(h) {
				s[j] = h[idx]
			}
		}
		subs[i] = s
	}
	return subs
}

// Bank is a polyphase filter bank over complex samples.
type Bank[T core.Complex] struct {
	taps   [][]T // per sub-filter, reversed to match the oldest-first window
	window *buffer.Window[T]
}

// New builds a bank of npfb sub-filters from the prototype h.
func New[T core.Complex](h []float64, npfb int) (*Bank[T], error) {
	if npfb < 1 {
		return nil, fmt.Errorf("filter bank size must be > 0: %d", npfb)
	}
	if len(h) < npfb {
		return nil, fmt.Errorf("prototype too short for %d sub-filters: %d taps", npfb, len(h))
	}

	subs := Split(h, npfb)
	n := len(subs[0])
	taps := make([][]T, npfb)
	for i, s := range subs {
		r := make([]T, n)
		for j, c := range s {
			r[n-1-j] = core.FromReal[T](c)
		}
		taps[i] = r
	}

	w, err := buffer.NewWindow[T](n)
	if err != nil {
		return nil, err
	}
	return &Bank[T]{taps: taps, window: w}, nil
}

// Size returns the number of sub-filters.
func (b *Bank[T]) Size() int {
	return len(b.taps)
}

// Len returns the length of each sub-filter.
func (b *Bank[T]) Len() int {
	return b.window.Len()
}

// Push appends one input sample to the shared delay line.
func (b *Bank[T]) Push(x T) {
	b.window.Push(x)
}

// Execute returns the output of sub-filter i for the current delay line.
func (b *Bank[T]) Execute(i int) T {
	v := b.window.Read()
	var y T
	for j, c := range b.taps[i] {
		y += c * v[j]
	}
	return y
}

// Reset clears the delay line.
func (b *Bank[T]) Reset() {
	b.window.Reset()
}
