package fir

import (
	"fmt"

	"github.com/cwbudde/algo-sdr/dsp/buffer"
	"github.com/cwbudde/algo-sdr/dsp/core"
)

// Interpolator upsamples by an integer factor k with a polyphase FIR.
//
// The prototype h runs at the output rate. Branch i holds taps
// h[i], h[i+k], h[i+2k], ... so each input symbol yields k output samples
// without multiplying the inserted zeros.
type Interpolator[T core.Complex] struct {
	k        int
	branches [][]T
	window   *buffer.Window[T]
}

// NewInterpolator builds a 1:k interpolator from the prototype taps h.
func NewInterpolator[T core.Complex, C core.Float](k int, h []C) (*Interpolator[T], error) {
	if k < 1 {
		return nil, fmt.Errorf("interpolation factor must be > 0: %d", k)
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("interpolator needs at least one tap")
	}

	n := (len(h) + k - 1) / k
	branches := make([][]T, k)
	for i := range branches {
		// reversed so the branch lines up with the oldest-first window
		b := make([]T, n)
		for j := range n {
			if idx := j*k + i; idx < len(h) {
				b[n-1-j] = core.FromReal[T](h[idx])
			}
		}
		branches[i] = b
	}

	w, err := buffer.NewWindow[T](n)
	if err != nil {
		return nil, err
	}

	return &Interpolator[T]{k: k, branches: branches, window: w}, nil
}

// Factor returns the interpolation factor.
func (p *Interpolator[T]) Factor() int {
	return p.k
}

// Execute pushes one input sample and writes k output samples to dst.
func (p *Interpolator[T]) Execute(x T, dst []T) {
	_ = dst[p.k-1]
	p.window.Push(x)
	v := p.window.Read()
	for i, b := range p.branches {
		var y T
		for j, c := range b {
			y += c * v[j]
		}
		dst[i] = y
	}
}

// ExecuteBlock interpolates src into dst, which must hold k*len(src) samples.
func (p *Interpolator[T]) ExecuteBlock(dst, src []T) {
	if len(src) == 0 {
		return
	}
	_ = dst[p.k*len(src)-1]
	for i, x := range src {
		p.Execute(x, dst[i*p.k:(i+1)*p.k])
	}
}

// Reset clears the delay line.
func (p *Interpolator[T]) Reset() {
	p.window.Reset()
}
