// Package rnyquist designs the root-Nyquist (root-raised-cosine) pulse
// shapes shared by the frame generator and the receive filter bank.
package rnyquist

import (
	"errors"
	"fmt"
	"math"

	"github.com/racerxdl/segdsp/dsp"
)

var (
	ErrInvalidSamplesPerSymbol = errors.New("rnyquist: samples per symbol must be >= 2")
	ErrInvalidDelay            = errors.New("rnyquist: filter delay must be >= 1 symbol")
	ErrInvalidExcessBandwidth  = errors.New("rnyquist: excess bandwidth must be in (0, 1]")
	ErrInvalidBankSize         = errors.New("rnyquist: filter bank size must be >= 1")
)

// Validate checks the pulse parameters shared by Design and Transmit.
func Validate(k, m int, beta float64) error {
	if k < 2 {
		return fmt.Errorf("%w: %d", ErrInvalidSamplesPerSymbol, k)
	}
	if m < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDelay, m)
	}
	if !(beta > 0 && beta <= 1) {
		return fmt.Errorf("%w: %v", ErrInvalidExcessBandwidth, beta)
	}
	return nil
}

// Design returns a root-raised-cosine prototype sampled at k*npfb samples
// per symbol, spanning m symbols on either side of its peak. The result has
// 2*k*m*npfb+1 taps and is scaled so that its phase-0 polyphase component
// (taps 0, npfb, 2*npfb, ...) has energy k. A unit-power symbol stream shaped
// by that component therefore has unit sample power.
func Design(k, m int, beta float64, npfb int) ([]float64, error) {
	if err := Validate(k, m, beta); err != nil {
		return nil, err
	}
	if npfb < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBankSize, npfb)
	}

	n := 2*k*m*npfb + 1
	taps := dsp.MakeRRC(1, float64(k*npfb), 1, beta, n)

	h := make([]float64, n)
	for i := range h {
		if i < len(taps) {
			h[i] = float64(taps[i])
		}
	}

	var e float64
	for i := 0; i < n; i += npfb {
		e += h[i] * h[i]
	}
	if e == 0 {
		return nil, fmt.Errorf("rnyquist: degenerate prototype (k=%d m=%d beta=%v)", k, m, beta)
	}

	g := math.Sqrt(float64(k) / e)
	for i := range h {
		h[i] *= g
	}
	return h, nil
}

// Transmit returns the pulse-shaping filter at k samples per symbol,
// 2*k*m+1 taps with energy k.
func Transmit(k, m int, beta float64) ([]float64, error) {
	return Design(k, m, beta, 1)
}

// Derivative returns the central-difference derivative of h, with zeros
// assumed beyond both ends.
func Derivative(h []float64) []float64 {
	dh := make([]float64, len(h))
	for i := range h {
		var prev, next float64
		if i > 0 {
			prev = h[i-1]
		}
		if i+1 < len(h) {
			next = h[i+1]
		}
		dh[i] = (next - prev) / 2
	}
	return dh
}
