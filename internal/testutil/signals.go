package testutil

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
)

// Bytes returns n pseudo-random bytes for a fixed seed.
func Bytes(seed uint64, n int) []byte {
	rng := rand.New(rand.NewPCG(seed, 0))
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(rng.Uint32())
	}
	return out
}

// Tone returns n samples of a complex exponential advancing dphi radians
// per sample.
func Tone(dphi, amplitude float64, n int) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = cmplx.Rect(amplitude, dphi*float64(i))
	}
	return out
}

// Impulse returns a unit impulse at pos.
func Impulse(n, pos int) []complex128 {
	out := make([]complex128, n)
	if pos >= 0 && pos < n {
		out[pos] = 1
	}
	return out
}

// Concat joins sample blocks into one slice.
func Concat(blocks ...[]complex128) []complex128 {
	n := 0
	for _, b := range blocks {
		n += len(b)
	}
	out := make([]complex128, 0, n)
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out
}

// Power returns the mean power of x.
func Power(x []complex128) float64 {
	if len(x) == 0 {
		return 0
	}
	var p float64
	for _, v := range x {
		p += real(v)*real(v) + imag(v)*imag(v)
	}
	return p / float64(len(x))
}

// Finite reports whether every value is neither NaN nor Inf.
func Finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
