package core

import (
	"math"
	"math/cmplx"
)

// Complex is the set of complex sample types processed by the filters.
type Complex interface {
	~complex64 | ~complex128
}

// Float is the set of real coefficient types.
type Float interface {
	~float32 | ~float64
}

// Abs2 returns the squared magnitude of x.
func Abs2(x complex128) float64 {
	return real(x)*real(x) + imag(x)*imag(x)
}

// Expj returns exp(j*theta).
func Expj(theta float64) complex128 {
	s, c := math.Sincos(theta)
	return complex(c, s)
}

// Conj is a shorthand for cmplx.Conj.
func Conj(x complex128) complex128 {
	return cmplx.Conj(x)
}

// Arg returns the phase of x in (-pi, pi].
func Arg(x complex128) float64 {
	if x == 0 {
		return 0
	}
	return WrapPhase(cmplx.Phase(x))
}

// FromReal converts a real coefficient to the complex sample type T.
func FromReal[T Complex, C Float](c C) T {
	return T(complex(float64(c), 0))
}
