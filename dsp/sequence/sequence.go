// Package sequence generates maximal-length binary sequences
// (m-sequences) with a linear-feedback shift register.
package sequence

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidDegree is returned for an unsupported register length.
var ErrInvalidDegree = errors.New("sequence: degree must be in [2, 16]")

// primitive lists one primitive polynomial per degree, with the x^degree
// term included (bit degree set).
var primitive = map[int]uint32{
	2:  0x7,     // x^2 + x + 1
	3:  0xb,     // x^3 + x + 1
	4:  0x13,    // x^4 + x + 1
	5:  0x25,    // x^5 + x^2 + 1
	6:  0x43,    // x^6 + x + 1
	7:  0x89,    // x^7 + x^3 + 1
	8:  0x11d,   // x^8 + x^4 + x^3 + x^2 + 1
	9:  0x211,   // x^9 + x^4 + 1
	10: 0x409,   // x^10 + x^3 + 1
	11: 0x805,   // x^11 + x^2 + 1
	12: 0x1053,  // x^12 + x^6 + x^4 + x + 1
	13: 0x201b,  // x^13 + x^4 + x^3 + x + 1
	14: 0x4443,  // x^14 + x^10 + x^6 + x + 1
	15: 0x8003,  // x^15 + x + 1
	16: 0x1100b, // x^16 + x^12 + x^3 + x + 1
}

// MSequence is a Fibonacci LFSR. The register holds the last degree output
// bits, newest in bit 0.
type MSequence struct {
	degree int
	mask   uint32
	taps   uint32
	init   uint32
	state  uint32
}

// New returns a generator for the polynomial poly of the given degree,
// starting from a non-zero state.
func New(degree int, poly, state uint32) (*MSequence, error) {
	if degree < 2 || degree > 16 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDegree, degree)
	}
	if poly>>degree != 1 {
		return nil, fmt.Errorf("sequence: polynomial %#x is not of degree %d", poly, degree)
	}
	mask := uint32(1)<<degree - 1
	if state&mask == 0 {
		return nil, fmt.Errorf("sequence: initial state must be non-zero")
	}

	// a[n+d] = sum c_i a[n+i]; a[n+i] sits at register bit d-1-i
	var taps uint32
	for i := range degree {
		if poly>>i&1 == 1 {
			taps |= 1 << (degree - 1 - i)
		}
	}

	return &MSequence{
		degree: degree,
		mask:   mask,
		taps:   taps,
		init:   state & mask,
		state:  state & mask,
	}, nil
}

// Default returns a generator with the built-in primitive polynomial for
// degree, starting from state 1.
func Default(degree int) (*MSequence, error) {
	poly, ok := primitive[degree]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDegree, degree)
	}
	return New(degree, poly, 1)
}

// Next advances the register and returns the new bit.
func (s *MSequence) Next() uint8 {
	b := uint32(bits.OnesCount32(s.state&s.taps) & 1)
	s.state = (s.state<<1 | b) & s.mask
	return uint8(b)
}

// Period returns 2^degree - 1.
func (s *MSequence) Period() int {
	return int(s.mask)
}

// Degree returns the register length.
func (s *MSequence) Degree() int {
	return s.degree
}

// Reset restores the initial state.
func (s *MSequence) Reset() {
	s.state = s.init
}

// DegreeFor returns the smallest supported degree whose period is at
// least n.
func DegreeFor(n int) int {
	d := 2
	for d < 16 && (1<<d)-1 < n {
		d++
	}
	return d
}

// Preamble returns n BPSK symbols (+1 or -1) from the default m-sequence
// long enough to cover n; longer requests wrap around the period.
func Preamble(n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("preamble length must be > 0: %d", n)
	}
	s, err := Default(DegreeFor(n))
	if err != nil {
		return nil, err
	}
	p := make([]float64, n)
	for i := range p {
		if s.Next() == 1 {
			p[i] = 1
		} else {
			p[i] = -1
		}
	}
	return p, nil
}
