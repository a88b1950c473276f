// Package interleave spreads burst errors across a codeword with a
// bit-level permutation.
//
// Bit b of an n-byte buffer moves to position (b*step) mod 8n, where step
// is odd and coprime to n, so the mapping is a bijection. Adjacent input
// bits land roughly sqrt(8n) positions apart.
package interleave

import "fmt"

// Interleaver permutes buffers of a fixed length.
type Interleaver struct {
	n    int
	perm []int // output bit index for each input bit
	tmp  []byte
}

// New returns an interleaver for n-byte buffers.
func New(n int) (*Interleaver, error) {
	if n < 0 {
		return nil, fmt.Errorf("interleaver length must be >= 0: %d", n)
	}
	bits := 8 * n
	step := 1
	if bits > 1 {
		for step*step < bits {
			step++
		}
		step |= 1
		for gcd(step, bits) != 1 {
			step += 2
		}
	}

	perm := make([]int, bits)
	for b := range perm {
		perm[b] = b * step % bits
	}
	return &Interleaver{n: n, perm: perm, tmp: make([]byte, n)}, nil
}

// Len returns the buffer length in bytes.
func (it *Interleaver) Len() int { return it.n }

// Permute interleaves buf in place. buf must hold Len() bytes.
func (it *Interleaver) Permute(buf []byte) {
	it.check(buf)
	clear(it.tmp)
	for b, p := range it.perm {
		if buf[b>>3]&(0x80>>(b&7)) != 0 {
			it.tmp[p>>3] |= 0x80 >> (p & 7)
		}
	}
	copy(buf, it.tmp)
}

// Depermute reverses Permute in place.
func (it *Interleaver) Depermute(buf []byte) {
	it.check(buf)
	clear(it.tmp)
	for b, p := range it.perm {
		if buf[p>>3]&(0x80>>(p&7)) != 0 {
			it.tmp[b>>3] |= 0x80 >> (b & 7)
		}
	}
	copy(buf, it.tmp)
}

func (it *Interleaver) check(buf []byte) {
	if len(buf) != it.n {
		panic(fmt.Sprintf("interleave: buffer length %d, want %d", len(buf), it.n))
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
