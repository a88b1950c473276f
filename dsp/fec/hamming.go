package fec

// hamming implements single-error-correcting Hamming codes, optionally
// extended with an overall parity bit (SECDED).
//
// Codeword position p (1..n) is kept in bit p of a word; parity bits sit at
// the powers of two and data bits fill the rest in ascending order. The
// extended code keeps the overall parity in bit 0.
type hamming struct {
	scheme Scheme
	n      int // positions
	k      int // data bits per word
	secded bool
	data   []int // data positions
}

func newHamming(s Scheme, n, k int, secded bool) *hamming {
	h := &hamming{scheme: s, n: n, k: k, secded: secded}
	for p := 1; p <= n; p++ {
		if p&(p-1) != 0 {
			h.data = append(h.data, p)
		}
	}
	return h
}

func (h *hamming) Scheme() Scheme { return h.scheme }

func (h *hamming) width() int {
	if h.secded {
		return h.n + 1
	}
	return h.n
}

func (h *hamming) EncodedLen(n int) int {
	bits := n * (8 / h.k) * h.width()
	return (bits + 7) / 8
}

func (h *hamming) encodeWord(d uint32) uint32 {
	var w uint32
	for i, p := range h.data {
		if d>>(h.k-1-i)&1 == 1 {
			w |= 1 << p
		}
	}
	// parity bit 2^i covers every position with bit i set
	syn := h.syndrome(w)
	for b := 1; b <= h.n; b <<= 1 {
		if syn&uint32(b) != 0 {
			w |= 1 << b
		}
	}
	if h.secded && parity(w) == 1 {
		w |= 1
	}
	return w
}

func (h *hamming) syndrome(w uint32) uint32 {
	var s uint32
	for p := 1; p <= h.n; p++ {
		if w>>p&1 == 1 {
			s ^= uint32(p)
		}
	}
	return s
}

func (h *hamming) decodeWord(w uint32) uint32 {
	s := h.syndrome(w)
	switch {
	case h.secded:
		// odd overall parity means one error; even parity with a non-zero
		// syndrome is an uncorrectable double error
		if parity(w) == 1 && s != 0 && int(s) <= h.n {
			w ^= 1 << s
		}
	case s != 0 && int(s) <= h.n:
		w ^= 1 << s
	}

	var d uint32
	for i, p := range h.data {
		if w>>p&1 == 1 {
			d |= 1 << (h.k - 1 - i)
		}
	}
	return d
}

// wire maps a word to its transmitted bits, MSB first: positions n..1,
// then the overall parity for the extended code.
func (h *hamming) wire(w uint32) uint32 {
	if h.secded {
		return w
	}
	return w >> 1
}

func (h *hamming) unwire(v uint32) uint32 {
	if h.secded {
		return v
	}
	return v << 1
}

func (h *hamming) Encode(dst, msg []byte) {
	clear(dst[:h.EncodedLen(len(msg))])
	bw := bitWriter{buf: dst}
	for _, b := range msg {
		for shift := 8 - h.k; shift >= 0; shift -= h.k {
			d := uint32(b>>shift) & (1<<h.k - 1)
			bw.write(h.wire(h.encodeWord(d)), h.width())
		}
	}
}

func (h *hamming) Decode(dst, enc []byte) {
	br := bitReader{buf: enc}
	for i := range dst {
		var b byte
		for shift := 8 - h.k; shift >= 0; shift -= h.k {
			w := h.unwire(br.read(h.width()))
			b |= byte(h.decodeWord(w) << shift)
		}
		dst[i] = b
	}
}

func parity(w uint32) uint32 {
	w ^= w >> 16
	w ^= w >> 8
	w ^= w >> 4
	w ^= w >> 2
	w ^= w >> 1
	return w & 1
}
