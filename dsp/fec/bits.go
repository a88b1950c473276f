package fec

// bitWriter packs values MSB first into a zeroed buffer.
type bitWriter struct {
	buf []byte
	pos int
}

func (w *bitWriter) write(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		if v>>i&1 == 1 {
			w.buf[w.pos>>3] |= 0x80 >> (w.pos & 7)
		}
		w.pos++
	}
}

// bitReader reads values MSB first.
type bitReader struct {
	buf []byte
	pos int
}

func (r *bitReader) read(n int) uint32 {
	var v uint32
	for range n {
		v = v<<1 | uint32(r.buf[r.pos>>3]>>(7-r.pos&7)&1)
		r.pos++
	}
	return v
}
