package flexframe

// readBits returns n bits of buf starting at bit pos, MSB first. Bits past
// the end of buf read as zero.
func readBits(buf []byte, pos, n int) uint {
	var v uint
	for i := range n {
		b := pos + i
		v <<= 1
		if b>>3 < len(buf) {
			v |= uint(buf[b>>3]>>(7-b&7)) & 1
		}
	}
	return v
}

// writeBits stores the low n bits of v into buf at bit pos, MSB first.
// Bits past the end of buf are dropped. buf must be zeroed beforehand.
func writeBits(buf []byte, pos, n int, v uint) {
	for i := range n {
		b := pos + i
		if b>>3 >= len(buf) {
			return
		}
		if v>>(n-1-i)&1 == 1 {
			buf[b>>3] |= 0x80 >> (b & 7)
		}
	}
}
