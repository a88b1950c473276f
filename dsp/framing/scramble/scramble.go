// Package scramble whitens byte buffers with a fixed repeating XOR mask.
// Applying the mask twice restores the input.
package scramble

var mask = [...]byte{0xb4, 0x6a, 0x8b, 0x65}

// Apply XORs buf in place with the repeating mask.
func Apply(buf []byte) {
	for i := range buf {
		buf[i] ^= mask[i%len(mask)]
	}
}
