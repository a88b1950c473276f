package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// writeCF32 writes x as little-endian interleaved float32 I/Q, the layout
// most SDR tools read as "cf32".
func writeCF32(w io.Writer, x []complex128) error {
	buf := make([]byte, 8*len(x))
	for i, v := range x {
		binary.LittleEndian.PutUint32(buf[8*i:], math.Float32bits(float32(real(v))))
		binary.LittleEndian.PutUint32(buf[8*i+4:], math.Float32bits(float32(imag(v))))
	}
	_, err := w.Write(buf)
	return err
}

func readCF32(r io.Reader) ([]complex128, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("cf32: length %d is not a multiple of 8", len(buf))
	}
	x := make([]complex128, len(buf)/8)
	for i := range x {
		re := math.Float32frombits(binary.LittleEndian.Uint32(buf[8*i:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(buf[8*i+4:]))
		x[i] = complex(float64(re), float64(im))
	}
	return x, nil
}
