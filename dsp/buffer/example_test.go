package buffer_test

import (
	"fmt"

	"github.com/cwbudde/algo-sdr/dsp/buffer"
)

func ExampleWindow() {
	w, _ := buffer.NewWindow[float64](3)
	for _, x := range []float64{1, 2, 3, 4, 5} {
		w.Push(x)
	}
	fmt.Println(w.Read())

	// Output:
	// [3 4 5]
}

func ExampleBuffer_Reserve() {
	b := buffer.NewLimited[byte](8)
	fmt.Println(b.Reserve(4))
	fmt.Println(b.Reserve(9))

	// Output:
	// <nil>
	// buffer: capacity limit exceeded: need 9, limit 8
}
