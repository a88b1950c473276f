package fir_test

import (
	"fmt"

	"github.com/cwbudde/algo-sdr/dsp/filter/fir"
)

func ExampleFilter_ProcessSample() {
	// 3-tap moving average filter.
	f := fir.New[complex128]([]float64{1.0 / 3, 1.0 / 3, 1.0 / 3})

	input := []complex128{0, 1, 2i, 3}
	for i, x := range input {
		y := f.ProcessSample(x)
		fmt.Printf("y[%d] = %.4f\n", i, y)
	}
	// Output:
	// y[0] = (0.0000+0.0000i)
	// y[1] = (0.3333+0.0000i)
	// y[2] = (0.3333+0.6667i)
	// y[3] = (1.3333+0.6667i)
}

func ExampleInterpolator() {
	p, _ := fir.NewInterpolator[complex128](2, []float64{0.5, 1, 0.5})

	out := make([]complex128, 2)
	for _, x := range []complex128{1, 0} {
		p.Execute(x, out)
		fmt.Println(real(out[0]), real(out[1]))
	}
	// Output:
	// 0.5 1
	// 0.5 0
}
