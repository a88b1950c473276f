package interp

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// ParabolicPeak fits a parabola through (-1, y0), (0, y1), (1, y2) and
// returns the offset of its vertex from the middle sample together with the
// interpolated peak value. The offset is clamped to [-0.5, 0.5); when y1 is
// not a strict local maximum it is 0 and the value is y1.
func ParabolicPeak(y0, y1, y2 float64) (offset, value float64) {
	den := y0 + y2 - 2*y1
	if !(den < 0) {
		return 0, y1
	}

	offset = 0.5 * (y0 - y2) / den
	offset = math.Max(-0.5, math.Min(offset, math.Nextafter(0.5, 0)))
	value = y1 - 0.25*(y0-y2)*offset
	return offset, value
}

// FractionalDelay returns 2*half+1 taps that delay a signal by half+delay
// samples, with delay in [0, 1). The taps are a sinc shifted by delay and
// tapered by a Blackman window.
func FractionalDelay(delay float64, half int) ([]float64, error) {
	if half < 1 {
		return nil, fmt.Errorf("fractional delay half-length must be > 0: %d", half)
	}
	if delay < 0 || delay >= 1 {
		return nil, fmt.Errorf("fractional delay must be in [0, 1): %v", delay)
	}

	n := 2*half + 1
	sinc := make([]float64, n)
	win := make([]float64, n)
	span := float64(n) + 1
	for i := range n {
		t := float64(i-half) - delay
		if t == 0 {
			sinc[i] = 1
		} else {
			sinc[i] = math.Sin(math.Pi*t) / (math.Pi * t)
		}
		// window centred on the shifted peak
		p := (float64(i) + 1 - delay) / span
		win[i] = 0.42 - 0.5*math.Cos(2*math.Pi*p) + 0.08*math.Cos(4*math.Pi*p)
	}

	taps := make([]float64, n)
	vecmath.MulBlock(taps, sinc, win)

	var sum float64
	for _, v := range taps {
		sum += v
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps, nil
}
