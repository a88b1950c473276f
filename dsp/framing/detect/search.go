package detect

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-sdr/dsp/core"
	"github.com/cwbudde/algo-sdr/dsp/interp"
)

// ErrShortInput is returned when the capture is shorter than the reference.
var ErrShortInput = errors.New("detect: input shorter than reference")

// Peak is one match found by Search.
type Peak struct {
	// Offset is the index of the first capture sample aligned with the
	// reference.
	Offset int
	// Tau is the fractional refinement of Offset, in [-0.5, 0.5).
	Tau float64
	// Rho is the normalized correlation.
	Rho float64
	// Phase is the carrier phase of the match in radians.
	Phase float64
	// Gamma is the linear gain of the match relative to the reference.
	Gamma float64
}

// Search correlates samples against ref and returns the peaks whose
// normalized correlation exceeds threshold, ordered by Offset. Peaks closer
// than len(ref) samples to a stronger one are suppressed.
func Search(samples, ref []complex128, threshold float64) ([]Peak, error) {
	n, m := len(samples), len(ref)
	if m == 0 {
		return nil, ErrEmptyReference
	}
	if n < m {
		return nil, fmt.Errorf("%w: %d < %d", ErrShortInput, n, m)
	}
	if !(threshold > 0 && threshold <= 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}

	corr, err := correlateFFT(samples, ref)
	if err != nil {
		return nil, err
	}

	var es float64
	for _, v := range ref {
		es += core.Abs2(v)
	}
	if es < core.PowerFloor {
		return nil, ErrEmptyReference
	}

	// sliding window energy from a running sum of |x|^2
	pw := power(samples)
	lags := n - m + 1
	rho := make([]float64, lags)
	var ex float64
	for i := range m {
		ex += pw[i]
	}
	cp := power(corr[:lags])
	for l := range lags {
		if l > 0 {
			ex += pw[l+m-1] - pw[l-1]
		}
		if ex > core.PowerFloor {
			rho[l] = math.Sqrt(cp[l] / (es * ex))
		}
	}

	var cands []int
	for l, r := range rho {
		if r <= threshold {
			continue
		}
		if (l > 0 && rho[l-1] > r) || (l+1 < lags && rho[l+1] >= r) {
			continue
		}
		cands = append(cands, l)
	}
	sort.SliceStable(cands, func(a, b int) bool { return rho[cands[a]] > rho[cands[b]] })

	var peaks []Peak
	for _, l := range cands {
		suppressed := false
		for _, p := range peaks {
			if abs(p.Offset-l) < m {
				suppressed = true
				break
			}
		}
		if suppressed {
			continue
		}

		var y0, y2 float64
		if l > 0 {
			y0 = rho[l-1]
		}
		if l+1 < lags {
			y2 = rho[l+1]
		}
		tau, _ := interp.ParabolicPeak(y0, rho[l], y2)
		peaks = append(peaks, Peak{
			Offset: l,
			Tau:    tau,
			Rho:    rho[l],
			Phase:  core.Arg(corr[l]),
			Gamma:  cmplx.Abs(corr[l]) / es,
		})
	}
	sort.Slice(peaks, func(a, b int) bool { return peaks[a].Offset < peaks[b].Offset })
	return peaks, nil
}

// correlateFFT returns c[l] = sum_j x[l+j] * conj(r[j]) for every lag
// l in [0, len(x)-len(r)].
func correlateFFT(x, r []complex128) ([]complex128, error) {
	size := max(nextPowerOf2(len(x)), 8)
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("detect: failed to create FFT plan: %w", err)
	}

	xp := make([]complex128, size)
	rp := make([]complex128, size)
	copy(xp, x)
	copy(rp, r)

	xf := make([]complex128, size)
	rf := make([]complex128, size)
	if err := plan.Forward(xf, xp); err != nil {
		return nil, fmt.Errorf("detect: forward FFT failed: %w", err)
	}
	if err := plan.Forward(rf, rp); err != nil {
		return nil, fmt.Errorf("detect: forward FFT failed: %w", err)
	}

	for i := range xf {
		xf[i] *= cmplx.Conj(rf[i])
	}

	out := make([]complex128, size)
	if err := plan.Inverse(out, xf); err != nil {
		return nil, fmt.Errorf("detect: inverse FFT failed: %w", err)
	}
	return out[:len(x)-len(r)+1], nil
}

// power returns |x|^2 per sample.
func power(x []complex128) []float64 {
	re := make([]float64, len(x))
	im := make([]float64, len(x))
	for i, v := range x {
		re[i], im[i] = real(v), imag(v)
	}
	out := make([]float64, len(x))
	vecmath.Power(out, re, im)
	return out
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
