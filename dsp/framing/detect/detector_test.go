package detect

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-sdr/dsp/core"
	"github.com/cwbudde/algo-sdr/dsp/filter/fir"
	"github.com/cwbudde/algo-sdr/dsp/filter/rnyquist"
	"github.com/cwbudde/algo-sdr/dsp/sequence"
)

const (
	testK = 2
	testM = 3
)

// reference shapes a 64-symbol preamble at testK samples per symbol,
// aligned so that symbol i peaks at sample i*testK.
func reference(t testing.TB) []complex128 {
	t.Helper()
	pre, err := sequence.Preamble(64)
	require.NoError(t, err)
	h, err := rnyquist.Transmit(testK, testM, 0.35)
	require.NoError(t, err)
	ip, err := fir.NewInterpolator[complex128](testK, h)
	require.NoError(t, err)

	var out []complex128
	buf := make([]complex128, testK)
	for i := range len(pre) + testM {
		var x complex128
		if i < len(pre) {
			x = complex(pre[i], 0)
		}
		ip.Execute(x, buf)
		out = append(out, buf...)
	}
	return out[testK*testM : testK*testM+len(pre)*testK]
}

// embed places gain*ref*exp(j(phase+dphi*n)) at offset start of an
// n-sample capture with complex Gaussian noise of the given deviation.
func embed(ref []complex128, n, start int, gain, phase, dphi, sigma float64, seed uint64) []complex128 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]complex128, n)
	for i := range out {
		if sigma > 0 {
			out[i] = complex(rng.NormFloat64()*sigma, rng.NormFloat64()*sigma)
		}
		if j := i - start; j >= 0 && j < len(ref) {
			out[i] += complex(gain, 0) * ref[j] * core.Expj(phase+dphi*float64(i))
		}
	}
	return out
}

type detection struct {
	at int
	r  Result
}

func run(d *Detector, x []complex128) []detection {
	var out []detection
	for i, v := range x {
		if r, ok := d.Push(v); ok {
			out = append(out, detection{at: i, r: r})
		}
	}
	return out
}

func TestNewValidation(t *testing.T) {
	ref := reference(t)

	_, err := New(nil, 0.5, 0.05)
	assert.ErrorIs(t, err, ErrEmptyReference)
	_, err = New(make([]complex128, 8), 0.5, 0.05)
	assert.ErrorIs(t, err, ErrEmptyReference)
	_, err = New(ref, 0, 0.05)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
	_, err = New(ref, 1.5, 0.05)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
	_, err = New(ref, 0.5, -0.1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
	_, err = New(ref, 0.5, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidOffset)

	d, err := New(ref, 0.5, 0.05)
	require.NoError(t, err)
	assert.Equal(t, len(ref), d.Len())
	assert.Equal(t, 5, d.Templates())
	assert.InDelta(t, 0.5, d.Threshold(), 0)

	d, err = New(ref, 0.5, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Templates())
}

func TestDetectsCleanPreamble(t *testing.T) {
	ref := reference(t)
	d, err := New(ref, 0.5, 0.05, WithDebounce(testK))
	require.NoError(t, err)

	const start = 150
	x := embed(ref, 600, start, 0.5, 1.0, 0, 0, 1)
	got := run(d, x)
	require.Len(t, got, 1)

	det := got[0]
	assert.Equal(t, testK, det.r.Lag)
	assert.Equal(t, start+len(ref)-1, det.at-det.r.Lag)
	assert.InDelta(t, 0, det.r.Tau, 0.05)
	assert.InDelta(t, 0, det.r.Dphi, 1e-6)
	assert.InDelta(t, 0.5, det.r.Gamma, 1e-6)
	assert.InDelta(t, 1, det.r.Rho, 1e-6)
}

func TestEstimatesCarrierOffset(t *testing.T) {
	ref := reference(t)
	for _, dphi := range []float64{-0.04, -0.01, 0.01, 0.03} {
		d, err := New(ref, 0.5, 0.05, WithDebounce(testK))
		require.NoError(t, err)

		x := embed(ref, 700, 200, 1, -2.0, dphi, 0.05, 7)
		got := run(d, x)
		require.Len(t, got, 1, "dphi %v", dphi)
		assert.InDelta(t, dphi, got[0].r.Dphi, 2e-3, "dphi %v", dphi)
		assert.Greater(t, got[0].r.Gamma, 0.8)
		assert.Less(t, got[0].r.Gamma, 1.1)
	}
}

func TestRejectsOffsetBeyondLimit(t *testing.T) {
	ref := reference(t)
	d, err := New(ref, 0.5, 0, WithDebounce(testK))
	require.NoError(t, err)

	x := embed(ref, 600, 100, 1, 0, 0.01, 0, 1)
	assert.Empty(t, run(d, x))
}

func TestIgnoresNoise(t *testing.T) {
	ref := reference(t)
	d, err := New(ref, 0.5, 0.05)
	require.NoError(t, err)

	x := embed(ref, 5000, 10000, 0, 0, 0, 1, 3)
	assert.Empty(t, run(d, x))
}

func TestFractionalTiming(t *testing.T) {
	ref := reference(t)
	d, err := New(ref, 0.5, 0.05, WithDebounce(testK))
	require.NoError(t, err)

	// half-sample delay by linear interpolation of the reference
	shifted := make([]complex128, len(ref))
	for i := range ref {
		prev := complex128(0)
		if i > 0 {
			prev = ref[i-1]
		}
		shifted[i] = (ref[i] + prev) / 2
	}
	const start = 120
	x := embed(shifted, 500, start, 1, 0, 0, 0, 1)
	got := run(d, x)
	require.Len(t, got, 1)

	peak := float64(got[0].at-got[0].r.Lag) + got[0].r.Tau
	assert.InDelta(t, float64(start+len(ref)-1)+0.5, peak, 0.15)
}

func TestFeedFillsWindowWithoutDetecting(t *testing.T) {
	ref := reference(t)
	d, err := New(ref, 0.5, 0.05, WithDebounce(testK))
	require.NoError(t, err)

	const start = 50
	x := embed(ref, 400, start, 1, 0, 0, 0, 1)
	split := start + len(ref) - 4
	for _, v := range x[:split] {
		d.Feed(v)
	}
	got := run(d, x[split:])
	require.Len(t, got, 1)
	assert.Equal(t, start+len(ref)-1, split+got[0].at-got[0].r.Lag)

	d.Reset()
	for _, v := range x {
		d.Feed(v)
	}
	_, ok := d.Push(0)
	assert.False(t, ok)
}

func TestResetClearsPeakSearch(t *testing.T) {
	ref := reference(t)
	d, err := New(ref, 0.5, 0.05, WithDebounce(8))
	require.NoError(t, err)

	const start = 50
	x := embed(ref, 400, start, 1, 0, 0, 0, 1)
	peak := start + len(ref) - 1
	for _, v := range x[:peak+2] {
		_, ok := d.Push(v)
		require.False(t, ok)
	}
	d.Reset()
	for _, v := range x[peak+2:] {
		_, ok := d.Push(v)
		assert.False(t, ok)
	}
}

func TestGammaTracksAmplitude(t *testing.T) {
	ref := reference(t)
	for _, g := range []float64{0.01, 0.3, 4} {
		d, err := New(ref, 0.5, 0.05, WithDebounce(testK))
		require.NoError(t, err)
		got := run(d, embed(ref, 400, 60, g, 0.7, 0, 0, 1))
		require.Len(t, got, 1)
		assert.InDelta(t, g, got[0].r.Gamma, g*1e-6)
		assert.InDelta(t, 0, got[0].r.Dphi, 1e-6)
	}
}
