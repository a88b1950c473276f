package agc

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cwbudde/algo-sdr/dsp/core"
)

func TestConvergesToUnitPower(t *testing.T) {
	a := New(WithBandwidths(0.05, 0.001))
	const amp = 0.1

	var y complex128
	for i := range 2000 {
		y = a.Execute(core.Expj(0.1*float64(i)) * amp)
	}

	assert.InDelta(t, 1, cmplx.Abs(y), 1e-3)
	assert.InDelta(t, amp*amp, a.Level(), 1e-6)
	assert.InDelta(t, -20, a.RSSI(), 1e-3)
}

func TestApplyDoesNotUpdate(t *testing.T) {
	a := New()
	a.SetLevel(4)
	y := a.Apply(2)
	assert.Equal(t, complex128(1), y)
	assert.Equal(t, 4.0, a.Level())
	assert.Equal(t, 0.5, a.Gain())
}

func TestBandwidthModes(t *testing.T) {
	a := New(WithBandwidths(0.1, 0.01))
	assert.True(t, a.IsOpen())
	a.CloseBandwidth()
	assert.False(t, a.IsOpen())
	assert.Equal(t, 0.01, a.Bandwidth())
	a.Reset()
	assert.True(t, a.IsOpen())
	assert.Equal(t, 1.0, a.Level())
}

func TestSilenceKeepsRSSIFinite(t *testing.T) {
	a := New(WithBandwidths(0.5, 0.5), WithMaxGain(1e3))
	for range 500 {
		a.Execute(0)
	}
	rssi := a.RSSI()
	assert.False(t, math.IsInf(rssi, 0) || math.IsNaN(rssi))
	assert.Equal(t, 1e3, a.Gain())

	a.SetLevel(math.NaN())
	assert.Equal(t, core.PowerFloor, a.Level())
}
