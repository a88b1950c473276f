// Package agc implements automatic gain control for complex baseband
// samples.
//
// The AGC tracks the mean signal power with a first-order IIR filter and
// applies gain 1/sqrt(level), normalizing the output toward unit power. Two
// bandwidths are configured: a fast one for acquisition and a slow one for
// tracking once a frame is locked.
package agc

import (
	"math"

	"github.com/cwbudde/algo-sdr/dsp/core"
)

type config struct {
	open    float64
	closed  float64
	maxGain float64
}

// Option configures an AGC.
type Option func(*config)

// WithBandwidths sets the open (acquisition) and closed (tracking) smoothing
// factors, each in (0, 1].
func WithBandwidths(open, closed float64) Option {
	return func(cfg *config) {
		if open > 0 && open <= 1 {
			cfg.open = open
		}
		if closed > 0 && closed <= 1 {
			cfg.closed = closed
		}
	}
}

// WithMaxGain limits the linear gain.
func WithMaxGain(g float64) Option {
	return func(cfg *config) {
		if g > 0 {
			cfg.maxGain = g
		}
	}
}

func defaultConfig() config {
	return config{
		open:    1e-2,
		closed:  1e-4,
		maxGain: 1e6,
	}
}

// AGC tracks signal level and normalizes amplitude.
type AGC struct {
	cfg   config
	bw    float64
	level float64
	gain  float64
}

// New returns an AGC in acquisition mode at unit level.
func New(opts ...Option) *AGC {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	a := &AGC{cfg: cfg}
	a.Reset()
	return a
}

// Execute applies the current gain to x, then updates the level estimate.
func (a *AGC) Execute(x complex128) complex128 {
	y := a.Apply(x)
	a.SetLevel((1-a.bw)*a.level + a.bw*core.Abs2(x))
	return y
}

// Apply scales x by the current gain without updating the estimate.
func (a *AGC) Apply(x complex128) complex128 {
	return x * complex(a.gain, 0)
}

// Level returns the tracked signal power.
func (a *AGC) Level() float64 { return a.level }

// Gain returns the current linear gain.
func (a *AGC) Gain() float64 { return a.gain }

// RSSI returns the signal level in dB, always finite.
func (a *AGC) RSSI() float64 { return core.PowerToDB(a.level) }

// SetLevel overrides the tracked signal power. Values are floored at
// core.PowerFloor.
func (a *AGC) SetLevel(level float64) {
	if math.IsNaN(level) || level < core.PowerFloor {
		level = core.PowerFloor
	}
	if math.IsInf(level, 1) {
		level = math.MaxFloat64
	}
	a.level = level
	a.gain = math.Min(1/math.Sqrt(level), a.cfg.maxGain)
}

// Bandwidth returns the current smoothing factor.
func (a *AGC) Bandwidth() float64 { return a.bw }

// OpenBandwidth switches to the acquisition bandwidth.
func (a *AGC) OpenBandwidth() { a.bw = a.cfg.open }

// CloseBandwidth switches to the tracking bandwidth.
func (a *AGC) CloseBandwidth() { a.bw = a.cfg.closed }

// IsOpen reports whether the AGC is in acquisition mode.
func (a *AGC) IsOpen() bool { return a.bw == a.cfg.open }

// Reset restores unit level and the acquisition bandwidth.
func (a *AGC) Reset() {
	a.SetLevel(1)
	a.OpenBandwidth()
}
