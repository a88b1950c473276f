package nco

import (
	"math"

	"github.com/cwbudde/algo-sdr/dsp/core"
)

// Damping is the loop damping factor used to derive the PLL gains.
const Damping = math.Sqrt2 / 2

type config struct {
	maxFreq float64
	open    float64
	closed  float64
}

// Option configures an NCO.
type Option func(*config)

// WithMaxFrequency limits the frequency magnitude in radians per step.
func WithMaxFrequency(f float64) Option {
	return func(cfg *config) {
		if f > 0 {
			cfg.maxFreq = f
		}
	}
}

// WithBandwidths sets the acquisition (open) and tracking (closed) loop
// bandwidths, normalized to the step rate.
func WithBandwidths(open, closed float64) Option {
	return func(cfg *config) {
		if open > 0 {
			cfg.open = open
		}
		if closed > 0 {
			cfg.closed = closed
		}
	}
}

func defaultConfig() config {
	return config{
		maxFreq: math.Pi / 2,
		open:    0.05,
		closed:  0.02,
	}
}

// NCO is a numerically controlled oscillator with a PLL.
type NCO struct {
	cfg config

	phase float64
	freq  float64

	bw    float64
	alpha float64 // frequency gain
	beta  float64 // phase gain
}

// New returns an oscillator at zero phase and frequency with the loop open.
func New(opts ...Option) *NCO {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	n := &NCO{cfg: cfg}
	n.SetBandwidth(cfg.open)
	return n
}

// Phase returns the current phase in (-pi, pi].
func (n *NCO) Phase() float64 { return n.phase }

// Frequency returns the current frequency in radians per step.
func (n *NCO) Frequency() float64 { return n.freq }

// MaxFrequency returns the frequency clamp.
func (n *NCO) MaxFrequency() float64 { return n.cfg.maxFreq }

// SetPhase sets the phase.
func (n *NCO) SetPhase(theta float64) {
	n.phase = core.WrapPhase(theta)
}

// AdjustPhase adds dtheta to the phase.
func (n *NCO) AdjustPhase(dtheta float64) {
	n.phase = core.WrapPhase(n.phase + dtheta)
}

// SetFrequency sets the frequency, clamped to the configured maximum.
func (n *NCO) SetFrequency(f float64) {
	n.freq = core.Clamp(f, -n.cfg.maxFreq, n.cfg.maxFreq)
}

// AdjustFrequency adds df to the frequency.
func (n *NCO) AdjustFrequency(df float64) {
	n.SetFrequency(n.freq + df)
}

// Step advances the phase by one frequency increment.
func (n *NCO) Step() {
	n.phase = core.WrapPhase(n.phase + n.freq)
}

// MixDown rotates x by the negative oscillator phase.
func (n *NCO) MixDown(x complex128) complex128 {
	return x * core.Expj(-n.phase)
}

// MixUp rotates x by the oscillator phase.
func (n *NCO) MixUp(x complex128) complex128 {
	return x * core.Expj(n.phase)
}

// Bandwidth returns the current loop bandwidth.
func (n *NCO) Bandwidth() float64 { return n.bw }

// SetBandwidth sets the loop bandwidth and derives the filter gains:
// phase gain 2*zeta*bw, frequency gain bw^2.
func (n *NCO) SetBandwidth(bw float64) {
	if bw < 0 {
		bw = 0
	}
	n.bw = bw
	n.beta = 2 * Damping * bw
	n.alpha = bw * bw
}

// OpenBandwidth switches to the acquisition bandwidth.
func (n *NCO) OpenBandwidth() { n.SetBandwidth(n.cfg.open) }

// CloseBandwidth switches to the tracking bandwidth.
func (n *NCO) CloseBandwidth() { n.SetBandwidth(n.cfg.closed) }

// PLLStep updates frequency and phase from a phase error measured against
// the current oscillator output. A positive error means the input leads.
func (n *NCO) PLLStep(err float64) {
	if math.IsNaN(err) || math.IsInf(err, 0) {
		return
	}
	n.AdjustFrequency(n.alpha * err)
	n.AdjustPhase(n.beta * err)
}

// Reset zeroes phase and frequency and reopens the loop.
func (n *NCO) Reset() {
	n.phase = 0
	n.freq = 0
	n.OpenBandwidth()
}
