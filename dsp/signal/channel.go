package signal

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-sdr/dsp/core"
	"github.com/cwbudde/algo-sdr/dsp/filter/fir"
	"github.com/cwbudde/algo-sdr/dsp/interp"
)

// ErrLength is returned when Apply is given slices of different lengths.
var ErrLength = errors.New("signal: dst and src lengths differ")

// delayHalf is the half-length of the fractional delay filter; the
// channel delays every signal by delayHalf whole samples plus the
// configured fraction.
const delayHalf = 8

type config struct {
	gain  float64
	dphi  float64
	phase float64
	delay float64
	snr   float64
	seed  uint64
}

// Option configures a Channel.
type Option func(*config)

// WithGain sets the linear amplitude gain.
func WithGain(g float64) Option {
	return func(cfg *config) { cfg.gain = g }
}

// WithCarrierOffset sets the carrier frequency offset in radians per sample.
func WithCarrierOffset(dphi float64) Option {
	return func(cfg *config) { cfg.dphi = dphi }
}

// WithPhase sets the initial carrier phase in radians.
func WithPhase(theta float64) Option {
	return func(cfg *config) { cfg.phase = theta }
}

// WithDelay sets the fractional timing delay in [0, 1) samples.
func WithDelay(d float64) Option {
	return func(cfg *config) { cfg.delay = d }
}

// WithSNR enables noise at the given signal-to-noise ratio in dB for a
// unit-power input. +Inf disables noise.
func WithSNR(db float64) Option {
	return func(cfg *config) { cfg.snr = db }
}

// WithSeed sets the noise seed.
func WithSeed(seed uint64) Option {
	return func(cfg *config) { cfg.seed = seed }
}

func defaultConfig() config {
	return config{
		gain: 1,
		snr:  math.Inf(1),
		seed: 1,
	}
}

// Channel applies impairments to a sample stream. State carries over
// between calls, so a long signal may be processed in blocks.
type Channel struct {
	cfg   config
	delay *fir.Filter[complex128]
	noise *distuv.Normal
	phase float64
}

// NewChannel returns a channel. Without options it is a pure delay of
// Delay() samples.
func NewChannel(opts ...Option) (*Channel, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if math.IsNaN(cfg.gain) || math.IsInf(cfg.gain, 0) {
		return nil, fmt.Errorf("channel gain must be finite: %v", cfg.gain)
	}
	if math.IsNaN(cfg.dphi) || math.Abs(cfg.dphi) >= math.Pi {
		return nil, fmt.Errorf("carrier offset must be in (-pi, pi): %v", cfg.dphi)
	}
	if math.IsNaN(cfg.snr) {
		return nil, fmt.Errorf("snr must be a number")
	}
	taps, err := interp.FractionalDelay(cfg.delay, delayHalf)
	if err != nil {
		return nil, fmt.Errorf("signal: %w", err)
	}

	c := &Channel{
		cfg:   cfg,
		delay: fir.New[complex128](taps),
	}
	if !math.IsInf(cfg.snr, 1) {
		sigma := cfg.gain * math.Sqrt(core.DBToPower(-cfg.snr)/2)
		c.noise = &distuv.Normal{Mu: 0, Sigma: sigma}
	}
	c.Reset()
	return c, nil
}

// Delay returns the whole-sample delay added by the channel.
func (c *Channel) Delay() int {
	return delayHalf
}

// Apply writes the impaired src into dst. dst and src may be the same
// slice.
func (c *Channel) Apply(dst, src []complex128) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: %d != %d", ErrLength, len(dst), len(src))
	}
	g := complex(c.cfg.gain, 0)
	for i, x := range src {
		y := g * c.delay.ProcessSample(x) * core.Expj(c.phase)
		c.phase = core.WrapPhase(c.phase + c.cfg.dphi)
		if c.noise != nil {
			y += complex(c.noise.Rand(), c.noise.Rand())
		}
		dst[i] = y
	}
	return nil
}

// Process returns a new slice holding the impaired src.
func (c *Channel) Process(src []complex128) []complex128 {
	dst := make([]complex128, len(src))
	_ = c.Apply(dst, src)
	return dst
}

// Reset restores the initial phase, clears the delay line and reseeds
// the noise.
func (c *Channel) Reset() {
	c.delay.Reset()
	c.phase = core.WrapPhase(c.cfg.phase)
	if c.noise != nil {
		c.noise.Src = rand.NewPCG(c.cfg.seed, c.cfg.seed^0x9e3779b97f4a7c15)
	}
}
