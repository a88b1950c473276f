package flexframe

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/cwbudde/algo-sdr/dsp/filter/rnyquist"
)

var (
	// ErrInvalidPreambleLen is returned for a preamble shorter than 8 symbols.
	ErrInvalidPreambleLen = errors.New("flexframe: preamble must be >= 8 symbols")
	// ErrInvalidBankSize is returned for a filter bank with no sub-filters.
	ErrInvalidBankSize = errors.New("flexframe: filter bank size must be >= 1")
	// ErrInvalidThreshold is returned for a detection threshold outside (0, 1].
	ErrInvalidThreshold = errors.New("flexframe: detection threshold must be in (0, 1]")
	// ErrInvalidCarrierOffset is returned for a carrier limit outside [0, pi/k).
	ErrInvalidCarrierOffset = errors.New("flexframe: carrier offset limit out of range")
	// ErrInvalidSquelch is returned for a negative timeout or a NaN threshold.
	ErrInvalidSquelch = errors.New("flexframe: invalid squelch settings")
	// ErrInvalidBandwidth is returned for a loop bandwidth outside (0, 1].
	ErrInvalidBandwidth = errors.New("flexframe: loop bandwidth must be in (0, 1]")
	// ErrInvalidPayloadLimit is returned for a negative payload limit.
	ErrInvalidPayloadLimit = errors.New("flexframe: payload limit must be >= 0")
)

// Bandwidths holds an acquisition (open) and tracking (closed) loop
// bandwidth.
type Bandwidths struct {
	Open   float64
	Closed float64
}

// Config holds the parameters shared by Generator and Synchronizer. Both
// ends of a link must agree on the pulse shape and preamble length.
type Config struct {
	SamplesPerSymbol int     // k
	FilterDelay      int     // m, in symbols
	ExcessBandwidth  float64 // beta
	PreambleLen      int     // symbols

	BankSize         int     // polyphase sub-filters for timing recovery
	Threshold        float64 // normalized preamble correlation
	MaxCarrierOffset float64 // radians per sample
	SquelchThreshold float64 // dB
	SquelchTimeout   int     // samples, 0 disables the squelch
	MaxPayloadLen    int     // encoded payload bytes, 0 means no limit

	AGC    Bandwidths
	PLL    Bandwidths
	Timing Bandwidths

	Logger   *log.Logger
	Observer Observer
}

// DefaultConfig returns the reference configuration: 2 samples per
// symbol, a 3-symbol root-raised-cosine with 35% excess bandwidth and a
// 64-symbol preamble.
func DefaultConfig() Config {
	return Config{
		SamplesPerSymbol: 2,
		FilterDelay:      3,
		ExcessBandwidth:  0.35,
		PreambleLen:      64,
		BankSize:         32,
		Threshold:        0.5,
		MaxCarrierOffset: 0.05,
		SquelchThreshold: -60,
		SquelchTimeout:   256,
		MaxPayloadLen:    0,
		AGC:              Bandwidths{Open: 1e-2, Closed: 1e-4},
		PLL:              Bandwidths{Open: 0.05, Closed: 0.02},
		Timing:           Bandwidths{Open: 0.1, Closed: 0.02},
	}
}

// Option modifies a Config. Values are checked by Validate when the
// generator or synchronizer is built.
type Option func(*Config)

// WithSamplesPerSymbol sets k.
func WithSamplesPerSymbol(k int) Option {
	return func(c *Config) { c.SamplesPerSymbol = k }
}

// WithFilter sets the pulse-shape delay m (symbols) and excess bandwidth.
func WithFilter(m int, beta float64) Option {
	return func(c *Config) {
		c.FilterDelay = m
		c.ExcessBandwidth = beta
	}
}

// WithPreambleLen sets the preamble length in symbols.
func WithPreambleLen(n int) Option {
	return func(c *Config) { c.PreambleLen = n }
}

// WithBankSize sets the number of timing-recovery sub-filters.
func WithBankSize(n int) Option {
	return func(c *Config) { c.BankSize = n }
}

// WithThreshold sets the preamble detection threshold.
func WithThreshold(t float64) Option {
	return func(c *Config) { c.Threshold = t }
}

// WithMaxCarrierOffset sets the largest accepted carrier offset in
// radians per sample.
func WithMaxCarrierOffset(dphi float64) Option {
	return func(c *Config) { c.MaxCarrierOffset = dphi }
}

// WithSquelch sets the squelch threshold (dB) and timeout (samples).
func WithSquelch(thresholdDB float64, timeout int) Option {
	return func(c *Config) {
		c.SquelchThreshold = thresholdDB
		c.SquelchTimeout = timeout
	}
}

// WithMaxPayloadLen caps the encoded payload buffer. A header announcing a
// larger payload is reported with buffer.ErrCapacityLimit.
func WithMaxPayloadLen(n int) Option {
	return func(c *Config) { c.MaxPayloadLen = n }
}

// WithAGCBandwidths sets the AGC smoothing factors.
func WithAGCBandwidths(open, closed float64) Option {
	return func(c *Config) { c.AGC = Bandwidths{Open: open, Closed: closed} }
}

// WithPLLBandwidths sets the carrier loop bandwidths.
func WithPLLBandwidths(open, closed float64) Option {
	return func(c *Config) { c.PLL = Bandwidths{Open: open, Closed: closed} }
}

// WithTimingBandwidths sets the symbol timing loop bandwidths.
func WithTimingBandwidths(open, closed float64) Option {
	return func(c *Config) { c.Timing = Bandwidths{Open: open, Closed: closed} }
}

// WithLogger sets the diagnostics logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithObserver installs a diagnostics observer.
func WithObserver(o Observer) Option {
	return func(c *Config) { c.Observer = o }
}

func newConfig(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	return cfg, nil
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	if err := rnyquist.Validate(c.SamplesPerSymbol, c.FilterDelay, c.ExcessBandwidth); err != nil {
		return fmt.Errorf("flexframe: %w", err)
	}
	if c.PreambleLen < 8 {
		return fmt.Errorf("%w: %d", ErrInvalidPreambleLen, c.PreambleLen)
	}
	if c.BankSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBankSize, c.BankSize)
	}
	if !(c.Threshold > 0 && c.Threshold <= 1) {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, c.Threshold)
	}
	if !(c.MaxCarrierOffset >= 0 && c.MaxCarrierOffset < math.Pi/float64(c.SamplesPerSymbol)) {
		return fmt.Errorf("%w: %v", ErrInvalidCarrierOffset, c.MaxCarrierOffset)
	}
	if c.SquelchTimeout < 0 || math.IsNaN(c.SquelchThreshold) {
		return fmt.Errorf("%w: threshold %v, timeout %d", ErrInvalidSquelch, c.SquelchThreshold, c.SquelchTimeout)
	}
	if c.MaxPayloadLen < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPayloadLimit, c.MaxPayloadLen)
	}
	loops := []struct {
		name string
		bw   Bandwidths
	}{{"agc", c.AGC}, {"pll", c.PLL}, {"timing", c.Timing}}
	for _, l := range loops {
		if !validBandwidth(l.bw.Open) || !validBandwidth(l.bw.Closed) {
			return fmt.Errorf("%w: %s %v/%v", ErrInvalidBandwidth, l.name, l.bw.Open, l.bw.Closed)
		}
	}
	return nil
}

func validBandwidth(bw float64) bool {
	return bw > 0 && bw <= 1
}
