package symsync

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-sdr/dsp/core"
	"github.com/cwbudde/algo-sdr/dsp/filter/pfb"
	"github.com/cwbudde/algo-sdr/dsp/filter/rnyquist"
)

type config struct {
	npfb   int
	open   float64
	closed float64
	gain   float64
}

// Option configures a SymSync.
type Option func(*config)

// WithBankSize sets the number of polyphase sub-filters.
func WithBankSize(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.npfb = n
		}
	}
}

// WithBandwidths sets the timing-error smoothing factor used during
// acquisition (open) and tracking (closed), each in (0, 1].
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

// WithLoopGain sets the fraction of the filtered error added to the soft
// index per symbol.
func WithLoopGain(g float64) Option {
	return func(cfg *config) {
		if g > 0 && g <= 1 {
			cfg.gain = g
		}
	}
}

func defaultConfig() config {
	return config{
		npfb:   32,
		open:   0.1,
		closed: 0.02,
		gain:   0.25,
	}
}

// SymSync is a polyphase symbol synchronizer for complex baseband.
type SymSync struct {
	cfg  config
	k    int
	m    int
	npfb int

	mf  *pfb.Bank[complex128]
	dmf *pfb.Bank[complex128]

	bw    float64
	q     float64
	soft  float64
	index int
	timer int
}

// New builds a synchronizer for k samples per symbol with a root-Nyquist
// matched filter of delay m symbols and excess bandwidth beta.
func New(k, m int, beta float64, opts ...Option) (*SymSync, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	h, err := rnyquist.Design(k, m, beta, cfg.npfb)
	if err != nil {
		return nil, err
	}
	for i := range h {
		h[i] /= float64(k)
	}
	dh := rnyquist.Derivative(h)

	tx, err := rnyquist.Transmit(k, m, beta)
	if err != nil {
		return nil, err
	}
	slope, err := errorSlope(pfb.Split(h, cfg.npfb), pfb.Split(dh, cfg.npfb), tx, k*m)
	if err != nil {
		return nil, err
	}
	for i := range dh {
		dh[i] *= -1 / slope
	}

	mf, err := pfb.New[complex128](h, cfg.npfb)
	if err != nil {
		return nil, err
	}
	dmf, err := pfb.New[complex128](dh, cfg.npfb)
	if err != nil {
		return nil, err
	}

	s := &SymSync{
		cfg:  cfg,
		k:    k,
		m:    m,
		npfb: cfg.npfb,
		mf:   mf,
		dmf:  dmf,
	}
	s.Reset()
	return s, nil
}

// errorSlope measures the raw timing error one bank step either side of
// the peak of an isolated transmit pulse, normalized to unit amplitude.
func errorSlope(mf, dmf [][]float64, tx []float64, delay int) (float64, error) {
	npfb := len(mf)
	eval := func(sub []float64, n int) float64 {
		var y float64
		for j, c := range sub {
			if i := n - j; i >= 0 && i < len(tx) {
				y += c * tx[i]
			}
		}
		return y
	}
	ted := func(n, f int) float64 {
		return eval(mf[f], n) * eval(dmf[f], n)
	}

	peak := 2 * delay
	y0 := eval(mf[0], peak)
	late := ted(peak, 1)
	early := ted(peak-1, npfb-1)
	slope := (late - early) / 2 / (y0 * y0)
	if slope == 0 || math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, fmt.Errorf("symsync: degenerate timing-error slope %v", slope)
	}
	return slope, nil
}

// Push consumes one input sample. It returns a matched-filter output and
// true when a symbol is due.
func (s *SymSync) Push(x complex128) (complex128, bool) {
	s.mf.Push(x)
	s.dmf.Push(x)

	if s.timer > 0 {
		s.timer--
		return 0, false
	}

	y := s.mf.Execute(s.index)
	dy := s.dmf.Execute(s.index)

	e := real(cmplx.Conj(y) * dy)
	e = core.Clamp(e, -float64(s.npfb), float64(s.npfb))
	s.q = (1-s.bw)*s.q + s.bw*e
	s.soft += s.cfg.gain * s.q

	s.timer = s.k - 1 + s.wrap()
	return y, true
}

// wrap folds the soft index into [-0.5, npfb-0.5) so the hard index lies in
// [0, npfb). Each fold moves the next output by one input sample; the
// returned value is the net timer adjustment.
func (s *SymSync) wrap() int {
	d := 0
	n := float64(s.npfb)
	for s.soft < -0.5 {
		s.soft += n
		d--
	}
	for s.soft >= n-0.5 {
		s.soft -= n
		d++
	}
	s.index = int(math.Floor(s.soft + 0.5))
	return d
}

// SetIndex sets the filter-bank index, in [0, npfb).
func (s *SymSync) SetIndex(i int) {
	s.soft = float64(i)
	s.wrap()
}

// SetTimer sets the number of input samples skipped before the next output.
func (s *SymSync) SetTimer(n int) {
	s.timer = max(n, 0)
}

// Index returns the hard filter-bank index.
func (s *SymSync) Index() int { return s.index }

// Timer returns the number of samples remaining before the next output.
func (s *SymSync) Timer() int { return s.timer }

// Size returns the number of polyphase sub-filters.
func (s *SymSync) Size() int { return s.npfb }

// Delay returns the matched-filter delay in input samples.
func (s *SymSync) Delay() int { return s.k * s.m }

// Bandwidth returns the current loop smoothing factor.
func (s *SymSync) Bandwidth() float64 { return s.bw }

// OpenBandwidth switches to the acquisition bandwidth.
func (s *SymSync) OpenBandwidth() { s.bw = s.cfg.open }

// CloseBandwidth switches to the tracking bandwidth.
func (s *SymSync) CloseBandwidth() { s.bw = s.cfg.closed }

// IsOpen reports whether the loop is in acquisition mode.
func (s *SymSync) IsOpen() bool { return s.bw == s.cfg.open }

// Reset clears the filter banks and loop state and reopens the loop.
func (s *SymSync) Reset() {
	s.mf.Reset()
	s.dmf.Reset()
	s.q = 0
	s.soft = 0
	s.index = 0
	s.timer = 0
	s.OpenBandwidth()
}
