package detect

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-sdr/dsp/buffer"
	"github.com/cwbudde/algo-sdr/dsp/core"
	"github.com/cwbudde/algo-sdr/dsp/interp"
)

var (
	// ErrEmptyReference is returned for a zero-length or zero-energy reference.
	ErrEmptyReference = errors.New("detect: empty reference")
	// ErrInvalidThreshold is returned for a threshold outside (0, 1].
	ErrInvalidThreshold = errors.New("detect: threshold must be in (0, 1]")
	// ErrInvalidOffset is returned for a negative or non-finite carrier limit.
	ErrInvalidOffset = errors.New("detect: carrier offset limit must be in [0, pi)")
)

// Result describes one detected preamble.
type Result struct {
	// Tau is the fractional timing offset of the correlation peak, in
	// [-0.5, 0.5) samples, relative to the peak sample.
	Tau float64
	// Dphi is the carrier offset in radians per sample.
	Dphi float64
	// Gamma is the linear channel gain.
	Gamma float64
	// Rho is the normalized correlation at the peak sample.
	Rho float64
	// Lag is the number of samples pushed after the peak sample.
	Lag int
}

type config struct {
	debounce int
	step     float64
}

// Option configures a Detector.
type Option func(*config)

// WithDebounce sets how many samples must pass without a higher
// correlation before a peak is reported.
func WithDebounce(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.debounce = n
		}
	}
}

// WithFrequencyStep sets the template spacing in units of 1/len(ref)
// radians per sample. Smaller steps mean more templates and less loss
// between them.
func WithFrequencyStep(step float64) Option {
	return func(cfg *config) {
		if step > 0 {
			cfg.step = step
		}
	}
}

func defaultConfig() config {
	return config{
		debounce: 2,
		step:     3.2,
	}
}

type state int

const (
	stateSeek state = iota
	stateFindMax
)

// Detector correlates a stream against a reference waveform one sample at
// a time.
type Detector struct {
	cfg       config
	n         int
	threshold float64
	dphiMax   float64
	energy    float64

	offsets []float64
	cre     [][]float64 // conjugated templates, real parts
	cim     [][]float64 // conjugated templates, imaginary parts

	re   *buffer.Window[float64]
	im   *buffer.Window[float64]
	fill int

	state state
	prev  float64 // correlation of the previous sample
	y0    float64
	y1    float64
	y2    float64
	count int
	est   Result
}

// New returns a detector for ref. threshold is the normalized correlation
// (0, 1] a peak must exceed; dphiMax bounds the accepted carrier offset in
// radians per sample and sets the span of the template bank.
func New(ref []complex128, threshold, dphiMax float64, opts ...Option) (*Detector, error) {
	if len(ref) == 0 {
		return nil, ErrEmptyReference
	}
	if !(threshold > 0 && threshold <= 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	if !(dphiMax >= 0 && dphiMax < math.Pi) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOffset, dphiMax)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	n := len(ref)
	var energy float64
	for _, v := range ref {
		energy += core.Abs2(v)
	}
	if energy < core.PowerFloor {
		return nil, ErrEmptyReference
	}

	step := cfg.step / float64(n)
	span := int(math.Ceil(dphiMax/step - 1e-9))
	d := &Detector{
		cfg:       cfg,
		n:         n,
		threshold: threshold,
		dphiMax:   dphiMax,
		energy:    energy,
	}
	for j := -span; j <= span; j++ {
		w := float64(j) * step
		re := make([]float64, n)
		im := make([]float64, n)
		for i, v := range ref {
			c := cmplx.Conj(v * core.Expj(w*float64(i)))
			re[i], im[i] = real(c), imag(c)
		}
		d.offsets = append(d.offsets, w)
		d.cre = append(d.cre, re)
		d.cim = append(d.cim, im)
	}

	var err error
	if d.re, err = buffer.NewWindow[float64](n); err != nil {
		return nil, err
	}
	if d.im, err = buffer.NewWindow[float64](n); err != nil {
		return nil, err
	}
	return d, nil
}

// Len returns the reference length in samples.
func (d *Detector) Len() int { return d.n }

// Energy returns the reference energy.
func (d *Detector) Energy() float64 { return d.energy }

// Threshold returns the detection threshold.
func (d *Detector) Threshold() float64 { return d.threshold }

// Templates returns the number of frequency-shifted templates.
func (d *Detector) Templates() int { return len(d.offsets) }

// Feed adds x to the window without correlating. Use it to keep the window
// current while detection is gated off.
func (d *Detector) Feed(x complex128) {
	d.push(x)
	d.prev = 0
}

func (d *Detector) push(x complex128) {
	d.re.Push(real(x))
	d.im.Push(imag(x))
	if d.fill < d.n {
		d.fill++
	}
}

// Push adds x and correlates. It returns a result and true once per peak,
// Lag samples after the peak itself.
func (d *Detector) Push(x complex128) (Result, bool) {
	d.push(x)
	if d.fill < d.n {
		return Result{}, false
	}

	rho, j, rxy := d.correlate()
	r, ok := d.track(rho, j, rxy)
	d.prev = rho
	return r, ok
}

// track runs the peak search on one correlation value.
func (d *Detector) track(rho float64, j int, rxy complex128) (Result, bool) {
	switch d.state {
	case stateSeek:
		if rho > d.threshold {
			d.state = stateFindMax
			d.take(rho, j, rxy)
		}
	case stateFindMax:
		if rho > d.y1 {
			d.take(rho, j, rxy)
			break
		}
		if d.count == 0 {
			d.y2 = rho
		}
		d.count++
		if d.count < d.cfg.debounce {
			break
		}

		r := d.est
		r.Tau, _ = interp.ParabolicPeak(d.y0, d.y1, d.y2)
		r.Lag = d.count
		d.state = stateSeek
		d.y1 = 0
		d.count = 0
		if math.Abs(r.Dphi) > d.dphiMax {
			return Result{}, false
		}
		return r, true
	}
	return Result{}, false
}

// correlate returns the best normalized correlation over the template bank,
// its template index and the raw correlation.
func (d *Detector) correlate() (float64, int, complex128) {
	xr, xi := d.re.Read(), d.im.Read()
	ex := floats.Dot(xr, xr) + floats.Dot(xi, xi)
	if ex < core.PowerFloor {
		return 0, 0, 0
	}
	norm := math.Sqrt(d.energy * ex)

	best, bestRho := 0, -1.0
	var bestRxy complex128
	for j := range d.offsets {
		cr, ci := d.cre[j], d.cim[j]
		rxy := complex(floats.Dot(xr, cr)-floats.Dot(xi, ci), floats.Dot(xr, ci)+floats.Dot(xi, cr))
		if rho := cmplx.Abs(rxy) / norm; rho > bestRho {
			best, bestRho, bestRxy = j, rho, rxy
		}
	}
	return bestRho, best, bestRxy
}

// take records a new maximum and the estimates made at it.
func (d *Detector) take(rho float64, j int, rxy complex128) {
	d.y0 = d.prev
	d.y1 = rho
	d.count = 0

	// The carrier residual against template j is the phase advance between
	// the two halves of the de-rotated window.
	xr, xi := d.re.Read(), d.im.Read()
	cr, ci := d.cre[j], d.cim[j]
	half := d.n / 2
	var a, b complex128
	for i := range 2 * half {
		z := complex(xr[i]*cr[i]-xi[i]*ci[i], xr[i]*ci[i]+xi[i]*cr[i])
		if i < half {
			a += z
		} else {
			b += z
		}
	}
	resid := 0.0
	if half > 0 {
		resid = core.Arg(b*cmplx.Conj(a)) / float64(half)
	}

	d.est = Result{
		Dphi:  d.offsets[j] + resid,
		Gamma: cmplx.Abs(rxy) / d.energy,
		Rho:   rho,
	}
}

// Reset clears the window and the peak search.
func (d *Detector) Reset() {
	d.re.Reset()
	d.im.Reset()
	d.fill = 0
	d.state = stateSeek
	d.prev = 0
	d.y0, d.y1, d.y2 = 0, 0, 0
	d.count = 0
	d.est = Result{}
}
