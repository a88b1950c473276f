// Package link summarizes frame-level link quality over a run: how many
// frames arrived intact and the spread of their EVM, RSSI and carrier
// offset estimates.
package link

import (
	"math"

	"github.com/cwbudde/algo-sdr/dsp/framing/flexframe"
)

// Summary describes the distribution of one per-frame figure.
type Summary struct {
	N    int     `yaml:"n"`
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std"` // population standard deviation
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// Accumulator collects a Summary one value at a time using Welford's
// update. Non-finite values are ignored.
type Accumulator struct {
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64
}

// Add includes x.
func (a *Accumulator) Add(x float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return
	}
	a.n++
	delta := x - a.mean
	a.mean += delta / float64(a.n)
	a.m2 += delta * (x - a.mean)

	if a.n == 1 || x < a.min {
		a.min = x
	}
	if a.n == 1 || x > a.max {
		a.max = x
	}
}

// Result returns the summary so far. Every field is zero before the first
// Add.
func (a *Accumulator) Result() Summary {
	if a.n == 0 {
		return Summary{}
	}
	return Summary{
		N:    a.n,
		Mean: a.mean,
		Std:  math.Sqrt(a.m2 / float64(a.n)),
		Min:  a.min,
		Max:  a.max,
	}
}

// Reset clears all accumulated data.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

// Report is the link summary of a run.
type Report struct {
	Frames         int     `yaml:"frames"`
	HeadersInvalid int     `yaml:"headers_invalid"`
	PayloadsValid  int     `yaml:"payloads_valid"`
	Errors         int     `yaml:"errors"`
	FrameErrorRate float64 `yaml:"frame_error_rate"`
	EVM            Summary `yaml:"evm_db"`
	RSSI           Summary `yaml:"rssi_db"`
	CFO            Summary `yaml:"cfo"`
}

// Tracker is a flexframe.Observer that accumulates a Report. Quality
// figures are taken from frames with a valid header only, since the
// others stop before the payload.
type Tracker struct {
	flexframe.NopObserver

	frames  int
	badHdr  int
	payload int
	errs    int
	evm     Accumulator
	rssi    Accumulator
	cfo     Accumulator
}

func (t *Tracker) Frame(f *flexframe.Frame) {
	t.frames++
	if f.Err != nil {
		t.errs++
	}
	if !f.HeaderValid {
		t.badHdr++
		return
	}
	if f.PayloadValid {
		t.payload++
	}
	t.evm.Add(f.Stats.EVM)
	t.rssi.Add(f.Stats.RSSI)
	t.cfo.Add(f.Stats.CFO)
}

// Report returns the summary. sent is the number of frames transmitted;
// frames that were never detected count as errors. A sent of 0 uses the
// number of frames seen.
func (t *Tracker) Report(sent int) Report {
	if sent <= 0 {
		sent = t.frames
	}
	r := Report{
		Frames:         t.frames,
		HeadersInvalid: t.badHdr,
		PayloadsValid:  t.payload,
		Errors:         t.errs,
		EVM:            t.evm.Result(),
		RSSI:           t.rssi.Result(),
		CFO:            t.cfo.Result(),
	}
	if sent > 0 {
		r.FrameErrorRate = 1 - float64(min(t.payload, sent))/float64(sent)
	}
	return r
}

// Reset clears all accumulated data.
func (t *Tracker) Reset() {
	*t = Tracker{}
}
