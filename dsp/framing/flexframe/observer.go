package flexframe

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-sdr/dsp/buffer"
	"github.com/cwbudde/algo-sdr/dsp/framing/detect"
	"github.com/cwbudde/algo-sdr/dsp/squelch"
)

// Observer receives synchronizer diagnostics. Calls are made synchronously
// from Execute and must not retain the Frame.
type Observer interface {
	// Detected is called for every accepted preamble detection.
	Detected(r detect.Result)
	// Symbol is called for every equalized header and payload symbol.
	Symbol(s State, x complex128)
	// Squelch is called when the squelch times out or reopens.
	Squelch(s squelch.Status)
	// Frame is called after the callback for each completed frame.
	Frame(f *Frame)
}

// NopObserver ignores everything. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) Detected(detect.Result)   {}
func (NopObserver) Symbol(State, complex128) {}
func (NopObserver) Squelch(squelch.Status)   {}
func (NopObserver) Frame(*Frame)             {}

// Observers fans every call out to each member in order.
type Observers []Observer

func (o Observers) Detected(r detect.Result) {
	for _, v := range o {
		v.Detected(r)
	}
}

func (o Observers) Symbol(s State, x complex128) {
	for _, v := range o {
		v.Symbol(s, x)
	}
}

func (o Observers) Squelch(s squelch.Status) {
	for _, v := range o {
		v.Squelch(s)
	}
}

func (o Observers) Frame(f *Frame) {
	for _, v := range o {
		v.Frame(f)
	}
}

// Capture records the most recent symbols, detections and frame summaries
// for offline inspection.
type Capture struct {
	symbols    *buffer.Window[complex128]
	nsym       int
	detections []detect.Result
	frames     []FrameSummary
	limit      int
}

// FrameSummary is the retained part of a Frame.
type FrameSummary struct {
	HeaderValid  bool    `yaml:"header_valid"`
	PayloadValid bool    `yaml:"payload_valid"`
	PayloadLen   int     `yaml:"payload_len"`
	Props        string  `yaml:"props,omitempty"`
	EVM          float64 `yaml:"evm_db"`
	RSSI         float64 `yaml:"rssi_db"`
	CFO          float64 `yaml:"cfo"`
	Err          string  `yaml:"error,omitempty"`
}

// NewCapture keeps the last limit symbols, detections and frames.
func NewCapture(limit int) (*Capture, error) {
	w, err := buffer.NewWindow[complex128](limit)
	if err != nil {
		return nil, fmt.Errorf("flexframe: capture: %w", err)
	}
	return &Capture{symbols: w, limit: limit}, nil
}

func (c *Capture) Detected(r detect.Result) {
	c.detections = appendLimited(c.detections, r, c.limit)
}

func (c *Capture) Symbol(_ State, x complex128) {
	c.symbols.Push(x)
	c.nsym++
}

func (c *Capture) Squelch(squelch.Status) {}

func (c *Capture) Frame(f *Frame) {
	s := FrameSummary{
		HeaderValid:  f.HeaderValid,
		PayloadValid: f.PayloadValid,
		PayloadLen:   len(f.Payload),
		EVM:          f.Stats.EVM,
		RSSI:         f.Stats.RSSI,
		CFO:          f.Stats.CFO,
	}
	if f.HeaderValid {
		s.Props = f.Stats.Props.String()
	}
	if f.Err != nil {
		s.Err = f.Err.Error()
	}
	c.frames = appendLimited(c.frames, s, c.limit)
}

// Symbols returns the recorded symbols, oldest first.
func (c *Capture) Symbols() []complex128 {
	v := c.symbols.Read()
	return v[len(v)-min(c.nsym, len(v)):]
}

// Detections returns the recorded detections, oldest first.
func (c *Capture) Detections() []detect.Result { return c.detections }

// Frames returns the recorded frame summaries, oldest first.
func (c *Capture) Frames() []FrameSummary { return c.frames }

type captureDump struct {
	Detections []detectionDump `yaml:"detections"`
	Frames     []FrameSummary  `yaml:"frames"`
	Symbols    [][2]float64    `yaml:"symbols,flow"`
}

type detectionDump struct {
	Tau   float64 `yaml:"tau"`
	Dphi  float64 `yaml:"dphi"`
	Gamma float64 `yaml:"gamma"`
	Rho   float64 `yaml:"rho"`
}

// WriteYAML writes the capture as a YAML document. Symbols are written as
// [i, q] pairs.
func (c *Capture) WriteYAML(w io.Writer) error {
	d := captureDump{Frames: c.frames}
	for _, r := range c.detections {
		d.Detections = append(d.Detections, detectionDump{Tau: r.Tau, Dphi: r.Dphi, Gamma: r.Gamma, Rho: r.Rho})
	}
	for _, x := range c.Symbols() {
		d.Symbols = append(d.Symbols, [2]float64{real(x), imag(x)})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("flexframe: write capture: %w", err)
	}
	return enc.Close()
}

func appendLimited[T any](s []T, v T, limit int) []T {
	if len(s) == limit {
		copy(s, s[1:])
		s = s[:limit-1]
	}
	return append(s, v)
}
