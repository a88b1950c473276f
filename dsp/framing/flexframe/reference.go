package flexframe

import (
	"fmt"

	"github.com/cwbudde/algo-sdr/dsp/filter/fir"
	"github.com/cwbudde/algo-sdr/dsp/filter/rnyquist"
	"github.com/cwbudde/algo-sdr/dsp/sequence"
)

// Reference returns the pulse-shaped preamble a synchronizer built with
// opts correlates against. Use it with detect.Search for offline scans.
func Reference(opts ...Option) ([]complex128, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	pre, err := preamble(cfg.PreambleLen)
	if err != nil {
		return nil, err
	}
	return referenceWaveform(cfg, pre)
}

// preamble returns the n BPSK preamble symbols.
func preamble(n int) ([]complex128, error) {
	p, err := sequence.Preamble(n)
	if err != nil {
		return nil, fmt.Errorf("flexframe: preamble: %w", err)
	}
	out := make([]complex128, n)
	for i, v := range p {
		out[i] = complex(v, 0)
	}
	return out, nil
}

// referenceWaveform returns the pulse-shaped preamble as the receiver
// sees it: len(pre)*k samples with symbol i at sample i*k.
func referenceWaveform(cfg Config, pre []complex128) ([]complex128, error) {
	k, m := cfg.SamplesPerSymbol, cfg.FilterDelay
	h, err := rnyquist.Transmit(k, m, cfg.ExcessBandwidth)
	if err != nil {
		return nil, err
	}
	ip, err := fir.NewInterpolator[complex128](k, h)
	if err != nil {
		return nil, err
	}

	// m trailing zero symbols flush the filter tail of the last symbol
	out := make([]complex128, (len(pre)+m)*k)
	for i := range len(pre) + m {
		var x complex128
		if i < len(pre) {
			x = pre[i]
		}
		ip.Execute(x, out[i*k:(i+1)*k])
	}
	return out[k*m : k*m+len(pre)*k], nil
}
