package flexframe

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/cwbudde/algo-sdr/dsp/buffer"
	"github.com/cwbudde/algo-sdr/dsp/filter/fir"
	"github.com/cwbudde/algo-sdr/dsp/filter/rnyquist"
	"github.com/cwbudde/algo-sdr/dsp/framing/packetizer"
	"github.com/cwbudde/algo-sdr/dsp/modem"
)

// Generator assembles frames into pulse-shaped baseband samples.
//
// A frame is the preamble, HeaderSymbols BPSK header symbols, the payload
// symbols and 2*m zero symbols that flush the transmit filter, each
// interpolated to k samples. The samples of the last Assemble stay valid
// until the next call.
type Generator struct {
	cfg Config
	log *log.Logger

	preamble []complex128
	interp   *fir.Interpolator[complex128]
	bpsk     *modem.Modem
	mod      *modem.Modem

	hdrPkt *packetizer.Packetizer
	pkt    *packetizer.Packetizer
	hdr    [HeaderDecLen]byte
	hdrEnc [HeaderEncLen]byte
	enc    *buffer.Buffer[byte]

	symbols *buffer.Buffer[complex128]
	samples *buffer.Buffer[complex128]
}

// NewGenerator returns a generator for the given link configuration.
func NewGenerator(opts ...Option) (*Generator, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	pre, err := preamble(cfg.PreambleLen)
	if err != nil {
		return nil, err
	}
	h, err := rnyquist.Transmit(cfg.SamplesPerSymbol, cfg.FilterDelay, cfg.ExcessBandwidth)
	if err != nil {
		return nil, err
	}
	ip, err := fir.NewInterpolator[complex128](cfg.SamplesPerSymbol, h)
	if err != nil {
		return nil, err
	}
	bpsk, err := modem.New(modem.BPSK)
	if err != nil {
		return nil, err
	}
	hp, err := newHeaderPacketizer()
	if err != nil {
		return nil, err
	}

	return &Generator{
		cfg:      cfg,
		log:      cfg.Logger,
		preamble: pre,
		interp:   ip,
		bpsk:     bpsk,
		hdrPkt:   hp,
		enc:      buffer.New[byte](0),
		symbols:  buffer.New[complex128](0),
		samples:  buffer.New[complex128](0),
	}, nil
}

// Assemble encodes one frame. header holds up to HeaderUserLen user bytes,
// zero padded; payload may be empty.
func (g *Generator) Assemble(header, payload []byte, p Properties) error {
	if len(header) > HeaderUserLen {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLong, len(header))
	}
	if len(payload) > MaxPayloadLen {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(payload))
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if g.pkt == nil || !g.pkt.Matches(len(payload), p.CRC, p.FEC0, p.FEC1) {
		pkt, err := packetizer.New(len(payload), p.CRC, p.FEC0, p.FEC1)
		if err != nil {
			return fmt.Errorf("flexframe: %w", err)
		}
		g.pkt = pkt
	}
	if g.mod == nil || g.mod.Scheme() != p.Mod {
		mod, err := modem.New(p.Mod)
		if err != nil {
			return fmt.Errorf("flexframe: %w", err)
		}
		g.mod = mod
	}

	packHeader(&g.hdr, header, len(payload), p)
	if err := g.hdrPkt.Encode(g.hdrEnc[:], g.hdr[:]); err != nil {
		return fmt.Errorf("flexframe: header: %w", err)
	}
	if err := g.enc.Resize(g.pkt.EncodedLen()); err != nil {
		return err
	}
	enc := g.enc.Samples()
	if err := g.pkt.Encode(enc, payload); err != nil {
		return fmt.Errorf("flexframe: payload: %w", err)
	}

	bps := g.mod.BitsPerSymbol()
	nsym := payloadSymbols(len(enc), bps)
	m := g.cfg.FilterDelay
	total := len(g.preamble) + HeaderSymbols + nsym + 2*m
	if err := g.symbols.Resize(total); err != nil {
		return err
	}
	syms := g.symbols.Samples()

	n := copy(syms, g.preamble)
	for i := range HeaderSymbols {
		syms[n] = g.bpsk.Modulate(readBits(g.hdrEnc[:], i, 1))
		n++
	}
	for i := range nsym {
		syms[n] = g.mod.Modulate(readBits(enc, i*bps, bps))
		n++
	}
	clear(syms[n:])

	k := g.cfg.SamplesPerSymbol
	if err := g.samples.Resize(total * k); err != nil {
		return err
	}
	g.interp.Reset()
	g.interp.ExecuteBlock(g.samples.Samples(), syms)

	g.log.Debug("assembled frame", "payload", len(payload), "encoded", len(enc),
		"symbols", total, "props", p)
	return nil
}

// Samples returns the samples of the last assembled frame.
func (g *Generator) Samples() []complex128 {
	return g.samples.Samples()
}

// FrameLen returns the number of samples of the last assembled frame.
func (g *Generator) FrameLen() int {
	return g.samples.Len()
}

// Config returns the generator configuration.
func (g *Generator) Config() Config {
	return g.cfg
}
