package flexframe

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/charmbracelet/log"

	"github.com/cwbudde/algo-sdr/dsp/agc"
	"github.com/cwbudde/algo-sdr/dsp/buffer"
	"github.com/cwbudde/algo-sdr/dsp/core"
	"github.com/cwbudde/algo-sdr/dsp/framing/detect"
	"github.com/cwbudde/algo-sdr/dsp/framing/packetizer"
	"github.com/cwbudde/algo-sdr/dsp/modem"
	"github.com/cwbudde/algo-sdr/dsp/nco"
	"github.com/cwbudde/algo-sdr/dsp/squelch"
	"github.com/cwbudde/algo-sdr/dsp/symsync"
)

// ErrNoCallback is returned by NewSynchronizer for a nil callback.
var ErrNoCallback = errors.New("flexframe: callback must not be nil")

type detector interface {
	Push(x complex128) (detect.Result, bool)
	Feed(x complex128)
	Reset()
}

// Synchronizer recovers frames from a continuous sample stream.
type Synchronizer struct {
	cfg Config
	cb  Callback
	log *log.Logger
	obs Observer

	preamble []complex128
	ref      []complex128
	energy   float64

	det     detector
	agc     *agc.AGC
	coarse  *nco.NCO // carrier from the detector, per sample
	fine    *nco.NCO // residual carrier PLL, per symbol
	sync    *symsync.SymSync
	squelch *squelch.Squelch
	replay  *buffer.Window[complex128]

	state State
	rssi  float64

	pn  []complex128
	npn int
	amp float64

	bpsk   *modem.Modem
	hdrPkt *packetizer.Packetizer
	hdrEnc [HeaderEncLen]byte
	hdrDec [HeaderDecLen]byte
	nhdr   int

	mod     *modem.Modem
	pkt     *packetizer.Packetizer
	enc     *buffer.Buffer[byte]
	dec     *buffer.Buffer[byte]
	syms    [MaxStatsSymbols]complex128
	npay    int
	paySyms int

	evm  float64
	nevm int

	frame Frame
	stats Stats
}

// NewSynchronizer returns a synchronizer in DETECT that calls cb for every
// received frame.
func NewSynchronizer(cb Callback, opts ...Option) (*Synchronizer, error) {
	if cb == nil {
		return nil, ErrNoCallback
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	k, m := cfg.SamplesPerSymbol, cfg.FilterDelay

	pre, err := preamble(cfg.PreambleLen)
	if err != nil {
		return nil, err
	}
	ref, err := referenceWaveform(cfg, pre)
	if err != nil {
		return nil, err
	}
	det, err := detect.New(ref, cfg.Threshold, cfg.MaxCarrierOffset, detect.WithDebounce(k))
	if err != nil {
		return nil, fmt.Errorf("flexframe: %w", err)
	}
	ss, err := symsync.New(k, m, cfg.ExcessBandwidth,
		symsync.WithBankSize(cfg.BankSize),
		symsync.WithBandwidths(cfg.Timing.Open, cfg.Timing.Closed))
	if err != nil {
		return nil, fmt.Errorf("flexframe: %w", err)
	}
	sq, err := squelch.New(cfg.SquelchThreshold, cfg.SquelchTimeout)
	if err != nil {
		return nil, fmt.Errorf("flexframe: %w", err)
	}
	// detector window, plus the matched filter span and one symbol of lag
	replay, err := buffer.NewWindow[complex128](len(ref) + 2*k*m + k)
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

	var energy float64
	for _, v := range ref {
		energy += core.Abs2(v)
	}

	s := &Synchronizer{
		cfg:      cfg,
		cb:       cb,
		log:      cfg.Logger,
		obs:      cfg.Observer,
		preamble: pre,
		ref:      ref,
		energy:   energy,
		det:      det,
		agc:      agc.New(agc.WithBandwidths(cfg.AGC.Open, cfg.AGC.Closed)),
		coarse:   nco.New(nco.WithMaxFrequency(math.Pi / float64(k))),
		fine:     nco.New(nco.WithBandwidths(cfg.PLL.Open, cfg.PLL.Closed)),
		sync:     ss,
		squelch:  sq,
		replay:   replay,
		pn:       make([]complex128, len(pre)),
		bpsk:     bpsk,
		hdrPkt:   hp,
		enc:      buffer.NewLimited[byte](cfg.MaxPayloadLen),
		dec:      buffer.NewLimited[byte](cfg.MaxPayloadLen),
	}
	s.Reset()
	return s, nil
}

// Config returns the synchronizer configuration.
func (s *Synchronizer) Config() Config { return s.cfg }

// State returns the current state.
func (s *Synchronizer) State() State { return s.state }

// Stats returns the cumulative counters.
func (s *Synchronizer) Stats() Stats { return s.stats }

// Reference returns the preamble waveform the detector correlates against.
// The slice must not be modified.
func (s *Synchronizer) Reference() []complex128 { return s.ref }

// Reset drops any frame in progress and returns to DETECT with the AGC at
// unity level. Counters are kept.
func (s *Synchronizer) Reset() {
	s.agc.Reset()
	s.restart()
}

// restart reopens the loops and clears per-frame state. The AGC keeps its
// level.
func (s *Synchronizer) restart() {
	s.agc.OpenBandwidth()
	s.coarse.Reset()
	s.fine.Reset()
	s.sync.Reset()
	s.det.Reset()
	s.squelch.Reset()
	s.replay.Reset()

	s.npn, s.nhdr, s.npay, s.paySyms = 0, 0, 0, 0
	s.amp = 1
	s.evm, s.nevm = 0, 0
	clear(s.hdrEnc[:])
	s.state = StateDetect
}

// Execute processes a block of samples. Frames are reported through the
// callback as they complete.
func (s *Synchronizer) Execute(samples []complex128) {
	for _, x := range samples {
		s.step(x)
	}
}

func (s *Synchronizer) step(x complex128) {
	switch s.state {
	case StateReset:
		s.restart()
		s.detect(x)
	case StateDetect:
		s.detect(x)
	default:
		s.track(s.agc.Execute(x))
	}
}

func (s *Synchronizer) detect(x complex128) {
	s.replay.Push(x)
	s.agc.Execute(x)

	switch st := s.squelch.Update(s.agc.RSSI()); st {
	case squelch.StatusTimeout:
		s.stats.SquelchTimeouts++
		s.agc.OpenBandwidth()
		s.coarse.Reset()
		s.fine.Reset()
		s.sync.Reset()
		s.det.Reset()
		s.det.Feed(x)
		s.log.Debug("squelch timeout", "rssi", s.agc.RSSI())
		s.obs.Squelch(st)
		return
	case squelch.StatusMuted:
		s.det.Feed(x)
		return
	case squelch.StatusRise:
		s.log.Debug("squelch open", "rssi", s.agc.RSSI())
		s.obs.Squelch(st)
	}

	if r, ok := s.det.Push(x); ok {
		s.acquire(r)
	}
}

// acquire seeds the loops from a detection and replays the buffered
// samples so the first preamble symbol is not lost.
func (s *Synchronizer) acquire(r detect.Result) {
	s.stats.Detections++
	s.obs.Detected(r)

	k, m := s.cfg.SamplesPerSymbol, s.cfg.FilterDelay
	npfb := s.cfg.BankSize
	n := len(s.ref)

	// first preamble sample, in replay buffer coordinates
	b0 := float64(s.replay.Len()-n-r.Lag) + r.Tau
	fl := math.Floor(b0)
	idx := int(math.Round((b0 - fl) * float64(npfb)))
	if idx == npfb {
		fl++
		idx = 0
	}
	s.sync.SetIndex(idx)
	s.sync.SetTimer(int(fl) + k*m)
	s.sync.CloseBandwidth()

	s.agc.SetLevel(r.Gamma * r.Gamma * s.energy / float64(n))
	s.agc.CloseBandwidth()
	s.rssi = s.agc.RSSI()

	s.coarse.Reset()
	s.coarse.SetFrequency(r.Dphi)

	s.log.Debug("frame detected", "tau", r.Tau, "dphi", r.Dphi, "gamma", r.Gamma,
		"rho", r.Rho, "rssi", s.rssi)

	s.state = StateRxHeader
	for _, v := range s.replay.Read() {
		s.track(s.agc.Apply(v))
	}
}

// track runs one gain-corrected sample through the coarse carrier mixer
// and timing recovery.
func (s *Synchronizer) track(v complex128) {
	y := s.coarse.MixDown(v)
	s.coarse.Step()

	sym, ok := s.sync.Push(y)
	if !ok {
		return
	}

	switch s.state {
	case StateRxHeader:
		if s.npn < len(s.pn) {
			s.pn[s.npn] = sym
			s.npn++
			if s.npn == len(s.pn) {
				s.fitPreamble()
			}
			return
		}
		s.rxHeader(sym)
	case StateRxPayload:
		s.rxPayload(sym)
	}
}

// fitPreamble estimates the residual carrier frequency, phase and
// amplitude from the received preamble symbols and seeds the PLL.
func (s *Synchronizer) fitPreamble() {
	for i, p := range s.preamble {
		s.pn[i] *= p
	}

	var metric complex128
	for i := 1; i < len(s.pn); i++ {
		metric += s.pn[i] * cmplx.Conj(s.pn[i-1])
	}
	w := core.Arg(metric)

	var theta complex128
	for i, v := range s.pn {
		theta += v * core.Expj(-w*float64(i))
	}
	p := float64(len(s.pn))
	s.amp = cmplx.Abs(theta) / p
	if s.amp < 1e-6 {
		s.amp = 1
	}

	s.fine.SetFrequency(w)
	s.fine.SetPhase(core.Arg(theta) + w*p)
	s.fine.CloseBandwidth()

	s.log.Debug("preamble fit", "dphi", w, "phase", core.Arg(theta), "amp", s.amp)
}

// demod equalizes one symbol, makes a decision with m and steps the PLL.
func (s *Synchronizer) demod(m *modem.Modem, y complex128) (complex128, uint) {
	z := s.fine.MixDown(y) / complex(s.amp, 0)
	sym, perr := m.Demodulate(z)
	s.fine.PLLStep(perr)
	s.fine.Step()

	s.evm += core.Abs2(z - m.Reference())
	s.nevm++
	s.obs.Symbol(s.state, z)
	return z, sym
}

func (s *Synchronizer) rxHeader(y complex128) {
	_, sym := s.demod(s.bpsk, y)
	writeBits(s.hdrEnc[:], s.nhdr, 1, sym)
	s.nhdr++
	if s.nhdr == HeaderSymbols {
		s.decodeHeader()
	}
}

func (s *Synchronizer) decodeHeader() {
	s.frame = Frame{Stats: FrameStats{RSSI: s.rssi}}
	f := &s.frame

	ok, err := s.hdrPkt.Decode(s.hdrDec[:], s.hdrEnc[:])
	if err != nil || !ok {
		s.dropHeader(err)
		return
	}
	user, n, p, err := unpackHeader(&s.hdrDec)
	f.Header = user
	if err != nil {
		s.dropHeader(err)
		return
	}
	f.HeaderValid = true
	f.Stats.Props = p
	s.stats.HeadersValid++

	if s.pkt == nil || !s.pkt.Matches(n, p.CRC, p.FEC0, p.FEC1) {
		pkt, err := packetizer.New(n, p.CRC, p.FEC0, p.FEC1)
		if err != nil {
			s.dropPayload(err)
			return
		}
		s.pkt = pkt
	}
	if s.mod == nil || s.mod.Scheme() != p.Mod {
		mod, err := modem.New(p.Mod)
		if err != nil {
			s.dropPayload(err)
			return
		}
		s.mod = mod
	}

	encLen := s.pkt.EncodedLen()
	grew := encLen > s.enc.Cap()
	if err := s.enc.Resize(encLen); err != nil {
		s.dropPayload(err)
		return
	}
	if err := s.dec.Resize(n); err != nil {
		s.dropPayload(err)
		return
	}
	if grew {
		s.log.Debug("payload buffer grown", "cap", s.enc.Cap())
	}
	s.enc.Zero()

	s.npay = 0
	s.paySyms = payloadSymbols(encLen, s.mod.BitsPerSymbol())
	s.log.Debug("header received", "payload", n, "props", p, "symbols", s.paySyms)

	s.state = StateRxPayload
	if s.paySyms == 0 {
		s.decodePayload()
	}
}

// dropHeader reports a header that failed its check or announced an
// unsupported configuration.
func (s *Synchronizer) dropHeader(err error) {
	s.stats.HeadersInvalid++
	if err != nil {
		s.stats.Errors++
		s.frame.Err = err
	}
	s.log.Debug("header invalid", "err", err)
	s.finish()
}

// dropPayload reports a valid header whose payload cannot be received.
func (s *Synchronizer) dropPayload(err error) {
	s.stats.Errors++
	s.frame.Err = fmt.Errorf("flexframe: payload: %w", err)
	s.log.Debug("payload dropped", "err", err)
	s.finish()
}

func (s *Synchronizer) rxPayload(y complex128) {
	z, sym := s.demod(s.mod, y)
	bps := s.mod.BitsPerSymbol()
	writeBits(s.enc.Samples(), s.npay*bps, bps, sym)
	if s.npay < len(s.syms) {
		s.syms[s.npay] = z
	}
	s.npay++
	if s.npay == s.paySyms {
		s.decodePayload()
	}
}

func (s *Synchronizer) decodePayload() {
	f := &s.frame
	dec := s.dec.Samples()
	ok, err := s.pkt.Decode(dec, s.enc.Samples())
	if err != nil {
		s.stats.Errors++
		f.Err = err
	}
	f.Payload = dec
	f.PayloadValid = ok && err == nil
	f.Stats.NumSymbols = s.npay
	f.Stats.Symbols = s.syms[:min(s.npay, len(s.syms))]

	if f.PayloadValid {
		s.stats.PayloadsValid++
	} else {
		s.stats.PayloadsInvalid++
	}
	s.log.Debug("payload received", "len", len(dec), "valid", f.PayloadValid)
	s.finish()
}

// finish fills the quality figures, dispatches the frame and leaves the
// synchronizer in RESET.
func (s *Synchronizer) finish() {
	f := &s.frame
	f.Stats.EVM = core.PowerToDB(s.evm / float64(max(s.nevm, 1)))
	f.Stats.CFO = s.coarse.Frequency() + s.fine.Frequency()/float64(s.cfg.SamplesPerSymbol)

	s.cb(f)
	s.obs.Frame(f)
	s.frame.Payload = nil
	s.state = StateReset
}
