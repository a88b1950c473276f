// Package packetizer protects a fixed-length message for transmission:
// CRC append, scrambling, outer FEC, inner FEC and interleaving. Decoding
// runs the same stages in reverse and reports whether the CRC matched.
package packetizer

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-sdr/dsp/crc"
	"github.com/cwbudde/algo-sdr/dsp/fec"
	"github.com/cwbudde/algo-sdr/dsp/framing/interleave"
	"github.com/cwbudde/algo-sdr/dsp/framing/scramble"
)

// ErrLength is returned when a buffer does not match the configured size.
var ErrLength = errors.New("packetizer: buffer length mismatch")

// EncodedLength returns the codeword length for an n-byte message.
// It returns 0 when a scheme is unknown.
func EncodedLength(n int, check crc.Scheme, fec0, fec1 fec.Scheme) int {
	if !check.Valid() || !fec0.Valid() || !fec1.Valid() || n < 0 {
		return 0
	}
	k := n + crc.Size(check)
	return fec.EncodedLen(fec0, fec.EncodedLen(fec1, k))
}

// Packetizer encodes and decodes messages of one length and scheme set.
type Packetizer struct {
	n      int
	check  crc.Scheme
	fec0   fec.Scheme
	fec1   fec.Scheme
	inner  fec.Codec
	outer  fec.Codec
	il     *interleave.Interleaver
	plain  []byte // message + key
	middle []byte // after the outer code
	coded  []byte
}

// New returns a packetizer for n-byte messages. fec0 is the inner code
// (applied last), fec1 the outer code.
func New(n int, check crc.Scheme, fec0, fec1 fec.Scheme) (*Packetizer, error) {
	if n < 0 {
		return nil, fmt.Errorf("packetizer: message length must be >= 0: %d", n)
	}
	if !check.Valid() {
		return nil, fmt.Errorf("%w: %v", crc.ErrUnknownScheme, check)
	}
	inner, err := fec.New(fec0)
	if err != nil {
		return nil, fmt.Errorf("packetizer: inner code: %w", err)
	}
	outer, err := fec.New(fec1)
	if err != nil {
		return nil, fmt.Errorf("packetizer: outer code: %w", err)
	}

	k := n + crc.Size(check)
	k1 := outer.EncodedLen(k)
	k0 := inner.EncodedLen(k1)
	il, err := interleave.New(k0)
	if err != nil {
		return nil, err
	}

	return &Packetizer{
		n:      n,
		check:  check,
		fec0:   fec0,
		fec1:   fec1,
		inner:  inner,
		outer:  outer,
		il:     il,
		plain:  make([]byte, 0, k),
		middle: make([]byte, k1),
		coded:  make([]byte, k0),
	}, nil
}

// MsgLen returns the message length in bytes.
func (p *Packetizer) MsgLen() int { return p.n }

// EncodedLen returns the codeword length in bytes.
func (p *Packetizer) EncodedLen() int { return len(p.coded) }

// CRC returns the error-detection scheme.
func (p *Packetizer) CRC() crc.Scheme { return p.check }

// FEC0 returns the inner code.
func (p *Packetizer) FEC0() fec.Scheme { return p.fec0 }

// FEC1 returns the outer code.
func (p *Packetizer) FEC1() fec.Scheme { return p.fec1 }

// Matches reports whether p was built for the given parameters.
func (p *Packetizer) Matches(n int, check crc.Scheme, fec0, fec1 fec.Scheme) bool {
	return p.n == n && p.check == check && p.fec0 == fec0 && p.fec1 == fec1
}

// Encode writes the codeword for msg into dst.
func (p *Packetizer) Encode(dst, msg []byte) error {
	if len(msg) != p.n {
		return fmt.Errorf("%w: message %d, want %d", ErrLength, len(msg), p.n)
	}
	if len(dst) != len(p.coded) {
		return fmt.Errorf("%w: codeword %d, want %d", ErrLength, len(dst), len(p.coded))
	}

	p.plain = crc.Append(p.check, p.plain[:0], msg)
	scramble.Apply(p.plain)
	p.outer.Encode(p.middle, p.plain)
	p.inner.Encode(dst, p.middle)
	p.il.Permute(dst)
	return nil
}

// Decode recovers the message from enc into dst and reports whether the
// CRC matched. enc is not modified.
func (p *Packetizer) Decode(dst, enc []byte) (bool, error) {
	if len(enc) != len(p.coded) {
		return false, fmt.Errorf("%w: codeword %d, want %d", ErrLength, len(enc), len(p.coded))
	}
	if len(dst) != p.n {
		return false, fmt.Errorf("%w: message %d, want %d", ErrLength, len(dst), p.n)
	}

	copy(p.coded, enc)
	p.il.Depermute(p.coded)
	p.inner.Decode(p.middle, p.coded)
	p.plain = p.plain[:p.n+crc.Size(p.check)]
	p.outer.Decode(p.plain, p.middle)
	scramble.Apply(p.plain)

	copy(dst, p.plain[:p.n])
	return crc.Check(p.check, p.plain), nil
}
