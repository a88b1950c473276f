package flexframe

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-sdr/dsp/crc"
	"github.com/cwbudde/algo-sdr/dsp/fec"
	"github.com/cwbudde/algo-sdr/dsp/framing/packetizer"
	"github.com/cwbudde/algo-sdr/dsp/modem"
)

// Header layout constants.
const (
	// HeaderUserLen is the number of caller-defined header bytes.
	HeaderUserLen = 8
	// HeaderDecLen is the decoded header length: user bytes, payload
	// length (2), modulation, check/inner FEC, outer FEC and version.
	HeaderDecLen = HeaderUserLen + 6
	// HeaderEncLen is the header length after CRC-16 and Hamming(12,8).
	HeaderEncLen = 24
	// HeaderSymbols is the number of BPSK header symbols.
	HeaderSymbols = 8 * HeaderEncLen
	// Version is carried in the last header byte and checked on receive.
	Version = 101
	// MaxPayloadLen is the largest payload the length field can express.
	MaxPayloadLen = 1<<16 - 1
)

const (
	headerCRC  = crc.CRC16
	headerFEC0 = fec.Hamming128
	headerFEC1 = fec.None
)

var (
	// ErrHeaderTooLong is returned for more than HeaderUserLen user bytes.
	ErrHeaderTooLong = errors.New("flexframe: header user data too long")
	// ErrPayloadTooLong is returned for a payload over MaxPayloadLen bytes.
	ErrPayloadTooLong = errors.New("flexframe: payload too long")
	// ErrVersion is reported for a header from another protocol version.
	ErrVersion = errors.New("flexframe: unsupported header version")
	// ErrUnsupportedScheme is reported for a header naming an unknown or
	// inconsistent scheme.
	ErrUnsupportedScheme = errors.New("flexframe: unsupported scheme in header")
)

func newHeaderPacketizer() (*packetizer.Packetizer, error) {
	p, err := packetizer.New(HeaderDecLen, headerCRC, headerFEC0, headerFEC1)
	if err != nil {
		return nil, err
	}
	if p.EncodedLen() != HeaderEncLen {
		return nil, fmt.Errorf("flexframe: header encodes to %d bytes, want %d", p.EncodedLen(), HeaderEncLen)
	}
	return p, nil
}

// packHeader writes the decoded header for user data, a payload length
// and its properties.
func packHeader(dst *[HeaderDecLen]byte, user []byte, payloadLen int, p Properties) {
	clear(dst[:])
	copy(dst[:HeaderUserLen], user)
	n := HeaderUserLen
	dst[n+0] = byte(payloadLen >> 8)
	dst[n+1] = byte(payloadLen)
	dst[n+2] = byte(p.Mod)<<3 | byte(p.Mod.BitsPerSymbol()-1)&0x07
	dst[n+3] = byte(p.CRC)<<5 | byte(p.FEC0)&0x1f
	dst[n+4] = byte(p.FEC1) & 0x1f
	dst[n+5] = Version
}

// unpackHeader parses and validates a decoded header.
func unpackHeader(src *[HeaderDecLen]byte) (user [HeaderUserLen]byte, payloadLen int, p Properties, err error) {
	copy(user[:], src[:HeaderUserLen])
	n := HeaderUserLen
	if src[n+5] != Version {
		return user, 0, p, fmt.Errorf("%w: %d", ErrVersion, src[n+5])
	}

	payloadLen = int(src[n+0])<<8 | int(src[n+1])
	p = Properties{
		Mod:  modem.Scheme(src[n+2] >> 3),
		CRC:  crc.Scheme(src[n+3] >> 5),
		FEC0: fec.Scheme(src[n+3] & 0x1f),
		FEC1: fec.Scheme(src[n+4] & 0x1f),
	}
	if err := p.Validate(); err != nil {
		return user, 0, p, fmt.Errorf("%w: %w", ErrUnsupportedScheme, err)
	}
	if bps := int(src[n+2]&0x07) + 1; bps != p.Mod.BitsPerSymbol() {
		return user, 0, p, fmt.Errorf("%w: %v with %d bits/symbol", ErrUnsupportedScheme, p.Mod, bps)
	}
	return user, payloadLen, p, nil
}

// payloadSymbols returns the number of symbols carrying encLen bytes at
// bps bits per symbol.
func payloadSymbols(encLen, bps int) int {
	return (8*encLen + bps - 1) / bps
}
