// Package crc provides the error-detection schemes carried in frame
// headers: an 8-bit checksum and CRC-8/16/24/32.
//
// Keys are appended big-endian after the data they protect.
package crc

import (
	"errors"
	"fmt"
	"hash/crc32"
	"strings"

	rtlcrc "github.com/bemasher/rtlamr/crc"
)

// ErrUnknownScheme is returned for an unsupported CRC scheme.
var ErrUnknownScheme = errors.New("crc: unknown scheme")

// Scheme identifies an error-detection scheme. Values are stable and are
// carried in frame headers (3 bits).
type Scheme uint8

const (
	Unknown Scheme = iota
	None
	Checksum
	CRC8
	CRC16
	CRC24
	CRC32
)

var schemeInfo = [...]struct {
	name string
	size int
}{
	Unknown:  {"unknown", 0},
	None:     {"none", 0},
	Checksum: {"checksum", 1},
	CRC8:     {"crc8", 1},
	CRC16:    {"crc16", 2},
	CRC24:    {"crc24", 3},
	CRC32:    {"crc32", 4},
}

// CRC-16/CCITT-FALSE
var ccitt = rtlcrc.NewCRC("CCITT", 0xffff, 0x1021, 0)

// Schemes returns all supported schemes.
func Schemes() []Scheme {
	return []Scheme{None, Checksum, CRC8, CRC16, CRC24, CRC32}
}

// Valid reports whether s is a supported scheme.
func (s Scheme) Valid() bool {
	return s > Unknown && int(s) < len(schemeInfo)
}

func (s Scheme) String() string {
	if int(s) < len(schemeInfo) {
		return schemeInfo[s].name
	}
	return fmt.Sprintf("Scheme(%d)", uint8(s))
}

// ParseScheme resolves a scheme by name, case-insensitively.
func ParseScheme(name string) (Scheme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range Schemes() {
		if schemeInfo[s].name == name {
			return s, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// Size returns the key length in bytes, 0 for None or unknown schemes.
func Size(s Scheme) int {
	if !s.Valid() {
		return 0
	}
	return schemeInfo[s].size
}

// Generate computes the key of data under s.
func Generate(s Scheme, data []byte) uint32 {
	switch s {
	case Checksum:
		var sum byte
		for _, b := range data {
			sum += b
		}
		return uint32(-sum)
	case CRC8:
		return uint32(crc8(data))
	case CRC16:
		return uint32(ccitt.Checksum(data))
	case CRC24:
		return crc24(data)
	case CRC32:
		return crc32.ChecksumIEEE(data)
	default:
		return 0
	}
}

// Validate reports whether key matches data under s. None always
// validates; an unknown scheme never does.
func Validate(s Scheme, data []byte, key uint32) bool {
	if !s.Valid() {
		return false
	}
	return Generate(s, data) == key
}

// Append appends data and its big-endian key to dst.
func Append(s Scheme, dst, data []byte) []byte {
	dst = append(dst, data...)
	key := Generate(s, data)
	for i := Size(s) - 1; i >= 0; i-- {
		dst = append(dst, byte(key>>(8*i)))
	}
	return dst
}

// Check validates buf laid out as data followed by its key.
func Check(s Scheme, buf []byte) bool {
	n := Size(s)
	if !s.Valid() || len(buf) < n {
		return false
	}
	data := buf[:len(buf)-n]
	var key uint32
	for _, b := range buf[len(buf)-n:] {
		key = key<<8 | uint32(b)
	}
	return Validate(s, data, key)
}

// crc8 uses polynomial 0x07, zero init, no reflection.
func crc8(data []byte) byte {
	var c byte
	for _, b := range data {
		c ^= b
		for range 8 {
			if c&0x80 != 0 {
				c = c<<1 ^ 0x07
			} else {
				c <<= 1
			}
		}
	}
	return c
}

// crc24 is the OpenPGP CRC-24 (polynomial 0x864cfb, init 0xb704ce).
func crc24(data []byte) uint32 {
	c := uint32(0xb704ce)
	for _, b := range data {
		c ^= uint32(b) << 16
		for range 8 {
			c <<= 1
			if c&0x1000000 != 0 {
				c ^= 0x1864cfb
			}
		}
	}
	return c & 0xffffff
}
