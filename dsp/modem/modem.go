// Package modem maps bits to complex constellation points and back.
//
// Constellations are gray coded and scaled to unit average power. The
// scheme is chosen once at construction; demodulation is a nearest-point
// decision that also reports the phase error against the decided point,
// which drives decision-directed carrier recovery.
package modem

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-sdr/dsp/core"
)

// ErrUnknownScheme is returned for an unsupported modulation scheme.
var ErrUnknownScheme = errors.New("modem: unknown modulation scheme")

// Scheme identifies a linear modulation. Values are stable and are carried
// in frame headers.
type Scheme uint8

const (
	Unknown Scheme = iota
	BPSK
	QPSK
	PSK8
	PSK16
	QAM16
	QAM64
)

var schemeInfo = [...]struct {
	name string
	bps  int
}{
	Unknown: {"unknown", 0},
	BPSK:    {"bpsk", 1},
	QPSK:    {"qpsk", 2},
	PSK8:    {"psk8", 3},
	PSK16:   {"psk16", 4},
	QAM16:   {"qam16", 4},
	QAM64:   {"qam64", 6},
}

// Schemes returns all supported schemes.
func Schemes() []Scheme {
	return []Scheme{BPSK, QPSK, PSK8, PSK16, QAM16, QAM64}
}

// Valid reports whether s is a supported scheme.
func (s Scheme) Valid() bool {
	return s > Unknown && int(s) < len(schemeInfo)
}

// BitsPerSymbol returns the number of bits carried per symbol, or 0.
func (s Scheme) BitsPerSymbol() int {
	if !s.Valid() {
		return 0
	}
	return schemeInfo[s].bps
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

// Modem modulates and demodulates one scheme.
type Modem struct {
	scheme Scheme
	bps    int
	points []complex128
	ref    complex128
}

// New returns a modem for s.
func New(s Scheme) (*Modem, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownScheme, s)
	}

	m := &Modem{scheme: s, bps: s.BitsPerSymbol()}
	switch s {
	case BPSK:
		m.points = psk(2, 0)
	case QPSK:
		m.points = psk(4, math.Pi/4)
	case PSK8:
		m.points = psk(8, 0)
	case PSK16:
		m.points = psk(16, 0)
	case QAM16:
		m.points = qam(4)
	case QAM64:
		m.points = qam(8)
	}
	return m, nil
}

func gray(i uint) uint { return i ^ i>>1 }

// psk places gray(i) at angle offset + 2*pi*i/M.
func psk(order int, offset float64) []complex128 {
	pts := make([]complex128, order)
	for i := range order {
		pts[gray(uint(i))] = core.Expj(offset + 2*math.Pi*float64(i)/float64(order))
	}
	return pts
}

// qam builds a square constellation with side points per axis; the upper
// half of the symbol bits select the in-phase level.
func qam(side int) []complex128 {
	half := 0
	for 1<<half < side {
		half++
	}
	norm := math.Sqrt(2 * float64(side*side-1) / 3)
	pts := make([]complex128, side*side)
	for i := range side {
		for q := range side {
			sym := gray(uint(i))<<half | gray(uint(q))
			re := float64(2*i - (side - 1))
			im := float64(2*q - (side - 1))
			pts[sym] = complex(re/norm, im/norm)
		}
	}
	return pts
}

// Scheme returns the modulation scheme.
func (m *Modem) Scheme() Scheme { return m.scheme }

// BitsPerSymbol returns the bits per symbol.
func (m *Modem) BitsPerSymbol() int { return m.bps }

// Order returns the constellation size.
func (m *Modem) Order() int { return len(m.points) }

// Modulate returns the constellation point for the low bits of sym.
func (m *Modem) Modulate(sym uint) complex128 {
	return m.points[sym&uint(len(m.points)-1)]
}

// Demodulate returns the nearest symbol and the phase of x relative to the
// decided point.
func (m *Modem) Demodulate(x complex128) (sym uint, phaseErr float64) {
	best := math.Inf(1)
	for i, p := range m.points {
		if d := core.Abs2(x - p); d < best {
			best = d
			sym = uint(i)
		}
	}
	m.ref = m.points[sym]
	if x != 0 {
		phaseErr = core.Arg(x * core.Conj(m.ref))
	}
	return sym, phaseErr
}

// Reference returns the point decided by the last Demodulate.
func (m *Modem) Reference() complex128 { return m.ref }
