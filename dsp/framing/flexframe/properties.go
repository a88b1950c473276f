package flexframe

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-sdr/dsp/crc"
	"github.com/cwbudde/algo-sdr/dsp/fec"
	"github.com/cwbudde/algo-sdr/dsp/modem"
)

// ErrInvalidProperties is returned for an unsupported payload scheme.
var ErrInvalidProperties = errors.New("flexframe: invalid frame properties")

// Properties select how the payload of one frame is protected and
// modulated. They travel in the frame header.
type Properties struct {
	Mod  modem.Scheme
	CRC  crc.Scheme
	FEC0 fec.Scheme // inner code
	FEC1 fec.Scheme // outer code
}

// DefaultProperties returns QPSK with a CRC-32 and no FEC.
func DefaultProperties() Properties {
	return Properties{
		Mod:  modem.QPSK,
		CRC:  crc.CRC32,
		FEC0: fec.None,
		FEC1: fec.None,
	}
}

// Validate checks that every scheme is supported.
func (p Properties) Validate() error {
	switch {
	case !p.Mod.Valid():
		return fmt.Errorf("%w: modulation %v", ErrInvalidProperties, p.Mod)
	case !p.CRC.Valid():
		return fmt.Errorf("%w: check %v", ErrInvalidProperties, p.CRC)
	case !p.FEC0.Valid():
		return fmt.Errorf("%w: inner fec %v", ErrInvalidProperties, p.FEC0)
	case !p.FEC1.Valid():
		return fmt.Errorf("%w: outer fec %v", ErrInvalidProperties, p.FEC1)
	}
	return nil
}

func (p Properties) String() string {
	return fmt.Sprintf("%v/%v/%v/%v", p.Mod, p.CRC, p.FEC0, p.FEC1)
}
