package packetizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cwbudde/algo-sdr/dsp/crc"
	"github.com/cwbudde/algo-sdr/dsp/fec"
)

func TestEncodedLength(t *testing.T) {
	tests := []struct {
		n          int
		check      crc.Scheme
		fec0, fec1 fec.Scheme
		want       int
	}{
		{14, crc.CRC16, fec.Hamming128, fec.None, 24},
		{64, crc.CRC32, fec.None, fec.None, 68},
		{10, crc.None, fec.Rep3, fec.Hamming84, 60},
		{10, crc.Unknown, fec.None, fec.None, 0},
		{10, crc.None, fec.Unknown, fec.None, 0},
	}
	for _, tt := range tests {
		got := EncodedLength(tt.n, tt.check, tt.fec0, tt.fec1)
		if got != tt.want {
			t.Fatalf("EncodedLength(%d, %v, %v, %v) = %d, want %d", tt.n, tt.check, tt.fec0, tt.fec1, got, tt.want)
		}
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(-1, crc.None, fec.None, fec.None)
	assert.Error(t, err)
	_, err = New(4, crc.Unknown, fec.None, fec.None)
	assert.ErrorIs(t, err, crc.ErrUnknownScheme)
	_, err = New(4, crc.None, fec.Scheme(30), fec.None)
	assert.ErrorIs(t, err, fec.ErrUnknownScheme)
	_, err = New(4, crc.None, fec.None, fec.Unknown)
	assert.ErrorIs(t, err, fec.ErrUnknownScheme)
}

func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		check := rapid.SampledFrom(crc.Schemes()).Draw(t, "crc")
		fec0 := rapid.SampledFrom(fec.Schemes()).Draw(t, "fec0")
		fec1 := rapid.SampledFrom(fec.Schemes()).Draw(t, "fec1")
		msg := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "msg")

		p, err := New(len(msg), check, fec0, fec1)
		if err != nil {
			t.Fatal(err)
		}
		if p.EncodedLen() != EncodedLength(len(msg), check, fec0, fec1) {
			t.Fatalf("EncodedLen = %d, want %d", p.EncodedLen(), EncodedLength(len(msg), check, fec0, fec1))
		}

		enc := make([]byte, p.EncodedLen())
		if err := p.Encode(enc, msg); err != nil {
			t.Fatal(err)
		}
		dec := make([]byte, len(msg))
		ok, err := p.Decode(dec, enc)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || string(dec) != string(msg) {
			t.Fatalf("decode = %x (valid=%v), want %x", dec, ok, msg)
		}
	})
}

func TestCorrectsAndDetects(t *testing.T) {
	msg := []byte("flexframe header")
	p, err := New(len(msg), crc.CRC16, fec.Hamming128, fec.None)
	require.NoError(t, err)

	enc := make([]byte, p.EncodedLen())
	require.NoError(t, p.Encode(enc, msg))
	assert.NotEqual(t, msg, enc[:len(msg)])

	// a short burst is spread by the interleaver and corrected
	enc[3] ^= 0xc0
	dec := make([]byte, len(msg))
	ok, err := p.Decode(dec, enc)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, msg, dec)

	// heavy corruption is caught by the CRC
	for i := range enc {
		enc[i] ^= 0x5a
	}
	ok, err = p.Decode(dec, enc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLengthMismatch(t *testing.T) {
	p, err := New(4, crc.CRC8, fec.None, fec.None)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Encode(make([]byte, 6), []byte{1, 2, 3, 4}), ErrLength)
	assert.ErrorIs(t, p.Encode(make([]byte, 5), []byte{1, 2, 3}), ErrLength)
	_, err = p.Decode(make([]byte, 4), make([]byte, 4))
	assert.ErrorIs(t, err, ErrLength)
	assert.True(t, p.Matches(4, crc.CRC8, fec.None, fec.None))
	assert.False(t, p.Matches(4, crc.CRC16, fec.None, fec.None))
}
