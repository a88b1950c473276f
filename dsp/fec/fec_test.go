package fec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodedLen(t *testing.T) {
	tests := []struct {
		scheme Scheme
		n      int
		want   int
	}{
		{None, 10, 10},
		{Rep3, 10, 30},
		{Rep5, 10, 50},
		{Hamming74, 10, 18},
		{Hamming74, 1, 2},
		{Hamming84, 10, 20},
		{Hamming128, 16, 24},
		{Hamming128, 3, 5},
		{Unknown, 10, 0},
	}
	for _, tt := range tests {
		if got := EncodedLen(tt.scheme, tt.n); got != tt.want {
			t.Fatalf("EncodedLen(%v, %d) = %d, want %d", tt.scheme, tt.n, got, tt.want)
		}
	}
}

func TestParseScheme(t *testing.T) {
	for _, s := range Schemes() {
		got, err := ParseScheme(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseScheme("golay2412")
	assert.ErrorIs(t, err, ErrUnknownScheme)
	_, err = New(Scheme(31))
	assert.ErrorIs(t, err, ErrUnknownScheme)
	assert.False(t, Unknown.Valid())
}

func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.SampledFrom(Schemes()).Draw(t, "scheme")
		msg := rapid.SliceOf(rapid.Byte()).Draw(t, "msg")

		c, err := New(s)
		if err != nil {
			t.Fatal(err)
		}
		enc := make([]byte, c.EncodedLen(len(msg)))
		for i := range enc {
			enc[i] = 0xff // Encode must not depend on dst contents
		}
		c.Encode(enc, msg)

		dec := make([]byte, len(msg))
		c.Decode(dec, enc)
		assert.Equal(t, msg, dec, "%v", s)
	})
}

func TestHammingCorrectsOneErrorPerWord(t *testing.T) {
	for _, s := range []Scheme{Hamming74, Hamming84, Hamming128} {
		c, err := New(s)
		require.NoError(t, err)
		h := c.(*hamming)

		rapid.Check(t, func(t *rapid.T) {
			msg := rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(t, "msg")
			enc := make([]byte, c.EncodedLen(len(msg)))
			c.Encode(enc, msg)

			// flip one bit inside every codeword
			words := len(msg) * 8 / h.k
			for w := range words {
				bit := w*h.width() + rapid.IntRange(0, h.width()-1).Draw(t, "bit")
				enc[bit/8] ^= 0x80 >> (bit % 8)
			}

			dec := make([]byte, len(msg))
			c.Decode(dec, enc)
			if string(dec) != string(msg) {
				t.Fatalf("%v: decoded %x, want %x", s, dec, msg)
			}
		})
	}
}

func TestHamming84DoubleErrorLeftUncorrected(t *testing.T) {
	h := newHamming(Hamming84, 7, 4, true)
	w := h.encodeWord(0xb)
	bad := w ^ 1<<3 ^ 1<<5

	// even overall parity with a non-zero syndrome: no bit is flipped, so
	// the data bits come straight from the received word
	var raw uint32
	for i, p := range h.data {
		if bad>>p&1 == 1 {
			raw |= 1 << (h.k - 1 - i)
		}
	}
	assert.Equal(t, raw, h.decodeWord(bad))
}

func TestRepetitionMajority(t *testing.T) {
	c, err := New(Rep3)
	require.NoError(t, err)
	msg := []byte{0x5a, 0xc3}
	enc := make([]byte, c.EncodedLen(len(msg)))
	c.Encode(enc, msg)
	enc[0] ^= 0xff // one copy corrupted entirely
	enc[3] ^= 0x01

	dec := make([]byte, 2)
	c.Decode(dec, enc)
	assert.Equal(t, msg, dec)
}
