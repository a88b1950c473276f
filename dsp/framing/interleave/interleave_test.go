package interleave

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.SliceOf(rapid.Byte()).Draw(t, "in")
		it, err := New(len(in))
		if err != nil {
			t.Fatal(err)
		}
		buf := append([]byte(nil), in...)
		it.Permute(buf)
		it.Depermute(buf)
		if !bytes.Equal(buf, in) {
			t.Fatalf("round trip = %x, want %x", buf, in)
		}
	})
}

func TestPermutationIsBijective(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 24, 64, 100} {
		it, err := New(n)
		require.NoError(t, err)
		seen := make([]bool, 8*n)
		for _, p := range it.perm {
			require.False(t, seen[p], "n=%d: position %d used twice", n, p)
			seen[p] = true
		}
	}
}

func TestBurstIsSpread(t *testing.T) {
	it, err := New(24)
	require.NoError(t, err)

	buf := make([]byte, 24)
	buf[5] = 0xff // 8-bit burst
	it.Depermute(buf)

	touched := 0
	for _, b := range buf {
		if b != 0 {
			touched++
		}
	}
	assert.GreaterOrEqual(t, touched, 6)
}

func TestPermuteLengthMismatchPanics(t *testing.T) {
	it, err := New(4)
	require.NoError(t, err)
	assert.Panics(t, func() { it.Permute(make([]byte, 3)) })

	_, err = New(-1)
	assert.Error(t, err)
}
