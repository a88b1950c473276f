package buffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZeroFilled(t *testing.T) {
	b := New[float64](8)
	if b.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", b.Len())
	}
	for i, v := range b.Samples() {
		if v != 0 {
			t.Fatalf("Samples()[%d] = %v, want 0", i, v)
		}
	}
}

func TestNewNegativeLength(t *testing.T) {
	b := New[byte](-1)
	if b.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for negative input", b.Len())
	}
}

func TestReservePreservesData(t *testing.T) {
	b := New[complex128](4)
	b.Samples()[0] = 42i
	require.NoError(t, b.Reserve(16))
	assert.GreaterOrEqual(t, b.Cap(), 16)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 42i, b.Samples()[0])
}

func TestReserveNoOpWhenSufficient(t *testing.T) {
	b := New[byte](4)
	origCap := b.Cap()
	require.NoError(t, b.Reserve(origCap))
	if b.Cap() != origCap {
		t.Fatal("Reserve should be no-op when capacity is sufficient")
	}
}

func TestResizeNeverShrinksCapacity(t *testing.T) {
	b := NewLimited[byte](64)
	require.NoError(t, b.Resize(40))
	c := b.Cap()

	require.NoError(t, b.Resize(8))
	assert.Equal(t, 8, b.Len())
	assert.Equal(t, c, b.Cap())

	b.Samples()[0] = 7
	require.NoError(t, b.Resize(40))
	assert.Equal(t, c, b.Cap())
	assert.Equal(t, byte(7), b.Samples()[0])
	for i, v := range b.Samples()[8:] {
		if v != 0 {
			t.Fatalf("Samples()[%d] = %v, want zeroed", i+8, v)
		}
	}
}

func TestReserveLimit(t *testing.T) {
	b := NewLimited[byte](16)
	require.NoError(t, b.Reserve(16))

	err := b.Reserve(17)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityLimit))
	assert.Equal(t, 16, b.Cap())

	err = b.Resize(100)
	assert.ErrorIs(t, err, ErrCapacityLimit)
	assert.Equal(t, 0, b.Len())
}

func TestZero(t *testing.T) {
	b := New[int](3)
	copy(b.Samples(), []int{1, 2, 3})
	b.Zero()
	assert.Equal(t, []int{0, 0, 0}, b.Samples())
}
