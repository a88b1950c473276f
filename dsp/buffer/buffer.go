package buffer

import (
	"errors"
	"fmt"
)

// ErrCapacityLimit is returned when a Buffer is asked to grow beyond its limit.
var ErrCapacityLimit = errors.New("buffer: capacity limit exceeded")

// Buffer wraps a slice with reuse-friendly semantics.
//
// Capacity grows monotonically: Reserve and Resize never shrink the backing
// array, so a Buffer sized for the largest frame seen so far is reused for
// every later frame. A non-zero limit bounds that growth.
type Buffer[T any] struct {
	samples []T
	limit   int
}

// New returns a zero-filled Buffer of the given length and no capacity limit.
func New[T any](length int) *Buffer[T] {
	if length < 0 {
		length = 0
	}
	return &Buffer[T]{samples: make([]T, length)}
}

// NewLimited returns an empty Buffer that refuses to grow beyond limit elements.
func NewLimited[T any](limit int) *Buffer[T] {
	if limit < 0 {
		limit = 0
	}
	return &Buffer[T]{limit: limit}
}

// Samples returns the underlying slice.
func (b *Buffer[T]) Samples() []T {
	return b.samples
}

// Len returns the current number of elements.
func (b *Buffer[T]) Len() int {
	return len(b.samples)
}

// Cap returns the current capacity of the backing slice.
func (b *Buffer[T]) Cap() int {
	return cap(b.samples)
}

// Limit returns the capacity limit; zero means unlimited.
func (b *Buffer[T]) Limit() int {
	return b.limit
}

// Reserve ensures capacity is at least n, preserving existing data.
// If the current capacity is already >= n this is a no-op.
func (b *Buffer[T]) Reserve(n int) error {
	if n <= cap(b.samples) {
		return nil
	}
	if b.limit > 0 && n > b.limit {
		return fmt.Errorf("%w: need %d, limit %d", ErrCapacityLimit, n, b.limit)
	}
	grown := make([]T, len(b.samples), n)
	copy(grown, b.samples)
	b.samples = grown
	return nil
}

// Resize sets the length to n, growing capacity when needed.
// New elements beyond the previous length are zeroed.
func (b *Buffer[T]) Resize(n int) error {
	if n < 0 {
		n = 0
	}
	if err := b.Reserve(n); err != nil {
		return err
	}
	oldLen := len(b.samples)
	b.samples = b.samples[:n]
	if n > oldLen {
		clear(b.samples[oldLen:])
	}
	return nil
}

// Zero sets all elements to the zero value.
func (b *Buffer[T]) Zero() {
	clear(b.samples)
}
