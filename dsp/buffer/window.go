package buffer

import "fmt"

// Window is a fixed-length sliding window over the most recent samples.
//
// Storage is mirrored: every sample is written twice, at pos and pos+n,
// so the last n samples are always available as one contiguous slice.
type Window[T any] struct {
	data []T
	n    int
	pos  int
}

// NewWindow returns a zero-filled window holding n samples.
func NewWindow[T any](n int) (*Window[T], error) {
	if n <= 0 {
		return nil, fmt.Errorf("window length must be > 0: %d", n)
	}
	return &Window[T]{data: make([]T, 2*n), n: n}, nil
}

// Len returns the window length.
func (w *Window[T]) Len() int {
	return w.n
}

// Push appends x, discarding the oldest sample.
func (w *Window[T]) Push(x T) {
	w.data[w.pos] = x
	w.data[w.pos+w.n] = x
	w.pos++
	if w.pos == w.n {
		w.pos = 0
	}
}

// Read returns the window contents, oldest first. The newest sample is at
// index Len()-1. The slice is valid until the next Push or Reset.
func (w *Window[T]) Read() []T {
	return w.data[w.pos : w.pos+w.n]
}

// At returns the i-th sample, oldest first.
func (w *Window[T]) At(i int) T {
	return w.data[w.pos+i]
}

// Newest returns the most recently pushed sample.
func (w *Window[T]) Newest() T {
	return w.data[w.pos+w.n-1]
}

// Reset zero-fills the window.
func (w *Window[T]) Reset() {
	clear(w.data)
	w.pos = 0
}
