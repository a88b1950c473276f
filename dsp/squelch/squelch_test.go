package squelch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewValidation(t *testing.T) {
	_, err := New(-60, -1)
	assert.ErrorIs(t, err, ErrInvalidTimeout)
}

func TestDisabled(t *testing.T) {
	s, err := New(-60, 0)
	require.NoError(t, err)
	assert.False(t, s.Enabled())
	for range 10 {
		assert.Equal(t, StatusDisabled, s.Update(-200))
	}
	assert.False(t, s.Muted())
}

func TestTransitions(t *testing.T) {
	s, err := New(-30, 3)
	require.NoError(t, err)

	steps := []struct {
		rssi float64
		want Status
	}{
		{0, StatusSignal},
		{-40, StatusCounting},
		{-40, StatusCounting},
		{-10, StatusSignal},
		{-40, StatusCounting},
		{-40, StatusCounting},
		{-40, StatusTimeout},
		{-40, StatusMuted},
		{-40, StatusMuted},
		{-30, StatusRise},
		{-40, StatusCounting},
	}

	for i, st := range steps {
		if got := s.Update(st.rssi); got != st.want {
			t.Fatalf("step %d: Update(%v) = %v, want %v", i, st.rssi, got, st.want)
		}
	}

	s.Reset()
	assert.Equal(t, 0, s.Count())
	assert.False(t, s.Muted())
}

func TestTimeoutFiresAfterExactCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		timeout := rapid.IntRange(1, 200).Draw(t, "timeout")
		s, err := New(-50, timeout)
		if err != nil {
			t.Fatal(err)
		}
		for i := 1; i <= timeout; i++ {
			st := s.Update(-80)
			if i < timeout && st != StatusCounting {
				t.Fatalf("sample %d: status %v before timeout", i, st)
			}
			if i == timeout && st != StatusTimeout {
				t.Fatalf("sample %d: status %v, want timeout", i, st)
			}
		}
		if !s.Muted() {
			t.Fatal("expected squelch to be muted after timeout")
		}
	})
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "timeout", StatusTimeout.String())
	assert.Equal(t, "Status(42)", Status(42).String())
}
