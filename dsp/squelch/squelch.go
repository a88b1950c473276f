// Package squelch gates acquisition on received signal strength.
//
// A Squelch counts consecutive samples whose RSSI is below a threshold.
// When the count reaches the timeout it reports StatusTimeout once and
// stays muted until the RSSI rises above the threshold again.
package squelch

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTimeout is returned for a negative timeout.
var ErrInvalidTimeout = errors.New("squelch: timeout must be >= 0")

// Status is the result of one Update.
type Status int

const (
	// StatusDisabled is reported when the timeout is zero.
	StatusDisabled Status = iota
	// StatusSignal means the RSSI is at or above the threshold.
	StatusSignal
	// StatusCounting means the RSSI is below the threshold and the timeout
	// has not yet elapsed.
	StatusCounting
	// StatusTimeout is reported on the sample that completes the timeout.
	StatusTimeout
	// StatusMuted means the squelch is closed.
	StatusMuted
	// StatusRise is reported on the sample that reopens a muted squelch.
	StatusRise
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusSignal:
		return "signal"
	case StatusCounting:
		return "counting"
	case StatusTimeout:
		return "timeout"
	case StatusMuted:
		return "muted"
	case StatusRise:
		return "rise"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Squelch tracks low-signal periods in samples, not wall-clock time.
type Squelch struct {
	threshold float64
	timeout   int
	count     int
	muted     bool
}

// New returns a squelch with the threshold in dB and timeout in samples.
// A zero timeout disables it.
func New(thresholdDB float64, timeout int) (*Squelch, error) {
	if timeout < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTimeout, timeout)
	}
	if math.IsNaN(thresholdDB) {
		return nil, fmt.Errorf("squelch: threshold must be a number")
	}
	return &Squelch{threshold: thresholdDB, timeout: timeout}, nil
}

// Update consumes the RSSI of one sample.
func (s *Squelch) Update(rssi float64) Status {
	if s.timeout == 0 {
		return StatusDisabled
	}

	if rssi >= s.threshold {
		s.count = 0
		if s.muted {
			s.muted = false
			return StatusRise
		}
		return StatusSignal
	}

	if s.muted {
		return StatusMuted
	}

	s.count++
	if s.count >= s.timeout {
		s.count = 0
		s.muted = true
		return StatusTimeout
	}
	return StatusCounting
}

// Muted reports whether input is currently being ignored.
func (s *Squelch) Muted() bool { return s.muted }

// Enabled reports whether the squelch is active.
func (s *Squelch) Enabled() bool { return s.timeout > 0 }

// Threshold returns the threshold in dB.
func (s *Squelch) Threshold() float64 { return s.threshold }

// Timeout returns the timeout in samples.
func (s *Squelch) Timeout() int { return s.timeout }

// Count returns the number of consecutive low samples seen so far.
func (s *Squelch) Count() int { return s.count }

// Reset unmutes and clears the counter.
func (s *Squelch) Reset() {
	s.count = 0
	s.muted = false
}
