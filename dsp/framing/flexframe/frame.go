package flexframe

import "fmt"

// State is a Synchronizer state.
type State int

const (
	StateDetect State = iota
	StateRxHeader
	StateRxPayload
	StateReset
)

func (s State) String() string {
	switch s {
	case StateDetect:
		return "detect"
	case StateRxHeader:
		return "rxheader"
	case StateRxPayload:
		return "rxpayload"
	case StateReset:
		return "reset"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MaxStatsSymbols bounds the payload symbols kept in FrameStats.
const MaxStatsSymbols = 256

// FrameStats describes the reception quality of one frame.
type FrameStats struct {
	EVM  float64 // dB, header and payload symbols
	RSSI float64 // dB, at detection
	CFO  float64 // radians per sample

	Props Properties

	// NumSymbols is the number of payload symbols received.
	NumSymbols int
	// Symbols holds up to MaxStatsSymbols equalized payload symbols. It is
	// only valid during the callback.
	Symbols []complex128
}

// Frame is passed to the Callback once per completed header or payload
// cycle.
type Frame struct {
	Header      [HeaderUserLen]byte
	HeaderValid bool

	// Payload is only valid during the callback; copy it to retain it. It
	// is nil when the header was invalid.
	Payload      []byte
	PayloadValid bool

	Stats FrameStats

	// Err explains a frame dropped for a reason other than a failed check:
	// an unsupported header field or a payload over the buffer limit.
	Err error
}

// Callback receives decoded frames.
type Callback func(f *Frame)

// Stats are cumulative Synchronizer counters.
type Stats struct {
	Detections      uint64
	HeadersValid    uint64
	HeadersInvalid  uint64
	PayloadsValid   uint64
	PayloadsInvalid uint64
	SquelchTimeouts uint64
	Errors          uint64
}
