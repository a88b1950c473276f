package flexframe

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-sdr/dsp/framing/detect"
	"github.com/cwbudde/algo-sdr/dsp/squelch"
	"github.com/cwbudde/algo-sdr/internal/testutil"
)

func TestCaptureRecordsFrame(t *testing.T) {
	c, err := NewCapture(100)
	require.NoError(t, err)

	g := newGenerator(t)
	payload := testutil.Bytes(12, 32)
	k, s := newSink(t, WithObserver(c))
	s.Execute(assemble(t, g, []byte("cap"), payload, scenarioProps, 100, 100))
	require.Len(t, k.frames, 1)

	require.Len(t, c.Detections(), 1)
	assert.Greater(t, c.Detections()[0].Rho, 0.9)

	require.Len(t, c.Frames(), 1)
	f := c.Frames()[0]
	assert.True(t, f.HeaderValid)
	assert.True(t, f.PayloadValid)
	assert.Equal(t, len(payload), f.PayloadLen)
	assert.Equal(t, "qpsk/crc32/none/none", f.Props)
	assert.Empty(t, f.Err)

	// the newest 100 symbols are the end of the payload
	syms := c.Symbols()
	require.Len(t, syms, 100)
	assert.Equal(t, k.frames[0].stats.Symbols[len(k.frames[0].stats.Symbols)-1], syms[len(syms)-1])
}

func TestCaptureLimits(t *testing.T) {
	c, err := NewCapture(3)
	require.NoError(t, err)

	c.Symbol(StateRxHeader, 1)
	assert.Equal(t, []complex128{1}, c.Symbols())
	for i := range 5 {
		c.Symbol(StateRxPayload, complex(float64(i), 0))
		c.Frame(&Frame{Payload: make([]byte, i)})
	}
	assert.Equal(t, []complex128{2, 3, 4}, c.Symbols())
	require.Len(t, c.Frames(), 3)
	assert.Equal(t, 2, c.Frames()[0].PayloadLen)
	assert.Equal(t, 4, c.Frames()[2].PayloadLen)

	_, err = NewCapture(0)
	assert.Error(t, err)
}

func TestCaptureWriteYAML(t *testing.T) {
	c, err := NewCapture(4)
	require.NoError(t, err)
	c.Symbol(StateRxPayload, 0.5-0.25i)
	c.Frame(&Frame{HeaderValid: true, Stats: FrameStats{EVM: -30, Props: DefaultProperties()}})

	var buf bytes.Buffer
	require.NoError(t, c.WriteYAML(&buf))

	var got struct {
		Frames []struct {
			HeaderValid bool    `yaml:"header_valid"`
			Props       string  `yaml:"props"`
			EVM         float64 `yaml:"evm_db"`
		} `yaml:"frames"`
		Symbols [][2]float64 `yaml:"symbols"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Frames, 1)
	assert.True(t, got.Frames[0].HeaderValid)
	assert.Equal(t, "qpsk/crc32/none/none", got.Frames[0].Props)
	assert.Equal(t, -30.0, got.Frames[0].EVM)
	assert.Equal(t, [][2]float64{{0.5, -0.25}}, got.Symbols)
}

func TestObserversFanOut(t *testing.T) {
	a, err := NewCapture(8)
	require.NoError(t, err)
	b, err := NewCapture(8)
	require.NoError(t, err)
	o := Observers{a, NopObserver{}, b}

	o.Detected(detect.Result{Rho: 0.8})
	o.Symbol(StateRxHeader, 1i)
	o.Squelch(squelch.StatusTimeout)
	o.Frame(&Frame{HeaderValid: true})

	for _, c := range []*Capture{a, b} {
		assert.Len(t, c.Detections(), 1)
		assert.Equal(t, []complex128{1i}, c.Symbols())
		assert.Len(t, c.Frames(), 1)
	}
}
