package flexframe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-sdr/dsp/signal"
	"github.com/cwbudde/algo-sdr/internal/testutil"
)

// received is a Frame copied out of the callback.
type received struct {
	header       [HeaderUserLen]byte
	headerValid  bool
	payload      []byte
	payloadValid bool
	stats        FrameStats
	err          error
}

type sink struct {
	frames []received
}

func (k *sink) callback(f *Frame) {
	r := received{
		header:       f.Header,
		headerValid:  f.HeaderValid,
		payloadValid: f.PayloadValid,
		stats:        f.Stats,
		err:          f.Err,
	}
	if f.Payload != nil {
		r.payload = append([]byte{}, f.Payload...)
	}
	r.stats.Symbols = append([]complex128(nil), f.Stats.Symbols...)
	k.frames = append(k.frames, r)
}

func newSink(t *testing.T, opts ...Option) (*sink, *Synchronizer) {
	t.Helper()
	k := &sink{}
	s, err := NewSynchronizer(k.callback, opts...)
	require.NoError(t, err)
	return k, s
}

type testingT interface {
	require.TestingT
	Helper()
}

// assemble returns one generated frame between lead and tail zeros.
func assemble(t testingT, g *Generator, header, payload []byte, p Properties, lead, tail int) []complex128 {
	t.Helper()
	require.NoError(t, g.Assemble(header, payload, p))
	return testutil.Concat(make([]complex128, lead), g.Samples(), make([]complex128, tail))
}

func impair(t testingT, x []complex128, opts ...signal.Option) []complex128 {
	t.Helper()
	c, err := signal.NewChannel(opts...)
	require.NoError(t, err)
	return c.Process(x)
}

func newGenerator(t *testing.T, opts ...Option) *Generator {
	t.Helper()
	g, err := NewGenerator(opts...)
	require.NoError(t, err)
	return g
}
