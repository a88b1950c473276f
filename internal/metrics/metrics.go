// Package metrics exports synchronizer activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cwbudde/algo-sdr/dsp/framing/detect"
	"github.com/cwbudde/algo-sdr/dsp/framing/flexframe"
	"github.com/cwbudde/algo-sdr/dsp/squelch"
)

const namespace = "flexframe"

// Frame outcomes used as the "outcome" label.
const (
	OutcomeValid          = "valid"
	OutcomePayloadInvalid = "payload_invalid"
	OutcomeHeaderInvalid  = "header_invalid"
	OutcomeError          = "error"
)

// Collector implements flexframe.Observer. It is not safe for concurrent
// use by more than one synchronizer.
type Collector struct {
	flexframe.NopObserver

	detections prometheus.Counter
	rho        prometheus.Histogram
	symbols    *prometheus.CounterVec // by state
	squelch    *prometheus.CounterVec // by status
	frames     *prometheus.CounterVec // by outcome
	bytes      prometheus.Counter
	evm        prometheus.Histogram
	rssi       prometheus.Gauge
	cfo        prometheus.Gauge
}

// New registers the collector's metrics with reg. Use
// prometheus.DefaultRegisterer for the process-wide registry.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		detections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Preambles detected.",
		}),
		rho: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_correlation",
			Help:      "Normalized preamble correlation at detection.",
			Buckets:   prometheus.LinearBuckets(0.3, 0.1, 8),
		}),
		symbols: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_total",
			Help:      "Demodulated symbols by receiver state.",
		}, []string{"state"}),
		squelch: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "squelch_events_total",
			Help:      "Squelch timeouts and reopenings.",
		}, []string{"status"}),
		frames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Completed frames by outcome.",
		}, []string{"outcome"}),
		bytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payload_bytes_total",
			Help:      "Payload bytes of frames that passed the CRC.",
		}),
		evm: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evm_db",
			Help:      "Error vector magnitude of completed frames.",
			Buckets:   prometheus.LinearBuckets(-40, 5, 8),
		}),
		rssi: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rssi_db",
			Help:      "Received signal strength of the last frame.",
		}),
		cfo: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cfo_radians",
			Help:      "Carrier offset of the last frame in radians per sample.",
		}),
	}
}

func (c *Collector) Detected(r detect.Result) {
	c.detections.Inc()
	c.rho.Observe(r.Rho)
}

func (c *Collector) Symbol(s flexframe.State, _ complex128) {
	c.symbols.WithLabelValues(s.String()).Inc()
}

func (c *Collector) Squelch(s squelch.Status) {
	c.squelch.WithLabelValues(s.String()).Inc()
}

func (c *Collector) Frame(f *flexframe.Frame) {
	c.frames.WithLabelValues(Outcome(f)).Inc()
	if !f.HeaderValid {
		return
	}
	if f.PayloadValid {
		c.bytes.Add(float64(len(f.Payload)))
	}
	c.evm.Observe(f.Stats.EVM)
	c.rssi.Set(f.Stats.RSSI)
	c.cfo.Set(f.Stats.CFO)
}

// Outcome classifies a completed frame.
func Outcome(f *flexframe.Frame) string {
	switch {
	case f.Err != nil && f.HeaderValid:
		return OutcomeError
	case !f.HeaderValid:
		return OutcomeHeaderInvalid
	case !f.PayloadValid:
		return OutcomePayloadInvalid
	default:
		return OutcomeValid
	}
}
