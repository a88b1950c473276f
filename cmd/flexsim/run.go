package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-sdr/dsp/framing/flexframe"
	"github.com/cwbudde/algo-sdr/internal/metrics"
	"github.com/cwbudde/algo-sdr/stats/link"
)

const captureSymbols = 4096

type runCmd struct {
	Frames     *int     `help:"Number of frames to send."`
	PayloadLen *int     `help:"Payload length in bytes." name:"payload-len"`
	SNR        *float64 `help:"Channel signal-to-noise ratio in dB. Enables noise." name:"snr"`
	Modulation string   `help:"Payload modulation: bpsk, qpsk, psk8, psk16, qam16, qam64." short:"m"`
	Report     string   `help:"Write a YAML run report to FILE." type:"path" placeholder:"FILE"`
	Capture    string   `help:"Write received symbols, detections and frames as YAML to FILE." type:"path" placeholder:"FILE"`
	Dump       string   `help:"Write the impaired stream as interleaved float32 I/Q to FILE." type:"path" placeholder:"FILE"`
	Listen     string   `help:"Serve Prometheus metrics on ADDR after the run until interrupted." placeholder:"ADDR"`
}

func (c *runCmd) Run(ctx context.Context, g *globals, logger *log.Logger) error {
	cfg, err := loadConfig(g, logger)
	if err != nil {
		return err
	}
	if c.Frames != nil {
		cfg.Run.Frames = *c.Frames
	}
	if c.PayloadLen != nil {
		cfg.Frame.PayloadLen = *c.PayloadLen
	}
	if c.SNR != nil {
		cfg.Channel.SNR = *c.SNR
		cfg.Channel.Noise = true
	}
	if c.Modulation != "" {
		cfg.Frame.Modulation = c.Modulation
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	p, err := cfg.Properties()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	capture, err := flexframe.NewCapture(captureSymbols)
	if err != nil {
		return err
	}
	tracker := &link.Tracker{}
	obs := flexframe.Observers{metrics.New(reg), capture, tracker}

	logger.Info("running", "frames", cfg.Run.Frames, "props", p, "payload", cfg.Frame.PayloadLen,
		"snr", cfg.Channel.SNR, "noise", cfg.Channel.Noise)
	rx, payloads, err := transmit(cfg, p, logger)
	if err != nil {
		return err
	}
	rep, err := receive(cfg, rx, payloads, logger, obs)
	if err != nil {
		return err
	}
	rep.Props = p.String()
	rep.Link = tracker.Report(rep.Sent)

	logger.Info("done",
		"sent", rep.Sent,
		"delivered", rep.Delivered,
		"detections", rep.Stats.Detections,
		"headers_invalid", rep.Stats.HeadersInvalid,
		"payloads_invalid", rep.Stats.PayloadsInvalid,
		"fer", rep.Link.FrameErrorRate,
		"evm", fmt.Sprintf("%.1fdB", rep.Link.EVM.Mean),
	)
	if rep.Delivered < rep.Sent {
		logger.Warn("frames lost", "count", rep.Sent-rep.Delivered)
	}

	if c.Report != "" {
		if err := writeFile(c.Report, func(f *os.File) error { return writeReport(f, rep) }); err != nil {
			return err
		}
		logger.Info("wrote report", "path", c.Report)
	}
	if c.Capture != "" {
		if err := writeFile(c.Capture, func(f *os.File) error { return capture.WriteYAML(f) }); err != nil {
			return err
		}
		logger.Info("wrote capture", "path", c.Capture)
	}
	if c.Dump != "" {
		if err := writeFile(c.Dump, func(f *os.File) error { return writeCF32(f, rx) }); err != nil {
			return err
		}
		logger.Info("wrote stream", "path", c.Dump, "samples", len(rx))
	}

	if c.Listen != "" {
		return serveMetrics(ctx, c.Listen, reg, logger)
	}
	return nil
}

func writeReport(w io.Writer, rep *report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// serveMetrics exposes reg on addr until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("serving metrics", "addr", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}
