package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/cwbudde/algo-sdr/dsp/framing/flexframe"
	"github.com/cwbudde/algo-sdr/dsp/signal"
	"github.com/cwbudde/algo-sdr/internal/config"
	"github.com/cwbudde/algo-sdr/stats/link"
)

// frameResult is one synchronizer callback as written to the run report.
type frameResult struct {
	Index        int     `yaml:"index"` // -1 when the header failed
	HeaderValid  bool    `yaml:"header_valid"`
	PayloadValid bool    `yaml:"payload_valid"`
	Match        bool    `yaml:"match"`
	EVM          float64 `yaml:"evm_db"`
	RSSI         float64 `yaml:"rssi_db"`
	CFO          float64 `yaml:"cfo"`
	Err          string  `yaml:"error,omitempty"`
}

type report struct {
	Props     string          `yaml:"props"`
	Sent      int             `yaml:"sent"`
	Delivered int             `yaml:"delivered"`
	Samples   int             `yaml:"samples"`
	Stats     flexframe.Stats `yaml:"stats"`
	Link      link.Report     `yaml:"link"`
	Frames    []frameResult   `yaml:"frames"`
}

// transmit assembles cfg.Run.Frames frames with random payloads separated
// by idle gaps and passes the stream through the configured channel. The
// first four header bytes carry the frame index.
func transmit(cfg config.Config, p flexframe.Properties, logger *log.Logger) ([]complex128, [][]byte, error) {
	g, err := flexframe.NewGenerator(append(cfg.FrameOptions(), flexframe.WithLogger(logger))...)
	if err != nil {
		return nil, nil, err
	}
	ch, err := signal.NewChannel(cfg.ChannelOptions()...)
	if err != nil {
		return nil, nil, err
	}

	seed := cfg.Run.Seed
	rng := rand.New(rand.NewPCG(seed, seed^0x5bd1e995))
	gap := make([]complex128, cfg.Run.Gap)

	stream := append([]complex128(nil), gap...)
	payloads := make([][]byte, 0, cfg.Run.Frames)
	for i := range cfg.Run.Frames {
		payload := make([]byte, cfg.Frame.PayloadLen)
		for j := range payload {
			payload[j] = byte(rng.Uint32())
		}
		var header [flexframe.HeaderUserLen]byte
		binary.BigEndian.PutUint32(header[:], uint32(i))
		copy(header[4:], "flex")

		if err := g.Assemble(header[:], payload, p); err != nil {
			return nil, nil, fmt.Errorf("frame %d: %w", i, err)
		}
		stream = append(stream, g.Samples()...)
		stream = append(stream, gap...)
		payloads = append(payloads, payload)
	}
	// flush the channel's delay line
	stream = append(stream, make([]complex128, ch.Delay())...)

	logger.Debug("transmitted", "frames", len(payloads), "samples", len(stream))
	return ch.Process(stream), payloads, nil
}

// receive runs rx through a synchronizer in blocks of cfg.Run.BlockSize
// samples and matches every callback against the sent payloads.
func receive(cfg config.Config, rx []complex128, payloads [][]byte, logger *log.Logger, obs flexframe.Observer) (*report, error) {
	rep := &report{Sent: len(payloads), Samples: len(rx)}

	cb := func(f *flexframe.Frame) {
		r := frameResult{
			Index:        -1,
			HeaderValid:  f.HeaderValid,
			PayloadValid: f.PayloadValid,
			EVM:          f.Stats.EVM,
			RSSI:         f.Stats.RSSI,
			CFO:          f.Stats.CFO,
		}
		if f.Err != nil {
			r.Err = f.Err.Error()
		}
		if f.HeaderValid {
			r.Index = int(binary.BigEndian.Uint32(f.Header[:4]))
			if f.PayloadValid && r.Index < len(payloads) {
				r.Match = bytes.Equal(f.Payload, payloads[r.Index])
			}
		}
		if r.Match {
			rep.Delivered++
		}
		rep.Frames = append(rep.Frames, r)

		logger.Info("frame",
			"index", r.Index,
			"header", r.HeaderValid,
			"payload", r.PayloadValid,
			"match", r.Match,
			"evm", fmt.Sprintf("%.1fdB", r.EVM),
			"rssi", fmt.Sprintf("%.1fdB", r.RSSI),
			"cfo", fmt.Sprintf("%.4f", r.CFO),
		)
		if f.Err != nil {
			logger.Warn("frame error", "err", f.Err)
		}
	}

	opts := append(cfg.FrameOptions(), flexframe.WithLogger(logger), flexframe.WithObserver(obs))
	s, err := flexframe.NewSynchronizer(cb, opts...)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(rx); i += cfg.Run.BlockSize {
		s.Execute(rx[i:min(i+cfg.Run.BlockSize, len(rx))])
	}
	rep.Stats = s.Stats()
	return rep, nil
}
