// Package config loads flexsim settings from an HCL file and the
// environment.
//
// Environment variables use the prefix ALGOSDR_ followed by the section
// and key, e.g. ALGOSDR_FRAME_MODULATION=bpsk or ALGOSDR_SYNC_AGC_OPEN=0.02.
// They override values from the file, which override the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/hcl"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/cwbudde/algo-sdr/dsp/crc"
	"github.com/cwbudde/algo-sdr/dsp/fec"
	"github.com/cwbudde/algo-sdr/dsp/framing/flexframe"
	"github.com/cwbudde/algo-sdr/dsp/modem"
	"github.com/cwbudde/algo-sdr/dsp/signal"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "ALGOSDR_"

// SearchPaths are tried in order by Find.
var SearchPaths = []string{"/etc/algosdr/flexsim.hcl", "~/.config/algosdr/flexsim.hcl", "./flexsim.hcl"}

type Config struct {
	Frame   FrameConf   `koanf:"frame"`
	Sync    SyncConf    `koanf:"sync"`
	Channel ChannelConf `koanf:"channel"`
	Run     RunConf     `koanf:"run"`
}

// FrameConf is shared by the generator and the synchronizer.
type FrameConf struct {
	SamplesPerSymbol int     `koanf:"samples_per_symbol"`
	FilterDelay      int     `koanf:"filter_delay"`
	ExcessBandwidth  float64 `koanf:"excess_bandwidth"`
	PreambleLen      int     `koanf:"preamble_len"`
	Modulation       string  `koanf:"modulation"`
	CRC              string  `koanf:"crc"`
	InnerFEC         string  `koanf:"inner_fec"`
	OuterFEC         string  `koanf:"outer_fec"`
	PayloadLen       int     `koanf:"payload_len"`
}

type SyncConf struct {
	BankSize         int     `koanf:"bank_size"`
	Threshold        float64 `koanf:"threshold"`
	MaxCarrierOffset float64 `koanf:"max_carrier_offset"`
	SquelchThreshold float64 `koanf:"squelch_threshold"`
	SquelchTimeout   int     `koanf:"squelch_timeout"`
	MaxPayloadLen    int     `koanf:"max_payload_len"`
	AGCOpen          float64 `koanf:"agc_open"`
	AGCClosed        float64 `koanf:"agc_closed"`
	PLLOpen          float64 `koanf:"pll_open"`
	PLLClosed        float64 `koanf:"pll_closed"`
	TimingOpen       float64 `koanf:"timing_open"`
	TimingClosed     float64 `koanf:"timing_closed"`
}

// ChannelConf describes the simulated impairments.
type ChannelConf struct {
	Gain          float64 `koanf:"gain"`
	CarrierOffset float64 `koanf:"carrier_offset"`
	Phase         float64 `koanf:"phase"`
	Delay         float64 `koanf:"delay"`
	Noise         bool    `koanf:"noise"`
	SNR           float64 `koanf:"snr"` // dB, used when Noise is set
	Seed          uint64  `koanf:"seed"`
}

type RunConf struct {
	Frames    int    `koanf:"frames"`
	Gap       int    `koanf:"gap"`        // idle samples between frames
	BlockSize int    `koanf:"block_size"` // samples per Execute call
	Seed      uint64 `koanf:"seed"`       // payload bytes
}

// Default returns the settings used for keys missing from every source.
func Default() Config {
	ff := flexframe.DefaultConfig()
	return Config{
		Frame: FrameConf{
			SamplesPerSymbol: ff.SamplesPerSymbol,
			FilterDelay:      ff.FilterDelay,
			ExcessBandwidth:  ff.ExcessBandwidth,
			PreambleLen:      ff.PreambleLen,
			Modulation:       "qpsk",
			CRC:              "crc32",
			InnerFEC:         "none",
			OuterFEC:         "none",
			PayloadLen:       64,
		},
		Sync: SyncConf{
			BankSize:         ff.BankSize,
			Threshold:        ff.Threshold,
			MaxCarrierOffset: ff.MaxCarrierOffset,
			SquelchThreshold: ff.SquelchThreshold,
			SquelchTimeout:   ff.SquelchTimeout,
			MaxPayloadLen:    ff.MaxPayloadLen,
			AGCOpen:          ff.AGC.Open,
			AGCClosed:        ff.AGC.Closed,
			PLLOpen:          ff.PLL.Open,
			PLLClosed:        ff.PLL.Closed,
			TimingOpen:       ff.Timing.Open,
			TimingClosed:     ff.Timing.Closed,
		},
		Channel: ChannelConf{
			Gain:  1,
			Noise: true,
			SNR:   30,
			Seed:  1,
		},
		Run: RunConf{
			Frames:    8,
			Gap:       200,
			BlockSize: 256,
			Seed:      1,
		},
	}
}

// Find returns the first existing path in SearchPaths, or "".
func Find() string {
	home, _ := os.UserHomeDir()
	for _, path := range SearchPaths {
		if home != "" && strings.HasPrefix(path, "~/") {
			path = home + path[1:]
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			log.Debug("found config file", "path", path)
			return path
		}
	}
	return ""
}

// Load reads path (skipped when empty), applies the environment on top and
// returns the merged settings.
func Load(path string) (Config, error) {
	return load(path, nil)
}

// load reads the environment from environ, or os.Environ when nil.
func load(path string, environ func() []string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), hcl.Parser(true)); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
		EnvironFunc:   environ,
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// envKey maps ALGOSDR_SYNC_AGC_OPEN to sync.agc_open.
func envKey(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.Replace(key, "_", ".", 1), v
}

// Properties resolves the scheme names of the frame section.
func (c Config) Properties() (flexframe.Properties, error) {
	var (
		p   flexframe.Properties
		err error
	)
	if p.Mod, err = modem.ParseScheme(c.Frame.Modulation); err != nil {
		return p, err
	}
	if p.CRC, err = crc.ParseScheme(c.Frame.CRC); err != nil {
		return p, err
	}
	if p.FEC0, err = fec.ParseScheme(c.Frame.InnerFEC); err != nil {
		return p, err
	}
	if p.FEC1, err = fec.ParseScheme(c.Frame.OuterFEC); err != nil {
		return p, err
	}
	return p, p.Validate()
}

// FrameOptions returns the generator and synchronizer options. Logger and
// observer are left to the caller.
func (c Config) FrameOptions() []flexframe.Option {
	f, s := c.Frame, c.Sync
	return []flexframe.Option{
		flexframe.WithSamplesPerSymbol(f.SamplesPerSymbol),
		flexframe.WithFilter(f.FilterDelay, f.ExcessBandwidth),
		flexframe.WithPreambleLen(f.PreambleLen),
		flexframe.WithBankSize(s.BankSize),
		flexframe.WithThreshold(s.Threshold),
		flexframe.WithMaxCarrierOffset(s.MaxCarrierOffset),
		flexframe.WithSquelch(s.SquelchThreshold, s.SquelchTimeout),
		flexframe.WithMaxPayloadLen(s.MaxPayloadLen),
		flexframe.WithAGCBandwidths(s.AGCOpen, s.AGCClosed),
		flexframe.WithPLLBandwidths(s.PLLOpen, s.PLLClosed),
		flexframe.WithTimingBandwidths(s.TimingOpen, s.TimingClosed),
	}
}

// ChannelOptions returns the impairment settings.
func (c Config) ChannelOptions() []signal.Option {
	ch := c.Channel
	opts := []signal.Option{
		signal.WithGain(ch.Gain),
		signal.WithCarrierOffset(ch.CarrierOffset),
		signal.WithPhase(ch.Phase),
		signal.WithDelay(ch.Delay),
		signal.WithSeed(ch.Seed),
	}
	if ch.Noise {
		opts = append(opts, signal.WithSNR(ch.SNR))
	}
	return opts
}

// Validate checks the frame options, the schemes and the run section.
func (c Config) Validate() error {
	cfg := flexframe.DefaultConfig()
	for _, opt := range c.FrameOptions() {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := c.Properties(); err != nil {
		return err
	}
	r := c.Run
	if r.Frames < 0 || r.Gap < 0 || r.BlockSize < 1 || c.Frame.PayloadLen < 0 {
		return fmt.Errorf("config: invalid run settings: frames %d, gap %d, block %d, payload %d",
			r.Frames, r.Gap, r.BlockSize, c.Frame.PayloadLen)
	}
	return nil
}
