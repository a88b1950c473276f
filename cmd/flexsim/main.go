// Command flexsim sends generated frames through a simulated channel into
// a frame synchronizer and reports what was received.
//
// Usage:
//
//	flexsim [--config FILE] [--verbose] run [flags]
//	flexsim [--config FILE] scan [capture.cf32]
//
// Settings come from an HCL file (see internal/config) and ALGOSDR_*
// environment variables; flags override both.
//
// Examples:
//
//	flexsim run --frames 20 --snr 12
//	flexsim run -m qam16 --report run.yaml --capture symbols.yaml
//	flexsim run --dump stream.cf32 && flexsim scan stream.cf32
//	flexsim run --listen :9100
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/cwbudde/algo-sdr/internal/config"
)

type globals struct {
	Verbose bool   `help:"Print debug output." short:"v"`
	Config  string `help:"HCL configuration file. Searched in the default locations when unset." type:"path" placeholder:"FILE"`
}

type cli struct {
	globals

	Run  runCmd  `cmd:"" help:"Simulate a link and synchronize the received stream."`
	Scan scanCmd `cmd:"" help:"Search a capture for preambles offline."`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("flexsim"),
		kong.Description("Frame synchronizer simulator."),
		kong.UsageOnError(),
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "flexsim",
	})
	if c.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))

	err := kctx.Run(&c.globals, logger)
	kctx.FatalIfErrorf(err)
}

// loadConfig reads the file named by --config, or the first one found in
// the search paths, with the environment applied on top.
func loadConfig(g *globals, logger *log.Logger) (config.Config, error) {
	path := g.Config
	if path == "" {
		path = config.Find()
	}
	if path == "" {
		logger.Debug("no config file, using defaults and environment")
	} else {
		logger.Debug("loading config", "path", path)
	}
	return config.Load(path)
}
