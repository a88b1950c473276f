package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/log"

	"github.com/cwbudde/algo-sdr/dsp/framing/detect"
	"github.com/cwbudde/algo-sdr/dsp/framing/flexframe"
)

type scanCmd struct {
	File      string  `arg:"" optional:"" type:"existingfile" help:"Interleaved float32 I/Q capture. A simulated stream is scanned when omitted."`
	Threshold float64 `help:"Normalized correlation a peak must exceed." default:"0.5"`
}

func (c *scanCmd) Run(g *globals, logger *log.Logger) error {
	cfg, err := loadConfig(g, logger)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ref, err := flexframe.Reference(cfg.FrameOptions()...)
	if err != nil {
		return err
	}

	var x []complex128
	if c.File != "" {
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		x, err = readCF32(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", c.File, err)
		}
	} else {
		p, err := cfg.Properties()
		if err != nil {
			return err
		}
		if x, _, err = transmit(cfg, p, logger); err != nil {
			return err
		}
	}

	peaks, err := detect.Search(x, ref, c.Threshold)
	if err != nil {
		return err
	}
	logger.Info("scanned", "samples", len(x), "peaks", len(peaks))
	return printPeaks(os.Stdout, peaks)
}

func printPeaks(w io.Writer, peaks []detect.Peak) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Offset\tTau\tRho\tPhase [rad]\tGain\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "------\t---\t---\t-----------\t----\n"); err != nil {
		return err
	}
	for _, p := range peaks {
		if _, err := fmt.Fprintf(tw, "%d\t%.3f\t%.3f\t%.3f\t%.3f\n", p.Offset, p.Tau, p.Rho, p.Phase, p.Gamma); err != nil {
			return err
		}
	}
	return tw.Flush()
}
