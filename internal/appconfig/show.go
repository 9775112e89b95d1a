package appconfig

import (
	"fmt"
	"io"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		return
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Models:          %v\n", cfg.Models)
	fmt.Fprintf(out, "  Embedding Model: %s\n", cfg.EmbeddingModel)
	fmt.Fprintf(out, "  Stimuli:         %s\n", cfg.StimuliFilePath())
	fmt.Fprintf(out, "  Data Dir:        %s\n", cfg.DataDirPath())
	fmt.Fprintf(out, "  Repetitions:     %d\n", cfg.RepetitionCount())
	fmt.Fprintf(out, "  Concurrency:     %d\n", cfg.WorkerCount())
	fmt.Fprintf(out, "  Timeout:         %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Shuffle Seed:    %d\n", cfg.ShuffleSeed)
	fmt.Fprintf(out, "  Bootstrap:       %d resamples, seed %d\n", cfg.ResampleCount(), cfg.BootstrapSeed)
	fmt.Fprintf(out, "  Min Words:       %d\n", cfg.MinWords())
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)

	if cfg.Debug {
		pp.SetDefaultOutput(out)
		pp.Println(cfg)
		pp.ResetDefaultOutput()
	}
}
