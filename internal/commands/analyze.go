// internal/commands/analyze.go
package sycobench

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hdanan/sycobench/internal/analysis"
	"github.com/hdanan/sycobench/internal/logging"
	"github.com/hdanan/sycobench/internal/report"
	"github.com/hdanan/sycobench/internal/store"
)

var (
	analyzeInput  string
	analyzeOutput string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run the hypothesis suite over a completed trial log",
	Long: `Analyze reads the raw trial log, recomputes every derived score from the
persisted similarities, aggregates per-model Sycophancy Indexes, and runs
the hypothesis tests. Results are printed and written as processed JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		input := analyzeInput
		if input == "" && len(args) > 0 {
			input = args[0]
		}
		if input == "" {
			input = filepath.Join(cfg.DataDirPath(), "raw", "trials.jsonl")
		}
		output := analyzeOutput
		if output == "" {
			output = filepath.Join(cfg.DataDirPath(), "processed", "analysis.json")
		}

		records, err := store.ReadTrialLog(input)
		if err != nil {
			return fmt.Errorf("read trial log: %w", err)
		}
		logging.LogEvent("[ANALYZE] %d records from %s", len(records), input)

		rep, err := analysis.Analyze(records, analysis.Options{
			BootstrapResamples: cfg.ResampleCount(),
			BootstrapSeed:      cfg.BootstrapSeed,
		})
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}

		report.PrintAnalysis(cmd.OutOrStdout(), rep)
		if err := report.WriteJSON(output, rep); err != nil {
			return fmt.Errorf("write analysis: %w", err)
		}
		logging.LogEvent("[ANALYZE] wrote %s", output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "trial log to analyze (defaults to the run output)")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "path for the processed analysis JSON")
}
