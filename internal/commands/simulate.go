// internal/commands/simulate.go
package sycobench

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hdanan/sycobench/internal/logging"
	"github.com/hdanan/sycobench/internal/report"
	"github.com/hdanan/sycobench/internal/simulate"
)

var (
	simulateSeed int64
	simulateN    int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate synthetic belief-shift data from literature priors",
	Long: `Simulate draws belief shifts for the four condition groups from
literature-derived priors and summarizes each group against control.
The output is a predicted dataset for power analysis, not a measurement.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := simulate.Run(simulateSeed, simulateN)
		if err != nil {
			return fmt.Errorf("simulate: %w", err)
		}

		report.PrintSimulation(cmd.OutOrStdout(), res)

		dir := filepath.Join(GetConfig().DataDirPath(), "simulated")
		if err := report.WriteSimulationCSV(filepath.Join(dir, "simulation_data.csv"), res); err != nil {
			return fmt.Errorf("write simulation csv: %w", err)
		}
		if err := report.WriteJSON(filepath.Join(dir, "summary_statistics.json"), res.Summaries); err != nil {
			return fmt.Errorf("write simulation summary: %w", err)
		}
		logging.LogEvent("[SIMULATE] seed %d, %d draws per group, wrote %s", res.Seed, res.NPerGroup, dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 42, "random seed for the draws")
	simulateCmd.Flags().IntVar(&simulateN, "n", 125, "participants per group")
}
