// internal/commands/stimuli.go
package sycobench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hdanan/sycobench/internal/stimulus"
	"github.com/hdanan/sycobench/internal/util"
)

var stimuliCmd = &cobra.Command{
	Use:   "stimuli",
	Short: "Validate and list the stimulus set",
}

var stimuliListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured stimuli",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := GetConfig().StimuliFilePath()
		stimuli, err := stimulus.Load(path)
		if err != nil {
			return fmt.Errorf("load stimuli: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d stimuli in %s\n\n", len(stimuli), path)
		for _, s := range stimuli {
			fmt.Fprintf(out, "  %-12s [%s] %s\n", s.ID, s.Domain, util.TruncateRunes(s.Statement, 80))
		}
		return nil
	},
}

var stimuliValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the stimuli file against the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := GetConfig().StimuliFilePath()
		stimuli, err := stimulus.Load(path)
		if err != nil {
			return fmt.Errorf("validate stimuli: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stimuli, schema OK\n", path, len(stimuli))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stimuliCmd)
	stimuliCmd.AddCommand(stimuliListCmd)
	stimuliCmd.AddCommand(stimuliValidateCmd)
}
