// internal/commands/run.go
package sycobench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hdanan/sycobench/internal/executor"
	"github.com/hdanan/sycobench/internal/experiment"
	"github.com/hdanan/sycobench/internal/logging"
	"github.com/hdanan/sycobench/internal/providers/openai"
	"github.com/hdanan/sycobench/internal/report"
	"github.com/hdanan/sycobench/internal/stimulus"
	"github.com/hdanan/sycobench/internal/store"
	"github.com/hdanan/sycobench/internal/trial"
	"github.com/hdanan/sycobench/internal/tui"
)

var (
	runNoTUI       bool
	runDryRun      bool
	runModels      []string
	runRepetitions int
	runShuffleSeed int64
	runResume      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the trial matrix against the configured models",
	Long: `Run generates the full stimulus x condition x model x repetition matrix,
presents each prompt to its model, embeds the responses, and appends one
scored record per trial to the raw trial log. Completed trials found in
the log are skipped, so an interrupted run resumes where it left off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrials(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runNoTUI, "no-tui", false, "log progress lines instead of the interactive display")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the trial matrix without calling any model")
	runCmd.Flags().StringSliceVar(&runModels, "models", nil, "override the configured model list")
	runCmd.Flags().IntVar(&runRepetitions, "repetitions", 0, "override the configured repetition count")
	runCmd.Flags().Int64Var(&runShuffleSeed, "shuffle-seed", 0, "override the configured shuffle seed")
	runCmd.Flags().StringVar(&runResume, "resume", "", "trial log to resume into (defaults to the run output)")
}

func runTrials(cmd *cobra.Command) error {
	cfg := GetConfig()
	models := cfg.Models
	if len(runModels) > 0 {
		models = runModels
	}
	if len(models) == 0 {
		return errors.New("no models configured; set models in the config file")
	}
	repetitions := cfg.RepetitionCount()
	if runRepetitions > 0 {
		repetitions = runRepetitions
	}
	seed := cfg.ShuffleSeed
	if runShuffleSeed != 0 {
		seed = runShuffleSeed
	}

	if DebugEnabled() {
		logging.LogEvent("[DEBUG] effective run settings: models=%v repetitions=%d seed=%d concurrency=%d",
			models, repetitions, seed, cfg.WorkerCount())
	}

	stimuli, err := stimulus.Load(cfg.StimuliFilePath())
	if err != nil {
		return fmt.Errorf("load stimuli: %w", err)
	}

	specs, err := experiment.GenerateMatrix(stimuli, experiment.Conditions, models, repetitions)
	if err != nil {
		return fmt.Errorf("build matrix: %w", err)
	}
	specs = experiment.Shuffle(specs, seed)

	if runDryRun {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d trials (%d stimuli x %d conditions x %d models x %d repetitions)\n\n",
			len(specs), len(stimuli), len(experiment.Conditions), len(models), repetitions)
		for _, spec := range specs {
			fmt.Fprintln(out, " ", spec.Key())
		}
		return nil
	}

	var opts []openai.Option
	if cfg.MaxTokens > 0 {
		opts = append(opts, openai.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.EmbeddingDims > 0 {
		opts = append(opts, openai.WithEmbeddingDims(cfg.EmbeddingDims))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if key := cfg.APIKey(); key != "" {
		opts = append(opts, openai.WithAPIKey(key))
	}
	client, err := openai.New(cfg.EmbeddingModel, opts...)
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}

	cache, err := store.OpenEmbedCache(cfg.CacheDir, client)
	if err != nil {
		return fmt.Errorf("open embedding cache: %w", err)
	}
	defer cache.Close()

	trialLog := runResume
	if trialLog == "" {
		trialLog = filepath.Join(cfg.DataDirPath(), "raw", "trials.jsonl")
	}
	trialStore, err := store.OpenTrialStore(trialLog)
	if err != nil {
		return fmt.Errorf("open trial store: %w", err)
	}
	defer trialStore.Close()

	builder := trial.NewBuilder(cfg.RefusalPhrases)
	builder.MinWords = cfg.MinWords()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan executor.Event, len(specs))
	exec := &executor.Executor{
		Responses:   client,
		Embedder:    cache,
		Builder:     builder,
		Store:       trialStore,
		Concurrency: cfg.WorkerCount(),
		CallTimeout: cfg.RequestTimeout(),
		Events:      events,
	}

	logging.LogEvent("[RUN] %d specs across %d models (%d already persisted)",
		len(specs), len(models), trialStore.Count())

	var summary executor.Summary
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(events)
		summary, runErr = exec.Run(runCtx, stimuli, specs)
	}()

	if runNoTUI {
		for ev := range events {
			if ev.Skipped {
				continue
			}
			logging.LogEvent("[RUN] %d/%d %s %s", ev.Done, ev.Total, ev.Spec.Key(), ev.Status)
		}
	} else {
		if err := tui.Run(tui.NewProgress(len(specs), events, cancel)); err != nil {
			return fmt.Errorf("progress display: %w", err)
		}
	}
	<-done

	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}
	report.PrintRunSummary(cmd.OutOrStdout(), summary)
	return nil
}
