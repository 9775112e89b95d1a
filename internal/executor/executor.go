// internal/executor/executor.go
// Package executor drives trial specifications to terminal trial
// records. It owns the run's concurrency: a bounded worker pool over
// independent trials, with per-stimulus justification embeddings shared
// through a single-flight cache so each stimulus is embedded at most
// once per run no matter how many trials reference it.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hdanan/sycobench/internal/experiment"
	"github.com/hdanan/sycobench/internal/logging"
	"github.com/hdanan/sycobench/internal/providers"
	"github.com/hdanan/sycobench/internal/stimulus"
	"github.com/hdanan/sycobench/internal/store"
	"github.com/hdanan/sycobench/internal/trial"
)

// defaultConcurrency bounds the worker pool when the config does not.
const defaultConcurrency = 4

// Event reports one finished (or skipped) trial to a progress consumer.
type Event struct {
	Spec    experiment.TrialSpec
	Status  trial.Status
	Skipped bool
	Done    int
	Total   int
}

// Summary is the run's terminal accounting. Every specification is
// attributed to exactly one bucket, so nothing ends ambiguous after a
// cancelled or partially failed run.
type Summary struct {
	RunID        string
	Total        int
	OK           int
	APIFailures  int
	Empty        int
	Refusals     int
	Skipped      int
	NotAttempted int
	Elapsed      time.Duration
}

// FailureRate returns the api_failure share of attempted trials.
func (s Summary) FailureRate() float64 {
	attempted := s.Total - s.Skipped - s.NotAttempted
	if attempted == 0 {
		return 0
	}
	return float64(s.APIFailures) / float64(attempted)
}

// Executor coordinates one run. All collaborators are injected; the
// executor keeps no state across restarts — resume comes entirely from
// the persisted trial store's key set.
type Executor struct {
	Responses   providers.ResponseSource
	Embedder    providers.EmbeddingSource
	Builder     *trial.Builder
	Store       *store.TrialStore
	Concurrency int
	CallTimeout time.Duration

	// Events receives one event per spec when non-nil. The channel is
	// not closed by the executor.
	Events chan<- Event

	flight   singleflight.Group
	mu       sync.Mutex
	justPro  map[string][]float64
	justCon  map[string][]float64
	progress int
}

type justificationPair struct {
	pro []float64
	con []float64
}

// Run executes every spec not already present in the store and returns
// the terminal accounting. A context cancellation stops scheduling new
// trials; in-flight trials finish and are recorded, and everything never
// started is counted as not attempted. Per-trial failures never abort
// the run.
func (e *Executor) Run(ctx context.Context, stimuli []stimulus.Stimulus, specs []experiment.TrialSpec) (Summary, error) {
	if e.Responses == nil || e.Embedder == nil || e.Builder == nil || e.Store == nil {
		return Summary{}, fmt.Errorf("executor is missing a collaborator")
	}

	byID := make(map[string]stimulus.Stimulus, len(stimuli))
	for _, s := range stimuli {
		byID[s.ID] = s
	}
	for _, spec := range specs {
		if _, ok := byID[spec.StimulusID]; !ok {
			return Summary{}, fmt.Errorf("spec references unknown stimulus %q", spec.StimulusID)
		}
	}

	e.mu.Lock()
	e.justPro = make(map[string][]float64)
	e.justCon = make(map[string][]float64)
	e.progress = 0
	e.mu.Unlock()

	start := time.Now()
	summary := Summary{RunID: uuid.NewString(), Total: len(specs)}
	var sumMu sync.Mutex
	logging.LogEvent("[RUN] run=%s starting %d specifications", summary.RunID, len(specs))

	group, groupCtx := errgroup.WithContext(ctx)
	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	group.SetLimit(concurrency)

	for _, spec := range specs {
		if e.Store.Has(spec.Key()) {
			sumMu.Lock()
			summary.Skipped++
			sumMu.Unlock()
			e.emit(Event{Spec: spec, Skipped: true, Total: len(specs)})
			continue
		}
		if groupCtx.Err() != nil {
			sumMu.Lock()
			summary.NotAttempted++
			sumMu.Unlock()
			continue
		}

		group.Go(func() error {
			if groupCtx.Err() != nil {
				// Cancelled while queued behind the concurrency limit:
				// mark explicitly rather than attempting a doomed call.
				sumMu.Lock()
				summary.NotAttempted++
				sumMu.Unlock()
				return nil
			}
			rec := e.runTrial(groupCtx, byID[spec.StimulusID], spec)
			if err := e.Store.Append(rec); err != nil {
				// A store failure is the one thing that does abort the
				// run: losing raw records silently would corrupt the
				// source of truth.
				return err
			}
			sumMu.Lock()
			switch rec.Status {
			case trial.StatusOK:
				summary.OK++
			case trial.StatusAPIFailure:
				summary.APIFailures++
			case trial.StatusEmptyResponse:
				summary.Empty++
			case trial.StatusRefusalDetected:
				summary.Refusals++
			}
			sumMu.Unlock()
			e.emit(Event{Spec: spec, Status: rec.Status, Total: len(specs)})
			return nil
		})
	}

	err := group.Wait()
	summary.Elapsed = time.Since(start)
	if err != nil {
		return summary, err
	}
	if ctx.Err() != nil && summary.NotAttempted > 0 {
		logging.LogEvent("[RUN] cancelled with %d specifications not attempted", summary.NotAttempted)
	}
	return summary, nil
}

// runTrial drives a single spec to a terminal record. Upstream and
// input-contract failures are isolated here; the only errors that
// escape Run are persistence failures.
func (e *Executor) runTrial(ctx context.Context, stim stimulus.Stimulus, spec experiment.TrialSpec) trial.Record {
	prompt, err := experiment.BuildPrompt(stim, spec.Condition)
	if err != nil {
		logging.LogEvent("[RUN] %s: bad prompt: %v", spec.Key(), err)
		return e.Builder.Failure(spec, err)
	}

	callCtx, cancel := e.withCallTimeout(ctx)
	response, err := e.Responses.Generate(callCtx, spec.ModelID, prompt)
	cancel()
	if err != nil {
		logCallFailure(spec, "generate", err)
		return e.Builder.Failure(spec, err)
	}

	pair, err := e.justificationEmbeddings(ctx, stim)
	if err != nil {
		logCallFailure(spec, "justification embedding", err)
		return e.Builder.Failure(spec, err)
	}

	callCtx, cancel = e.withCallTimeout(ctx)
	responseEmbedding, err := e.Embedder.Embed(callCtx, response)
	cancel()
	if err != nil {
		logCallFailure(spec, "response embedding", err)
		return e.Builder.Failure(spec, err)
	}

	rec, err := e.Builder.Build(spec, response, pair.pro, pair.con, responseEmbedding)
	if err != nil {
		// Input-contract failure (dimension mismatch, degenerate
		// vector). Fatal to this trial only; the full context goes to
		// the log and the contract error rides in the record.
		logging.LogEvent("[RUN] %s: input contract violation: %v (stimulus=%s model=%s)", spec.Key(), err, stim.ID, spec.ModelID)
		return e.Builder.Failure(spec, fmt.Errorf("input contract: %w", err))
	}
	logging.LogTrial("RUN", spec.Key(), response)
	return rec
}

// logCallFailure writes one audit line per failed provider call. Upstream
// failures are tagged so provider flakiness is easy to grep apart from
// local errors such as a cancelled run context.
func logCallFailure(spec experiment.TrialSpec, op string, err error) {
	if providers.IsProviderError(err) {
		logging.LogEvent("[RUN] %s: %s: provider failure: %v", spec.Key(), op, err)
		return
	}
	logging.LogEvent("[RUN] %s: %s failed: %v", spec.Key(), op, err)
}

// justificationEmbeddings returns the pro/con justification vectors for
// a stimulus, computing them at most once per run. Concurrent callers
// for the same stimulus collapse into a single embedding call pair.
func (e *Executor) justificationEmbeddings(ctx context.Context, stim stimulus.Stimulus) (justificationPair, error) {
	e.mu.Lock()
	pro, okPro := e.justPro[stim.ID]
	con, okCon := e.justCon[stim.ID]
	e.mu.Unlock()
	if okPro && okCon {
		return justificationPair{pro: pro, con: con}, nil
	}

	v, err, _ := e.flight.Do(stim.ID, func() (any, error) {
		callCtx, cancel := e.withCallTimeout(ctx)
		defer cancel()
		proVec, err := e.Embedder.Embed(callCtx, stim.ProJustification)
		if err != nil {
			return nil, err
		}
		conCtx, conCancel := e.withCallTimeout(ctx)
		defer conCancel()
		conVec, err := e.Embedder.Embed(conCtx, stim.ConJustification)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.justPro[stim.ID] = proVec
		e.justCon[stim.ID] = conVec
		e.mu.Unlock()
		return justificationPair{pro: proVec, con: conVec}, nil
	})
	if err != nil {
		// Drop the failed flight so a later trial for this stimulus can
		// retry instead of inheriting the error forever.
		e.flight.Forget(stim.ID)
		return justificationPair{}, err
	}
	pair, ok := v.(justificationPair)
	if !ok {
		return justificationPair{}, errors.New("unexpected single-flight result type")
	}
	return pair, nil
}

func (e *Executor) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.CallTimeout)
}

func (e *Executor) emit(ev Event) {
	e.mu.Lock()
	e.progress++
	ev.Done = e.progress
	e.mu.Unlock()
	if e.Events != nil {
		e.Events <- ev
	}
}
