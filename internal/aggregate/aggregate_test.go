// internal/aggregate/aggregate_test.go
package aggregate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/hdanan/sycobench/internal/experiment"
	"github.com/hdanan/sycobench/internal/trial"
)

func okRecord(stim string, cond experiment.Condition, model string, rep int, alignment, challenge float64) trial.Record {
	simCon := challenge
	simPro := alignment + challenge
	return trial.Record{
		Spec: experiment.TrialSpec{
			StimulusID: stim,
			Condition:  cond,
			ModelID:    model,
			Repetition: rep,
		},
		Status:         trial.StatusOK,
		Timestamp:      "2026-08-01T00:00:00Z",
		ResponseText:   "this is a sufficiently long synthetic response for testing",
		SimPro:         &simPro,
		SimCon:         &simCon,
		AlignmentScore: &alignment,
		ChallengeScore: &challenge,
	}
}

func failedRecord(stim string, cond experiment.Condition, model string, rep int) trial.Record {
	return trial.Record{
		Spec: experiment.TrialSpec{
			StimulusID: stim,
			Condition:  cond,
			ModelID:    model,
			Repetition: rep,
		},
		Status:    trial.StatusAPIFailure,
		Error:     "generate: connection refused",
		Timestamp: "2026-08-01T00:00:00Z",
	}
}

// echoRecords builds a model that perfectly echoes the injected
// framing: alignment +0.5 under pro, -0.5 under con.
func echoRecords(model string, stimuli []string, reps int) []trial.Record {
	var recs []trial.Record
	for _, stim := range stimuli {
		for rep := 0; rep < reps; rep++ {
			recs = append(recs, okRecord(stim, experiment.SycophancyPro, model, rep, 0.5, 0.1))
			recs = append(recs, okRecord(stim, experiment.SycophancyCon, model, rep, -0.5, 0.6))
			recs = append(recs, okRecord(stim, experiment.Neutral, model, rep, 0.0, 0.3))
			recs = append(recs, okRecord(stim, experiment.Adversarial, model, rep, 0.0, 0.7))
		}
	}
	return recs
}

func TestAggregatePerfectEcho(t *testing.T) {
	recs := echoRecords("llama3.2:3b", []string{"s01", "s02", "s03"}, 3)

	results := Aggregate(recs)
	res, ok := results["llama3.2:3b"]
	if !ok {
		t.Fatalf("missing model result")
	}
	if res.NValidTrials != len(recs) {
		t.Fatalf("NValidTrials = %d, want %d", res.NValidTrials, len(recs))
	}
	if res.SycophancyIndex.Insufficient {
		t.Fatalf("pooled SI unexpectedly insufficient: %s", res.SycophancyIndex.Reason)
	}
	if math.Abs(res.SycophancyIndex.Value-1.0) > 1e-9 {
		t.Fatalf("pooled SI = %v, want 1.0", res.SycophancyIndex.Value)
	}
	if res.SycophancyIndex.Method != SIPooled {
		t.Fatalf("pooled SI method = %q", res.SycophancyIndex.Method)
	}
	if math.Abs(res.SIPerStimulus.Value-1.0) > 1e-9 {
		t.Fatalf("per-stimulus SI = %v, want 1.0", res.SIPerStimulus.Value)
	}

	adv := res.PerCondition[experiment.Adversarial]
	if math.Abs(adv.Mean-0.7) > 1e-9 || adv.N != 9 {
		t.Fatalf("adversarial stats = %+v", adv)
	}
	neutral := res.PerCondition[experiment.Neutral]
	if math.Abs(neutral.Mean-0.3) > 1e-9 {
		t.Fatalf("neutral mean = %v", neutral.Mean)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	recs := echoRecords("m", []string{"s01", "s02", "s03", "s04"}, 4)
	// Perturb alignments so the correlation is not exactly 1 and float
	// accumulation order matters.
	for i := range recs {
		if code, ok := recs[i].Spec.Condition.Code(); ok {
			v := code*0.5 + 0.01*float64(i%7)
			recs[i].AlignmentScore = &v
		}
	}

	base := Aggregate(recs)["m"]

	shuffled := make([]trial.Record, len(recs))
	copy(shuffled, recs)
	rand.New(rand.NewSource(99)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	got := Aggregate(shuffled)["m"]

	if base.SycophancyIndex.Value != got.SycophancyIndex.Value {
		t.Fatalf("pooled SI depends on input order: %v vs %v", base.SycophancyIndex.Value, got.SycophancyIndex.Value)
	}
	if base.SIPerStimulus.Value != got.SIPerStimulus.Value {
		t.Fatalf("per-stimulus SI depends on input order")
	}
}

func TestAggregateInsufficientData(t *testing.T) {
	recs := []trial.Record{
		okRecord("s01", experiment.SycophancyPro, "m", 0, 0.4, 0.1),
		okRecord("s01", experiment.SycophancyPro, "m", 1, 0.3, 0.1),
		okRecord("s01", experiment.SycophancyCon, "m", 0, -0.4, 0.5),
		okRecord("s01", experiment.SycophancyCon, "m", 1, -0.3, 0.5),
	}

	res := Aggregate(recs)["m"]
	if !res.SycophancyIndex.Insufficient {
		t.Fatalf("expected insufficient pooled SI with 2 records per arm")
	}
	if res.SycophancyIndex.Reason == "" {
		t.Fatalf("insufficient SI must carry a reason")
	}
	if !res.SIPerStimulus.Insufficient {
		t.Fatalf("expected insufficient per-stimulus SI")
	}

	if _, err := PooledSI(recs); err == nil {
		t.Fatalf("PooledSI should error on insufficient data")
	}
}

func TestAggregateExcludesInvalidRecords(t *testing.T) {
	recs := echoRecords("m", []string{"s01", "s02"}, 3)
	withFailures := append([]trial.Record{}, recs...)
	withFailures = append(withFailures,
		failedRecord("s01", experiment.SycophancyPro, "m", 9),
		failedRecord("s02", experiment.Adversarial, "m", 9),
	)

	res := Aggregate(withFailures)["m"]
	if res.NValidTrials != len(recs) {
		t.Fatalf("NValidTrials = %d, want %d (failures must be excluded)", res.NValidTrials, len(recs))
	}

	clean := Aggregate(recs)["m"]
	if res.SycophancyIndex.Value != clean.SycophancyIndex.Value {
		t.Fatalf("failed records changed the SI")
	}
}

func TestConditionStatsSingleRecordArm(t *testing.T) {
	recs := []trial.Record{
		okRecord("s01", experiment.Adversarial, "m", 0, 0.0, 0.7),
		okRecord("s01", experiment.Neutral, "m", 0, 0.0, 0.2),
		okRecord("s01", experiment.Neutral, "m", 1, 0.0, 0.4),
		okRecord("s01", experiment.Neutral, "m", 2, 0.0, 0.6),
	}

	res := Aggregate(recs)["m"]

	adv := res.PerCondition[experiment.Adversarial]
	if adv.N != 1 {
		t.Fatalf("adversarial N = %d, want 1", adv.N)
	}
	// A one-record arm has no dispersion estimate; it must be absent,
	// not reported as 0.0.
	if adv.SD != nil {
		t.Fatalf("adversarial SD = %v, want nil for a single record", *adv.SD)
	}
	if adv.MeanCILo != nil || adv.MeanCIHi != nil {
		t.Fatalf("adversarial CI should be nil for a single record")
	}

	neutral := res.PerCondition[experiment.Neutral]
	if neutral.SD == nil || *neutral.SD <= 0 {
		t.Fatalf("neutral SD = %v, want positive", neutral.SD)
	}
	if neutral.MeanCILo == nil || neutral.MeanCIHi == nil {
		t.Fatalf("neutral CI missing with N=3")
	}
	if !(*neutral.MeanCILo < neutral.Mean && neutral.Mean < *neutral.MeanCIHi) {
		t.Fatalf("CI [%v, %v] does not bracket mean %v", *neutral.MeanCILo, *neutral.MeanCIHi, neutral.Mean)
	}
}

func TestSignedAlignments(t *testing.T) {
	recs := []trial.Record{
		okRecord("s01", experiment.SycophancyPro, "m", 0, 0.4, 0.1),
		okRecord("s01", experiment.SycophancyCon, "m", 0, -0.3, 0.5),
		okRecord("s01", experiment.Neutral, "m", 0, 0.2, 0.3),
	}

	signed := SignedAlignments(recs)
	if len(signed) != 2 {
		t.Fatalf("signed alignments = %d, want 2 (neutral excluded)", len(signed))
	}
	// Records sort con before pro within the stimulus.
	if math.Abs(signed[0]-0.3) > 1e-9 || math.Abs(signed[1]-0.4) > 1e-9 {
		t.Fatalf("signed alignments = %v", signed)
	}
}

func TestChallengeMeansByStimulus(t *testing.T) {
	recs := []trial.Record{
		okRecord("s01", experiment.Adversarial, "m", 0, 0.0, 0.6),
		okRecord("s01", experiment.Adversarial, "m", 1, 0.0, 0.8),
		okRecord("s02", experiment.Adversarial, "m", 0, 0.0, 0.4),
		okRecord("s01", experiment.Neutral, "m", 0, 0.0, 0.2),
	}

	means := ChallengeMeansByStimulus(recs, experiment.Adversarial)
	if len(means) != 2 {
		t.Fatalf("stimulus count = %d, want 2", len(means))
	}
	if math.Abs(means["s01"]-0.7) > 1e-9 {
		t.Fatalf("s01 mean = %v, want 0.7", means["s01"])
	}
	if math.Abs(means["s02"]-0.4) > 1e-9 {
		t.Fatalf("s02 mean = %v, want 0.4", means["s02"])
	}
}
