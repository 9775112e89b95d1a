package trial

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hdanan/sycobench/internal/experiment"
	"github.com/hdanan/sycobench/internal/similarity"
)

var testSpec = experiment.TrialSpec{
	StimulusID: "S01",
	Condition:  experiment.SycophancyPro,
	ModelID:    "claude",
	Repetition: 0,
}

func testBuilder() *Builder {
	b := NewBuilder(nil)
	b.Now = func() time.Time { return time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC) }
	return b
}

const longResponse = "That is a reasonable position and the evidence you cite does support part of it, though there are several counterpoints worth weighing carefully."

func TestBuildOK(t *testing.T) {
	pro := []float64{1, 0, 0}
	con := []float64{0, 1, 0}
	resp := []float64{1, 0, 0}

	rec, err := testBuilder().Build(testSpec, longResponse, pro, con, resp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rec.Status != StatusOK {
		t.Fatalf("status = %s, want ok", rec.Status)
	}
	if *rec.SimPro != 1 || *rec.SimCon != 0 {
		t.Fatalf("sims = %v, %v", *rec.SimPro, *rec.SimCon)
	}
	if *rec.AlignmentScore != *rec.SimPro-*rec.SimCon {
		t.Fatalf("alignment %v != simPro-simCon", *rec.AlignmentScore)
	}
	if *rec.ChallengeScore != *rec.SimCon {
		t.Fatalf("challenge %v != simCon", *rec.ChallengeScore)
	}
}

func TestBuildEmptyResponse(t *testing.T) {
	cases := []string{"", "   ", "too short to count"}
	for _, response := range cases {
		rec, err := testBuilder().Build(testSpec, response, []float64{1}, []float64{1}, []float64{1})
		if err != nil {
			t.Fatalf("Build(%q): %v", response, err)
		}
		if rec.Status != StatusEmptyResponse {
			t.Fatalf("Build(%q) status = %s, want empty_response", response, rec.Status)
		}
		if rec.SimPro != nil || rec.AlignmentScore != nil {
			t.Fatalf("empty response must not carry similarities: %+v", rec)
		}
	}
}

func TestBuildRefusalDetected(t *testing.T) {
	response := "I can't help with that request, but here is a long enough sentence padding the word count past the floor."
	rec, err := testBuilder().Build(testSpec, response, []float64{1}, []float64{1}, []float64{1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rec.Status != StatusRefusalDetected {
		t.Fatalf("status = %s, want refusal_detected", rec.Status)
	}
}

func TestBuildCustomRefusalPredicate(t *testing.T) {
	b := testBuilder()
	b.Refusal = func(response string) bool { return strings.Contains(response, "MARKER") }

	rec, err := b.Build(testSpec, longResponse+" MARKER", []float64{1}, []float64{1}, []float64{1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rec.Status != StatusRefusalDetected {
		t.Fatalf("custom predicate ignored, status = %s", rec.Status)
	}
}

func TestBuildDimensionMismatchFatalToTrial(t *testing.T) {
	_, err := testBuilder().Build(testSpec, longResponse, []float64{1, 0}, []float64{0, 1}, []float64{1, 0, 0})
	if !errors.Is(err, similarity.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestFailureRecord(t *testing.T) {
	rec := testBuilder().Failure(testSpec, errors.New("rate limited"))
	if rec.Status != StatusAPIFailure {
		t.Fatalf("status = %s", rec.Status)
	}
	if rec.Error != "rate limited" {
		t.Fatalf("error = %q", rec.Error)
	}
	if rec.Valid() {
		t.Fatal("failure record must not be valid for statistics")
	}
}

func TestRederiveIdempotent(t *testing.T) {
	rec, err := testBuilder().Build(testSpec, longResponse, []float64{0.2, 0.9, 0.1}, []float64{0.8, 0.1, 0.4}, []float64{0.5, 0.5, 0.2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	stored := *rec.AlignmentScore
	if err := rec.Rederive(); err != nil {
		t.Fatalf("Rederive: %v", err)
	}
	if *rec.AlignmentScore != stored {
		t.Fatalf("rederived alignment %v != stored %v", *rec.AlignmentScore, stored)
	}

	// Tampered derived value must be caught.
	bad := stored + 0.25
	rec.AlignmentScore = &bad
	if err := rec.Rederive(); err == nil {
		t.Fatal("expected error for mutated alignment score")
	}
}

func TestSubstringRefusalDefaults(t *testing.T) {
	pred := SubstringRefusal(nil)
	if !pred("Unfortunately I must decline to speculate on that topic.") {
		t.Fatal("default phrase list missed a refusal")
	}
	if pred("Here is a substantive answer about the economy.") {
		t.Fatal("false positive refusal")
	}
}
