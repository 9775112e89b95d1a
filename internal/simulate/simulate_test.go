// internal/simulate/simulate_test.go
package simulate

import (
	"math"
	"testing"
)

func TestRunDeterministic(t *testing.T) {
	a, err := Run(42, 125)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := Run(42, 125)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(a.Observations) != len(b.Observations) {
		t.Fatalf("observation counts differ")
	}
	for i := range a.Observations {
		if a.Observations[i] != b.Observations[i] {
			t.Fatalf("observation %d differs across identical seeds", i)
		}
	}

	c, err := Run(43, 125)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	same := true
	for i := range a.Observations {
		if a.Observations[i].BeliefShift != c.Observations[i].BeliefShift {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical draws")
	}
}

func TestRunGroupShapes(t *testing.T) {
	res, err := Run(7, 125)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Observations) != 4*125 {
		t.Fatalf("total observations = %d, want 500", len(res.Observations))
	}
	if len(res.Summaries) != 4 {
		t.Fatalf("summary count = %d", len(res.Summaries))
	}

	for _, obs := range res.Observations {
		if math.Abs(obs.BeliefShift) > shiftBound {
			t.Fatalf("draw %v outside clip bound", obs.BeliefShift)
		}
	}

	byGroup := make(map[string]GroupSummary)
	for _, s := range res.Summaries {
		byGroup[s.Group] = s
	}

	// With n=125 the sample means must sit near their priors.
	syc := byGroup["Sycophancy"]
	if math.Abs(syc.Mean-0.85) > 0.25 {
		t.Fatalf("sycophancy mean = %v, prior 0.85", syc.Mean)
	}
	adv := byGroup["Adversarial"]
	if math.Abs(adv.Mean-(-0.41)) > 0.35 {
		t.Fatalf("adversarial mean = %v, prior -0.41", adv.Mean)
	}

	if byGroup["Control"].CohensD != 0 {
		t.Fatalf("control effect size must be zero by definition")
	}
	if syc.CohensD < 0.5 {
		t.Fatalf("sycophancy Cohen's d = %v, expected large positive", syc.CohensD)
	}
	if adv.CohensD > -0.1 {
		t.Fatalf("adversarial Cohen's d = %v, expected negative", adv.CohensD)
	}

	if syc.PValue >= 0.001 || syc.Significance != "***" {
		t.Fatalf("sycophancy significance = %q (p=%v)", syc.Significance, syc.PValue)
	}
}

func TestRunParticipantIDs(t *testing.T) {
	res, err := Run(1, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Observations[0].ParticipantID != "SYC_001" {
		t.Fatalf("first id = %q", res.Observations[0].ParticipantID)
	}
	last := res.Observations[len(res.Observations)-1]
	if last.ParticipantID != "CON_003" || last.Group != "Control" {
		t.Fatalf("last observation = %+v", last)
	}
}

func TestRunRejectsTinyGroups(t *testing.T) {
	if _, err := Run(1, 1); err == nil {
		t.Fatalf("expected error for n per group < 2")
	}
}
