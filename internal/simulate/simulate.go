// internal/simulate/simulate.go
// Package simulate generates synthetic belief-shift data from
// literature-derived priors. The output is a predicted dataset for
// power analysis and report plumbing, not an empirical measurement.
package simulate

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hdanan/sycobench/internal/stats"
)

// Prior is one condition group's belief-shift distribution, with the
// literature source the parameters were taken from.
type Prior struct {
	Group  string  `json:"group"`
	Mu     float64 `json:"mu"`
	Sigma  float64 `json:"sigma"`
	Source string  `json:"source"`
}

// DefaultPriors carries the published effect-size priors per group.
// Order is the canonical reporting order; Control must stay last since
// every other group's effect size is computed against it.
var DefaultPriors = []Prior{
	{Group: "Sycophancy", Mu: 0.85, Sigma: 0.6, Source: "Perez et al. (2022); Lord et al. (1979)"},
	{Group: "Neutral", Mu: 0.20, Sigma: 0.4, Source: "RLHF mean-reversion hypothesis"},
	{Group: "Adversarial", Mu: -0.41, Sigma: 1.1, Source: "Nyhan & Reifler (2010)"},
	{Group: "Control", Mu: 0.02, Sigma: 0.2, Source: "baseline stability assumption"},
}

// shiftBound clips draws to the Likert scale range.
const shiftBound = 6.0

// Observation is one simulated participant's belief shift.
type Observation struct {
	ParticipantID string  `json:"participantId"`
	Group         string  `json:"group"`
	BeliefShift   float64 `json:"beliefShift"`
}

// GroupSummary is one group's descriptive and inferential summary.
// CohensD compares the group against Control with a pooled standard
// deviation; PValue is the two-sided one-sample t-test against zero.
type GroupSummary struct {
	Group        string  `json:"group"`
	N            int     `json:"n"`
	Mean         float64 `json:"mean"`
	SD           float64 `json:"sd"`
	CohensD      float64 `json:"cohensD"`
	EffectLabel  string  `json:"effectLabel"`
	TStatistic   float64 `json:"tStatistic"`
	PValue       float64 `json:"pValue"`
	Significance string  `json:"significance"`
}

// Result is a complete simulation run.
type Result struct {
	Seed         int64          `json:"seed"`
	NPerGroup    int            `json:"nPerGroup"`
	Priors       []Prior        `json:"priors"`
	Observations []Observation  `json:"observations"`
	Summaries    []GroupSummary `json:"summaries"`
}

// Run draws nPerGroup belief shifts per prior group with a seeded
// generator and summarizes each group. The same seed always produces
// the same dataset.
func Run(seed int64, nPerGroup int) (Result, error) {
	if nPerGroup < 2 {
		return Result{}, fmt.Errorf("%w: simulation needs at least 2 per group, got %d", stats.ErrInsufficientSampleSize, nPerGroup)
	}

	rng := rand.New(rand.NewSource(seed))
	res := Result{
		Seed:      seed,
		NPerGroup: nPerGroup,
		Priors:    DefaultPriors,
	}

	shifts := make(map[string][]float64, len(DefaultPriors))
	for _, prior := range DefaultPriors {
		group := make([]float64, nPerGroup)
		tag := strings.ToUpper(prior.Group[:3])
		for i := range group {
			v := rng.NormFloat64()*prior.Sigma + prior.Mu
			group[i] = math.Max(-shiftBound, math.Min(shiftBound, v))
			res.Observations = append(res.Observations, Observation{
				ParticipantID: fmt.Sprintf("%s_%03d", tag, i+1),
				Group:         prior.Group,
				BeliefShift:   group[i],
			})
		}
		shifts[prior.Group] = group
	}

	control := shifts["Control"]
	for _, prior := range DefaultPriors {
		group := shifts[prior.Group]
		summary := GroupSummary{
			Group: prior.Group,
			N:     len(group),
			Mean:  stat.Mean(group, nil),
			SD:    stat.StdDev(group, nil),
		}
		if prior.Group != "Control" {
			summary.CohensD = pooledCohensD(group, control)
		}
		summary.EffectLabel = stats.InterpretEffect(summary.CohensD)

		summary.TStatistic, summary.PValue = oneSampleTwoSided(group)
		summary.Significance = significanceStars(summary.PValue)

		res.Summaries = append(res.Summaries, summary)
	}
	return res, nil
}

// pooledCohensD follows Cohen (1988): mean difference over the pooled
// standard deviation of both groups.
func pooledCohensD(group, control []float64) float64 {
	n1, n2 := float64(len(group)), float64(len(control))
	v1 := stat.Variance(group, nil)
	v2 := stat.Variance(control, nil)
	pooled := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2))
	if pooled == 0 {
		return 0
	}
	return (stat.Mean(group, nil) - stat.Mean(control, nil)) / pooled
}

func oneSampleTwoSided(data []float64) (t, p float64) {
	n := float64(len(data))
	mean := stat.Mean(data, nil)
	sd := stat.StdDev(data, nil)
	if sd == 0 {
		return 0, 1
	}
	t = mean / (sd / math.Sqrt(n))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}
	p = 2 * tDist.CDF(-math.Abs(t))
	return t, p
}

func significanceStars(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	default:
		return "ns"
	}
}
