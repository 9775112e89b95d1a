// internal/stats/stats.go
// Package stats implements the inferential layer: t-tests, effect
// sizes, confidence intervals, and the percentile bootstrap. Every
// precondition failure is a typed error; nothing here ever returns a
// silent NaN for a caller to mistake for a null effect.
package stats

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInsufficientSampleSize is returned when an arm has too few valid
// observations for the requested test.
var ErrInsufficientSampleSize = errors.New("insufficient sample size")

// TestResult is one row of the statistical output table.
type TestResult struct {
	Hypothesis string  `json:"hypothesis"`
	N          int     `json:"n"`
	Statistic  float64 `json:"statistic"`
	DF         float64 `json:"df"`
	PValue     float64 `json:"pValueOneTailed"`
	EffectSize float64 `json:"effectSize"`
	CILow      float64 `json:"ciLow"`
	CIHigh     float64 `json:"ciHigh"`
	Mean       float64 `json:"mean"`
	SD         float64 `json:"sd"`
}

// RejectNull reports significance at the conventional 0.05 level.
func (r TestResult) RejectNull() bool { return r.PValue < 0.05 }

// OneSampleTTest runs a one-tailed one-sample t-test of data against mu
// under the alternative mean > mu. The effect size is Cohen's d
// (mean-mu)/SD with an approximate 95% CI.
func OneSampleTTest(hypothesis string, data []float64, mu float64) (TestResult, error) {
	n := len(data)
	if n < 2 {
		return TestResult{}, fmt.Errorf("%w: one-sample t-test needs n >= 2, got %d", ErrInsufficientSampleSize, n)
	}

	mean := stat.Mean(data, nil)
	sd := math.Sqrt(stat.Variance(data, nil))
	if sd == 0 {
		return TestResult{}, fmt.Errorf("%w: zero variance in sample of %d", ErrInsufficientSampleSize, n)
	}

	df := float64(n - 1)
	t := (mean - mu) / (sd / math.Sqrt(float64(n)))
	d := (mean - mu) / sd
	ciLow, ciHigh := cohensDCI(d, n, df)

	return TestResult{
		Hypothesis: hypothesis,
		N:          n,
		Statistic:  t,
		DF:         df,
		PValue:     oneTailedP(t, df),
		EffectSize: d,
		CILow:      ciLow,
		CIHigh:     ciHigh,
		Mean:       mean,
		SD:         sd,
	}, nil
}

// PairedTTest runs a one-tailed paired t-test under the alternative
// mean(x-y) > 0. Pairs must already be aligned by the caller (here, by
// stimulus id). Cohen's d for paired samples is mean difference over SD
// of the differences.
func PairedTTest(hypothesis string, x, y []float64) (TestResult, error) {
	if len(x) != len(y) {
		return TestResult{}, fmt.Errorf("paired t-test requires equal-length samples: %d vs %d", len(x), len(y))
	}
	diffs := make([]float64, len(x))
	for i := range x {
		diffs[i] = x[i] - y[i]
	}
	return OneSampleTTest(hypothesis, diffs, 0)
}

// CorrelationTTest converts a Pearson r over n pairs into a one-tailed
// t-test of r > 0 via t = r*sqrt((n-2)/(1-r^2)) with n-2 degrees of
// freedom.
func CorrelationTTest(hypothesis string, r float64, n int) (TestResult, error) {
	if n < 3 {
		return TestResult{}, fmt.Errorf("%w: correlation test needs n >= 3, got %d", ErrInsufficientSampleSize, n)
	}
	if math.Abs(r) >= 1 {
		// Perfect correlation: the statistic diverges; report a hard
		// boundary rather than Inf arithmetic downstream.
		p := 0.0
		if r < 0 {
			p = 1.0
		}
		return TestResult{Hypothesis: hypothesis, N: n, Statistic: math.Inf(int(math.Copysign(1, r))), DF: float64(n - 2), PValue: p, EffectSize: r}, nil
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	return TestResult{
		Hypothesis: hypothesis,
		N:          n,
		Statistic:  t,
		DF:         df,
		PValue:     oneTailedP(t, df),
		EffectSize: r,
	}, nil
}

// Pearson computes the Pearson correlation between two equal-length
// sequences.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("correlation requires equal-length sequences: %d vs %d", len(x), len(y))
	}
	if len(x) < 3 {
		return 0, fmt.Errorf("%w: correlation needs n >= 3, got %d", ErrInsufficientSampleSize, len(x))
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, fmt.Errorf("%w: correlation undefined (zero variance arm)", ErrInsufficientSampleSize)
	}
	return r, nil
}

// MeanCI returns the t-distribution confidence interval for the mean.
func MeanCI(data []float64, confidence float64) (lo, hi float64, err error) {
	n := len(data)
	if n < 2 {
		return 0, 0, fmt.Errorf("%w: confidence interval needs n >= 2, got %d", ErrInsufficientSampleSize, n)
	}
	mean := stat.Mean(data, nil)
	se := math.Sqrt(stat.Variance(data, nil) / float64(n))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	h := se * tDist.Quantile((1+confidence)/2)
	return mean - h, mean + h, nil
}

// Bootstrap computes a seeded percentile bootstrap CI for a statistic
// over n observations. The statistic callback receives a resampled
// index multiset and may reject a degenerate resample by returning
// ok=false; rejected resamples are drawn again up to a bounded number
// of attempts.
func Bootstrap(n, resamples int, seed int64, statistic func(indices []int) (float64, bool)) (ciLow, ciHigh float64, err error) {
	if n < 2 {
		return 0, 0, fmt.Errorf("%w: bootstrap needs n >= 2, got %d", ErrInsufficientSampleSize, n)
	}
	if resamples < 100 {
		resamples = 1000
	}

	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, 0, resamples)
	indices := make([]int, n)
	attempts := 0
	maxAttempts := resamples * 10
	for len(values) < resamples && attempts < maxAttempts {
		attempts++
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		if v, ok := statistic(indices); ok {
			values = append(values, v)
		}
	}
	if len(values) < resamples/2 {
		return 0, 0, fmt.Errorf("%w: only %d of %d bootstrap resamples were computable", ErrInsufficientSampleSize, len(values), resamples)
	}

	sort.Float64s(values)
	return percentile(values, 0.025), percentile(values, 0.975), nil
}

// InterpretEffect maps |d| onto Cohen's (1988) verbal labels.
func InterpretEffect(d float64) string {
	switch abs := math.Abs(d); {
	case abs < 0.2:
		return "negligible"
	case abs < 0.5:
		return "small"
	case abs < 0.8:
		return "medium"
	default:
		return "large"
	}
}

// oneTailedP is P(T > t) under Student's t with df degrees of freedom.
func oneTailedP(t, df float64) float64 {
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 1 - tDist.CDF(t)
}

// cohensDCI is the normal-approximation CI for a one-sample d, using
// SE(d) = sqrt(1/n + d^2/(2n)) with a t critical value.
func cohensDCI(d float64, n int, df float64) (lo, hi float64) {
	se := math.Sqrt(1/float64(n) + d*d/(2*float64(n)))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	h := se * tDist.Quantile(0.975)
	return d - h, d + h
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
