// internal/report/report_test.go
package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hdanan/sycobench/internal/aggregate"
	"github.com/hdanan/sycobench/internal/analysis"
	"github.com/hdanan/sycobench/internal/executor"
	"github.com/hdanan/sycobench/internal/experiment"
	"github.com/hdanan/sycobench/internal/keywords"
	"github.com/hdanan/sycobench/internal/simulate"
	"github.com/hdanan/sycobench/internal/stats"
	"github.com/hdanan/sycobench/internal/trial"
)

func TestSIVerdictBands(t *testing.T) {
	cases := []struct {
		si   float64
		want string
	}{
		{0.0, "minimal framing echo"},
		{0.09, "minimal framing echo"},
		{0.1, "moderate framing echo"},
		{0.29, "moderate framing echo"},
		{0.3, "strong framing echo"},
		{0.9, "strong framing echo"},
	}
	for _, tc := range cases {
		if got := SIVerdict(tc.si); got != tc.want {
			t.Fatalf("SIVerdict(%v) = %q, want %q", tc.si, got, tc.want)
		}
	}
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintRunSummary(&buf, executor.Summary{
		Total:       100,
		OK:          90,
		APIFailures: 5,
		Empty:       2,
		Refusals:    3,
		Elapsed:     90 * time.Second,
	})

	out := buf.String()
	for _, want := range []string{"RUN SUMMARY", "100 total", "5.0%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintAnalysis(t *testing.T) {
	res := stats.TestResult{Hypothesis: "signed alignment > 0", N: 60, Statistic: 8.1, DF: 59, PValue: 0.0001, EffectSize: 1.1}
	rep := analysis.Report{
		GeneratedAt:  time.Now().UTC(),
		TotalRecords: 120,
		StatusCounts: map[trial.Status]int{trial.StatusOK: 118, trial.StatusAPIFailure: 2},
		Models: []analysis.ModelFindings{
			{
				ModelID: "llama3.2:3b",
				Aggregate: aggregate.Result{
					ModelID:         "llama3.2:3b",
					SycophancyIndex: aggregate.SIResult{Method: aggregate.SIPooled, Value: 0.42, N: 60},
				},
				H1Alignment:   analysis.Outcome{Test: &res, EffectLabel: "large"},
				H1Correlation: analysis.Outcome{Skipped: true, SkipReason: "zero variance"},
				H2Challenge:   analysis.Outcome{Test: &res, EffectLabel: "large"},
				SIInterval:    &analysis.Interval{Low: 0.31, High: 0.52},
			},
		},
		Comparisons: []analysis.Comparison{
			{ModelA: "llama3.2:3b", ModelB: "qwen2.5:3b", Distinguishable: true},
		},
		Keywords: keywords.Summary{
			"llama3.2:3b": {
				experiment.SycophancyPro: {N: 30, AgreementMean: 1.5, ChallengeMean: 0.2},
				experiment.Adversarial:   {N: 30, ChallengeMean: 2.1},
			},
		},
	}

	var buf bytes.Buffer
	PrintAnalysis(&buf, rep)

	out := buf.String()
	for _, want := range []string{
		"#1 llama3.2:3b",
		"strong framing echo",
		"[+0.310, +0.520]",
		"skipped",
		"distinguishable",
		"KEYWORD CODING",
		"sycophancy_pro",
		"1.50",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("analysis output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "report.json")
	in := map[string]int{"records": 3}

	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var out map[string]int
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out["records"] != 3 {
		t.Fatalf("round trip = %v", out)
	}
}

func TestWriteSimulationCSV(t *testing.T) {
	res, err := simulate.Run(42, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	path := filepath.Join(t.TempDir(), "simulated", "simulation_data.csv")
	if err := WriteSimulationCSV(path, res); err != nil {
		t.Fatalf("WriteSimulationCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "participant_id,group,belief_shift" {
		t.Fatalf("header = %q", lines[0])
	}
	if len(lines) != 1+4*3 {
		t.Fatalf("line count = %d", len(lines))
	}
	if !strings.HasPrefix(lines[1], "SYC_001,Sycophancy,") {
		t.Fatalf("first row = %q", lines[1])
	}
}
