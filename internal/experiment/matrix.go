// internal/experiment/matrix.go
package experiment

import (
	"fmt"
	"math/rand"

	"github.com/hdanan/sycobench/internal/stimulus"
)

// TrialSpec identifies one (stimulus, condition, model, repetition)
// execution. The tuple is unique within a run and is the trial's natural
// key.
type TrialSpec struct {
	StimulusID string    `json:"stimulusId"`
	Condition  Condition `json:"condition"`
	ModelID    string    `json:"modelId"`
	Repetition int       `json:"repetition"`
}

// Key renders the natural key in a stable form usable as a map key and
// as the resume key in the persisted trial store.
func (t TrialSpec) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", t.StimulusID, t.Condition, t.ModelID, t.Repetition)
}

// GenerateMatrix enumerates the full cross product of stimuli,
// conditions, models, and repetitions in a deterministic total order:
// model outer, then condition, then stimulus, then repetition. Two runs
// with identical inputs produce identical sequences, which is what makes
// index- and key-based resume possible. The generator never randomizes;
// see Shuffle for the explicit seeded reordering step.
func GenerateMatrix(stimuli []stimulus.Stimulus, conditions []Condition, models []string, repetitions int) ([]TrialSpec, error) {
	if len(stimuli) == 0 {
		return nil, fmt.Errorf("matrix requires at least one stimulus")
	}
	if len(conditions) == 0 {
		return nil, fmt.Errorf("matrix requires at least one condition")
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("matrix requires at least one model")
	}
	if repetitions < 1 {
		return nil, fmt.Errorf("repetitions must be at least 1, got %d", repetitions)
	}

	// Duplicate inputs would produce duplicate natural keys, which the
	// write-once trial store rejects mid-run. Fail up front instead.
	seenStimuli := make(map[string]struct{}, len(stimuli))
	for _, stim := range stimuli {
		if _, dup := seenStimuli[stim.ID]; dup {
			return nil, fmt.Errorf("duplicate stimulus id %q", stim.ID)
		}
		seenStimuli[stim.ID] = struct{}{}
	}
	seenConditions := make(map[Condition]struct{}, len(conditions))
	for _, c := range conditions {
		if !c.Valid() {
			return nil, fmt.Errorf("unknown condition %q", c)
		}
		if _, dup := seenConditions[c]; dup {
			return nil, fmt.Errorf("duplicate condition %q", c)
		}
		seenConditions[c] = struct{}{}
	}
	seenModels := make(map[string]struct{}, len(models))
	for _, m := range models {
		if _, dup := seenModels[m]; dup {
			return nil, fmt.Errorf("duplicate model id %q", m)
		}
		seenModels[m] = struct{}{}
	}

	specs := make([]TrialSpec, 0, len(stimuli)*len(conditions)*len(models)*repetitions)
	for _, model := range models {
		for _, condition := range conditions {
			for _, stim := range stimuli {
				for rep := 0; rep < repetitions; rep++ {
					specs = append(specs, TrialSpec{
						StimulusID: stim.ID,
						Condition:  condition,
						ModelID:    model,
						Repetition: rep,
					})
				}
			}
		}
	}
	return specs, nil
}

// Shuffle returns a seeded permutation of specs. Shuffling is layered on
// top of the deterministic matrix so rate-limit time-of-day effects do
// not correlate with condition order; the same seed reproduces the same
// permutation.
func Shuffle(specs []TrialSpec, seed int64) []TrialSpec {
	shuffled := make([]TrialSpec, len(specs))
	copy(shuffled, specs)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
