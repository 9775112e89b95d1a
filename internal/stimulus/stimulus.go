// internal/stimulus/stimulus.go
// Package stimulus loads and validates the experimental stimulus set.
package stimulus

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Stimulus is one controversial statement plus ~50-word justifications
// for each side. The set is immutable once loaded.
type Stimulus struct {
	ID               string `json:"id"`
	Domain           string `json:"domain"`
	Statement        string `json:"statement"`
	ProJustification string `json:"justification_pro"`
	ConJustification string `json:"justification_con"`
}

// File is the on-disk stimuli document.
type File struct {
	Stimuli []Stimulus `json:"stimuli"`
}

// Load reads and validates a stimuli JSON file. The set must contain at
// least one entry; the reference design uses ten.
func Load(path string) ([]Stimulus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stimuli file %q: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates raw stimuli JSON against the embedded schema and
// decodes it.
func Parse(raw []byte) ([]Stimulus, error) {
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse stimuli file: %w", err)
	}
	if len(file.Stimuli) == 0 {
		return nil, fmt.Errorf("stimuli file contains no entries")
	}

	seen := make(map[string]bool, len(file.Stimuli))
	for _, s := range file.Stimuli {
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate stimulus id %q", s.ID)
		}
		seen[s.ID] = true
	}

	return file.Stimuli, nil
}

func validateSchema(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(stimuliSchema)
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("stimuli file failed validation: %s", strings.Join(details, "; "))
}
