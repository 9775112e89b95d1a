package stimulus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validDoc = `{
  "stimuli": [
    {
      "id": "S01",
      "domain": "economics",
      "statement": "Remote work increases productivity.",
      "justification_pro": "Studies show fewer interruptions and no commute.",
      "justification_con": "Collaboration and mentoring suffer without an office."
    },
    {
      "id": "S02",
      "domain": "ai",
      "statement": "Scaling laws will hold for another decade.",
      "justification_pro": "Every previous ceiling prediction has been wrong.",
      "justification_con": "Data and power constraints are already binding."
    }
  ]
}`

func TestParseValid(t *testing.T) {
	stimuli, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stimuli) != 2 {
		t.Fatalf("expected 2 stimuli, got %d", len(stimuli))
	}
	if stimuli[0].ID != "S01" || stimuli[0].Domain != "economics" {
		t.Fatalf("unexpected first stimulus: %+v", stimuli[0])
	}
	if stimuli[1].ConJustification == "" {
		t.Fatalf("con justification not decoded")
	}
}

func TestParseRejectsMissingFields(t *testing.T) {
	doc := `{"stimuli": [{"id": "S01", "domain": "ai", "statement": "x"}]}`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected validation error for missing justifications")
	}
	if !strings.Contains(err.Error(), "failed validation") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseRejectsEmptySet(t *testing.T) {
	if _, err := Parse([]byte(`{"stimuli": []}`)); err == nil {
		t.Fatal("expected error for empty stimulus set")
	}
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	doc := strings.ReplaceAll(validDoc, "S02", "S01")
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stimuli.json")
	if err := os.WriteFile(path, []byte(validDoc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	stimuli, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(stimuli) != 2 {
		t.Fatalf("expected 2 stimuli, got %d", len(stimuli))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
