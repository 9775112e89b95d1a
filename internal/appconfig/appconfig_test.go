// internal/appconfig/appconfig_test.go
package appconfig

import (
	"os"
	"testing"
	"time"
)

// TestLoad tests the Load function to ensure it correctly handles various
// scenarios, including valid and invalid configurations. It verifies that a
// valid configuration file is loaded without error, while files with invalid
// JSON, no models, or that are nonexistent result in an appropriate error.
func TestLoad(t *testing.T) {
	validConfig := `{
        "models": ["llama3.2:3b", "qwen2.5:3b"],
        "embeddingModel": "nomic-embed-text",
        "stimuli": "protocol/stimuli.json"
    }`
	tmpfile, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())
	if _, err := tmpfile.Write([]byte(validConfig)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if len(cfg.Models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(cfg.Models))
	}

	if cfg.TimeoutSeconds != 120 {
		t.Fatalf("expected default timeout of 120 seconds, got %d", cfg.TimeoutSeconds)
	}
	if cfg.RequestTimeout() != 120*time.Second {
		t.Fatalf("expected default request timeout of 120s, got %v", cfg.RequestTimeout())
	}
	if cfg.RepetitionCount() != 5 {
		t.Fatalf("expected default repetitions of 5, got %d", cfg.RepetitionCount())
	}
	if cfg.WorkerCount() != 4 {
		t.Fatalf("expected default concurrency of 4, got %d", cfg.WorkerCount())
	}
	if cfg.ResampleCount() != 2000 {
		t.Fatalf("expected default resamples of 2000, got %d", cfg.ResampleCount())
	}
	if cfg.MinWords() != 10 {
		t.Fatalf("expected default min words of 10, got %d", cfg.MinWords())
	}
	if cfg.LogFilePath() != "sycobench.log" {
		t.Fatalf("expected default log file, got %q", cfg.LogFilePath())
	}
	if cfg.DataDirPath() != "data" {
		t.Fatalf("expected default data dir, got %q", cfg.DataDirPath())
	}

	invalidJSON := `{ "models": [`
	tmpfile2, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile2.Name())
	if _, err := tmpfile2.Write([]byte(invalidJSON)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile2.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpfile2.Name()); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}

	noModels := `{ "models": [], "embeddingModel": "nomic-embed-text" }`
	tmpfile3, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile3.Name())
	if _, err := tmpfile3.Write([]byte(noModels)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile3.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpfile3.Name()); err == nil {
		t.Fatal("Load() with no models should have failed")
	}

	if _, err := Load("nonexistent.json"); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

func TestLoadRejectsDuplicateModels(t *testing.T) {
	dup := `{ "models": ["m1", "m1"], "embeddingModel": "nomic-embed-text" }`
	tmpfile, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())
	if _, err := tmpfile.Write([]byte(dup)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(tmpfile.Name()); err == nil {
		t.Fatal("Load() with duplicate models should have failed")
	}
}

func TestLoadRejectsMissingEmbeddingModel(t *testing.T) {
	missing := `{ "models": ["m1"] }`
	tmpfile, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())
	if _, err := tmpfile.Write([]byte(missing)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(tmpfile.Name()); err == nil {
		t.Fatal("Load() without an embedding model should have failed")
	}
}
