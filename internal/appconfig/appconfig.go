// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path to the configuration file used in previous versions.
	legacyConfigPath = "config.json"
	// defaultRequestTimeout is the per-call timeout for provider requests.
	defaultRequestTimeout = 120 * time.Second
	// defaultRepetitions is the repetition count per stimulus/condition/model cell.
	defaultRepetitions = 5
	// defaultConcurrency bounds the trial worker pool.
	defaultConcurrency = 4
	// defaultBootstrapResamples is the resample count for confidence intervals.
	defaultBootstrapResamples = 2000
	// defaultMinResponseWords is the floor below which a response counts as empty.
	defaultMinResponseWords = 10
)

// Config represents the top-level application configuration.
type Config struct {
	Models             []string `json:"models"`
	EmbeddingModel     string   `json:"embeddingModel"`
	EmbeddingDims      int      `json:"embeddingDims,omitempty"`
	BaseURL            string   `json:"baseUrl,omitempty"`
	APIKeyEnv          string   `json:"apiKeyEnv,omitempty"`
	StimuliPath        string   `json:"stimuli,omitempty" mapstructure:"stimuli"`
	DataDir            string   `json:"dataDir,omitempty"`
	CacheDir           string   `json:"cacheDir,omitempty"`
	Repetitions        int      `json:"repetitions,omitempty"`
	Concurrency        int      `json:"concurrency,omitempty"`
	TimeoutSeconds     int      `json:"timeout,omitempty" mapstructure:"timeout"`
	ShuffleSeed        int64    `json:"shuffleSeed,omitempty"`
	BootstrapResamples int      `json:"bootstrapResamples,omitempty"`
	BootstrapSeed      int64    `json:"bootstrapSeed,omitempty"`
	RefusalPhrases     []string `json:"refusalPhrases,omitempty"`
	MinResponseWords   int      `json:"minResponseWords,omitempty"`
	MaxTokens          int      `json:"maxTokens,omitempty"`
	Debug              bool     `json:"debug"`
	LogFile            string   `json:"logFile,omitempty"`
	ConfigPath         string   `json:"-"`
}

// RequestTimeout returns the per-call provider timeout, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RepetitionCount returns the configured repetitions per matrix cell.
func (c Config) RepetitionCount() int {
	if c.Repetitions <= 0 {
		return defaultRepetitions
	}
	return c.Repetitions
}

// WorkerCount returns the trial worker pool size.
func (c Config) WorkerCount() int {
	if c.Concurrency <= 0 {
		return defaultConcurrency
	}
	return c.Concurrency
}

// ResampleCount returns the bootstrap resample count.
func (c Config) ResampleCount() int {
	if c.BootstrapResamples <= 0 {
		return defaultBootstrapResamples
	}
	return c.BootstrapResamples
}

// MinWords returns the empty-response word floor.
func (c Config) MinWords() int {
	if c.MinResponseWords <= 0 {
		return defaultMinResponseWords
	}
	return c.MinResponseWords
}

// StimuliFilePath returns the stimuli file path, applying a default if not set.
func (c Config) StimuliFilePath() string {
	if path := strings.TrimSpace(c.StimuliPath); path != "" {
		return path
	}
	return "protocol/stimuli.json"
}

// DataDirPath returns the run output directory, applying a default if not set.
func (c Config) DataDirPath() string {
	if dir := strings.TrimSpace(c.DataDir); dir != "" {
		return dir
	}
	return "data"
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "sycobench.log"
}

// APIKey resolves the provider API key from the configured environment
// variable, defaulting to OPENAI_API_KEY.
func (c Config) APIKey() string {
	env := strings.TrimSpace(c.APIKeyEnv)
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	return os.Getenv(env)
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		if verr := config.Validate(); verr != nil {
			return Config{}, fmt.Errorf("invalid config %q: %w", path, verr)
		}
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				if verr := config.Validate(); verr != nil {
					return Config{}, fmt.Errorf("invalid config %q: %w", legacyConfigPath, verr)
				}
				config.ConfigPath = legacyConfigPath
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// Validate rejects configurations the run pipeline cannot execute:
// empty or duplicate model ids and a missing embedding model. Duplicate
// models would mint duplicate trial keys, which the write-once trial
// store refuses.
func (c Config) Validate() error {
	if len(c.Models) == 0 {
		return errors.New("config must list at least one model")
	}
	seen := make(map[string]struct{}, len(c.Models))
	for _, m := range c.Models {
		if strings.TrimSpace(m) == "" {
			return errors.New("model ids must be non-empty")
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("duplicate model id %q", m)
		}
		seen[m] = struct{}{}
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return errors.New("config must set an embedding model")
	}
	return nil
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}

	return config, nil
}
