// internal/providers/provider.go

// Package providers defines the capability interfaces the experiment
// pipeline consumes: a source of model responses and a source of text
// embeddings. Concrete transports live in subpackages; the executor only
// ever sees these interfaces, so transport failures arrive as a single
// ProviderError kind and are classified as api_failure on the affected
// trial.
package providers

import (
	"context"
	"errors"
	"fmt"
)

// ResponseSource generates a model response for a prompt.
type ResponseSource interface {
	// Generate returns the response text for the prompt from the named
	// model. Any transport, rate-limit, or provider error is wrapped in
	// ProviderError; the caller treats the attempt as final.
	Generate(ctx context.Context, modelID, prompt string) (string, error)
}

// EmbeddingSource returns a vector embedding for a text. The
// dimensionality is fixed per configured embedding model.
type EmbeddingSource interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	// ModelID identifies the embedding model, used as part of the
	// persistent cache key.
	ModelID() string
}

// ProviderError wraps any upstream failure from a response or embedding
// provider. Timeouts and rate limits are not distinguished here; that is
// a provider concern.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
