// internal/providers/openai/provider.go
// Package openai implements the response and embedding sources on the
// OpenAI API.
package openai

import (
	"context"
	"fmt"
	"os"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/hdanan/sycobench/internal/providers"
)

const providerName = "openai"

// Client wraps the OpenAI SDK behind the pipeline's capability
// interfaces. A single Client serves both chat completions and
// embeddings.
type Client struct {
	api            *goopenai.Client
	embeddingModel string
	embeddingDims  int
	maxTokens      int
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	apiKey        string
	baseURL       string
	maxTokens     int
	embeddingDims int
}

// WithMaxTokens caps the completion length per response.
func WithMaxTokens(n int) Option {
	return func(c *clientConfig) { c.maxTokens = n }
}

// WithEmbeddingDims requests reduced-dimension embeddings, for models
// that support it (text-embedding-3-small/-large). Zero leaves the
// model's native dimensionality.
func WithEmbeddingDims(n int) Option {
	return func(c *clientConfig) { c.embeddingDims = n }
}

// WithAPIKey overrides the key taken from OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible server, such as
// a local Ollama or llama.cpp endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// New builds a Client. The API key defaults to the OPENAI_API_KEY
// environment variable.
func New(embeddingModel string, opts ...Option) (*Client, error) {
	cfg := clientConfig{
		apiKey:    os.Getenv("OPENAI_API_KEY"),
		maxTokens: 1024,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.apiKey == "" && cfg.baseURL == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	apiConfig := goopenai.DefaultConfig(cfg.apiKey)
	if cfg.baseURL != "" {
		apiConfig.BaseURL = cfg.baseURL
	}
	return &Client{
		api:            goopenai.NewClientWithConfig(apiConfig),
		embeddingModel: embeddingModel,
		embeddingDims:  cfg.embeddingDims,
		maxTokens:      cfg.maxTokens,
	}, nil
}

// Generate implements providers.ResponseSource.
func (c *Client) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: modelID,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: c.maxTokens,
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &providers.ProviderError{Provider: providerName, Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &providers.ProviderError{Provider: providerName, Op: "chat completion", Err: fmt.Errorf("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed implements providers.EmbeddingSource.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model:      goopenai.EmbeddingModel(c.embeddingModel),
		Input:      []string{text},
		Dimensions: c.embeddingDims,
	})
	if err != nil {
		return nil, &providers.ProviderError{Provider: providerName, Op: "embedding", Err: err}
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &providers.ProviderError{Provider: providerName, Op: "embedding", Err: fmt.Errorf("empty embedding returned")}
	}
	vec := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float64(v)
	}
	return vec, nil
}

// ModelID implements providers.EmbeddingSource.
func (c *Client) ModelID() string { return c.embeddingModel }
