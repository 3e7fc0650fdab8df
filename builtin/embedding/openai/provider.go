// Package openai implements the Embedder interface over any
// OpenAI-compatible embeddings API.
package openai

import (
	"context"
	"fmt"
	"os"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/senselabs/sense/pkg/embedding"
	"github.com/senselabs/sense/pkg/provider"
)

// Default values
const (
	DefaultModel    = "BAAI/bge-large-zh-v1.5"
	DefaultEndpoint = "https://api.siliconflow.cn/v1"
)

// Config contains provider configuration.
type Config struct {
	Model    string
	APIKey   string // If empty, uses SENSE_API_KEY env var
	Endpoint string // OpenAI-compatible base URL
}

// Provider implements the Embedder interface against an
// OpenAI-compatible endpoint.
type Provider struct {
	config Config
	client *goopenai.Client
}

// New creates a new embedding provider.
func New(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("SENSE_API_KEY")
	}

	clientConfig := goopenai.DefaultConfig(apiKey)
	clientConfig.BaseURL = cfg.Endpoint

	return &Provider{
		config: cfg,
		client: goopenai.NewClientWithConfig(clientConfig),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Dimensions returns the embedding dimensions.
func (p *Provider) Dimensions() int {
	return embedding.Dim
}

// Embed generates the embedding for a single text. The response is
// validated against the fixed vector dimension before anything touches
// the store.
func (p *Provider) Embed(ctx context.Context, text string) (*embedding.Vector, error) {
	req := goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(p.config.Model),
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != 1 {
		return nil, fmt.Errorf("embedding response has %d results, want 1", len(resp.Data))
	}

	return embedding.FromFloats(resp.Data[0].Embedding)
}

// Available checks that the API is reachable with the configured key.
func (p *Provider) Available(ctx context.Context) error {
	if p.config.APIKey == "" && os.Getenv("SENSE_API_KEY") == "" {
		return fmt.Errorf("no API key configured")
	}
	if _, err := p.Embed(ctx, "test"); err != nil {
		return fmt.Errorf("embedding API not accessible: %w", err)
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

var _ provider.Embedder = (*Provider)(nil)
