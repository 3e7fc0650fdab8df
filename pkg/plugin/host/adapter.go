package host

import (
	"context"

	"github.com/senselabs/sense/pkg/embedding"
	"github.com/senselabs/sense/pkg/plugin/shared"
	"github.com/senselabs/sense/pkg/provider"
)

// EmbeddingAdapter adapts a plugin EmbeddingProvider to the
// provider.Embedder interface, validating dimensions on the way in.
type EmbeddingAdapter struct {
	plugin shared.EmbeddingProvider
}

// NewEmbeddingAdapter creates a new embedding adapter.
func NewEmbeddingAdapter(p shared.EmbeddingProvider) *EmbeddingAdapter {
	return &EmbeddingAdapter{plugin: p}
}

// Name returns the provider name.
func (a *EmbeddingAdapter) Name() string {
	return a.plugin.Name()
}

// Dimensions returns the embedding dimensions.
func (a *EmbeddingAdapter) Dimensions() int {
	return a.plugin.Dimensions()
}

// Embed generates the embedding for a single text.
func (a *EmbeddingAdapter) Embed(ctx context.Context, text string) (*embedding.Vector, error) {
	// Check context before crossing the RPC boundary; the plugin protocol
	// itself carries no cancellation.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	values, err := a.plugin.Embed(text)
	if err != nil {
		return nil, err
	}
	return embedding.FromFloats(values)
}

// Close closes the provider.
func (a *EmbeddingAdapter) Close() error {
	return a.plugin.Close()
}

var _ provider.Embedder = (*EmbeddingAdapter)(nil)
