// Package builtin constructs the built-in embedding providers.
package builtin

import (
	"fmt"

	"github.com/senselabs/sense/builtin/embedding/openai"
	"github.com/senselabs/sense/pkg/plugin/host"
	"github.com/senselabs/sense/pkg/provider"
)

// EmbedderConfig selects and configures an embedding provider.
type EmbedderConfig struct {
	Provider   string // openai, plugin
	Model      string
	APIKey     string
	Endpoint   string
	PluginPath string
}

// NewEmbedder builds the configured embedding provider. The returned
// cleanup function must be called once the provider is no longer needed;
// for plugin providers it kills the plugin process.
func NewEmbedder(cfg EmbedderConfig) (provider.Embedder, func(), error) {
	switch cfg.Provider {
	case "openai", "":
		p := openai.New(openai.Config{
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
			Endpoint: cfg.Endpoint,
		})
		return p, func() { p.Close() }, nil

	case "plugin":
		manager := host.NewManager()
		raw, err := manager.LoadEmbedding(cfg.PluginPath)
		if err != nil {
			return nil, nil, err
		}
		return host.NewEmbeddingAdapter(raw), manager.UnloadAll, nil

	default:
		return nil, nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
