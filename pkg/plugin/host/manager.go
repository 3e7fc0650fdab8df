// Package host loads external embedding providers as plugin processes.
package host

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/senselabs/sense/pkg/plugin/shared"
)

// Manager owns the lifecycle of loaded plugin processes.
type Manager struct {
	plugins map[string]*LoadedPlugin
	mu      sync.RWMutex
	logger  hclog.Logger
}

// LoadedPlugin represents a loaded plugin.
type LoadedPlugin struct {
	Path      string
	Client    *plugin.Client
	Embedding shared.EmbeddingProvider
}

// NewManager creates a new plugin manager.
func NewManager() *Manager {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "plugins",
		Level:  hclog.Warn,
		Output: os.Stderr,
	})

	return &Manager{
		plugins: make(map[string]*LoadedPlugin),
		logger:  logger,
	}
}

// LoadEmbedding loads the embedding plugin binary at path and returns its
// provider.
func (m *Manager) LoadEmbedding(path string) (shared.EmbeddingProvider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, exists := m.plugins[path]; exists {
		return p.Embedding, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("plugin not found: %s", path)
	}

	slog.Info("loading plugin", "path", path)

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: shared.Handshake,
		Plugins:         shared.PluginMap,
		Cmd:             exec.Command(path),
		Logger:          m.logger,
		AllowedProtocols: []plugin.Protocol{
			plugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to connect to plugin: %w", err)
	}

	raw, err := rpcClient.Dispense(shared.PluginTypeEmbedding)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	embedder, ok := raw.(shared.EmbeddingProvider)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin does not implement EmbeddingProvider")
	}

	m.plugins[path] = &LoadedPlugin{
		Path:      path,
		Client:    client,
		Embedding: embedder,
	}
	slog.Info("plugin loaded", "path", path, "name", embedder.Name())

	return embedder, nil
}

// Unload kills the plugin process at path.
func (m *Manager) Unload(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.plugins[path]
	if !exists {
		return nil
	}

	p.Embedding.Close()
	p.Client.Kill()

	delete(m.plugins, path)
	slog.Info("plugin unloaded", "path", path)
	return nil
}

// UnloadAll kills all plugin processes.
func (m *Manager) UnloadAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for path, p := range m.plugins {
		p.Embedding.Close()
		p.Client.Kill()
		slog.Debug("plugin unloaded", "path", path)
	}
	m.plugins = make(map[string]*LoadedPlugin)
}
