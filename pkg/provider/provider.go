// Package provider defines the pluggable interfaces the indexing and
// search pipelines depend on. Implementations live under builtin/ or are
// loaded as external plugin processes.
package provider

import (
	"context"

	"github.com/senselabs/sense/pkg/embedding"
)

// Embedder converts a text label into a fixed-dimension vector.
type Embedder interface {
	// Name returns the provider name for logging and status output.
	Name() string

	// Dimensions returns the vector dimension the provider produces.
	Dimensions() int

	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) (*embedding.Vector, error)

	// Close releases provider resources.
	Close() error
}

// Uploader registers an external asset for a file and returns the
// reference the store keeps alongside the record. The indexer uses it to
// backfill records that have no reference yet.
type Uploader interface {
	// Upload pushes the file at path and returns its external reference.
	Upload(ctx context.Context, path, label string) (string, error)
}

// Labeler decides the label for a newly discovered or changed file.
// An empty label with a nil error marks the file as unlabeled.
type Labeler interface {
	Label(path string) (string, error)
}
