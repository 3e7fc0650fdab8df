// Package search ranks indexed files against a query embedding.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/senselabs/sense/internal/store"
	"github.com/senselabs/sense/pkg/embedding"
	"github.com/senselabs/sense/pkg/provider"
	"github.com/senselabs/sense/pkg/types"
)

// Searcher runs similarity queries over a store.
type Searcher struct {
	store *store.Store
	embed provider.Embedder
}

// New creates a searcher.
func New(s *store.Store, e provider.Embedder) *Searcher {
	return &Searcher{store: s, embed: e}
}

// Search embeds the query once and returns the top n records by cosine
// similarity, best first. Unlabeled placeholder records never rank.
func (s *Searcher) Search(ctx context.Context, query string, n int) ([]embedding.Match, error) {
	return s.search(ctx, query, n, s.store.ScanEmbeddings)
}

// SearchWithID is Search restricted to records that carry an external
// reference, for surfaces that can only respond with registered assets.
func (s *Searcher) SearchWithID(ctx context.Context, query string, n int) ([]embedding.Match, error) {
	return s.search(ctx, query, n, s.store.ScanEmbeddingsWithID)
}

func (s *Searcher) search(ctx context.Context, query string, n int, scan func(func(*store.Record) error) error) ([]embedding.Match, error) {
	qv, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", types.ErrEmbeddingFailed, err)
	}
	if qv.IsZero() {
		slog.Warn("query embedded to a zero vector", "query", query)
		return nil, nil
	}

	collector := embedding.NewCollector(n)
	err = scan(func(rec *store.Record) error {
		if rec.Vector.IsZero() {
			return nil
		}
		collector.Add(embedding.Match{
			Key:    rec.Path,
			Score:  qv.Cosine(rec.Vector),
			FileID: rec.FileID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return collector.Matches(), nil
}
