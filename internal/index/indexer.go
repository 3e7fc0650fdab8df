// Package index reconciles the on-disk file tree with the stored index.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/senselabs/sense/internal/store"
	"github.com/senselabs/sense/pkg/embedding"
	"github.com/senselabs/sense/pkg/provider"
	"github.com/senselabs/sense/pkg/types"
)

// ControlDirName is the control directory skipped during walks.
const ControlDirName = ".sense"

// Summary reports what one reconciliation pass did.
type Summary struct {
	New       int
	Changed   int
	Deleted   int
	Unlabeled int
}

// Indexer walks a root directory and brings the store in sync with it.
type Indexer struct {
	root    string
	store   *store.Store
	embed   provider.Embedder
	labeler provider.Labeler
}

// Config contains indexer configuration.
type Config struct {
	Root     string
	Store    *store.Store
	Embedder provider.Embedder
	Labeler  provider.Labeler
}

// New creates a new indexer. The root is symlink-resolved so stored
// relative paths stay comparable to what Clean stats later.
func New(cfg Config) *Indexer {
	root := cfg.Root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return &Indexer{
		root:    root,
		store:   cfg.Store,
		embed:   cfg.Embedder,
		labeler: cfg.Labeler,
	}
}

// Index runs one reconciliation pass: new files are labeled, embedded and
// inserted, changed files re-embedded, and records for files that vanished
// are removed. Each record is committed as soon as it is built, so an
// error mid-pass leaves all prior progress durable.
func (idx *Indexer) Index(ctx context.Context) (*Summary, error) {
	known, err := idx.store.Hashes()
	if err != nil {
		return nil, err
	}

	summary := &Summary{}

	err = filepath.WalkDir(idx.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != idx.root && (strings.HasPrefix(d.Name(), ".") || d.Name() == ControlDirName) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(idx.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		hash, err := hashFile(path)
		if err != nil {
			return fmt.Errorf("hash %s: %w", rel, err)
		}

		prev, seen := known[rel]
		if seen && prev == hash {
			return nil
		}

		if err := idx.indexFile(ctx, rel, hash, seen, summary); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	deleted, err := idx.store.Clean(idx.root)
	if err != nil {
		return nil, err
	}
	summary.Deleted = len(deleted)
	for _, path := range deleted {
		slog.Debug("removed stale record", "file", path)
	}

	slog.Info("index pass complete",
		"new", summary.New,
		"changed", summary.Changed,
		"deleted", summary.Deleted,
		"unlabeled", summary.Unlabeled,
	)
	return summary, nil
}

// indexFile labels and embeds a single file and upserts its record.
// For changed files the existing external reference is carried forward.
func (idx *Indexer) indexFile(ctx context.Context, rel, hash string, existed bool, summary *Summary) error {
	label, err := idx.labeler.Label(rel)
	if err != nil {
		return fmt.Errorf("label %s: %w", rel, err)
	}

	rec := &store.Record{Path: rel, Hash: hash, Label: label}

	if label == "" {
		// No label, no direction. The placeholder keeps the file visible
		// to status reporting without entering similarity ranking.
		rec.Vector = embedding.Zero()
		summary.Unlabeled++
	} else {
		vec, err := idx.embed.Embed(ctx, label)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", types.ErrEmbeddingFailed, rel, err)
		}
		rec.Vector = vec
	}

	if existed {
		if prev, err := idx.store.Get(rel); err == nil {
			rec.FileID = prev.FileID
		}
	}

	if err := idx.store.Upsert(rec); err != nil {
		return err
	}

	if existed {
		summary.Changed++
		slog.Debug("reindexed changed file", "file", rel)
	} else {
		summary.New++
		slog.Debug("indexed new file", "file", rel)
	}
	return nil
}

// Reindex handles one path outside a full pass, for watch mode. A missing
// file drops its record; anything else goes through the same new/changed
// logic as a full pass.
func (idx *Indexer) Reindex(ctx context.Context, rel string) error {
	abs := filepath.Join(idx.root, rel)

	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return idx.store.Delete(rel)
	}

	hash, err := hashFile(abs)
	if err != nil {
		return fmt.Errorf("hash %s: %w", rel, err)
	}

	prev, err := idx.store.Get(rel)
	if err == nil && prev.Hash == hash {
		return nil
	}

	var summary Summary
	return idx.indexFile(ctx, rel, hash, err == nil, &summary)
}

// hashFile returns the hex-encoded SHA-256 of the file contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
