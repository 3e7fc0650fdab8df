package bot

import (
	"context"
	"log/slog"

	"github.com/senselabs/sense/internal/store"
	"github.com/senselabs/sense/pkg/provider"
)

// Backfill uploads every record that has no external reference yet and
// stores the reference returned for it. Uploads run one at a time, in
// path order; the remote side assigns references by arrival order, so
// parallel uploads would mismatch paths and references.
func Backfill(ctx context.Context, s *store.Store, up provider.Uploader) (int, error) {
	pending, err := s.PathsWithoutFileID()
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		slog.Info("all records already registered")
		return 0, nil
	}

	slog.Info("registering files", "count", len(pending))

	registered := 0
	for _, rec := range pending {
		if ctx.Err() != nil {
			return registered, ctx.Err()
		}

		fileID, err := up.Upload(ctx, rec.Path, rec.Label)
		if err != nil {
			return registered, err
		}
		if err := s.SetFileID(rec.Path, fileID); err != nil {
			return registered, err
		}
		registered++
		slog.Debug("registered file", "file", rec.Path, "file_id", fileID)
	}

	slog.Info("registration complete", "registered", registered)
	return registered, nil
}
