package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/senselabs/sense/internal/store"
	"github.com/senselabs/sense/pkg/embedding"
)

type fakeUploader struct {
	uploads []string
	failOn  string
}

func (f *fakeUploader) Upload(_ context.Context, path, _ string) (string, error) {
	if path == f.failOn {
		return "", errors.New("upload rejected")
	}
	f.uploads = append(f.uploads, path)
	return fmt.Sprintf("ref-%d", len(f.uploads)), nil
}

func seedStore(t *testing.T, paths ...string) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "index.db"), false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	values := make([]float32, embedding.Dim)
	values[0] = 1
	v, err := embedding.FromFloats(values)
	if err != nil {
		t.Fatalf("FromFloats: %v", err)
	}

	for _, p := range paths {
		rec := &store.Record{Path: p, Hash: "h", Label: "x", Vector: v}
		if err := s.Upsert(rec); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	return s
}

func TestBackfillUploadsInOrder(t *testing.T) {
	s := seedStore(t, "a.png", "b.png", "c.png")
	up := &fakeUploader{}

	n, err := Backfill(context.Background(), s, up)
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if n != 3 {
		t.Errorf("registered = %d, want 3", n)
	}
	want := []string{"a.png", "b.png", "c.png"}
	for i, p := range want {
		if up.uploads[i] != p {
			t.Fatalf("upload order = %v, want %v", up.uploads, want)
		}
		rec, err := s.Get(p)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if rec.FileID == "" {
			t.Errorf("%s not registered", p)
		}
	}
}

func TestBackfillSkipsRegistered(t *testing.T) {
	s := seedStore(t, "a.png", "b.png")
	if err := s.SetFileID("a.png", "existing"); err != nil {
		t.Fatalf("SetFileID: %v", err)
	}

	up := &fakeUploader{}
	n, err := Backfill(context.Background(), s, up)
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if n != 1 || len(up.uploads) != 1 || up.uploads[0] != "b.png" {
		t.Errorf("registered %d, uploads %v", n, up.uploads)
	}

	rec, err := s.Get("a.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.FileID != "existing" {
		t.Errorf("existing reference overwritten: %q", rec.FileID)
	}
}

func TestBackfillStopsOnFailure(t *testing.T) {
	s := seedStore(t, "a.png", "b.png", "c.png")
	up := &fakeUploader{failOn: "b.png"}

	n, err := Backfill(context.Background(), s, up)
	if err == nil {
		t.Fatal("expected error from failing upload")
	}
	if n != 1 {
		t.Errorf("registered = %d, want 1 before failure", n)
	}

	rec, err := s.Get("a.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.FileID == "" {
		t.Error("progress before the failure was lost")
	}
}
