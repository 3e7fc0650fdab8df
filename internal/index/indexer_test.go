package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/senselabs/sense/internal/store"
	"github.com/senselabs/sense/pkg/embedding"
	"github.com/senselabs/sense/pkg/provider"
)

// fakeEmbedder derives a deterministic vector from the text so tests can
// tell different labels apart without a real provider.
type fakeEmbedder struct {
	calls []string
	fail  error
}

func (f *fakeEmbedder) Name() string    { return "fake" }
func (f *fakeEmbedder) Dimensions() int { return embedding.Dim }
func (f *fakeEmbedder) Close() error    { return nil }

func (f *fakeEmbedder) Embed(_ context.Context, text string) (*embedding.Vector, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.calls = append(f.calls, text)

	values := make([]float32, embedding.Dim)
	for i := range values {
		values[i] = float32(len(text)%7+1) + float32(i%3)
	}
	return embedding.FromFloats(values)
}

func newTestIndexer(t *testing.T, root string, labeler provider.Labeler) (*Indexer, *store.Store, *fakeEmbedder) {
	t.Helper()
	s, err := store.Open(filepath.Join(root, ControlDirName, "index.db"), false)
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	emb := &fakeEmbedder{}
	idx := New(Config{Root: root, Store: s, Embedder: emb, Labeler: labeler})
	return idx, s, emb
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestIndexNewFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "cat.png", "cat-bytes")
	writeFile(t, root, "memes/dog.png", "dog-bytes")

	idx, s, _ := newTestIndexer(t, root, AutoLabeler{})

	summary, err := idx.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if summary.New != 2 || summary.Changed != 0 || summary.Deleted != 0 || summary.Unlabeled != 0 {
		t.Errorf("summary = %+v", summary)
	}

	rec, err := s.Get("memes/dog.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Label != "dog" {
		t.Errorf("label = %q, want dog", rec.Label)
	}
	if rec.Vector.IsZero() {
		t.Error("labeled record got a placeholder vector")
	}
}

func TestIndexIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.png", "aaa")
	writeFile(t, root, "b.png", "bbb")

	idx, _, emb := newTestIndexer(t, root, AutoLabeler{})

	if _, err := idx.Index(context.Background()); err != nil {
		t.Fatalf("first Index: %v", err)
	}
	embedsAfterFirst := len(emb.calls)

	summary, err := idx.Index(context.Background())
	if err != nil {
		t.Fatalf("second Index: %v", err)
	}
	if summary.New != 0 || summary.Changed != 0 || summary.Deleted != 0 {
		t.Errorf("second pass summary = %+v, want all zero", summary)
	}
	if len(emb.calls) != embedsAfterFirst {
		t.Errorf("second pass embedded %d more labels", len(emb.calls)-embedsAfterFirst)
	}
}

func TestIndexDetectsChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.png", "before")

	idx, s, _ := newTestIndexer(t, root, AutoLabeler{})
	if _, err := idx.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}

	if err := s.SetFileID("a.png", "ref-1"); err != nil {
		t.Fatalf("SetFileID: %v", err)
	}

	writeFile(t, root, "a.png", "after")

	summary, err := idx.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if summary.Changed != 1 || summary.New != 0 {
		t.Errorf("summary = %+v", summary)
	}

	rec, err := s.Get("a.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.FileID != "ref-1" {
		t.Errorf("reference lost on reindex: file id = %q", rec.FileID)
	}
}

func TestIndexRemovesDeleted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.png", "aaa")
	writeFile(t, root, "b.png", "bbb")

	idx, s, _ := newTestIndexer(t, root, AutoLabeler{})
	if _, err := idx.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "b.png")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	summary, err := idx.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if summary.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", summary.Deleted)
	}
	if _, err := s.Get("b.png"); err == nil {
		t.Error("deleted file still indexed")
	}
}

func TestIndexSkipsHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".hidden.png", "x")
	writeFile(t, root, ".git/blob", "x")
	writeFile(t, root, ControlDirName+"/index.db-journal", "x")
	writeFile(t, root, "visible.png", "x")

	idx, s, _ := newTestIndexer(t, root, AutoLabeler{})

	summary, err := idx.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if summary.New != 1 {
		t.Errorf("new = %d, want 1", summary.New)
	}
	if _, err := s.Get("visible.png"); err != nil {
		t.Errorf("visible file not indexed: %v", err)
	}
}

func TestIndexUnlabeledPlaceholder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.png", "x")

	idx, s, emb := newTestIndexer(t, root, NoneLabeler{})

	summary, err := idx.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if summary.Unlabeled != 1 || summary.New != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(emb.calls) != 0 {
		t.Errorf("embedder called %d times for unlabeled files", len(emb.calls))
	}

	rec, err := s.Get("a.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !rec.Vector.IsZero() {
		t.Error("unlabeled record has a non-zero vector")
	}
}

func TestIndexFailsFastOnEmbedError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.png", "x")

	idx, _, emb := newTestIndexer(t, root, AutoLabeler{})
	emb.fail = errors.New("api down")

	if _, err := idx.Index(context.Background()); err == nil {
		t.Error("expected error from failing embedder")
	}
}

func TestReindexSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.png", "v1")

	idx, s, _ := newTestIndexer(t, root, AutoLabeler{})
	ctx := context.Background()

	if err := idx.Reindex(ctx, "a.png"); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if _, err := s.Get("a.png"); err != nil {
		t.Fatalf("Get after reindex: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "a.png")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := idx.Reindex(ctx, "a.png"); err != nil {
		t.Fatalf("Reindex deleted: %v", err)
	}
	if _, err := s.Get("a.png"); err == nil {
		t.Error("record survived deletion")
	}
}

func TestLabelers(t *testing.T) {
	auto := AutoLabeler{}
	if got, _ := auto.Label("memes/funny cat.png"); got != "funny cat" {
		t.Errorf("auto label = %q", got)
	}
	if got, _ := auto.Label("noext"); got != "noext" {
		t.Errorf("auto label = %q", got)
	}

	none := NoneLabeler{}
	if got, _ := none.Label("anything.png"); got != "" {
		t.Errorf("none label = %q", got)
	}

	var out strings.Builder
	prompt := NewPromptLabeler(strings.NewReader("  a cat  \n"), &out)
	got, err := prompt.Label("cat.png")
	if err != nil {
		t.Fatalf("prompt label: %v", err)
	}
	if got != "a cat" {
		t.Errorf("prompt label = %q", got)
	}
	if !strings.Contains(out.String(), "cat.png") {
		t.Errorf("prompt output = %q", out.String())
	}

	// Exhausted input leaves the file unlabeled.
	prompt = NewPromptLabeler(strings.NewReader(""), &out)
	if got, err := prompt.Label("dog.png"); err != nil || got != "" {
		t.Errorf("prompt on EOF = %q, %v", got, err)
	}
}
