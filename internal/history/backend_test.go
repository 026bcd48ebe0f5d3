package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/redis/go-redis/v9"
)

func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	got, err := backend.Get(ctx)
	if err != nil {
		t.Fatalf("Get() on empty backend error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d", len(got))
	}

	entries := []models.HistoryEntry{
		{ID: "b", AnalysisResult: result("https://x.com/b", 80)},
		{ID: "a", AnalysisResult: result("https://x.com/a", 10)},
	}
	if err := backend.Set(ctx, entries); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err = backend.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected entries read back: %+v", got)
	}
	if got[0].GhostScore.Score != 80 || got[0].JobTitle != "SRE" {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}

	if err := backend.Remove(ctx); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := backend.Remove(ctx); err != nil {
		t.Fatalf("second Remove() error = %v", err)
	}
	got, err = backend.Get(ctx)
	if err != nil {
		t.Fatalf("Get() after Remove error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history after Remove, got %d", len(got))
	}
}

func TestFileBackend(t *testing.T) {
	backend, err := NewFileBackend(filepath.Join(t.TempDir(), "nested", "history.json"))
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	exerciseBackend(t, backend)
}

func TestFileBackendRequiresPath(t *testing.T) {
	if _, err := NewFileBackend("  "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestFileBackendTreatsBlankFileAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	got, err := backend.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d", len(got))
	}
}

func TestFileBackendRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	if _, err := backend.Get(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseBackend(t, NewRedisBackend(client, ""))
}

func TestRedisBackendUsesSingleKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewStore(NewRedisBackend(client, "test:history"))
	if _, err := store.Append(context.Background(), result("https://x.com/a", 1)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "test:history" {
		t.Fatalf("expected single key test:history, got %v", keys)
	}
}

func TestSQLiteBackend(t *testing.T) {
	backend, err := OpenSQLiteBackend(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteBackend() error = %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })

	exerciseBackend(t, backend)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cases := []Options{
		{Kind: "", Path: filepath.Join(t.TempDir(), "h.json")},
		{Kind: KindFile, Path: filepath.Join(t.TempDir(), "h.json")},
		{Kind: KindSQLite, Path: filepath.Join(t.TempDir(), "h.db")},
		{Kind: "Redis", RedisURL: "redis://" + mr.Addr()},
		{Kind: KindMemory},
	}
	for _, opts := range cases {
		backend, closer, err := Open(ctx, opts)
		if err != nil {
			t.Fatalf("Open(%q) error = %v", opts.Kind, err)
		}
		if _, err := backend.Get(ctx); err != nil {
			t.Fatalf("Open(%q) backend Get() error = %v", opts.Kind, err)
		}
		if err := closer.Close(); err != nil {
			t.Fatalf("Open(%q) close error = %v", opts.Kind, err)
		}
	}

	if _, _, err := Open(ctx, Options{Kind: "etcd"}); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}
