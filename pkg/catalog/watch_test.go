package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	watchDebounce = 50 * time.Millisecond

	dir := t.TempDir()
	p := filepath.Join(dir, "handlers.json")
	if err := os.WriteFile(p, []byte(`{"name":"v1","handlers":[]}`), 0o644); err != nil {
		t.Fatalf("catalog:watch_test - write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *File, 4)
	if err := Watch(ctx, p, func(f *File) { reloaded <- f }); err != nil {
		t.Fatalf("catalog:watch_test - Watch: %v", err)
	}

	// Unrelated files in the same directory are ignored.
	os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644)

	if err := os.WriteFile(p, []byte(`{"name":"v2","handlers":[]}`), 0o644); err != nil {
		t.Fatalf("catalog:watch_test - rewrite: %v", err)
	}

	select {
	case f := <-reloaded:
		if f.Name != "v2" {
			t.Errorf("catalog:watch_test - reloaded %q, want v2", f.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("catalog:watch_test - timeout waiting for reload")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "handlers.yaml"), func(*File) {})
	if err == nil {
		t.Error("catalog:watch_test - expected error for missing directory")
	}
}
