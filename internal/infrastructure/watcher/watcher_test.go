package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRunReportsChangedGuides(t *testing.T) {
	dir := t.TempDir()
	resolve := func(path string) (string, bool) {
		if !strings.HasSuffix(path, ".md") {
			return "", false
		}
		return filepath.Base(path), true
	}
	w := New(resolve, 20*time.Millisecond, nil)

	var (
		mu   sync.Mutex
		seen []string
	)
	got := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, dir, func(_ context.Context, key string) error {
			mu.Lock()
			seen = append(seen, key)
			mu.Unlock()
			select {
			case got <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	path := filepath.Join(dir, "deposits.md")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.WriteFile(path, []byte("two"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case <-got:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for change notification")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[0] != "deposits.md" {
		t.Fatalf("unexpected keys %v", seen)
	}
	for _, key := range seen {
		if key != "deposits.md" {
			t.Fatalf("unexpected key %q", key)
		}
	}
}

func TestRunMissingDirectory(t *testing.T) {
	w := New(func(string) (string, bool) { return "", false }, 0, nil)
	if err := w.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
