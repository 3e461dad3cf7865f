package localfs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestListReturnsSortedSlashKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tenancy", "deposits.md"), "a")
	writeFile(t, filepath.Join(dir, "consumer.md"), "b")
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "c")

	storage, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	keys, err := storage.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "consumer.md" || keys[1] != "tenancy/deposits.md" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestOpenReadsByKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tenancy", "deposits.md"), "deposit text")
	storage, _ := New(dir)

	reader, err := storage.Open(context.Background(), "tenancy/deposits.md")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()
	raw, _ := io.ReadAll(reader)
	if string(raw) != "deposit text" {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestOpenMissingAndEscapingKeys(t *testing.T) {
	storage, _ := New(t.TempDir())

	if _, err := storage.Open(context.Background(), "missing.md"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := storage.Open(context.Background(), "../etc/passwd"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestKeyFromAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	storage, _ := New(dir)

	key, err := storage.Key(filepath.Join(storage.BasePath(), "contracts", "unfair-terms.md"))
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if key != "contracts/unfair-terms.md" {
		t.Fatalf("unexpected key %q", key)
	}
	if _, err := storage.Key(filepath.Dir(storage.BasePath())); err == nil {
		t.Fatalf("expected error for path outside base")
	}
}

func TestNewRequiresDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
