package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Resolver maps a changed file path to the guide key to re-index.
// ok=false ignores the event.
type Resolver func(path string) (key string, ok bool)

// Watcher reports guide changes under a directory tree. Bursts of events for
// the same key within the debounce window are delivered once.
type Watcher struct {
	resolve  Resolver
	debounce time.Duration
	logger   *slog.Logger
}

func New(resolve Resolver, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		resolve:  resolve,
		debounce: debounce,
		logger:   logger,
	}
}

// Run blocks until ctx is done. onChange errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context, dir string, onChange func(context.Context, string) error) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fsw.Close()

	if err := addTree(fsw, dir); err != nil {
		return err
	}

	pending := make(map[string]struct{})
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("fs watcher closed")
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(fsw, event.Name); err != nil {
						w.logger.Warn("watch_dir_failed", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if key, ok := w.resolve(event.Name); ok {
				pending[key] = struct{}{}
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("fs watcher closed")
			}
			w.logger.Warn("watch_error", "error", err)

		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			keys := make([]string, 0, len(pending))
			for key := range pending {
				keys = append(keys, key)
			}
			clear(pending)
			sort.Strings(keys)
			for _, key := range keys {
				if err := onChange(ctx, key); err != nil {
					w.logger.Error("guide_change_failed", "key", key, "error", err)
					continue
				}
				w.logger.Info("guide_changed", "key", key)
			}
		}
	}
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
