package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher rebuilds the index when markdown files under the posts root
// change. Rapid bursts of filesystem events (editor saves, git checkouts)
// collapse into a single rebuild via debouncing.
type Watcher struct {
	root     string
	rebuild  func(ctx context.Context) error
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher over the posts root. rebuild is invoked
// after the debounce window closes.
func NewWatcher(root string, rebuild func(ctx context.Context) error) *Watcher {
	return &Watcher{
		root:     root,
		rebuild:  rebuild,
		debounce: 500 * time.Millisecond,
		logger:   slog.Default(),
	}
}

// Run watches the posts root until the context is cancelled. It blocks, so
// callers normally run it in a goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = fsw.Close()
	}()

	if err := w.addRecursive(fsw, w.root); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "watching posts directory", "root", w.root)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			// New subdirectories need their own watch
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fsw, event.Name); err != nil {
						w.logger.WarnContext(ctx, "failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			if !relevant(event) {
				continue
			}

			w.logger.DebugContext(ctx, "posts change detected", "path", event.Name, "op", event.Op.String())
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "watcher error", "error", err)

		case <-timer.C:
			pending = false
			w.logger.InfoContext(ctx, "posts changed, rebuilding index")
			if err := w.rebuild(ctx); err != nil {
				w.logger.ErrorContext(ctx, "rebuild after posts change failed", "error", err)
			}
		}
	}
}

// addRecursive watches dir and every subdirectory below it, skipping
// hidden directories the scanner also ignores.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// relevant reports whether an event should trigger a rebuild: writes,
// creates, removes, and renames of markdown files (or whole directories).
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if filepath.Ext(event.Name) == ".md" {
		return true
	}
	// Directory-level events carry no extension; let the rebuild sort it out
	return filepath.Ext(event.Name) == ""
}
