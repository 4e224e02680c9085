// Package watcher monitors source trees for new media files and hands
// settled batches to the organizer.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Nomadcxx/cinesync/internal/logging"
	"github.com/Nomadcxx/cinesync/internal/organizer"
)

// BatchHandler receives the paths of files whose writes have settled.
type BatchHandler func(paths []string)

// Watcher follows source directories recursively. A file is reported only
// after no write events have touched it for the settle window, so
// half-copied downloads are not organized mid-transfer.
type Watcher struct {
	fs     *fsnotify.Watcher
	settle time.Duration
	log    *logging.Logger

	// pending maps a path to the time of its last write event. Accessed
	// only from the Run goroutine.
	pending map[string]time.Time
}

// New creates a watcher over the given source roots.
func New(dirs []string, settle time.Duration, log *logging.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}

	if settle <= 0 {
		settle = 5 * time.Second
	}

	w := &Watcher{
		fs:      fs,
		settle:  settle,
		log:     log,
		pending: make(map[string]time.Time),
	}

	for _, dir := range dirs {
		if err := w.addRecursive(dir); err != nil {
			fs.Close()
			return nil, err
		}
	}

	return w, nil
}

// addRecursive watches a directory and everything under it. Hidden
// directories are skipped.
func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		w.log.Debug("watcher", "watching directory", logging.F("path", path))
		return nil
	})
}

// Run processes filesystem events until the context is cancelled. Settled
// batches are delivered on the calling goroutine.
func (w *Watcher) Run(ctx context.Context, handle BatchHandler) error {
	interval := w.settle / 2
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.Warn("watcher", "filesystem event error", logging.F("error", err))

		case <-ticker.C:
			if batch := w.settled(); len(batch) > 0 {
				handle(batch)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(event.Name), ".") {
				if err := w.addRecursive(event.Name); err != nil {
					w.log.Warn("watcher", "unable to watch new directory",
						logging.F("path", event.Name),
						logging.F("error", err))
				}
			}
			return
		}
	}

	if !organizer.IsVideoFile(event.Name) {
		return
	}

	w.log.Debug("watcher", "file event",
		logging.F("op", event.Op.String()),
		logging.F("path", event.Name))
	w.pending[event.Name] = time.Now()
}

// settled drains pending entries whose last write is older than the
// settle window and still exist on disk.
func (w *Watcher) settled() []string {
	cutoff := time.Now().Add(-w.settle)
	var batch []string
	for path, last := range w.pending {
		if last.After(cutoff) {
			continue
		}
		delete(w.pending, path)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		batch = append(batch, path)
	}
	sort.Strings(batch)
	return batch
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
