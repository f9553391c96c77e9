package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type pathInvalidator interface {
	InvalidatePath(path string)
}

// Watcher follows a local document root and invalidates cached
// indexes for files that change. Editors fire bursts of events per
// save, so invalidation is debounced per path.
type Watcher struct {
	log        *slog.Logger
	root       string
	mergeDelay time.Duration
	inv        pathInvalidator

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(log *slog.Logger, root string, mergeDelay time.Duration, inv pathInvalidator) *Watcher {
	return &Watcher{
		log:        log,
		root:       root,
		mergeDelay: mergeDelay,
		inv:        inv,
		pending:    make(map[string]*time.Timer),
	}
}

// Watch blocks until the context is canceled.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	w.log.Info("watching document root", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.schedule(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.mergeDelay)
		return
	}

	w.pending[path] = time.AfterFunc(w.mergeDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.inv.InvalidatePath(path)
	})
}
