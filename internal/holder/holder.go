// Package holder provides thread-safe access to a bound configuration
// record with hot reload: file-change watching, SIGHUP, and on-change
// callbacks. A reload that fails to parse or bind keeps the previous record.
package holder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/strictconf/internal/ctxlog"
)

// LoadFunc produces a freshly bound record from the document at path.
type LoadFunc[T any] func(ctx context.Context, path string) (*T, error)

// Holder owns the current record and serializes reloads.
type Holder[T any] struct {
	mu       sync.RWMutex
	current  *T
	path     string
	load     LoadFunc[T]
	onChange []func(*T)
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New loads the initial record and returns a holder for it.
func New[T any](ctx context.Context, path string, load LoadFunc[T]) (*Holder[T], error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	initial, err := load(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &Holder[T]{
		current: initial,
		path:    absPath,
		load:    load,
		stopCh:  make(chan struct{}),
	}, nil
}

// Get returns the current record.
func (h *Holder[T]) Get() *T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload re-binds the document from disk. On failure the old record stays
// current and the error is returned.
func (h *Holder[T]) Reload(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("reloading configuration", "path", h.path)

	next, err := h.load(ctx, h.path)
	if err != nil {
		logger.Error("reload failed, keeping previous configuration", "error", err)
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	h.current = next
	callbacks := slices.Clone(h.onChange)
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn(next)
	}

	logger.Info("configuration reloaded")
	return nil
}

// OnChange registers a callback invoked after each successful reload.
func (h *Holder[T]) OnChange(fn func(*T)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Watch starts watching the document's directory for changes to the file
// (watching the directory survives editors that save atomically) and
// triggers reloads until Close is called or the context ends.
func (h *Holder[T]) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop(ctx)

	ctxlog.FromContext(ctx).Info("watching configuration file", "path", h.path)
	return nil
}

// WatchSignals reloads on SIGHUP until Close is called or the context ends.
func (h *Holder[T]) WatchSignals(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				_ = h.Reload(ctx)
			case <-h.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close stops watching. The current record remains available via Get.
func (h *Holder[T]) Close() error {
	h.stopOnce.Do(func() { close(h.stopCh) })
	if h.watcher != nil {
		return h.watcher.Close()
	}
	return nil
}

func (h *Holder[T]) watchLoop(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(h.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			_ = h.Reload(ctx)
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "error", err)
		case <-h.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
