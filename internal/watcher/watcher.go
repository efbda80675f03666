// Package watcher reloads neighbor list artifacts into the store when they change on disk.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches directories and invokes onChange, debounced per path, for files accepted
// by match. Only the top level of each root is watched.
type Watcher struct {
	roots       []string
	match       func(path string) bool
	onChange    func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	inflight    sync.WaitGroup // scheduled and running reloads
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets how long a path must stay quiet before onChange fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher over roots. A nil match accepts every file.
func NewWatcher(roots []string, match func(path string) bool, onChange func(path string), opts ...WatcherOption) *Watcher {
	if match == nil {
		match = func(string) bool { return true }
	}
	w := &Watcher{
		roots:       roots,
		match:       match,
		onChange:    onChange,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
// Missing roots are created.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := os.MkdirAll(root, 0755); err != nil {
			_ = watcher.Close()
			return err
		}
		if err := watcher.Add(filepath.Clean(root)); err != nil {
			_ = watcher.Close()
			return err
		}
	}
	w.watcher = watcher
	w.started = true
	w.logger.Debug("watcher starting", zap.Strings("roots", w.roots))
	go w.run(ctx, watcher.Events, watcher.Errors)
	return nil
}

func (w *Watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-errs:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if !w.underRoot(path) || !w.match(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			w.debounceChange(path)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// Stored sets stay in place; only a pending reload is dropped.
		w.cancelDebounce(path)
	}
}

func (w *Watcher) underRoot(path string) bool {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()
	dir := filepath.Clean(filepath.Dir(path))
	for _, root := range roots {
		if filepath.Clean(root) == dir {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.debounceMap[path]; ok && t.Stop() {
		w.inflight.Done()
	}
	w.inflight.Add(1)
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		defer w.inflight.Done()
		w.mu.Lock()
		delete(w.debounceMap, path)
		stopped := !w.started
		w.mu.Unlock()
		if stopped {
			return
		}
		w.logger.Debug("watcher reloading file (debounced)", zap.String("path", path))
		if w.onChange != nil {
			w.onChange(path)
		}
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		if t.Stop() {
			w.inflight.Done()
		}
		delete(w.debounceMap, path)
	}
}

// Directories returns a copy of the watched root directories.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// SyncExistingFiles calls onChange for every matching file already present in the roots,
// in lexical order. Call it after Start to load artifacts written while nothing was watching.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.Directories() {
		entries, err := os.ReadDir(root)
		if err != nil {
			w.logger.Warn("watcher sync failed", zap.String("root", root), zap.Error(err))
			continue
		}
		for _, e := range entries {
			path := filepath.Join(root, e.Name())
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !w.match(path) {
				continue
			}
			w.logger.Debug("watcher sync loading file", zap.String("path", path))
			if w.onChange != nil {
				w.onChange(path)
			}
		}
	}
}

// Stop stops the watcher, drops pending reloads, and waits for a reload already
// running to return. It must not be called from onChange.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		w.inflight.Wait()
		return
	}
	for path, t := range w.debounceMap {
		if t.Stop() {
			w.inflight.Done()
		}
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
	w.inflight.Wait()
}
