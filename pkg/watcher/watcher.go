package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher signals on Changed when the watched file is written, created,
// renamed into place or removed. The parent directory is watched so editors
// that replace the file atomically are still seen.
type Watcher struct {
	path      string
	debouncer *Debouncer
	logger    *zap.Logger

	changed chan struct{}

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	stop    chan struct{}
	stopped chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the quiet window before a change is reported.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debouncer = NewDebouncer(d)
	}
}

// WithLogger routes watcher diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher for path. Call Start to begin watching.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watcher: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve %s: %w", path, err)
	}
	w := &Watcher{
		path:      abs,
		debouncer: NewDebouncer(DefaultDebounce),
		logger:    zap.NewNop(),
		changed:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Changed delivers one value per debounced burst of changes. Signals that
// arrive while one is pending are merged.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Start begins watching. It is an error to start a running watcher.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return errors.New("watcher: already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watcher: watch %s: %w", filepath.Dir(w.path), err)
	}

	w.fsw = fsw
	w.stop = make(chan struct{})
	w.stopped = make(chan struct{})
	go w.loop(fsw, w.stop, w.stopped)
	w.logger.Debug("watching leads file", zap.String("path", w.path))
	return nil
}

// Stop ends watching and waits for the event loop to exit. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fsw, stop, stopped := w.fsw, w.stop, w.stopped
	w.fsw = nil
	w.mu.Unlock()

	if fsw == nil {
		return
	}
	close(stop)
	fsw.Close()
	<-stopped
	w.debouncer.Cancel()
}

// Run starts the watcher, calls onChange for every debounced change and
// returns when ctx ends.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.changed:
			onChange()
		}
	}
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	for {
		select {
		case <-stop:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.debouncer.Trigger(w.notify)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

func (w *Watcher) notify() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}
