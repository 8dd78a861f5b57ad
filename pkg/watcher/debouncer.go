// Package watcher reloads a local leads file when it changes on disk.
package watcher

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period a burst of writes must settle for.
const DefaultDebounce = 200 * time.Millisecond

// Debouncer collapses a burst of Trigger calls into one callback that fires
// once no further Trigger arrives for the configured window.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewDebouncer returns a debouncer. A non-positive window uses DefaultDebounce.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{window: window}
}

// Trigger (re)starts the window. Only fn from the latest Trigger runs.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		// A timer that already fired can lose the Stop race; the generation
		// check keeps it from running a superseded callback.
		current := gen == d.gen
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Window returns the debounce window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}
