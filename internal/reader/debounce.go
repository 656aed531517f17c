package reader

import (
	"sync"
	"time"
)

// Debouncer runs a function after a quiet interval, restarting the wait on
// every new Schedule call (trailing debounce). A session owns exactly one
// debouncer for position writes.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Schedule arms the debouncer to run fn after the quiet interval. Any
// previously scheduled run that has not fired yet is replaced.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}

// Cancel drops any pending run.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
