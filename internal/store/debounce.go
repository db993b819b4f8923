package store

import (
	"sync"
	"time"
)

// debouncer coalesces rapid write requests into one delayed call of fn.
// Each Trigger cancels any pending timer and starts a fresh one, so the lag
// behind the last request is bounded by the interval. Cancel is used by the
// synchronous flush paths before they write directly.
type debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	fn       func()
}

func newDebouncer(interval time.Duration, fn func()) *debouncer {
	return &debouncer{interval: interval, fn: fn}
}

// Trigger schedules fn after the debounce interval, replacing any pending
// schedule.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fn)
}

// Cancel stops any pending schedule without running fn.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
