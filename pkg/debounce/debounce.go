// Package debounce coalesces rapid events into a single callback.
package debounce

import (
	"sync"
	"time"
)

// DefaultWait is the default coalescing window, sized so a burst of node
// drags produces one position-store write rather than one per pixel.
const DefaultWait = 500 * time.Millisecond

// Debouncer runs only the last callback scheduled within the wait window.
type Debouncer struct {
	wait  time.Duration
	timer *time.Timer
	mu    sync.Mutex
	seq   uint64
}

// New creates a Debouncer. A zero wait falls back to DefaultWait.
func New(wait time.Duration) *Debouncer {
	if wait == 0 {
		wait = DefaultWait
	}
	return &Debouncer{wait: wait}
}

// Trigger schedules callback after the wait window, cancelling any callback
// scheduled earlier and not yet run.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		// Stop can return false when the timer already fired and the stale
		// callback is starting concurrently; the sequence check keeps only
		// the most recently scheduled one.
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		callback()
	})
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Wait returns the coalescing window.
func (d *Debouncer) Wait() time.Duration {
	return d.wait
}
