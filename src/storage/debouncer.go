package storage

import (
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// Debouncer coalesces Trigger calls into one deferred run of fn.
// At most one timer is pending; Trigger while pending is a no-op.
// -----------------------------------------------------------------------------

type Debouncer struct {
	delay time.Duration
	fn    func()

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	pending    bool
	stopped    bool

	// run serializes executions of fn between the timer and Flush.
	run sync.Mutex
}

func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// -----------------------------------------------------------------------------

// Trigger arms the timer unless one is already pending or the debouncer is stopped.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending || d.stopped {
		return
	}

	d.pending = true
	d.generation++
	gen := d.generation
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// -----------------------------------------------------------------------------

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// -----------------------------------------------------------------------------

// Cancel drops the pending run, if any, and reports whether one was dropped.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// -----------------------------------------------------------------------------

// Flush cancels the pending timer and runs fn synchronously.
func (d *Debouncer) Flush() {
	d.Cancel()
	d.execute()
}

// -----------------------------------------------------------------------------

// Stop flushes once more and ignores every later Trigger.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.cancelLocked()
	d.stopped = true
	d.mu.Unlock()

	d.execute()
}

// -----------------------------------------------------------------------------

func (d *Debouncer) cancelLocked() bool {
	if !d.pending {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	// Bumping the generation invalidates a timer callback that already started.
	d.generation++
	return true
}

// -----------------------------------------------------------------------------

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.generation {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.execute()
}

// -----------------------------------------------------------------------------

func (d *Debouncer) execute() {
	d.run.Lock()
	defer d.run.Unlock()
	d.fn()
}
