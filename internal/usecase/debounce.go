package usecase

import (
	"sync"
	"time"
)

// Debouncer runs fn once window has elapsed without another Arm. It is the
// arm/cancel/fire timer behind autosave; Stop makes teardown explicit.
type Debouncer struct {
	window time.Duration
	fn     func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
	running sync.WaitGroup
}

func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Arm (re)starts the quiescence window. It returns false once stopped.
func (d *Debouncer) Arm() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
	return true
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// a timer that lost the race against Arm/Cancel must not run
	if d.stopped || gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	d.fn()
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops the pending firing, if any, and reports whether there was one.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Flush runs fn now, on the caller's goroutine, when a firing is pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.stopped || !d.cancelLocked() {
		d.mu.Unlock()
		return false
	}
	d.mu.Unlock()
	d.fn()
	return true
}

// Stop cancels any pending firing, refuses further Arm calls and waits for
// a firing that is already running.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.cancelLocked()
	d.mu.Unlock()
	d.running.Wait()
}
