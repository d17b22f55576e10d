package finalizer

import (
	"sync"
	"time"
)

// debouncer coalesces repeated triggers into a single action firing once
// the debounce window has elapsed with no further trigger. One instance
// guards exactly one message id.
type debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
	action   func()
	seq      uint64
	wg       sync.WaitGroup
}

func newDebouncer(duration time.Duration, action func()) *debouncer {
	return &debouncer{duration: duration, action: action}
}

// trigger (re)schedules the action, canceling any timer already pending.
func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		if d.timer.Stop() {
			d.wg.Done()
		}
	}

	d.seq++
	currentSeq := d.seq

	d.wg.Add(1)
	d.timer = time.AfterFunc(d.duration, func() {
		defer d.wg.Done()

		d.mu.Lock()
		if d.seq != currentSeq {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		d.action()
	})
}

// cancelAndWait stops any pending timer and blocks until an in-flight
// action (if any) has finished, used when an id is torn down early.
func (d *debouncer) cancelAndWait() {
	d.mu.Lock()
	if d.timer != nil {
		if d.timer.Stop() {
			d.wg.Done()
		}
		d.timer = nil
	}
	d.mu.Unlock()
	d.wg.Wait()
}
