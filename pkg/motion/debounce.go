package motion

import (
	"sync"
	"time"
)

// AutoSendWindow is the quiescence window applied to local pose edits
// before an automatic send fires.
const AutoSendWindow = 100 * time.Millisecond

// Debouncer fires fn once the window has elapsed since the most recent
// Trigger. A trigger inside the window cancels the pending fire, so a
// burst of edits produces exactly one call, after the last edit.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	fn     func()
	timer  *time.Timer
}

// NewDebouncer returns a debouncer calling fn after window of quiet.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Trigger arms the debouncer, cancelling any pending fire.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fn)
}

// Stop cancels a pending fire, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
