package state

import (
	"sync"
	"time"

	"camwatch/internal/event"
)

// DefaultAlertTTL is how long the global alert level stays raised
// before reverting to clear.
const DefaultAlertTTL = 5 * time.Second

// AlertReducer folds the raw alert-signal stream into a single current
// alert level for the whole session. An alert signal raises the level
// and arms (or re-arms) a revert timer; any non-alert signal clears it
// immediately. Unlike the per-tracker TagStore this is deliberately
// global: it answers "is the environment on alert", not "is this face
// flagged".
type AlertReducer struct {
	mu      sync.Mutex
	level   event.AlertLevel
	timer   *time.Timer
	gen     uint64
	ttl     time.Duration
	stopped bool
}

// NewAlertReducer creates a reducer with the given revert TTL.
// Non-positive TTLs fall back to DefaultAlertTTL.
func NewAlertReducer(ttl time.Duration) *AlertReducer {
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	return &AlertReducer{
		level: event.AlertClear,
		ttl:   ttl,
	}
}

// OnSignal applies a raw alert signal.
func (a *AlertReducer) OnSignal(level event.AlertLevel) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++

	if level != event.AlertActive {
		a.level = event.AlertClear
		return
	}

	a.level = event.AlertActive
	gen := a.gen
	a.timer = time.AfterFunc(a.ttl, func() { a.revert(gen) })
}

// Level returns the current alert level.
func (a *AlertReducer) Level() event.AlertLevel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.level
}

func (a *AlertReducer) revert(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.gen != gen {
		return
	}
	a.level = event.AlertClear
	a.timer = nil
}

// Stop cancels any pending revert timer; used at teardown.
func (a *AlertReducer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopped = true
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
