package dedup

import (
	"sync"
	"time"
)

// DefaultWindow is the default per-plate cooldown.
const DefaultWindow = 20 * time.Second

// Tracker enforces at most one admitted event per plate per rolling window.
// It is safe for concurrent use; the read-compare-write on a plate's
// last-seen entry is a single critical section, so two near-simultaneous
// detections of the same plate cannot both be admitted.
//
// Time comparisons use time.Time values from the injected clock. The default
// clock is time.Now, whose monotonic reading makes in-process comparisons
// immune to wall-clock jumps.
type Tracker struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	window   time.Duration
	now      func() time.Time
}

// NewTracker returns a tracker with the given cooldown window. A non-positive
// window falls back to DefaultWindow.
func NewTracker(window time.Duration) *Tracker {
	return NewTrackerWithClock(window, time.Now)
}

// NewTrackerWithClock is NewTracker with an injected clock, for tests.
func NewTrackerWithClock(window time.Duration, now func() time.Time) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		lastSeen: make(map[string]time.Time),
		window:   window,
		now:      now,
	}
}

// TryAdmit reports whether plate may produce a new access event. The first
// sighting of a plate is always admitted; later sightings are admitted once
// the window has fully elapsed (boundary inclusive). Admission records the
// current time; suppression leaves state untouched.
func (t *Tracker) TryAdmit(plate string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	last, seen := t.lastSeen[plate]
	if seen && now.Sub(last) < t.window {
		return false
	}
	t.lastSeen[plate] = now
	return true
}

// Window returns the configured cooldown window.
func (t *Tracker) Window() time.Duration {
	return t.window
}

// Len returns the number of tracked plates.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lastSeen)
}

// Evict drops entries older than maxAge. maxAge is clamped to the window so
// eviction can never cause a premature re-admission.
func (t *Tracker) Evict(maxAge time.Duration) int {
	if maxAge < t.window {
		maxAge = t.window
	}
	cutoff := t.now().Add(-maxAge)

	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for plate, last := range t.lastSeen {
		if last.Before(cutoff) {
			delete(t.lastSeen, plate)
			evicted++
		}
	}
	return evicted
}
