package gesture

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DoubleTapWindow is the maximum gap between two touch-downs that still
// counts as a double tap.
const DoubleTapWindow = 250 * time.Millisecond

// DoubleTapTimer holds the single shared last-touch timestamp. It resets
// itself on every Tap, so it needs no expiry.
type DoubleTapTimer struct {
	LastTouchMs int64 `json:"lastTouchMs"`

	// touched is false until the first Tap so that a touch at t=0 is not
	// mistaken for the second half of a double tap.
	touched bool
}

// Tap records a touch-down at nowMs and reports whether it landed inside
// the double-tap window of the previous one.
func (t *DoubleTapTimer) Tap(nowMs int64) bool {
	delta := nowMs - t.LastTouchMs
	within := t.touched && delta < DoubleTapWindow.Milliseconds()

	t.LastTouchMs = nowMs
	t.touched = true
	return within
}

// Touched reports whether any touch-down has been recorded yet.
func (t DoubleTapTimer) Touched() bool {
	return t.touched
}

// MonotonicClock returns a millisecond clock that starts at zero and only
// moves forward. Pass clock.New() in production and clock.NewMock() in tests.
func MonotonicClock(c clock.Clock) func() int64 {
	start := c.Now()
	return func() int64 {
		return c.Since(start).Milliseconds()
	}
}
