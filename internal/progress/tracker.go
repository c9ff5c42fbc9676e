package progress

import (
	"math"
)

const (
	// MaxActive is the highest percentage reported before the process exits.
	MaxActive = 99
	// unknownStep is the per-sample increment when the duration is unknown.
	unknownStep = 1
)

// Tracker converts samples into a non-decreasing percentage capped at
// MaxActive. It is not safe for concurrent use.
type Tracker struct {
	duration float64
	percent  int
}

// NewTracker returns a tracker for a source of the given duration in
// seconds. A duration <= 0 means unknown.
func NewTracker(duration float64) *Tracker {
	return &Tracker{duration: duration}
}

// SetDuration supplies the duration late, e.g. from the encoder banner.
// A known duration is never replaced.
func (t *Tracker) SetDuration(d float64) {
	if t.duration <= 0 && d > 0 {
		t.duration = d
	}
}

// Duration returns the duration in use, 0 when unknown.
func (t *Tracker) Duration() float64 {
	if t.duration < 0 {
		return 0
	}
	return t.duration
}

// Percent returns the current percentage.
func (t *Tracker) Percent() int {
	return t.percent
}

// Observe applies a sample and returns the resulting percentage and whether
// it changed.
func (t *Tracker) Observe(s Sample) (int, bool) {
	next := t.percent

	switch {
	case t.duration > 0 && s.Time != nil:
		next = int(math.Round(100 * *s.Time / t.duration))
	case t.duration <= 0:
		next = t.percent + unknownStep
	}

	if next > MaxActive {
		next = MaxActive
	}
	if next <= t.percent {
		return t.percent, false
	}
	t.percent = next
	return t.percent, true
}
