// Package liveness classifies worker activity signals into discrete states.
package liveness

import (
	"time"
)

// State represents a worker's liveness classification.
type State string

const (
	// StateActive means the worker showed activity within the active threshold.
	StateActive State = "active"

	// StateIdle means the worker's last activity falls between the active
	// and idle thresholds.
	StateIdle State = "idle"

	// StateStopped means the worker's last activity is older than the idle
	// threshold, or no source has ever reported activity for it.
	StateStopped State = "stopped"
)

// Severity returns the ordering of states: active < idle < stopped.
func (s State) Severity() int {
	switch s {
	case StateActive:
		return 0
	case StateIdle:
		return 1
	default:
		return 2
	}
}

// WorseThan reports whether s is more severe than other.
func (s State) WorseThan(other State) bool {
	return s.Severity() > other.Severity()
}

// Thresholds are the age boundaries between states.
type Thresholds struct {
	// Active is the maximum freshness age still classified as active.
	Active time.Duration `json:"active"`

	// Idle is the maximum freshness age still classified as idle.
	Idle time.Duration `json:"idle"`
}

// DefaultThresholds returns the standard 5m/15m boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Active: 5 * time.Minute,
		Idle:   15 * time.Minute,
	}
}

// Newest returns the most recent known timestamp in signals, or false when
// every source is unknown. Unknown sources are represented by nil entries.
func Newest(signals map[string]*time.Time) (time.Time, bool) {
	var newest time.Time
	known := false
	for _, ts := range signals {
		if ts == nil {
			continue
		}
		if !known || ts.After(newest) {
			newest = *ts
			known = true
		}
	}
	return newest, known
}

// Classify fuses a per-source signal map into a freshness age and state.
//
// The age is now minus the newest known timestamp, clamped at zero for
// timestamps from the future (clock skew). A nil age means no source has
// ever reported; that always classifies as stopped.
//
// Boundary rule: comparisons are inclusive on the less severe side. An age
// of exactly Active is active; exactly Idle is idle. One tick past a
// boundary moves to the next state.
func Classify(signals map[string]*time.Time, now time.Time, th Thresholds) (*time.Duration, State) {
	newest, known := Newest(signals)
	if !known {
		return nil, StateStopped
	}

	age := now.Sub(newest)
	if age < 0 {
		age = 0
	}

	state := StateStopped
	switch {
	case age <= th.Active:
		state = StateActive
	case age <= th.Idle:
		state = StateIdle
	}
	return &age, state
}

// FormatAge renders an age for display. A nil age renders as "never".
func FormatAge(age *time.Duration) string {
	if age == nil {
		return "never"
	}
	return age.Round(time.Second).String()
}
