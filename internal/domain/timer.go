package domain

import "time"

// TimerState is the persisted record of the single active countdown.
type TimerState struct {
	// ID identifies the countdown so late relay events can be matched or dropped.
	ID string `json:"id"`
	// DurationMs is the fixed total length.
	DurationMs int64 `json:"durationMs"`
	// StartedAtEpochMs is the start instant, shifted forward by every paused interval.
	StartedAtEpochMs int64 `json:"startedAtEpochMs"`
	// IsRunning is false while paused.
	IsRunning bool `json:"isRunning"`
	// PausedAtEpochMs is present only while paused.
	PausedAtEpochMs *int64 `json:"pausedAtEpochMs,omitempty"`
}

// Remaining derives the time left at now from the stored timestamps only.
// The result is clamped to zero.
func (s *TimerState) Remaining(now time.Time) time.Duration {
	var elapsedMs int64

	switch {
	case s.IsRunning:
		elapsedMs = EpochMs(now) - s.StartedAtEpochMs
	case s.PausedAtEpochMs != nil:
		elapsedMs = *s.PausedAtEpochMs - s.StartedAtEpochMs
	}

	remainingMs := max(s.DurationMs-elapsedMs, 0)

	return time.Duration(remainingMs) * time.Millisecond
}

// Valid reports whether the record is internally consistent. Records that
// are not valid are treated as absent.
func (s *TimerState) Valid() bool {
	if s.ID == "" || s.DurationMs <= 0 || s.StartedAtEpochMs <= 0 {
		return false
	}

	// A paused timer must know when it was paused; a running one must not.
	return s.IsRunning == (s.PausedAtEpochMs == nil)
}

// Clone returns a deep copy of the state.
func (s *TimerState) Clone() *TimerState {
	if s == nil {
		return nil
	}

	cloned := *s

	if s.PausedAtEpochMs != nil {
		pausedAt := *s.PausedAtEpochMs
		cloned.PausedAtEpochMs = &pausedAt
	}

	return &cloned
}
