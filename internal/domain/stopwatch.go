package domain

import (
	"slices"
	"time"
)

// StopwatchState is the persisted record of the single stopwatch, laps included.
//
// Elapsed time is accumulated into ElapsedMsAtLastPause on every pause and
// StartedAtEpochMs is reset on every resume, so while running
// elapsed = ElapsedMsAtLastPause + (now - StartedAtEpochMs).
type StopwatchState struct {
	ElapsedMsAtLastPause int64   `json:"elapsedMsAtLastPause"`
	IsRunning            bool    `json:"isRunning"`
	StartedAtEpochMs     int64   `json:"startedAtEpochMs"`
	PausedAtEpochMs      *int64  `json:"pausedAtEpochMs,omitempty"`
	Laps                 []int64 `json:"laps"`
}

// Elapsed derives the elapsed time at now.
func (s *StopwatchState) Elapsed(now time.Time) time.Duration {
	elapsedMs := s.ElapsedMsAtLastPause
	if s.IsRunning {
		elapsedMs += max(EpochMs(now)-s.StartedAtEpochMs, 0)
	}

	return time.Duration(elapsedMs) * time.Millisecond
}

// Started reports whether the stopwatch has run since the last reset.
func (s *StopwatchState) Started() bool {
	return s.IsRunning || s.PausedAtEpochMs != nil || s.ElapsedMsAtLastPause > 0
}

// Valid reports whether the record is internally consistent.
func (s *StopwatchState) Valid() bool {
	if s.ElapsedMsAtLastPause < 0 {
		return false
	}

	if s.IsRunning && s.StartedAtEpochMs <= 0 {
		return false
	}

	for _, lap := range s.Laps {
		if lap < 0 {
			return false
		}
	}

	return true
}

// Clone returns a deep copy of the state.
func (s *StopwatchState) Clone() *StopwatchState {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.Laps = slices.Clone(s.Laps)

	if s.PausedAtEpochMs != nil {
		pausedAt := *s.PausedAtEpochMs
		cloned.PausedAtEpochMs = &pausedAt
	}

	return &cloned
}
