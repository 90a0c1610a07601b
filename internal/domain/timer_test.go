package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestTimerStateRemaining covers running, paused and expired records.
func TestTimerStateRemaining(t *testing.T) {
	t.Parallel()

	t0 := time.UnixMilli(1_700_000_000_000)
	s := &TimerState{
		ID:               "t",
		DurationMs:       5000,
		StartedAtEpochMs: EpochMs(t0),
		IsRunning:        true,
	}

	require.Equal(t, 5*time.Second, s.Remaining(t0))
	require.Equal(t, 2*time.Second, s.Remaining(t0.Add(3*time.Second)))
	require.Zero(t, s.Remaining(t0.Add(time.Minute)))

	pausedAt := EpochMs(t0.Add(3 * time.Second))
	s.IsRunning = false
	s.PausedAtEpochMs = &pausedAt

	// Frozen no matter how late we look.
	require.Equal(t, 2*time.Second, s.Remaining(t0.Add(time.Hour)))
}

// TestTimerStateValid rejects inconsistent records.
func TestTimerStateValid(t *testing.T) {
	t.Parallel()

	pausedAt := int64(10)
	require.True(t, (&TimerState{ID: "a", DurationMs: 1, StartedAtEpochMs: 1, IsRunning: true}).Valid())
	require.True(t, (&TimerState{ID: "a", DurationMs: 1, StartedAtEpochMs: 1, PausedAtEpochMs: &pausedAt}).Valid())
	require.False(t, (&TimerState{ID: "a", DurationMs: 0, StartedAtEpochMs: 1, IsRunning: true}).Valid())
	require.False(t, (&TimerState{ID: "", DurationMs: 1, StartedAtEpochMs: 1, IsRunning: true}).Valid())
	require.False(t, (&TimerState{ID: "a", DurationMs: 1, StartedAtEpochMs: 1}).Valid())
	require.False(t, (&TimerState{ID: "a", DurationMs: 1, StartedAtEpochMs: 1, IsRunning: true, PausedAtEpochMs: &pausedAt}).Valid())
}
