package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStopwatchStateElapsed checks running and frozen elapsed values.
func TestStopwatchStateElapsed(t *testing.T) {
	t.Parallel()

	t0 := time.UnixMilli(1_700_000_000_000)
	s := &StopwatchState{
		ElapsedMsAtLastPause: 1500,
		IsRunning:            true,
		StartedAtEpochMs:     EpochMs(t0),
	}

	require.Equal(t, 1500*time.Millisecond, s.Elapsed(t0))
	require.Equal(t, 3500*time.Millisecond, s.Elapsed(t0.Add(2*time.Second)))

	s.IsRunning = false
	require.Equal(t, 1500*time.Millisecond, s.Elapsed(t0.Add(time.Hour)))
	require.True(t, s.Started())
	require.False(t, (&StopwatchState{}).Started())
}

// TestStopwatchStateClone ensures laps are not shared.
func TestStopwatchStateClone(t *testing.T) {
	t.Parallel()

	s := &StopwatchState{Laps: []int64{1, 2}}
	c := s.Clone()
	c.Laps[0] = 9

	require.Equal(t, int64(1), s.Laps[0])
}
