package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yoruboku/alarm2/internal/clock"
	"github.com/yoruboku/alarm2/internal/domain"
)

var t0 = time.Date(2025, time.January, 6, 7, 0, 0, 0, time.UTC)

func start(t *testing.T) (*Relay, *clock.Manual, context.CancelFunc) {
	t.Helper()

	clk := clock.NewManual(t0)
	r := New(WithClock(clk), WithInterval(time.Millisecond), WithLocation(time.UTC))

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		_ = r.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-r.Done()
	})

	return r, clk, cancel
}

// next returns the first event that is not a tick, failing after a timeout.
func next(t *testing.T, r *Relay) Event {
	t.Helper()

	timeout := time.After(2 * time.Second)

	for {
		select {
		case ev, ok := <-r.Events():
			require.True(t, ok, "relay events closed")

			if _, tick := ev.(TimerTick); !tick {
				return ev
			}
		case <-timeout:
			require.FailNow(t, "no relay event")
		}
	}
}

// quiet asserts that no non-tick event arrives within d.
func quiet(t *testing.T, r *Relay, d time.Duration) {
	t.Helper()

	deadline := time.After(d)

	for {
		select {
		case ev := <-r.Events():
			if _, tick := ev.(TimerTick); !tick {
				require.FailNow(t, "unexpected relay event", "%#v", ev)
			}
		case <-deadline:
			return
		}
	}
}

// TestTimer_TicksThenFinishesOnce mirrors pause and resume.
func TestTimer_TicksThenFinishesOnce(t *testing.T) {
	t.Parallel()

	r, clk, _ := start(t)
	ctx := context.Background()

	require.NoError(t, r.Send(ctx, StartTimer{ID: "t1", DurationMs: 5000, StartedAtEpochMs: domain.EpochMs(t0)}))

	select {
	case ev := <-r.Events():
		tick, ok := ev.(TimerTick)
		require.True(t, ok)
		require.Equal(t, "t1", tick.ID)
		require.Equal(t, int64(5000), tick.RemainingMs)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no tick")
	}

	clk.Advance(3 * time.Second)
	require.NoError(t, r.Send(ctx, PauseTimer{ID: "t1", AtEpochMs: domain.EpochMs(clk.Now())}))
	clk.Advance(10 * time.Second)
	quiet(t, r, 20*time.Millisecond)

	require.NoError(t, r.Send(ctx, ResumeTimer{ID: "t1", AtEpochMs: domain.EpochMs(clk.Now())}))
	clk.Advance(1999 * time.Millisecond)
	quiet(t, r, 20*time.Millisecond)

	clk.Advance(time.Millisecond)
	require.Equal(t, TimerFinished{ID: "t1"}, next(t, r))
	quiet(t, r, 20*time.Millisecond)
}

// TestTimer_StopAndUpdateState drop and replace the copy.
func TestTimer_StopAndUpdateState(t *testing.T) {
	t.Parallel()

	r, clk, _ := start(t)
	ctx := context.Background()

	require.NoError(t, r.Send(ctx, StartTimer{ID: "t1", DurationMs: 1000, StartedAtEpochMs: domain.EpochMs(t0)}))
	require.NoError(t, r.Send(ctx, StopTimer{ID: "t1"}))
	clk.Advance(time.Hour)
	quiet(t, r, 20*time.Millisecond)

	require.NoError(t, r.Send(ctx, UpdateState{Timer: &domain.TimerState{
		ID:               "t2",
		DurationMs:       1000,
		StartedAtEpochMs: domain.EpochMs(clk.Now()) - 1000,
		IsRunning:        true,
	}}))
	require.Equal(t, TimerFinished{ID: "t2"}, next(t, r))
}

// TestAlarms_ReportOncePerMinute suspends matching while ringing.
func TestAlarms_ReportOncePerMinute(t *testing.T) {
	t.Parallel()

	r, clk, _ := start(t)
	ctx := context.Background()

	alarm := *domain.NewAlarm("07:00")
	alarm.ID = "a1"
	skipped := *domain.NewAlarm("07:00")
	skipped.ID = "a0"
	skipped.SkipDate = "2025-01-06"

	require.NoError(t, r.Send(ctx, CheckAlarms{Alarms: []domain.Alarm{skipped, alarm}, RingingAlarmID: "other"}))
	quiet(t, r, 20*time.Millisecond)

	require.NoError(t, r.Send(ctx, CheckAlarms{Alarms: []domain.Alarm{skipped, alarm}}))
	require.Equal(t, AlarmShouldRing{AlarmID: "a1"}, next(t, r))
	quiet(t, r, 20*time.Millisecond)

	clk.Advance(24 * time.Hour)
	require.Equal(t, AlarmShouldRing{AlarmID: "a0"}, next(t, r))
}

// TestSend_AfterStop reports ErrStopped and closes the events channel.
func TestSend_AfterStop(t *testing.T) {
	t.Parallel()

	r, _, cancel := start(t)
	cancel()
	<-r.Done()

	require.ErrorIs(t, r.Send(context.Background(), StopTimer{}), ErrStopped)

	_, ok := <-r.Events()
	require.False(t, ok)
}
