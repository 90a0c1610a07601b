package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yoruboku/alarm2/internal/clock"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
	"github.com/yoruboku/alarm2/internal/repository/state"
)

var t0 = time.Date(2025, time.March, 3, 6, 59, 0, 0, time.UTC)

type recorder struct {
	events []events.Event
}

func (r *recorder) Publish(ev events.Event) {
	r.events = append(r.events, ev)
}

func newEngine(t *testing.T, store state.Store) (*Engine, *clock.Manual, *recorder) {
	t.Helper()

	clk := clock.NewManual(t0)
	rec := &recorder{}

	return New(context.Background(), store, WithClock(clk), WithPublisher(rec)), clk, rec
}

// TestStart_RemainingEqualsDuration checks that a fresh countdown shows its full length.
func TestStart_RemainingEqualsDuration(t *testing.T) {
	t.Parallel()

	for _, seconds := range []int{1, 5, 59, 3600, 86400} {
		engine, clk, _ := newEngine(t, state.NewMemoryStore())

		id, err := engine.Start(context.Background(), seconds)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		remaining, ok := engine.Remaining(clk.Now())
		require.True(t, ok)
		require.Equal(t, time.Duration(seconds)*time.Second, remaining)
	}
}

// TestStart_RejectsNonPositive leaves state untouched.
func TestStart_RejectsNonPositive(t *testing.T) {
	t.Parallel()

	engine, _, _ := newEngine(t, state.NewMemoryStore())

	for _, seconds := range []int{0, -1} {
		_, err := engine.Start(context.Background(), seconds)
		require.ErrorIs(t, err, domain.ErrInvalidDuration)
	}

	require.Nil(t, engine.State())
}

// TestPauseResume_FinishesExactlyOnTime follows a 5s timer paused for 10s.
func TestPauseResume_FinishesExactlyOnTime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, clk, rec := newEngine(t, state.NewMemoryStore())

	id, err := engine.Start(ctx, 5)
	require.NoError(t, err)

	clk.Advance(3 * time.Second)
	require.True(t, engine.Pause(ctx))
	require.False(t, engine.Pause(ctx))

	clk.Advance(10 * time.Second)
	require.Empty(t, engine.Tick(ctx))

	remaining, _ := engine.Remaining(clk.Now())
	require.Equal(t, 2*time.Second, remaining)

	require.True(t, engine.Resume(ctx))
	require.False(t, engine.Resume(ctx))

	remaining, _ = engine.Remaining(clk.Now())
	require.Equal(t, 2*time.Second, remaining)

	clk.Advance(1999 * time.Millisecond)
	require.Empty(t, engine.Tick(ctx))

	clk.Advance(time.Millisecond)
	require.Equal(t, id, engine.Tick(ctx))
	require.Empty(t, engine.Tick(ctx))

	require.Len(t, rec.events, 1)
	require.Equal(t, events.TimerFinished{TimerID: id, At: t0.Add(15 * time.Second)}, rec.events[0])
	require.Nil(t, engine.State())
}

// TestRecovery_ReopenReproducesRemaining simulates a restart mid countdown.
func TestRecovery_ReopenReproducesRemaining(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := state.NewMemoryStore()
	engine, clk, _ := newEngine(t, store)

	_, err := engine.Start(ctx, 60)
	require.NoError(t, err)

	clk.Advance(20 * time.Second)
	engine.Pause(ctx)

	reopened := New(ctx, store, WithClock(clk))
	remaining, ok := reopened.Remaining(clk.Now().Add(time.Hour))
	require.True(t, ok)
	require.Equal(t, 40*time.Second, remaining)

	clk.Advance(time.Minute)
	require.True(t, reopened.Resume(ctx))

	clk.Advance(40 * time.Second)
	require.NotEmpty(t, reopened.Tick(ctx))

	_, err = store.Get(ctx, state.KeyTimer)
	require.ErrorIs(t, err, state.ErrNotFound)
}

// TestRecovery_MalformedRecordIsAbsent ignores garbage and inconsistent records.
func TestRecovery_MalformedRecordIsAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for _, blob := range []string{`{not json`, `{"id":"x","durationMs":0}`, `{"id":"x","durationMs":1000,"startedAtEpochMs":5,"isRunning":false}`} {
		store := state.NewMemoryStore()
		require.NoError(t, store.Set(ctx, state.KeyTimer, []byte(blob)))

		engine := New(ctx, store)
		require.Nil(t, engine.State())
	}
}

// TestReset_Idempotent clears state and drops late finish reports.
func TestReset_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, clk, rec := newEngine(t, state.NewMemoryStore())

	id, err := engine.Start(ctx, 1)
	require.NoError(t, err)

	engine.Reset(ctx)
	engine.Reset(ctx)

	clk.Advance(time.Second)
	require.Equal(t, FinishStale, engine.HandleFinished(ctx, id))
	require.Empty(t, rec.events)
}

// TestHandleFinished covers relay reports.
func TestHandleFinished(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, clk, rec := newEngine(t, state.NewMemoryStore())

	id, err := engine.Start(ctx, 10)
	require.NoError(t, err)

	clk.Advance(9 * time.Second)
	require.Equal(t, FinishEarly, engine.HandleFinished(ctx, id))
	require.Equal(t, FinishStale, engine.HandleFinished(ctx, "other"))

	clk.Advance(time.Second)
	require.Equal(t, FinishAccepted, engine.HandleFinished(ctx, id))
	require.Equal(t, FinishStale, engine.HandleFinished(ctx, id))
	require.Empty(t, engine.Tick(ctx))
	require.Len(t, rec.events, 1)
}

// TestStart_ReplacesActive keeps a single slot.
func TestStart_ReplacesActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, clk, _ := newEngine(t, state.NewMemoryStore())

	first, err := engine.Start(ctx, 30)
	require.NoError(t, err)

	clk.Advance(10 * time.Second)

	second, err := engine.Start(ctx, 5)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	remaining, _ := engine.Remaining(clk.Now())
	require.Equal(t, 5*time.Second, remaining)
	require.Equal(t, FinishStale, engine.HandleFinished(ctx, first))
}
