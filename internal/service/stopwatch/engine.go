// Package stopwatch implements the count-up engine with laps.
package stopwatch

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/yoruboku/alarm2/internal/clock"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/logger"
	"github.com/yoruboku/alarm2/internal/repository/state"
)

// Engine owns the StopwatchState. It is not safe for concurrent use.
//
// Laps are only recorded while running; a paused or reset stopwatch
// rejects Lap with domain.ErrNotRunning.
type Engine struct {
	store   state.Store
	clock   clock.Clock
	current domain.StopwatchState
}

// New creates an engine and recovers the persisted stopwatch, if any.
func New(ctx context.Context, store state.Store, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}

	e := &Engine{store: store, clock: clk}

	var recovered domain.StopwatchState
	if state.LoadJSON(ctx, store, state.KeyStopwatch, &recovered) {
		if recovered.Valid() {
			e.current = recovered
		} else {
			logger.WarnKV(ctx, "Inconsistent stopwatch record, treating as absent")
		}
	}

	return e
}

// Start runs the stopwatch from zero or resumes it from a pause.
// It reports whether anything changed.
func (e *Engine) Start(ctx context.Context) bool {
	if e.current.IsRunning {
		return false
	}

	e.current.StartedAtEpochMs = domain.EpochMs(e.clock.Now())
	e.current.PausedAtEpochMs = nil
	e.current.IsRunning = true
	e.persist(ctx)

	return true
}

// Pause folds the running interval into the accumulated total.
func (e *Engine) Pause(ctx context.Context) bool {
	if !e.current.IsRunning {
		return false
	}

	now := domain.EpochMs(e.clock.Now())
	e.current.ElapsedMsAtLastPause += max(now-e.current.StartedAtEpochMs, 0)
	e.current.PausedAtEpochMs = &now
	e.current.IsRunning = false
	e.persist(ctx)

	return true
}

// Lap records the current elapsed time and returns it.
func (e *Engine) Lap(ctx context.Context) (time.Duration, error) {
	if !e.current.IsRunning {
		return 0, domain.ErrNotRunning
	}

	elapsed := e.current.Elapsed(e.clock.Now())
	e.current.Laps = append(e.current.Laps, elapsed.Milliseconds())
	e.persist(ctx)

	return elapsed, nil
}

// DeleteLap removes the lap at index without touching elapsed time.
func (e *Engine) DeleteLap(ctx context.Context, index int) error {
	if index < 0 || index >= len(e.current.Laps) {
		return fmt.Errorf("lap %d of %d: %w", index, len(e.current.Laps), domain.ErrIndexOutOfRange)
	}

	e.current.Laps = slices.Delete(e.current.Laps, index, index+1)
	e.persist(ctx)

	return nil
}

// Reset zeroes the stopwatch and drops all laps.
func (e *Engine) Reset(ctx context.Context) {
	e.current = domain.StopwatchState{}

	//nolint:errcheck // RemoveKey logs; in-memory state stays authoritative.
	state.RemoveKey(ctx, e.store, state.KeyStopwatch)
}

// Elapsed returns the elapsed time at now.
func (e *Engine) Elapsed(now time.Time) time.Duration {
	return e.current.Elapsed(now)
}

// State returns a copy of the stopwatch state.
func (e *Engine) State() *domain.StopwatchState {
	return e.current.Clone()
}

func (e *Engine) persist(ctx context.Context) {
	//nolint:errcheck // SaveJSON logs; in-memory state stays authoritative.
	state.SaveJSON(ctx, e.store, state.KeyStopwatch, &e.current)
}
