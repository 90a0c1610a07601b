// Package timer implements the single-slot countdown engine.
//
// Remaining time is always derived from the persisted timestamps and the
// current clock, so a process restart reproduces the exact countdown.
package timer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yoruboku/alarm2/internal/clock"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
	"github.com/yoruboku/alarm2/internal/logger"
	"github.com/yoruboku/alarm2/internal/repository/state"
	"github.com/yoruboku/alarm2/internal/service/notify"
)

// FinishOutcome describes how a relayed finish report was handled.
type FinishOutcome int

const (
	// FinishStale means the report names no live countdown and was dropped.
	FinishStale FinishOutcome = iota
	// FinishAccepted means the countdown has finished here as well.
	FinishAccepted
	// FinishEarly means local state still has time left; the relay is out of sync.
	FinishEarly
)

// Engine owns the TimerState. It is not safe for concurrent use;
// the daemon serializes calls.
type Engine struct {
	store     state.Store
	clock     clock.Clock
	publisher events.Publisher
	notifier  notify.Notifier
	newID     func() string
	current   *domain.TimerState
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock source. Defaults to the wall clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPublisher sets where TimerFinished events go.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithNotifier sets the notification collaborator.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithIDGenerator overrides uuid-based timer ids.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// New creates an engine and recovers any persisted countdown.
// Invalid records are treated as absent.
func New(ctx context.Context, store state.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		clock:    clock.Real{},
		notifier: notify.Noop{},
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(e)
	}

	var recovered domain.TimerState
	if state.LoadJSON(ctx, store, state.KeyTimer, &recovered) {
		if recovered.Valid() {
			e.current = &recovered

			logger.InfoKV(ctx, "Timer recovered",
				"timer_id", recovered.ID,
				"remaining", recovered.Remaining(e.clock.Now()),
				"is_running", recovered.IsRunning)
		} else {
			logger.WarnKV(ctx, "Inconsistent timer record, treating as absent")
		}
	}

	return e
}

// Start replaces any active countdown with a new one of the given length
// and returns its id.
func (e *Engine) Start(ctx context.Context, durationSeconds int) (string, error) {
	if durationSeconds <= 0 {
		return "", domain.ErrInvalidDuration
	}

	e.current = &domain.TimerState{
		ID:               e.newID(),
		DurationMs:       int64(durationSeconds) * time.Second.Milliseconds(),
		StartedAtEpochMs: domain.EpochMs(e.clock.Now()),
		IsRunning:        true,
	}
	e.persist(ctx)

	logger.InfoKV(ctx, "Timer started", "timer_id", e.current.ID, "duration_seconds", durationSeconds)

	return e.current.ID, nil
}

// Pause freezes a running countdown. It reports whether anything changed.
func (e *Engine) Pause(ctx context.Context) bool {
	if e.current == nil || !e.current.IsRunning {
		return false
	}

	pausedAt := domain.EpochMs(e.clock.Now())
	e.current.PausedAtEpochMs = &pausedAt
	e.current.IsRunning = false
	e.persist(ctx)

	logger.DebugKV(ctx, "Timer paused", "timer_id", e.current.ID)

	return true
}

// Resume continues a paused countdown, shifting its start forward by the
// paused interval. It reports whether anything changed.
func (e *Engine) Resume(ctx context.Context) bool {
	if e.current == nil || e.current.IsRunning || e.current.PausedAtEpochMs == nil {
		return false
	}

	now := domain.EpochMs(e.clock.Now())
	e.current.StartedAtEpochMs += now - *e.current.PausedAtEpochMs
	e.current.PausedAtEpochMs = nil
	e.current.IsRunning = true
	e.persist(ctx)

	logger.DebugKV(ctx, "Timer resumed", "timer_id", e.current.ID)

	return true
}

// Reset drops the countdown. It is idempotent.
func (e *Engine) Reset(ctx context.Context) {
	if e.current != nil {
		logger.DebugKV(ctx, "Timer reset", "timer_id", e.current.ID)
	}

	e.current = nil
	e.clear(ctx)
}

// Remaining returns the time left at now and whether a countdown exists.
func (e *Engine) Remaining(now time.Time) (time.Duration, bool) {
	if e.current == nil {
		return 0, false
	}

	return e.current.Remaining(now), true
}

// State returns a copy of the active countdown, or nil.
func (e *Engine) State() *domain.TimerState {
	return e.current.Clone()
}

// Tick finishes the countdown once it has run out and returns the
// finished id. It returns "" when nothing finished.
func (e *Engine) Tick(ctx context.Context) string {
	if e.current == nil || !e.current.IsRunning {
		return ""
	}

	now := e.clock.Now()
	if e.current.Remaining(now) > 0 {
		return ""
	}

	return e.finish(ctx, now)
}

// HandleFinished processes a finish report from the relay. Repeated or
// late reports for a countdown that is already gone are stale no-ops.
func (e *Engine) HandleFinished(ctx context.Context, id string) FinishOutcome {
	if e.current == nil || e.current.ID != id {
		logger.DebugKV(ctx, "Stale timer finish report dropped", "timer_id", id)
		return FinishStale
	}

	now := e.clock.Now()
	if !e.current.IsRunning || e.current.Remaining(now) > 0 {
		return FinishEarly
	}

	e.finish(ctx, now)

	return FinishAccepted
}

func (e *Engine) finish(ctx context.Context, now time.Time) string {
	id := e.current.ID
	e.current = nil
	e.clear(ctx)

	logger.InfoKV(ctx, "Timer finished", "timer_id", id)

	if e.publisher != nil {
		e.publisher.Publish(events.TimerFinished{TimerID: id, At: now})
	}

	notify.Send(ctx, e.notifier, notify.TimerNotification())

	return id
}

func (e *Engine) persist(ctx context.Context) {
	//nolint:errcheck // SaveJSON logs; in-memory state stays authoritative.
	state.SaveJSON(ctx, e.store, state.KeyTimer, e.current)
}

func (e *Engine) clear(ctx context.Context) {
	//nolint:errcheck // RemoveKey logs; in-memory state stays authoritative.
	state.RemoveKey(ctx, e.store, state.KeyTimer)
}
