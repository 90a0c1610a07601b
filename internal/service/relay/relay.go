// Package relay runs a secondary copy of the countdown and the alarm
// minute match in its own goroutine, and reports back over a channel.
//
// The relay never shares memory with the primary context. It only
// computes; the primary decides. Reports may be late or duplicated, so
// the primary must treat them idempotently.
package relay

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/yoruboku/alarm2/internal/clock"
	"github.com/yoruboku/alarm2/internal/config"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/logger"
)

// maxPending bounds the outbound queue. Ticks are dropped beyond it.
const maxPending = 64

// ErrStopped is returned by Send after Run has returned.
var ErrStopped = errors.New("relay stopped")

// Relay is the background execution context.
type Relay struct {
	clock    clock.Clock
	interval time.Duration
	location *time.Location
	commands chan Command
	events   chan Event
	done     chan struct{}
}

// Option configures a Relay.
type Option func(*Relay)

// WithClock sets the clock source.
func WithClock(c clock.Clock) Option {
	return func(r *Relay) { r.clock = c }
}

// WithInterval sets the evaluation cadence.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) { r.interval = d }
}

// WithLocation sets the zone for alarm matching.
func WithLocation(loc *time.Location) Option {
	return func(r *Relay) { r.location = loc }
}

// New creates a relay. Call Run to start it.
func New(opts ...Option) *Relay {
	r := &Relay{
		clock:    clock.Real{},
		interval: config.DefaultRelayInterval,
		location: time.Local,
		commands: make(chan Command),
		events:   make(chan Event),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Events returns the channel of reports. It is closed when Run returns.
func (r *Relay) Events() <-chan Event {
	return r.events
}

// Done is closed when Run returns.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// Send delivers cmd to the relay. It blocks until the relay takes it,
// ctx ends, or the relay stops.
func (r *Relay) Send(ctx context.Context, cmd Command) error {
	select {
	case r.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrStopped
	}
}

// mirror is the relay-local copy of the primary's state.
type mirror struct {
	timer    *domain.TimerState
	alarms   []domain.Alarm
	ringing  string
	reported map[string]string
	pending  []Event
}

// Run processes commands and evaluates the copy every interval until ctx ends.
func (r *Relay) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "relay")

	defer close(r.events)
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	m := &mirror{reported: make(map[string]string)}

	logger.DebugKV(ctx, "Relay started", "interval", r.interval)

	for {
		var (
			out  chan<- Event
			next Event
		)

		if len(m.pending) > 0 {
			out = r.events
			next = m.pending[0]
		}

		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Relay stopped")
			return nil
		case cmd := <-r.commands:
			m.apply(cmd)
		case <-ticker.C:
			r.evaluate(m, r.clock.Now())
		case out <- next:
			m.pending = m.pending[1:]
		}
	}
}

func (m *mirror) apply(cmd Command) {
	switch c := cmd.(type) {
	case StartTimer:
		m.timer = &domain.TimerState{
			ID:               c.ID,
			DurationMs:       c.DurationMs,
			StartedAtEpochMs: c.StartedAtEpochMs,
			IsRunning:        true,
		}
	case PauseTimer:
		if m.timer != nil && m.timer.ID == c.ID && m.timer.IsRunning {
			at := c.AtEpochMs
			m.timer.PausedAtEpochMs = &at
			m.timer.IsRunning = false
		}
	case ResumeTimer:
		if m.timer != nil && m.timer.ID == c.ID && m.timer.PausedAtEpochMs != nil {
			m.timer.StartedAtEpochMs += c.AtEpochMs - *m.timer.PausedAtEpochMs
			m.timer.PausedAtEpochMs = nil
			m.timer.IsRunning = true
		}
	case StopTimer:
		if m.timer != nil && m.timer.ID == c.ID {
			m.timer = nil
		}

		m.dropTicks()
	case CheckAlarms:
		m.alarms = slices.Clone(c.Alarms)
		m.ringing = c.RingingAlarmID
	case UpdateState:
		m.timer = c.Timer.Clone()
		m.alarms = slices.Clone(c.Alarms)
		m.ringing = c.RingingAlarmID
		m.dropTicks()
	}
}

func (r *Relay) evaluate(m *mirror, now time.Time) {
	if m.timer != nil && m.timer.IsRunning {
		remaining := m.timer.Remaining(now)
		if remaining > 0 {
			m.pushTick(TimerTick{ID: m.timer.ID, RemainingMs: remaining.Milliseconds()})
		} else {
			m.dropTicks()
			m.pending = append(m.pending, TimerFinished{ID: m.timer.ID})
			m.timer = nil
		}
	}

	if m.ringing != "" {
		return
	}

	local := now.In(r.location)
	minute := local.Format("15:04")
	minuteKey := local.Format("2006-01-02 15:04")
	date := local.Format(time.DateOnly)
	weekday := int(local.Weekday())

	for i := range m.alarms {
		a := &m.alarms[i]
		if !a.Enabled || a.Time != minute || !a.FiresOn(weekday) || a.SkipDate == date {
			continue
		}

		if m.reported[a.ID] == minuteKey {
			continue
		}

		m.reported[a.ID] = minuteKey
		m.pending = append(m.pending, AlarmShouldRing{AlarmID: a.ID})

		return
	}
}

// pushTick keeps at most one tick queued, and none once the queue is full.
func (m *mirror) pushTick(tick TimerTick) {
	for i, ev := range m.pending {
		if _, ok := ev.(TimerTick); ok {
			m.pending[i] = tick
			return
		}
	}

	if len(m.pending) < maxPending {
		m.pending = append(m.pending, tick)
	}
}

func (m *mirror) dropTicks() {
	m.pending = slices.DeleteFunc(m.pending, func(ev Event) bool {
		_, ok := ev.(TimerTick)
		return ok
	})
}
