package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yoruboku/alarm2/internal/clock"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
	"github.com/yoruboku/alarm2/internal/logger"
	"github.com/yoruboku/alarm2/internal/repository/state"
	"github.com/yoruboku/alarm2/internal/service/notify"
	"github.com/yoruboku/alarm2/internal/service/registry"
	"github.com/yoruboku/alarm2/internal/service/relay"
	"github.com/yoruboku/alarm2/internal/service/ring"
	"github.com/yoruboku/alarm2/internal/service/scheduler"
	"github.com/yoruboku/alarm2/internal/service/stopwatch"
	"github.com/yoruboku/alarm2/internal/service/timer"
)

// relaySender is the outbound side of the background relay.
type relaySender interface {
	Send(ctx context.Context, cmd relay.Command) error
}

// deps are the collaborators of the service.
type deps struct {
	store         state.Store
	clock         clock.Clock
	location      *time.Location
	bus           *events.Bus
	notifier      notify.Notifier
	digits        ring.DigitSource
	lockout       time.Duration
	defaultSnooze time.Duration
	// publishTicks makes Tick publish TimerTick itself when no relay does.
	publishTicks bool
}

// service is the single owner of all engines. Every public method takes mu,
// so the engines themselves stay single-threaded. Relay commands are sent
// only after mu is released.
type service struct {
	clock        clock.Clock
	location     *time.Location
	bus          *events.Bus
	relay        relaySender
	publishTicks bool

	timer     *timer.Engine
	stopwatch *stopwatch.Engine
	registry  *registry.Registry
	scheduler *scheduler.Scheduler

	mu sync.Mutex
}

// newService recovers every engine from the store.
func newService(ctx context.Context, d deps) *service {
	s := &service{
		clock:        d.clock,
		location:     d.location,
		bus:          d.bus,
		publishTicks: d.publishTicks,
	}

	s.timer = timer.New(ctx, d.store,
		timer.WithClock(d.clock),
		timer.WithPublisher(d.bus),
		timer.WithNotifier(d.notifier))
	s.stopwatch = stopwatch.New(ctx, d.store, d.clock)
	s.registry = registry.New(ctx, d.store)
	s.scheduler = scheduler.New(ctx, s.registry, d.store,
		scheduler.WithLocation(d.location),
		scheduler.WithPublisher(d.bus),
		scheduler.WithNotifier(d.notifier),
		scheduler.WithDigitSource(d.digits),
		scheduler.WithLockout(d.lockout),
		scheduler.WithDefaultSnooze(d.defaultSnooze),
		scheduler.WithOnDismissed(s.disableOnceAlarm))

	return s
}

// attachRelay starts mirroring state into r.
func (s *service) attachRelay(ctx context.Context, r relaySender) {
	s.mu.Lock()
	s.relay = r
	cmd := s.snapshotCommand()
	s.mu.Unlock()

	s.forward(ctx, cmd)
}

// Tick runs one primary evaluation pass.
func (s *service) Tick(ctx context.Context) {
	s.mu.Lock()

	now := s.clock.Now()
	s.timer.Tick(ctx)

	if s.publishTicks {
		if current := s.timer.State(); current != nil && current.IsRunning {
			s.bus.Publish(events.TimerTick{TimerID: current.ID, Remaining: current.Remaining(now), At: now})
		}
	}

	var cmds []relay.Command
	if fired := s.scheduler.Tick(ctx, now); fired != "" {
		cmds = append(cmds, s.alarmsCommand())
	}

	s.mu.Unlock()

	s.forward(ctx, cmds...)
}

// handleRelayEvent applies one relay report. Reports are advisory: the
// local engines re-derive everything from their own state.
func (s *service) handleRelayEvent(ctx context.Context, ev relay.Event) {
	s.mu.Lock()

	var cmds []relay.Command

	switch e := ev.(type) {
	case relay.TimerTick:
		current := s.timer.State()
		if current != nil && current.ID == e.ID && current.IsRunning {
			now := s.clock.Now()
			s.bus.Publish(events.TimerTick{TimerID: e.ID, Remaining: current.Remaining(now), At: now})
		}
	case relay.TimerFinished:
		if s.timer.HandleFinished(ctx, e.ID) == timer.FinishEarly {
			logger.DebugKV(ctx, "Relay finished a timer early, resynchronizing", "timer_id", e.ID)

			cmds = append(cmds, s.snapshotCommand())
		}
	case relay.AlarmShouldRing:
		if s.scheduler.Trigger(ctx, e.AlarmID, s.clock.Now()) {
			cmds = append(cmds, s.alarmsCommand())
		}
	}

	s.mu.Unlock()

	s.forward(ctx, cmds...)
}

// consumeRelay handles relay reports until the channel closes.
func (s *service) consumeRelay(ctx context.Context, reports <-chan relay.Event) {
	for ev := range reports {
		s.handleRelayEvent(ctx, ev)
	}
}

// Status returns a snapshot of all engines.
func (s *service) Status(_ context.Context) domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	result := domain.Status{At: now}

	if current := s.timer.State(); current != nil {
		result.Timer = &domain.TimerStatus{
			ID:          current.ID,
			DurationMs:  current.DurationMs,
			RemainingMs: current.Remaining(now).Milliseconds(),
			IsRunning:   current.IsRunning,
		}
	}

	sw := s.stopwatch.State()
	result.Stopwatch = domain.StopwatchStatus{
		ElapsedMs: sw.Elapsed(now).Milliseconds(),
		IsRunning: sw.IsRunning,
		Laps:      sw.Laps,
	}

	result.Ring = s.scheduler.Active(now)
	if alarm, ok := s.scheduler.ActiveAlarm(); ok {
		result.RingingAlarm = &alarm
	}

	result.Snoozes = make([]domain.PendingSnooze, 0)
	for id, fireAt := range s.scheduler.PendingSnoozes() {
		result.Snoozes = append(result.Snoozes, domain.PendingSnooze{AlarmID: id, FireAt: fireAt})
	}

	sort.Slice(result.Snoozes, func(i, j int) bool {
		return result.Snoozes[i].FireAt.Before(result.Snoozes[j].FireAt)
	})

	return result
}

// StartTimer starts a countdown of seconds.
func (s *service) StartTimer(ctx context.Context, seconds int) (string, error) {
	s.mu.Lock()

	id, err := s.timer.Start(ctx, seconds)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}

	current := s.timer.State()
	s.mu.Unlock()

	s.forward(ctx, relay.StartTimer{
		ID:               current.ID,
		DurationMs:       current.DurationMs,
		StartedAtEpochMs: current.StartedAtEpochMs,
	})

	return id, nil
}

// PauseTimer freezes the countdown.
func (s *service) PauseTimer(ctx context.Context) bool {
	s.mu.Lock()

	changed := s.timer.Pause(ctx)
	current := s.timer.State()
	s.mu.Unlock()

	if changed {
		s.forward(ctx, relay.PauseTimer{ID: current.ID, AtEpochMs: *current.PausedAtEpochMs})
	}

	return changed
}

// ResumeTimer continues a paused countdown.
func (s *service) ResumeTimer(ctx context.Context) bool {
	s.mu.Lock()

	before := s.timer.State()
	changed := s.timer.Resume(ctx)
	after := s.timer.State()
	s.mu.Unlock()

	if changed {
		// Resume shifted the start by exactly the paused interval.
		resumedAt := *before.PausedAtEpochMs + after.StartedAtEpochMs - before.StartedAtEpochMs
		s.forward(ctx, relay.ResumeTimer{ID: after.ID, AtEpochMs: resumedAt})
	}

	return changed
}

// ResetTimer drops the countdown.
func (s *service) ResetTimer(ctx context.Context) {
	s.mu.Lock()

	var id string
	if current := s.timer.State(); current != nil {
		id = current.ID
	}

	s.timer.Reset(ctx)
	s.mu.Unlock()

	if id != "" {
		s.forward(ctx, relay.StopTimer{ID: id})
	}
}

// StartStopwatch starts or resumes the stopwatch.
func (s *service) StartStopwatch(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopwatch.Start(ctx)
}

// PauseStopwatch freezes the stopwatch.
func (s *service) PauseStopwatch(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopwatch.Pause(ctx)
}

// LapStopwatch records a lap.
func (s *service) LapStopwatch(ctx context.Context) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopwatch.Lap(ctx)
}

// DeleteLap removes one lap.
func (s *service) DeleteLap(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopwatch.DeleteLap(ctx, index)
}

// ResetStopwatch zeroes the stopwatch.
func (s *service) ResetStopwatch(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopwatch.Reset(ctx)
}

// ListAlarms returns all alarms in registry order.
func (s *service) ListAlarms(_ context.Context) []domain.Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry.List()
}

// CreateAlarm adds an alarm.
func (s *service) CreateAlarm(ctx context.Context, a domain.Alarm) (domain.Alarm, error) {
	return withAlarms(ctx, s, func() (domain.Alarm, error) {
		return s.registry.Create(ctx, a)
	})
}

// UpdateAlarm replaces an alarm.
func (s *service) UpdateAlarm(ctx context.Context, a domain.Alarm) (domain.Alarm, error) {
	return withAlarms(ctx, s, func() (domain.Alarm, error) {
		return s.registry.Update(ctx, a)
	})
}

// DeleteAlarms removes alarms and their pending snoozes.
func (s *service) DeleteAlarms(ctx context.Context, ids []string) error {
	_, err := withAlarms(ctx, s, func() (struct{}, error) {
		if err := s.registry.Delete(ctx, ids); err != nil {
			return struct{}{}, err
		}

		s.scheduler.Forget(ctx, ids)

		return struct{}{}, nil
	})

	return err
}

// SetAlarmsEnabled enables or disables alarms.
func (s *service) SetAlarmsEnabled(ctx context.Context, ids []string, enabled bool) error {
	_, err := withAlarms(ctx, s, func() (struct{}, error) {
		return struct{}{}, s.registry.SetEnabled(ctx, ids, enabled)
	})

	return err
}

// SkipAlarmsToday silences alarms for the rest of the local day.
func (s *service) SkipAlarmsToday(ctx context.Context, ids []string) error {
	_, err := withAlarms(ctx, s, func() (struct{}, error) {
		return struct{}{}, s.registry.SkipToday(ctx, ids, s.clock.Now().In(s.location))
	})

	return err
}

// DuplicateAlarms copies alarms under fresh ids.
func (s *service) DuplicateAlarms(ctx context.Context, ids []string) ([]domain.Alarm, error) {
	return withAlarms(ctx, s, func() ([]domain.Alarm, error) {
		return s.registry.Duplicate(ctx, ids)
	})
}

// RetagAlarms sets tone and/or volume on alarms.
func (s *service) RetagAlarms(ctx context.Context, ids []string, tone *domain.Tone, volume *int) error {
	_, err := withAlarms(ctx, s, func() (struct{}, error) {
		return struct{}{}, s.registry.Retag(ctx, ids, tone, volume)
	})

	return err
}

// SubmitDigit feeds one code digit to the ringing alarm.
func (s *service) SubmitDigit(ctx context.Context, digit int) (ring.Outcome, error) {
	return withAlarms(ctx, s, func() (ring.Outcome, error) {
		return s.scheduler.SubmitDigit(ctx, s.clock.Now(), digit)
	})
}

// Backspace deletes the last entered digit.
func (s *service) Backspace(_ context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scheduler.Backspace()
}

// Snooze defers the ringing alarm; zero minutes selects the default.
func (s *service) Snooze(ctx context.Context, minutes int) (time.Time, error) {
	return withAlarms(ctx, s, func() (time.Time, error) {
		return s.scheduler.Snooze(ctx, s.clock.Now(), minutes)
	})
}

// Dismiss stops the ringing alarm without a code.
func (s *service) Dismiss(ctx context.Context) error {
	_, err := withAlarms(ctx, s, func() (struct{}, error) {
		return struct{}{}, s.scheduler.Dismiss(ctx, s.clock.Now())
	})

	return err
}

// Subscribe registers an event stream.
func (s *service) Subscribe(buffer int, kinds ...events.Kind) (<-chan events.Event, func()) {
	return s.bus.Subscribe(buffer, kinds...)
}

// disableOnceAlarm runs inside a scheduler call, so mu is already held.
func (s *service) disableOnceAlarm(ctx context.Context, alarm domain.Alarm) {
	if !alarm.IsOnce() {
		return
	}

	if err := s.registry.SetEnabled(ctx, []string{alarm.ID}, false); err != nil {
		logger.WarnKV(ctx, "Unable to disable once alarm", "alarm_id", alarm.ID, "error", err)
		return
	}

	logger.InfoKV(ctx, "Once alarm disabled after dismissal", "alarm_id", alarm.ID)
}

// withAlarms runs op under mu and, on success, mirrors the alarm set and
// ring state into the relay.
func withAlarms[T any](ctx context.Context, s *service, op func() (T, error)) (T, error) {
	s.mu.Lock()

	result, err := op()
	cmd := s.alarmsCommand()
	s.mu.Unlock()

	if err == nil {
		s.forward(ctx, cmd)
	}

	return result, err
}

// alarmsCommand must be called with mu held.
func (s *service) alarmsCommand() relay.Command {
	var ringing string
	if alarm, ok := s.scheduler.ActiveAlarm(); ok {
		ringing = alarm.ID
	}

	return relay.CheckAlarms{Alarms: s.registry.List(), RingingAlarmID: ringing}
}

// snapshotCommand must be called with mu held.
func (s *service) snapshotCommand() relay.Command {
	check, _ := s.alarmsCommand().(relay.CheckAlarms)

	return relay.UpdateState{
		Timer:          s.timer.State(),
		Alarms:         check.Alarms,
		RingingAlarmID: check.RingingAlarmID,
	}
}

// forward sends commands to the relay, if any. Failures only cost the
// relay its accuracy; the primary stays authoritative.
func (s *service) forward(ctx context.Context, cmds ...relay.Command) {
	if s.relay == nil {
		return
	}

	for _, cmd := range cmds {
		if err := s.relay.Send(ctx, cmd); err != nil {
			logger.WarnKV(ctx, "Relay command not delivered", "command", fmt.Sprintf("%T", cmd), "error", err)
		}
	}
}
