// Package scheduler decides when an alarm starts ringing and owns the
// one ring session that may exist at a time, plus pending snooze wakes.
package scheduler

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/yoruboku/alarm2/internal/config"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
	"github.com/yoruboku/alarm2/internal/logger"
	"github.com/yoruboku/alarm2/internal/repository/state"
	"github.com/yoruboku/alarm2/internal/service/notify"
	"github.com/yoruboku/alarm2/internal/service/ring"
)

// minuteLayout keys the per-alarm minute guard.
const minuteLayout = "2006-01-02 15:04"

// Alarms is the read side of the alarm registry.
type Alarms interface {
	List() []domain.Alarm
	Get(id string) (domain.Alarm, error)
}

// Scheduler matches alarms against the clock. It is not safe for
// concurrent use.
type Scheduler struct {
	alarms        Alarms
	store         state.Store
	publisher     events.Publisher
	notifier      notify.Notifier
	digits        ring.DigitSource
	location      *time.Location
	lockout       time.Duration
	defaultSnooze time.Duration
	onDismissed   func(ctx context.Context, alarm domain.Alarm)

	active      *ring.Session
	activeAlarm domain.Alarm
	// lastFired maps alarm id to the minute key of its last scheduled fire.
	lastFired map[string]string
	// snoozes maps alarm id to the epoch ms of its pending wake.
	snoozes map[string]int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation sets the zone that HH:MM and weekdays are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.location = loc }
}

// WithPublisher sets where ring events go.
func WithPublisher(p events.Publisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

// WithNotifier sets the notification collaborator.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

// WithDigitSource sets the random source for dismissal codes.
func WithDigitSource(src ring.DigitSource) Option {
	return func(s *Scheduler) {
		if src != nil {
			s.digits = src
		}
	}
}

// WithLockout sets the input lock after a wrong code.
func WithLockout(d time.Duration) Option {
	return func(s *Scheduler) { s.lockout = d }
}

// WithDefaultSnooze sets the snooze used when neither the request nor
// the alarm names one.
func WithDefaultSnooze(d time.Duration) Option {
	return func(s *Scheduler) { s.defaultSnooze = d }
}

// WithOnDismissed registers a callback for sessions that end Dismissed.
func WithOnDismissed(f func(ctx context.Context, alarm domain.Alarm)) Option {
	return func(s *Scheduler) { s.onDismissed = f }
}

// New creates a scheduler and recovers pending snooze wakes.
func New(ctx context.Context, alarms Alarms, store state.Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		alarms:        alarms,
		store:         store,
		notifier:      notify.Noop{},
		digits:        ring.DefaultSource,
		location:      time.Local,
		lockout:       config.DefaultIncorrectLockout,
		defaultSnooze: config.DefaultSnooze,
		lastFired:     make(map[string]string),
		snoozes:       make(map[string]int64),
	}

	for _, opt := range opts {
		opt(s)
	}

	var recovered map[string]int64
	if state.LoadJSON(ctx, store, state.KeySnoozes, &recovered) {
		for id, fireAt := range recovered {
			if id != "" && fireAt > 0 {
				s.snoozes[id] = fireAt
			}
		}
	}

	return s
}

// Tick runs one scheduling pass at now and returns the id of the alarm
// that started ringing, or "".
//
// While a session is active nothing is matched. Otherwise the earliest
// due snooze wake fires first, then the first enabled alarm in registry
// order whose time and weekday match now.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) string {
	if s.active != nil {
		return ""
	}

	if id := s.fireDueSnooze(ctx, now); id != "" {
		return id
	}

	for _, alarm := range s.alarms.List() {
		if s.matches(&alarm, now) {
			s.fire(ctx, alarm, now, false)
			return alarm.ID
		}
	}

	return ""
}

// Trigger fires alarmID if it matches now under the same rules as Tick.
// Repeated triggers for the same minute are no-ops.
func (s *Scheduler) Trigger(ctx context.Context, alarmID string, now time.Time) bool {
	if s.active != nil {
		return false
	}

	alarm, err := s.alarms.Get(alarmID)
	if err != nil || !s.matches(&alarm, now) {
		return false
	}

	s.fire(ctx, alarm, now, false)

	return true
}

// SubmitDigit forwards a code digit to the active session.
func (s *Scheduler) SubmitDigit(ctx context.Context, now time.Time, digit int) (ring.Outcome, error) {
	if s.active == nil {
		return ring.OutcomePending, domain.ErrInputIgnored
	}

	outcome, err := s.active.SubmitDigit(now, digit)
	if err != nil {
		return outcome, err
	}

	switch outcome {
	case ring.OutcomeDismissed:
		s.resolveDismissed(ctx, now)
	case ring.OutcomeIncorrect:
		logger.InfoKV(ctx, "Incorrect dismissal code", "alarm_id", s.activeAlarm.ID, "attempts", s.active.Attempts())
	case ring.OutcomePending:
	}

	return outcome, nil
}

// Backspace removes the last entered digit of the active session.
func (s *Scheduler) Backspace() bool {
	if s.active == nil {
		return false
	}

	return s.active.Backspace()
}

// Snooze ends the active session and books a wake minutes from now,
// replacing any pending wake for the same alarm. Zero minutes selects
// the alarm's own snooze length or the default.
func (s *Scheduler) Snooze(ctx context.Context, now time.Time, minutes int) (time.Time, error) {
	if s.active == nil {
		return time.Time{}, fmt.Errorf("snooze without a ringing alarm: %w", domain.ErrInvalidState)
	}

	if minutes < 0 {
		return time.Time{}, fmt.Errorf("snooze for %d minutes: %w", minutes, domain.ErrInvalidDuration)
	}

	delay := time.Duration(minutes) * time.Minute
	if minutes == 0 {
		delay = s.defaultSnooze
		if s.activeAlarm.SnoozeMinutes > 0 {
			delay = time.Duration(s.activeAlarm.SnoozeMinutes) * time.Minute
		}
	}

	if err := s.active.Snooze(); err != nil {
		return time.Time{}, err
	}

	alarm := s.activeAlarm
	attempts := s.active.Attempts()
	fireAt := now.Add(delay)

	s.active = nil
	s.snoozes[alarm.ID] = domain.EpochMs(fireAt)
	s.persistSnoozes(ctx)

	logger.InfoKV(ctx, "Alarm snoozed", "alarm_id", alarm.ID, "fire_at", fireAt)

	s.publish(events.RingResolved{AlarmID: alarm.ID, Status: domain.RingSnoozed, Attempts: attempts, At: now})
	s.publish(events.AlarmSnoozed{AlarmID: alarm.ID, FireAt: fireAt, At: now})

	return fireAt, nil
}

// Dismiss force-ends the active session without a code.
func (s *Scheduler) Dismiss(ctx context.Context, now time.Time) error {
	if s.active == nil {
		return fmt.Errorf("dismiss without a ringing alarm: %w", domain.ErrInvalidState)
	}

	if err := s.active.Dismiss(); err != nil {
		return err
	}

	s.resolveDismissed(ctx, now)

	return nil
}

// Active returns a snapshot of the ringing session, or nil.
func (s *Scheduler) Active(now time.Time) *domain.RingSnapshot {
	if s.active == nil {
		return nil
	}

	snapshot := s.active.Snapshot(now)

	return &snapshot
}

// ActiveAlarm returns the alarm that is ringing, if any.
func (s *Scheduler) ActiveAlarm() (domain.Alarm, bool) {
	if s.active == nil {
		return domain.Alarm{}, false
	}

	return *s.activeAlarm.Clone(), true
}

// PendingSnoozes returns a copy of the pending wakes by alarm id.
func (s *Scheduler) PendingSnoozes() map[string]time.Time {
	result := make(map[string]time.Time, len(s.snoozes))
	for id, fireAt := range s.snoozes {
		result[id] = domain.FromEpochMs(fireAt)
	}

	return result
}

// Forget drops pending wakes and fire history for deleted alarms.
func (s *Scheduler) Forget(ctx context.Context, ids []string) {
	changed := false

	for _, id := range ids {
		delete(s.lastFired, id)

		if _, ok := s.snoozes[id]; ok {
			delete(s.snoozes, id)

			changed = true
		}
	}

	if changed {
		s.persistSnoozes(ctx)
	}
}

func (s *Scheduler) matches(alarm *domain.Alarm, now time.Time) bool {
	local := now.In(s.location)

	if !alarm.Enabled || alarm.Time != local.Format("15:04") {
		return false
	}

	if !alarm.FiresOn(int(local.Weekday())) || alarm.SkipDate == local.Format(time.DateOnly) {
		return false
	}

	return s.lastFired[alarm.ID] != local.Format(minuteLayout)
}

// fireDueSnooze fires the earliest wake that is due. Wakes for alarms
// that were deleted or disabled meanwhile are discarded.
func (s *Scheduler) fireDueSnooze(ctx context.Context, now time.Time) string {
	nowMs := domain.EpochMs(now)

	for len(s.snoozes) > 0 {
		dueID := ""

		for id, fireAt := range s.snoozes {
			if fireAt > nowMs {
				continue
			}

			if dueID == "" || fireAt < s.snoozes[dueID] || (fireAt == s.snoozes[dueID] && id < dueID) {
				dueID = id
			}
		}

		if dueID == "" {
			return ""
		}

		delete(s.snoozes, dueID)
		s.persistSnoozes(ctx)

		alarm, err := s.alarms.Get(dueID)
		if err != nil || !alarm.Enabled {
			logger.DebugKV(ctx, "Snooze wake discarded", "alarm_id", dueID)
			continue
		}

		s.fire(ctx, alarm, now, true)

		return alarm.ID
	}

	return ""
}

func (s *Scheduler) fire(ctx context.Context, alarm domain.Alarm, now time.Time, snoozed bool) {
	session, err := ring.New(alarm.ID, alarm.CodeLength, s.digits, s.lockout, now)
	if err != nil {
		logger.ErrorKV(ctx, "Unable to start ring session", "alarm_id", alarm.ID, "error", err)
		return
	}

	if !snoozed {
		s.lastFired[alarm.ID] = now.In(s.location).Format(minuteLayout)
	}

	s.active = session
	s.activeAlarm = *alarm.Clone()

	logger.InfoKV(ctx, "Alarm ringing", "alarm_id", alarm.ID, "label", alarm.Label, "snoozed", snoozed)

	s.publish(events.AlarmFiring{Alarm: *alarm.Clone(), CodeLength: alarm.CodeLength, Snoozed: snoozed, At: now})
	notify.Send(ctx, s.notifier, notify.AlarmNotification(alarm.Label))
}

func (s *Scheduler) resolveDismissed(ctx context.Context, now time.Time) {
	alarm := s.activeAlarm
	attempts := s.active.Attempts()
	s.active = nil

	if _, ok := s.snoozes[alarm.ID]; ok {
		delete(s.snoozes, alarm.ID)
		s.persistSnoozes(ctx)
	}

	logger.InfoKV(ctx, "Alarm dismissed", "alarm_id", alarm.ID, "attempts", attempts)

	s.publish(events.RingResolved{AlarmID: alarm.ID, Status: domain.RingDismissed, Attempts: attempts, At: now})

	if s.onDismissed != nil {
		s.onDismissed(ctx, alarm)
	}
}

func (s *Scheduler) publish(ev events.Event) {
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}

func (s *Scheduler) persistSnoozes(ctx context.Context) {
	//nolint:errcheck // SaveJSON logs; in-memory state stays authoritative.
	state.SaveJSON(ctx, s.store, state.KeySnoozes, maps.Clone(s.snoozes))
}
