package relay

import "github.com/yoruboku/alarm2/internal/domain"

// Command is a message from the primary context to the relay.
type Command interface {
	command()
}

// StartTimer mirrors a countdown start.
type StartTimer struct {
	ID               string
	DurationMs       int64
	StartedAtEpochMs int64
}

// PauseTimer mirrors a pause at AtEpochMs.
type PauseTimer struct {
	ID        string
	AtEpochMs int64
}

// ResumeTimer mirrors a resume at AtEpochMs.
type ResumeTimer struct {
	ID        string
	AtEpochMs int64
}

// StopTimer drops the countdown copy.
type StopTimer struct {
	ID string
}

// CheckAlarms replaces the alarm copy. RingingAlarmID is non-empty while a
// session is active, which suspends alarm matching.
type CheckAlarms struct {
	Alarms         []domain.Alarm
	RingingAlarmID string
}

// UpdateState replaces the whole secondary copy with the primary's state.
type UpdateState struct {
	Timer          *domain.TimerState
	Alarms         []domain.Alarm
	RingingAlarmID string
}

func (StartTimer) command()  {}
func (PauseTimer) command()  {}
func (ResumeTimer) command() {}
func (StopTimer) command()   {}
func (CheckAlarms) command() {}
func (UpdateState) command() {}

// Event is a message from the relay to the primary context.
type Event interface {
	event()
}

// TimerTick reports the remaining time of the countdown copy. Ticks are lossy.
type TimerTick struct {
	ID          string
	RemainingMs int64
}

// TimerFinished reports that the countdown copy reached zero.
type TimerFinished struct {
	ID string
}

// AlarmShouldRing reports that an alarm copy matches the current minute.
type AlarmShouldRing struct {
	AlarmID string
}

func (TimerTick) event()       {}
func (TimerFinished) event()   {}
func (AlarmShouldRing) event() {}
