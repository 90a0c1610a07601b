package domain

import "time"

// RingSnapshot is a read-only view of the active ring session.
type RingSnapshot struct {
	AlarmID string `json:"alarmId"`
	// ExpectedCode is the code the user has to type; it is shown on the ring screen.
	ExpectedCode string     `json:"expectedCode"`
	CodeLength   int        `json:"codeLength"`
	EnteredCount int        `json:"enteredCount"`
	Attempts     int        `json:"attempts"`
	Status       RingStatus `json:"status"`
	// Locked is true during the input lock after a wrong code.
	Locked    bool      `json:"locked"`
	StartedAt time.Time `json:"startedAt"`
}

// TimerStatus is the countdown as seen at Status.At.
type TimerStatus struct {
	ID          string `json:"id"`
	DurationMs  int64  `json:"durationMs"`
	RemainingMs int64  `json:"remainingMs"`
	IsRunning   bool   `json:"isRunning"`
}

// StopwatchStatus is the stopwatch as seen at Status.At.
type StopwatchStatus struct {
	ElapsedMs int64   `json:"elapsedMs"`
	IsRunning bool    `json:"isRunning"`
	Laps      []int64 `json:"laps"`
}

// PendingSnooze is a booked snooze wake.
type PendingSnooze struct {
	AlarmID string    `json:"alarmId"`
	FireAt  time.Time `json:"fireAt"`
}

// Status is a point-in-time snapshot of everything the daemon tracks.
type Status struct {
	At        time.Time       `json:"at"`
	Timer     *TimerStatus    `json:"timer,omitempty"`
	Stopwatch StopwatchStatus `json:"stopwatch"`
	Ring      *RingSnapshot   `json:"ring,omitempty"`
	// RingingAlarm is the alarm behind Ring.
	RingingAlarm *Alarm          `json:"ringingAlarm,omitempty"`
	Snoozes      []PendingSnooze `json:"snoozes"`
}
