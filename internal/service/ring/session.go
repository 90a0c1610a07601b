// Package ring implements the dismissal state machine of a firing alarm.
//
//	Ringing -> Dismissed  (correct code or forced dismiss)
//	Ringing -> Snoozed    (snooze)
//
// Both targets are terminal. A session holds its alarm by id only.
package ring

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/yoruboku/alarm2/internal/domain"
)

// DigitSource yields uniformly distributed integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type DigitSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n) //nolint:gosec // Dismissal codes are not secrets.
}

// DefaultSource draws from the process-wide math/rand/v2 generator.
//
//nolint:gochecknoglobals // Stateless adapter.
var DefaultSource DigitSource = globalSource{}

// Outcome is the result of an accepted digit.
type Outcome int

const (
	// OutcomePending means the digit was appended and the code is not complete yet.
	OutcomePending Outcome = iota
	// OutcomeIncorrect means a full-length entry did not match and was cleared.
	OutcomeIncorrect
	// OutcomeDismissed means the entry matched and the session is over.
	OutcomeDismissed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeDismissed:
		return "dismissed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Session is a single ringing alarm awaiting its code. It is not safe for
// concurrent use.
type Session struct {
	alarmID     string
	expected    string
	entered     strings.Builder
	attempts    int
	status      domain.RingStatus
	startedAt   time.Time
	lockout     time.Duration
	lockedUntil time.Time
}

// New starts ringing for alarmID with a fresh code of codeLength digits.
// After a wrong full entry, input is ignored for lockout.
func New(alarmID string, codeLength int, src DigitSource, lockout time.Duration, now time.Time) (*Session, error) {
	if codeLength < domain.MinCodeLength || codeLength > domain.MaxCodeLength {
		return nil, fmt.Errorf("code length %d: %w", codeLength, domain.ErrInvalidAlarm)
	}

	if src == nil {
		src = DefaultSource
	}

	code := make([]byte, codeLength)
	for i := range code {
		code[i] = byte('0' + src.IntN(10))
	}

	return &Session{
		alarmID:   alarmID,
		expected:  string(code),
		status:    domain.RingRinging,
		startedAt: now,
		lockout:   lockout,
	}, nil
}

// AlarmID returns the id of the ringing alarm.
func (s *Session) AlarmID() string {
	return s.alarmID
}

// Status returns the current phase.
func (s *Session) Status() domain.RingStatus {
	return s.status
}

// Attempts returns the number of completed full-length entries.
func (s *Session) Attempts() int {
	return s.attempts
}

// SubmitDigit appends d (0-9) to the entered code. Input on a terminal
// session, during the lockout, or beyond the code length returns
// domain.ErrInputIgnored and changes nothing.
func (s *Session) SubmitDigit(now time.Time, d int) (Outcome, error) {
	if s.status != domain.RingRinging || now.Before(s.lockedUntil) {
		return OutcomePending, domain.ErrInputIgnored
	}

	if d < 0 || d > 9 || s.entered.Len() >= len(s.expected) {
		return OutcomePending, domain.ErrInputIgnored
	}

	s.entered.WriteByte(byte('0' + d))

	if s.entered.Len() < len(s.expected) {
		return OutcomePending, nil
	}

	s.attempts++

	if s.entered.String() == s.expected {
		s.status = domain.RingDismissed
		return OutcomeDismissed, nil
	}

	s.entered.Reset()
	s.lockedUntil = now.Add(s.lockout)

	return OutcomeIncorrect, nil
}

// Backspace drops the last entered digit. It reports whether one was removed.
func (s *Session) Backspace() bool {
	if s.status != domain.RingRinging || s.entered.Len() == 0 {
		return false
	}

	entered := s.entered.String()
	s.entered.Reset()
	s.entered.WriteString(entered[:len(entered)-1])

	return true
}

// Snooze ends the session as Snoozed. Scheduling the wake is the caller's job.
func (s *Session) Snooze() error {
	if s.status != domain.RingRinging {
		return fmt.Errorf("snooze while %s: %w", s.status, domain.ErrInvalidState)
	}

	s.status = domain.RingSnoozed

	return nil
}

// Dismiss force-ends the session without a code.
func (s *Session) Dismiss() error {
	if s.status != domain.RingRinging {
		return fmt.Errorf("dismiss while %s: %w", s.status, domain.ErrInvalidState)
	}

	s.status = domain.RingDismissed

	return nil
}

// Snapshot returns the session view at now.
func (s *Session) Snapshot(now time.Time) domain.RingSnapshot {
	return domain.RingSnapshot{
		AlarmID:      s.alarmID,
		ExpectedCode: s.expected,
		CodeLength:   len(s.expected),
		EnteredCount: s.entered.Len(),
		Attempts:     s.attempts,
		Status:       s.status,
		Locked:       s.status == domain.RingRinging && now.Before(s.lockedUntil),
		StartedAt:    s.startedAt,
	}
}
