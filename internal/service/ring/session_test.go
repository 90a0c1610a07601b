package ring

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yoruboku/alarm2/internal/domain"
)

var t0 = time.Date(2025, time.January, 6, 7, 0, 0, 0, time.UTC)

// fixedSource replays digits in order.
type fixedSource struct {
	digits []int
	next   int
}

func (f *fixedSource) IntN(int) int {
	d := f.digits[f.next%len(f.digits)]
	f.next++

	return d
}

func submit(t *testing.T, s *Session, now time.Time, code string) Outcome {
	t.Helper()

	var outcome Outcome

	for _, c := range code {
		var err error

		outcome, err = s.SubmitDigit(now, int(c-'0'))
		require.NoError(t, err)
	}

	return outcome
}

// TestNew_GeneratesCode uses the injected source, leading zeros included.
func TestNew_GeneratesCode(t *testing.T) {
	t.Parallel()

	s, err := New("a", 4, &fixedSource{digits: []int{0, 0, 7, 3}}, 0, t0)
	require.NoError(t, err)

	snap := s.Snapshot(t0)
	require.Equal(t, "0073", snap.ExpectedCode)
	require.Equal(t, 4, snap.CodeLength)
	require.Equal(t, domain.RingRinging, snap.Status)
	require.Zero(t, snap.Attempts)

	for _, n := range []int{0, 11} {
		_, err = New("a", n, nil, 0, t0)
		require.ErrorIs(t, err, domain.ErrInvalidAlarm)
	}

	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // Test.

	for n := domain.MinCodeLength; n <= domain.MaxCodeLength; n++ {
		s, err = New("a", n, rng, 0, t0)
		require.NoError(t, err)
		require.Regexp(t, `^[0-9]+$`, s.Snapshot(t0).ExpectedCode)
		require.Len(t, s.Snapshot(t0).ExpectedCode, n)
	}
}

// TestBackspaceThenCorrectCode dismisses with a single attempt.
func TestBackspaceThenCorrectCode(t *testing.T) {
	t.Parallel()

	s, err := New("a", 4, &fixedSource{digits: []int{1, 2, 3, 4}}, 500*time.Millisecond, t0)
	require.NoError(t, err)

	require.Equal(t, OutcomePending, submit(t, s, t0, "129"))
	require.True(t, s.Backspace())
	require.True(t, s.Backspace())
	require.True(t, s.Backspace())
	require.False(t, s.Backspace())

	require.Equal(t, OutcomeDismissed, submit(t, s, t0, "1234"))
	require.Equal(t, 1, s.Attempts())
	require.Equal(t, domain.RingDismissed, s.Status())

	_, err = s.SubmitDigit(t0, 1)
	require.ErrorIs(t, err, domain.ErrInputIgnored)
	require.False(t, s.Backspace())
	require.ErrorIs(t, s.Snooze(), domain.ErrInvalidState)
	require.ErrorIs(t, s.Dismiss(), domain.ErrInvalidState)
}

// TestIncorrectCode clears the entry, counts the attempt and locks input.
func TestIncorrectCode(t *testing.T) {
	t.Parallel()

	lockout := 500 * time.Millisecond
	s, err := New("a", 3, &fixedSource{digits: []int{5, 5, 5}}, lockout, t0)
	require.NoError(t, err)

	require.Equal(t, OutcomeIncorrect, submit(t, s, t0, "554"))
	snap := s.Snapshot(t0)
	require.Equal(t, 1, snap.Attempts)
	require.Zero(t, snap.EnteredCount)
	require.True(t, snap.Locked)
	require.Equal(t, domain.RingRinging, snap.Status)

	_, err = s.SubmitDigit(t0.Add(lockout-time.Millisecond), 5)
	require.ErrorIs(t, err, domain.ErrInputIgnored)

	after := t0.Add(lockout)
	require.False(t, s.Snapshot(after).Locked)
	require.Equal(t, OutcomeIncorrect, submit(t, s, after, "000"))
	require.Equal(t, OutcomeDismissed, submit(t, s, after.Add(lockout), "555"))
	require.Equal(t, 3, s.Attempts())
}

// TestSnooze is valid once, from Ringing only.
func TestSnooze(t *testing.T) {
	t.Parallel()

	s, err := New("a", 2, nil, 0, t0)
	require.NoError(t, err)

	_, err = s.SubmitDigit(t0, 10)
	require.ErrorIs(t, err, domain.ErrInputIgnored)

	require.NoError(t, s.Snooze())
	require.Equal(t, domain.RingSnoozed, s.Status())
	require.ErrorIs(t, s.Snooze(), domain.ErrInvalidState)

	_, err = s.SubmitDigit(t0, 1)
	require.ErrorIs(t, err, domain.ErrInputIgnored)
}
