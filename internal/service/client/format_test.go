package client

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	api "github.com/yoruboku/alarm2/internal/api/grpc/clock"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
)

func TestFormatClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{1500 * time.Millisecond, "00:02"},
		{5 * time.Minute, "05:00"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, FormatClock(tt.in), tt.in.String())
	}
}

func TestFormatStopwatch(t *testing.T) {
	t.Parallel()

	require.Equal(t, "00:00.00", FormatStopwatch(0))
	require.Equal(t, "01:02.34", FormatStopwatch(62*time.Second+345*time.Millisecond))
}

func TestParseDays(t *testing.T) {
	t.Parallel()

	days, err := ParseDays("")
	require.NoError(t, err)
	require.Empty(t, days)

	days, err = ParseDays("weekdays")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5}, days)

	days, err = ParseDays("sat, Sunday,1,sat")
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 6}, days)

	_, err = ParseDays("7")
	require.ErrorIs(t, err, ErrBadDays)

	_, err = ParseDays("someday")
	require.ErrorIs(t, err, ErrBadDays)
}

func TestFormatDays(t *testing.T) {
	t.Parallel()

	require.Equal(t, "once", FormatDays(nil))
	require.Equal(t, "weekends", FormatDays([]int{6, 0}))
	require.Equal(t, "daily", FormatDays([]int{0, 1, 2, 3, 4, 5, 6}))
	require.Equal(t, "Mon,Wed", FormatDays([]int{3, 1}))
}

func TestParseTimerDuration(t *testing.T) {
	t.Parallel()

	tests := map[string]time.Duration{
		"90":      90 * time.Second,
		"05:00":   5 * time.Minute,
		"1:00:00": time.Hour,
		"1m30s":   90 * time.Second,
	}

	for in, want := range tests {
		got, err := ParseTimerDuration(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "1:2:3:4", "1:x"} {
		_, err := ParseTimerDuration(in)
		require.ErrorIs(t, err, ErrBadDuration, in)
	}
}

func TestWriteStatus(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	WriteStatus(&buf, &domain.Status{
		At:           time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC),
		Timer:        &domain.TimerStatus{ID: "t", DurationMs: 60000, RemainingMs: 30000, IsRunning: true},
		Stopwatch:    domain.StopwatchStatus{ElapsedMs: 1500, Laps: []int64{1000}},
		Ring:         &domain.RingSnapshot{AlarmID: "a1", ExpectedCode: "1234", CodeLength: 4, EnteredCount: 2},
		RingingAlarm: &domain.Alarm{ID: "a1", Label: "Wake"},
	})

	out := buf.String()
	require.Contains(t, out, "00:30 left (running)")
	require.Contains(t, out, "00:01.50 (stopped)")
	require.Contains(t, out, "lap 1:  00:01.00")
	require.Contains(t, out, "Wake, code 1234 (2/4 entered")
}

func TestWriteAlarms(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	WriteAlarms(&buf, nil)
	require.Equal(t, "No alarms\n", buf.String())

	buf.Reset()

	a := domain.NewAlarm("07:30")
	a.ID = "a1"
	a.Label = "Gym"
	a.SkipDate = "2026-01-01"
	WriteAlarms(&buf, []domain.Alarm{*a})

	out := buf.String()
	require.Contains(t, out, "a1  07:30  on ")
	require.Contains(t, out, "bell/80%")
	require.Contains(t, out, "skip:2026-01-01")
	require.Contains(t, out, `"Gym"`)
}

func TestWriteEvent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	WriteEvent(&buf, &api.EventMessage{Kind: events.KindTimerFinished, TimerID: "t1"})
	require.Contains(t, buf.String(), "timer t1 finished")

	buf.Reset()
	WriteEvent(&buf, &api.EventMessage{Kind: events.KindAlarmFiring, AlarmID: "a1", Label: "Wake", CodeLength: 4})
	require.Contains(t, buf.String(), `alarm a1 ringing "Wake", code length 4`)
}
