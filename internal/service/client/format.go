package client

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	api "github.com/yoruboku/alarm2/internal/api/grpc/clock"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
)

var (
	// ErrBadDuration is returned for timer durations that cannot be parsed.
	ErrBadDuration = errors.New("bad duration")
	// ErrBadDays is returned for weekday lists that cannot be parsed.
	ErrBadDays = errors.New("bad weekday list")
)

//nolint:gochecknoglobals // Lookup tables.
var (
	dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

	dayPresets = map[string][]int{
		"once":     {},
		"daily":    {0, 1, 2, 3, 4, 5, 6},
		"weekdays": {1, 2, 3, 4, 5},
		"weekends": {0, 6},
	}
)

// FormatClock renders d as MM:SS, or H:MM:SS from one hour up.
// Partial seconds round up so a countdown never shows 00:00 early.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64((d + time.Second - 1) / time.Second)
	h, m, s := total/3600, total/60%60, total%60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatStopwatch renders d as MM:SS.cc with centiseconds.
func FormatStopwatch(d time.Duration) string {
	cs := d.Milliseconds() / 10

	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, cs/100%60, cs%100)
}

// FormatDays renders a repeat set.
func FormatDays(days []int) string {
	sorted := slices.Sorted(slices.Values(days))

	for _, preset := range []string{"once", "daily", "weekdays", "weekends"} {
		if slices.Equal(sorted, dayPresets[preset]) {
			return preset
		}
	}

	names := make([]string, 0, len(sorted))
	for _, d := range sorted {
		names = append(names, dayNames[d])
	}

	return strings.Join(names, ",")
}

// ParseDays accepts a preset (once, daily, weekdays, weekends) or a comma
// separated list of day names or numbers with Sunday as 0.
func ParseDays(s string) ([]int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return []int{}, nil
	}

	if preset, ok := dayPresets[s]; ok {
		return slices.Clone(preset), nil
	}

	var days []int

	for part := range strings.SplitSeq(s, ",") {
		day, err := parseDay(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}

		if !slices.Contains(days, day) {
			days = append(days, day)
		}
	}

	slices.Sort(days)

	return days, nil
}

func parseDay(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("%w: day %d", ErrBadDays, n)
		}

		return n, nil
	}

	for i, name := range dayNames {
		if len(s) >= 3 && strings.HasPrefix(strings.ToLower(name), s[:3]) {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrBadDays, s)
}

// ParseTimerDuration accepts a Go duration ("1m30s"), plain seconds ("90")
// or a clock form ("05:00", "1:00:00").
func ParseTimerDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
		}

		var total int

		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
			}

			total = total*60 + n
		}

		return time.Duration(total) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
	}

	return d, nil
}

// WriteStatus renders a daemon snapshot.
func WriteStatus(w io.Writer, st *domain.Status) {
	_, _ = fmt.Fprintf(w, "Time:      %s\n", st.At.Local().Format(time.DateTime))

	switch t := st.Timer; {
	case t == nil:
		_, _ = fmt.Fprintln(w, "Timer:     idle")
	case t.IsRunning:
		_, _ = fmt.Fprintf(w, "Timer:     %s left (running)\n", FormatClock(time.Duration(t.RemainingMs)*time.Millisecond))
	default:
		_, _ = fmt.Fprintf(w, "Timer:     %s left (paused)\n", FormatClock(time.Duration(t.RemainingMs)*time.Millisecond))
	}

	sw := st.Stopwatch
	state := "stopped"

	if sw.IsRunning {
		state = "running"
	}

	_, _ = fmt.Fprintf(w, "Stopwatch: %s (%s)\n", FormatStopwatch(time.Duration(sw.ElapsedMs)*time.Millisecond), state)

	for i, lap := range sw.Laps {
		_, _ = fmt.Fprintf(w, "  lap %d:  %s\n", i+1, FormatStopwatch(time.Duration(lap)*time.Millisecond))
	}

	if r := st.Ring; r != nil {
		label := r.AlarmID
		if st.RingingAlarm != nil && st.RingingAlarm.Label != "" {
			label = st.RingingAlarm.Label
		}

		_, _ = fmt.Fprintf(w, "Ringing:   %s, code %s (%d/%d entered, %d attempts)\n",
			label, r.ExpectedCode, r.EnteredCount, r.CodeLength, r.Attempts)
	}

	for _, sn := range st.Snoozes {
		_, _ = fmt.Fprintf(w, "Snoozed:   %s until %s\n", sn.AlarmID, sn.FireAt.Local().Format(time.TimeOnly))
	}
}

// WriteAlarms renders alarms one per line.
func WriteAlarms(w io.Writer, alarms []domain.Alarm) {
	if len(alarms) == 0 {
		_, _ = fmt.Fprintln(w, "No alarms")
		return
	}

	for _, a := range alarms {
		enabled := "off"
		if a.Enabled {
			enabled = "on"
		}

		line := fmt.Sprintf("%s  %s  %-3s  %-8s  %s/%d%%  code:%d",
			a.ID, a.Time, enabled, FormatDays(a.DaysOfWeek), a.Tone, a.Volume, a.CodeLength)

		if a.SkipDate != "" {
			line += "  skip:" + a.SkipDate
		}

		if a.Label != "" {
			line += "  " + strconv.Quote(a.Label)
		}

		_, _ = fmt.Fprintln(w, line)
	}
}

// WriteEvent renders one streamed event.
func WriteEvent(w io.Writer, msg *api.EventMessage) {
	at := msg.At.Local().Format(time.TimeOnly)

	switch msg.Kind {
	case events.KindAlarmFiring:
		what := "ringing"
		if msg.Snoozed {
			what = "ringing again after snooze"
		}

		_, _ = fmt.Fprintf(w, "%s alarm %s %s %q, code length %d\n", at, msg.AlarmID, what, msg.Label, msg.CodeLength)
	case events.KindRingResolved:
		_, _ = fmt.Fprintf(w, "%s alarm %s %s after %d attempts\n", at, msg.AlarmID, msg.Status, msg.Attempts)
	case events.KindAlarmSnoozed:
		until := ""
		if msg.FireAt != nil {
			until = msg.FireAt.Local().Format(time.TimeOnly)
		}

		_, _ = fmt.Fprintf(w, "%s alarm %s snoozed until %s\n", at, msg.AlarmID, until)
	case events.KindTimerFinished:
		_, _ = fmt.Fprintf(w, "%s timer %s finished\n", at, msg.TimerID)
	case events.KindTimerTick:
		_, _ = fmt.Fprintf(w, "%s timer %s\n", at, FormatClock(time.Duration(msg.RemainingMs)*time.Millisecond))
	default:
		_, _ = fmt.Fprintf(w, "%s %s\n", at, msg.Kind)
	}
}
