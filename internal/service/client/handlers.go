package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	api "github.com/yoruboku/alarm2/internal/api/grpc/clock"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
	"github.com/yoruboku/alarm2/internal/service/common"
)

// ErrBadCode is returned when a ring code contains a non-digit.
var ErrBadCode = errors.New("code must contain digits only")

// Status prints the daemon snapshot.
func Status() Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}

		WriteStatus(out, st)

		return nil
	}
}

// Watch prints events until ctx ends.
func Watch(kinds ...events.Kind) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		return c.WatchEvents(ctx, func(msg api.EventMessage) error {
			WriteEvent(out, &msg)
			return nil
		}, kinds...)
	}
}

// TimerStart starts a countdown of d.
func TimerStart(d time.Duration) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		id, err := c.StartTimer(ctx, d)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "Timer %s started for %s\n", id, FormatClock(d))

		return nil
	}
}

// TimerPause pauses the countdown.
func TimerPause() Action {
	return toggle("Timer paused", "Timer is not running", (*common.Client).PauseTimer)
}

// TimerResume resumes the countdown.
func TimerResume() Action {
	return toggle("Timer resumed", "Timer is not paused", (*common.Client).ResumeTimer)
}

// TimerReset drops the countdown.
func TimerReset() Action {
	return done("Timer reset", (*common.Client).ResetTimer)
}

// StopwatchStart starts or resumes the stopwatch.
func StopwatchStart() Action {
	return toggle("Stopwatch running", "Stopwatch is already running", (*common.Client).StartStopwatch)
}

// StopwatchPause pauses the stopwatch.
func StopwatchPause() Action {
	return toggle("Stopwatch paused", "Stopwatch is not running", (*common.Client).PauseStopwatch)
}

// StopwatchLap records a lap.
func StopwatchLap() Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		lap, err := c.Lap(ctx)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "Lap %s\n", FormatStopwatch(lap))

		return nil
	}
}

// StopwatchDeleteLap removes a lap by its 1-based number as printed by status.
func StopwatchDeleteLap(number int) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		if err := c.DeleteLap(ctx, number-1); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "Lap %d deleted\n", number)

		return nil
	}
}

// StopwatchReset zeroes the stopwatch.
func StopwatchReset() Action {
	return done("Stopwatch reset", (*common.Client).ResetStopwatch)
}

// AlarmList prints all alarms.
func AlarmList() Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		alarms, err := c.ListAlarms(ctx)
		if err != nil {
			return err
		}

		WriteAlarms(out, alarms)

		return nil
	}
}

// AlarmCreate stores a new alarm.
func AlarmCreate(a *domain.Alarm) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		created, err := c.CreateAlarm(ctx, a)
		if err != nil {
			return err
		}

		WriteAlarms(out, []domain.Alarm{*created})

		return nil
	}
}

// AlarmUpdate loads alarm id, applies edit and stores the result.
func AlarmUpdate(id string, edit func(*domain.Alarm) error) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		alarms, err := c.ListAlarms(ctx)
		if err != nil {
			return err
		}

		i := slices.IndexFunc(alarms, func(a domain.Alarm) bool { return a.ID == id })
		if i < 0 {
			return fmt.Errorf("alarm %s: %w", id, domain.ErrNotFound)
		}

		a := alarms[i]
		if err = edit(&a); err != nil {
			return err
		}

		updated, err := c.UpdateAlarm(ctx, &a)
		if err != nil {
			return err
		}

		WriteAlarms(out, []domain.Alarm{*updated})

		return nil
	}
}

// AlarmDelete removes alarms.
func AlarmDelete(ids ...string) Action {
	return bulk("Deleted", ids, func(ctx context.Context, c *common.Client) error {
		return c.DeleteAlarms(ctx, ids...)
	})
}

// AlarmEnable enables or disables alarms.
func AlarmEnable(enabled bool, ids ...string) Action {
	verb := "Disabled"
	if enabled {
		verb = "Enabled"
	}

	return bulk(verb, ids, func(ctx context.Context, c *common.Client) error {
		return c.SetAlarmsEnabled(ctx, enabled, ids...)
	})
}

// AlarmSkip silences alarms for today.
func AlarmSkip(ids ...string) Action {
	return bulk("Skipping today", ids, func(ctx context.Context, c *common.Client) error {
		return c.SkipAlarmsToday(ctx, ids...)
	})
}

// AlarmDuplicate copies alarms and prints the copies.
func AlarmDuplicate(ids ...string) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		copies, err := c.DuplicateAlarms(ctx, ids...)
		if err != nil {
			return err
		}

		WriteAlarms(out, copies)

		return nil
	}
}

// AlarmRetag sets tone and/or volume on alarms.
func AlarmRetag(tone *domain.Tone, volume *int, ids ...string) Action {
	return bulk("Updated", ids, func(ctx context.Context, c *common.Client) error {
		return c.RetagAlarms(ctx, tone, volume, ids...)
	})
}

// RingEnter types code into the ringing alarm one digit at a time and
// stops at the first digit that resolves the entry.
func RingEnter(code string) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		digits := make([]int, 0, len(code))

		for _, r := range code {
			d, err := strconv.Atoi(string(r))
			if err != nil {
				return ErrBadCode
			}

			digits = append(digits, d)
		}

		for _, d := range digits {
			resp, err := c.SubmitDigit(ctx, d)
			if err != nil {
				return err
			}

			switch {
			case resp.Ignored:
				_, _ = fmt.Fprintln(out, "Input ignored")
				return nil
			case resp.Outcome != "pending":
				_, _ = fmt.Fprintf(out, "Code %s\n", resp.Outcome)
				return nil
			}
		}

		_, _ = fmt.Fprintln(out, "Code incomplete")

		return nil
	}
}

// RingBackspace deletes the last entered digit.
func RingBackspace() Action {
	return toggle("Digit deleted", "Nothing to delete", (*common.Client).Backspace)
}

// RingSnooze snoozes the ringing alarm; zero minutes uses the default.
func RingSnooze(minutes int) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		fireAt, err := c.Snooze(ctx, minutes)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "Snoozed until %s\n", fireAt.Local().Format(time.TimeOnly))

		return nil
	}
}

// RingDismiss stops the ringing alarm.
func RingDismiss() Action {
	return done("Alarm dismissed", (*common.Client).Dismiss)
}

func toggle(yes, no string, call func(*common.Client, context.Context) (bool, error)) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		changed, err := call(c, ctx)
		if err != nil {
			return err
		}

		msg := no
		if changed {
			msg = yes
		}

		_, _ = fmt.Fprintln(out, msg)

		return nil
	}
}

func done(msg string, call func(*common.Client, context.Context) error) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		if err := call(c, ctx); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(out, msg)

		return nil
	}
}

func bulk(verb string, ids []string, call func(context.Context, *common.Client) error) Action {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		if err := call(ctx, c); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "%s %d alarm(s)\n", verb, len(ids))

		return nil
	}
}
