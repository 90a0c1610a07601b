// Package notify delivers fire-and-forget user notifications for alarm
// fires and timer completions.
//
// Delivery failures never reach the engines: Send logs them and returns.
package notify

import (
	"context"
	"errors"

	"github.com/yoruboku/alarm2/internal/logger"
)

// Icons understood by the desktop notifier.
const (
	IconAlarm = "alarm-clock"
	IconTimer = "appointment-soon"
)

// Notification is a single user-facing message.
type Notification struct {
	Title string
	Body  string
	Icon  string
}

// Notifier delivers notifications. Implementations may fail, e.g. when
// the user denied notification permission.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Send delivers n through notifier and logs, never returns, any failure.
func Send(ctx context.Context, notifier Notifier, n Notification) {
	if notifier == nil {
		return
	}

	if err := notifier.Notify(ctx, n); err != nil {
		logger.WarnKV(ctx, "Notification not delivered", "title", n.Title, "error", err)
	}
}

// AlarmNotification builds the notification for a firing alarm.
func AlarmNotification(label string) Notification {
	return Notification{
		Title: "Alarm: " + label,
		Body:  "Time to wake up! Enter your code to stop the alarm.",
		Icon:  IconAlarm,
	}
}

// TimerNotification builds the notification for a finished countdown.
func TimerNotification() Notification {
	return Notification{
		Title: "Timer Finished",
		Body:  "Your timer has completed",
		Icon:  IconTimer,
	}
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error

	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Log writes notifications to the context logger.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(ctx context.Context, n Notification) error {
	logger.InfoKV(ctx, "Notification", "title", n.Title, "body", n.Body)

	return nil
}

// Noop discards notifications.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(context.Context, Notification) error {
	return nil
}
