package notify

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yoruboku/alarm2/internal/logger"
)

var errDenied = errors.New("permission denied")

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, Notification) error {
	return errDenied
}

// TestSend_LogsFailures checks that a failing notifier is logged and swallowed.
func TestSend_LogsFailures(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

	Send(ctx, Multi{Noop{}, failingNotifier{}}, AlarmNotification("Gym"))
	Send(ctx, nil, TimerNotification())

	entries := logs.FilterMessage("Notification not delivered").All()
	require.Len(t, entries, 1)
	require.Equal(t, "Alarm: Gym", entries[0].ContextMap()["title"])
}

// TestMulti_JoinsErrors returns every failure.
func TestMulti_JoinsErrors(t *testing.T) {
	t.Parallel()

	err := Multi{failingNotifier{}, Log{}, failingNotifier{}}.Notify(context.Background(), TimerNotification())
	require.ErrorIs(t, err, errDenied)
}

// TestDesktop_Commands checks the per-OS command lines without running them.
func TestDesktop_Commands(t *testing.T) {
	t.Parallel()

	var started []*exec.Cmd

	d := &Desktop{start: func(cmd *exec.Cmd) error {
		started = append(started, cmd)
		return nil
	}}

	n := Notification{Title: `Alarm: "Gym"`, Body: "Time to wake up!", Icon: IconAlarm}

	d.goos = "linux"
	require.NoError(t, d.Notify(context.Background(), n))

	d.goos = "darwin"
	require.NoError(t, d.Notify(context.Background(), n))

	d.goos = "windows"
	require.NoError(t, d.Notify(context.Background(), n))

	d.goos = "plan9"
	require.ErrorIs(t, d.Notify(context.Background(), n), ErrUnsupportedOS)

	require.Len(t, started, 3)
	require.Equal(t, []string{"notify-send", "--app-name=alarm-clock", "--icon=alarm-clock", `Alarm: "Gym"`, "Time to wake up!"}, started[0].Args)
	require.Contains(t, started[1].Args[2], `with title "Alarm: \"Gym\""`)
	require.Contains(t, started[2].Args[3], `'Alarm: "Gym"'`)
}
