package integration

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	api "github.com/yoruboku/alarm2/internal/api/grpc/clock"
	"github.com/yoruboku/alarm2/internal/clock"
	"github.com/yoruboku/alarm2/internal/config"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
	"github.com/yoruboku/alarm2/internal/service/common"
	"github.com/yoruboku/alarm2/internal/service/server"
)

// Monday 2025-01-06 06:59:58 UTC.
var start = time.Date(2025, time.January, 6, 6, 59, 58, 0, time.UTC)

// fives always yields 5.
type fives struct{}

func (fives) IntN(int) int { return 5 }

// reserveAddress returns a free loopback address.
func reserveAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// startDaemon runs the daemon with a temporary config and returns a stop
// function that blocks until Run returns.
func startDaemon(t *testing.T, addr, backend, statePath string, clk clock.Clock) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerAddress: addr,
		Timeout:       3 * time.Second,
		Timezone:      "UTC",
		TickInterval:  20 * time.Millisecond,
		State:         config.StateConfig{Backend: backend, Path: statePath},
		Relay:         config.RelayConfig{Interval: 20 * time.Millisecond},
	}))

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Run(ctx, &server.Options{
			ConfigPath: cfgPath,
			Clock:      clk,
			Digits:     fives{},
		})
	}()

	c, err := common.Dial(ctx, addr, common.WithCallTimeout(time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	require.Eventually(t, func() bool {
		_, err := c.Status(ctx)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	return func() {
		cancel()
		require.NoError(t, <-errCh)
	}
}

func dial(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr,
		common.WithCallTimeout(3*time.Second),
		common.WithActor("tester@integration"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

// TestGRPC_AlarmLifecycle rings a once alarm through the real daemon,
// dismisses it with the code and checks that the disabled alarm survives
// a restart.
func TestGRPC_AlarmLifecycle(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			addr := reserveAddress(t)
			statePath := filepath.Join(t.TempDir(), "state."+backend)
			clk := clock.NewManual(start)

			stop := startDaemon(t, addr, backend, statePath, clk)
			c := dial(t, addr)

			alarm := domain.NewAlarm("07:00")
			alarm.Label = "Wake up"
			alarm.CodeLength = 3

			created, err := c.CreateAlarm(ctx, alarm)
			require.NoError(t, err)
			require.NotEmpty(t, created.ID)

			watchCtx, cancelWatch := context.WithCancel(ctx)
			defer cancelWatch()

			firing := make(chan api.EventMessage, 4)

			go func() {
				_ = c.WatchEvents(watchCtx, func(msg api.EventMessage) error {
					firing <- msg
					return nil
				}, events.KindAlarmFiring, events.KindRingResolved)
			}()

			// Give the stream a moment to subscribe before the alarm fires.
			time.Sleep(200 * time.Millisecond)
			clk.Advance(2 * time.Second)

			var msg api.EventMessage
			require.Eventually(t, func() bool {
				select {
				case msg = <-firing:
					return true
				default:
					return false
				}
			}, 5*time.Second, 20*time.Millisecond)

			require.Equal(t, events.KindAlarmFiring, msg.Kind)
			require.Equal(t, created.ID, msg.AlarmID)
			require.Equal(t, "Wake up", msg.Label)

			st, err := c.Status(ctx)
			require.NoError(t, err)
			require.NotNil(t, st.Ring)
			require.Equal(t, "555", st.Ring.ExpectedCode)

			for range 2 {
				resp, err := c.SubmitDigit(ctx, 5)
				require.NoError(t, err)
				require.Equal(t, "pending", resp.Outcome)
			}

			resp, err := c.SubmitDigit(ctx, 5)
			require.NoError(t, err)
			require.Equal(t, "dismissed", resp.Outcome)

			resp, err = c.SubmitDigit(ctx, 5)
			require.NoError(t, err)
			require.True(t, resp.Ignored)

			cancelWatch()
			stop()

			stop = startDaemon(t, addr, backend, statePath, clk)
			defer stop()

			alarms, err := dial(t, addr).ListAlarms(ctx)
			require.NoError(t, err)
			require.Len(t, alarms, 1)
			require.Equal(t, created.ID, alarms[0].ID)
			require.False(t, alarms[0].Enabled)
		})
	}
}

// TestGRPC_TimerAndStopwatch runs the countdown and the stopwatch through
// the daemon and checks error codes for rejected calls.
func TestGRPC_TimerAndStopwatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	addr := reserveAddress(t)
	clk := clock.NewManual(start)

	stop := startDaemon(t, addr, "memory", "", clk)
	defer stop()

	c := dial(t, addr)

	finished := make(chan api.EventMessage, 1)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	go func() {
		_ = c.WatchEvents(watchCtx, func(msg api.EventMessage) error {
			finished <- msg
			return nil
		}, events.KindTimerFinished)
	}()

	_, err := c.StartTimer(ctx, 0)
	require.ErrorContains(t, err, "InvalidArgument")

	id, err := c.StartTimer(ctx, 10*time.Second)
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	clk.Advance(10 * time.Second)

	select {
	case msg := <-finished:
		require.Equal(t, id, msg.TimerID)
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not finish")
	}

	_, err = c.Lap(ctx)
	require.ErrorContains(t, err, "FailedPrecondition")

	started, err := c.StartStopwatch(ctx)
	require.NoError(t, err)
	require.True(t, started)

	clk.Advance(1500 * time.Millisecond)

	lap, err := c.Lap(ctx)
	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, lap)

	require.ErrorContains(t, c.DeleteLap(ctx, 3), "OutOfRange")
	require.NoError(t, c.DeleteLap(ctx, 0))

	st, err := c.Status(ctx)
	require.NoError(t, err)
	require.Nil(t, st.Timer)
	require.True(t, st.Stopwatch.IsRunning)
	require.Empty(t, st.Stopwatch.Laps)
}
