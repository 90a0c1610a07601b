package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	ps "github.com/mitchellh/go-ps"
	"google.golang.org/grpc"

	api "github.com/yoruboku/alarm2/internal/api/grpc/clock"
	"github.com/yoruboku/alarm2/internal/clock"
	"github.com/yoruboku/alarm2/internal/config"
	"github.com/yoruboku/alarm2/internal/events"
	"github.com/yoruboku/alarm2/internal/logger"
	"github.com/yoruboku/alarm2/internal/repository/state"
	"github.com/yoruboku/alarm2/internal/service/notify"
	"github.com/yoruboku/alarm2/internal/service/relay"
	"github.com/yoruboku/alarm2/internal/service/ring"
	"github.com/yoruboku/alarm2/internal/version"
)

// Options controls the alarm-clockd process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StateFile overrides state.path from the config.
	StateFile string
	// LogLevel overrides log_level from the config.
	LogLevel string
	// SingleInstance refuses to start when another daemon process runs.
	SingleInstance bool
	// Clock overrides the wall clock.
	Clock clock.Clock
	// Digits overrides the dismissal code source.
	Digits ring.DigitSource
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the engines, the tick loop, the relay and the gRPC server,
// and blocks until ctx is canceled or the server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-clockd")

	settings, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyOverrides(ctx, settings, opts)

	if opts.SingleInstance {
		if err = ensureSingleInstance(ps.Processes); err != nil {
			return err
		}
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	store, closeStore, err := state.Open(settings.State.Backend, settings.State.Path)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}

	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			logger.ErrorKV(ctx, "Unable to close state store", "error", closeErr)
		}
	}()

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	bus := events.NewBus()

	svc := newService(ctx, deps{
		store:         store,
		clock:         clk,
		location:      settings.Location(),
		bus:           bus,
		notifier:      buildNotifier(settings),
		digits:        opts.Digits,
		lockout:       settings.Ring.IncorrectLockout,
		defaultSnooze: settings.Ring.DefaultSnooze,
		publishTicks:  !settings.RelayEnabled(),
	})

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	if settings.RelayEnabled() {
		r := relay.New(
			relay.WithClock(clk),
			relay.WithInterval(settings.Relay.Interval),
			relay.WithLocation(settings.Location()))

		wg.Go(func() {
			//nolint:errcheck // Run only returns nil.
			_ = r.Run(runCtx)
		})
		wg.Go(func() { svc.consumeRelay(runCtx, r.Events()) })

		svc.attachRelay(runCtx, r)
	}

	wg.Go(func() { tickLoop(runCtx, svc, settings.TickInterval) })

	grpcServer := grpc.NewServer()
	api.Register(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Alarm clock daemon listening", append(version.LogFields(),
		"listen_address", listenAddress,
		"state_backend", settings.State.Backend,
		"state_path", settings.State.Path,
		"timezone", settings.Timezone,
		"relay", settings.RelayEnabled())...)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-runCtx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		// Closing the bus ends every WatchEvents stream, which GracefulStop waits for.
		bus.Close()
		grpcServer.GracefulStop()
		close(done)
	}()

	serveErr := grpcServer.Serve(lis)

	cancel()
	<-done
	wg.Wait()

	logger.Info(ctx, "GRPC server stopped")

	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", serveErr)
	}

	return nil
}

// tickLoop drives the primary evaluation at interval.
func tickLoop(ctx context.Context, svc *service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	svc.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.Tick(ctx)
		}
	}
}

// applyOverrides applies command line values on top of the config.
func applyOverrides(ctx context.Context, settings *config.Config, opts *Options) {
	if opts.StateFile != "" {
		settings.State.Path = opts.StateFile
	}

	levelName := settings.LogLevel
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}

	level, ok := logger.ParseLogLevel(levelName)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, using info", "log_level", levelName)
	}

	logger.SetLevel(level)
}

// buildNotifier always logs and adds desktop notifications when enabled.
func buildNotifier(settings *config.Config) notify.Notifier {
	notifiers := notify.Multi{notify.Log{}}
	if settings.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktop())
	}

	return notifiers
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	host, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Loopback daemons stay on loopback; anything else binds all interfaces.
	if ip := net.ParseIP(host); host == "localhost" || (ip != nil && ip.IsLoopback()) {
		return net.JoinHostPort(host, port), nil
	}

	return ":" + port, nil
}
