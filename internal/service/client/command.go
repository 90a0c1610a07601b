package client

import (
	"context"
	"fmt"
	"io"

	"github.com/yoruboku/alarm2/internal/config"
	"github.com/yoruboku/alarm2/internal/logger"
	"github.com/yoruboku/alarm2/internal/service/common"
)

// Options configures how the CLI reaches the daemon.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Out receives rendered output.
	Out io.Writer
}

// Action is one CLI operation against a connected client.
type Action func(ctx context.Context, c *common.Client, out io.Writer) error

// Run connects to the daemon, runs action and closes the connection.
func Run(ctx context.Context, opts *Options, name string, action Action) error {
	ctx = logger.WithName(ctx, "alarm-clock/"+name)

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// A missing actor only loses attribution in the daemon log.
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Cannot detect actor", "error", err)
	}

	client, err := common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Timeout),
		common.WithActor(actor),
	)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected to daemon", "server_address", serverAddress)

	if err = action(ctx, client, opts.Out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return nil
}
