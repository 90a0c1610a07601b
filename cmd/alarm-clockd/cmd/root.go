package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yoruboku/alarm2/internal/config"
	"github.com/yoruboku/alarm2/internal/service/server"
	"github.com/yoruboku/alarm2/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile overrides the state path from config.
	stateFile string
	// logLevel overrides the log level from config.
	logLevel string

	// rootCmd represents the base command for running the daemon.
	rootCmd = &cobra.Command{
		Use:   "alarm-clockd [listen-address]",
		Short: "Run the alarm clock daemon.",
		Long: `Starts the daemon that owns alarms, the countdown timer and the stopwatch.

The daemon fires alarms on their scheduled minute, keeps the timer and
stopwatch accurate across restarts and serves the alarm-clock CLI over gRPC.
Listen address can be provided as argument to override config (e.g., :9090).
Only one daemon per machine is allowed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:     configPath,
				ListenAddress:  listenAddress,
				StateFile:      stateFile,
				LogLevel:       logLevel,
				SingleInstance: true,
			})
		},
	}
)

// Execute runs the alarm-clockd CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&stateFile, "state-file", "s", "", "path to persist state, overrides config")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level, overrides config")
}
