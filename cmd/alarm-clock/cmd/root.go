package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yoruboku/alarm2/internal/config"
	"github.com/yoruboku/alarm2/internal/service/client"
	"github.com/yoruboku/alarm2/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the daemon address from config.
	serverAddress string

	// rootCmd represents the base command of the CLI.
	rootCmd = &cobra.Command{
		Use:   "alarm-clock",
		Short: "Control the alarm clock daemon.",
		Long: `Talks to a running alarm-clockd over gRPC.

Use the subcommands to manage alarms, run the countdown timer and the
stopwatch, and answer a ringing alarm by typing its code.`,
		SilenceUsage: true,
	}
)

// Execute runs the alarm-clock CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run executes action against the daemon with signal-aware cancellation.
func run(cmd *cobra.Command, name string, action client.Action) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return client.Run(ctx, &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	}, name, action)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "a", "", "daemon address, overrides config")
}
