package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yoruboku/alarm2/internal/service/client"
)

//nolint:gochecknoglobals // Cobra commands.
var (
	timerCmd = &cobra.Command{
		Use:   "timer",
		Short: "Run the countdown timer.",
	}

	stopwatchCmd = &cobra.Command{
		Use:     "stopwatch",
		Aliases: []string{"sw"},
		Short:   "Run the stopwatch.",
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	timerCmd.AddCommand(
		&cobra.Command{
			Use:   "start <duration>",
			Short: "Start a countdown, e.g. 90, 05:00 or 1m30s.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := client.ParseTimerDuration(args[0])
				if err != nil {
					return err
				}

				return run(cmd, "timer", client.TimerStart(d))
			},
		},
		simple("pause", "Pause the countdown.", "timer", client.TimerPause()),
		simple("resume", "Resume the countdown.", "timer", client.TimerResume()),
		simple("reset", "Drop the countdown.", "timer", client.TimerReset()),
	)

	stopwatchCmd.AddCommand(
		simple("start", "Start or resume the stopwatch.", "stopwatch", client.StopwatchStart()),
		simple("pause", "Pause the stopwatch.", "stopwatch", client.StopwatchPause()),
		simple("lap", "Record a lap.", "stopwatch", client.StopwatchLap()),
		&cobra.Command{
			Use:   "delete-lap <number>",
			Short: "Delete a lap by the number shown in status.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return err
				}

				return run(cmd, "stopwatch", client.StopwatchDeleteLap(n))
			},
		},
		simple("reset", "Zero the stopwatch and clear laps.", "stopwatch", client.StopwatchReset()),
	)

	rootCmd.AddCommand(timerCmd, stopwatchCmd)
}

// simple builds an argument-less subcommand.
func simple(use, short, group string, action client.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, group, action)
		},
	}
}
