package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yoruboku/alarm2/internal/events"
	"github.com/yoruboku/alarm2/internal/service/client"
)

// watchKinds filters the watch stream.
var watchKinds []string

//nolint:gochecknoglobals // Cobra commands.
var (
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show timer, stopwatch, ringing alarm and snoozes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "status", client.Status())
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Stream daemon events until interrupted.",
		Long: `Prints events as they happen: alarm_firing, ring_resolved, alarm_snoozed,
timer_finished and timer_tick. Use --kind to limit the stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kinds := make([]events.Kind, 0, len(watchKinds))
			for _, k := range watchKinds {
				kinds = append(kinds, events.Kind(k))
			}

			return run(cmd, "watch", client.Watch(kinds...))
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	watchCmd.Flags().StringSliceVarP(&watchKinds, "kind", "k", nil, "event kinds to stream")

	rootCmd.AddCommand(statusCmd, watchCmd)
}
