package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yoruboku/alarm2/internal/service/client"
)

// snoozeMinutes is the snooze delay; zero uses the alarm or daemon default.
var snoozeMinutes int

//nolint:gochecknoglobals // Cobra commands.
var ringCmd = &cobra.Command{
	Use:   "ring",
	Short: "Answer the ringing alarm.",
	Long: `The ringing alarm shows a random code (see status). Type it with
"ring enter" to stop the alarm, or snooze it for a few minutes.`,
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	snoozeCmd := &cobra.Command{
		Use:   "snooze",
		Short: "Snooze the ringing alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "ring", client.RingSnooze(snoozeMinutes))
		},
	}
	snoozeCmd.Flags().IntVarP(&snoozeMinutes, "minutes", "m", 0, "snooze delay in minutes")

	ringCmd.AddCommand(
		&cobra.Command{
			Use:   "enter <digits>",
			Short: "Type digits of the dismissal code.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "ring", client.RingEnter(args[0]))
			},
		},
		simple("backspace", "Delete the last typed digit.", "ring", client.RingBackspace()),
		snoozeCmd,
		simple("dismiss", "Stop the alarm without the code.", "ring", client.RingDismiss()),
	)

	rootCmd.AddCommand(ringCmd)
}
