package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/service/client"
)

// alarmFlags holds the editable alarm fields.
type alarmFlags struct {
	time       string
	label      string
	days       string
	tone       string
	volume     int
	vibration  bool
	codeLength int
	audio      string
	fadeIn     bool
	growing    bool
	snooze     int
	disabled   bool
}

func (f *alarmFlags) register(fs *pflag.FlagSet, withTime bool) {
	defaults := domain.NewAlarm("")

	if withTime {
		fs.StringVar(&f.time, "time", "", "fire time as HH:MM")
	}

	fs.StringVar(&f.label, "label", "", "text shown while ringing")
	fs.StringVar(&f.days, "days", "", "once, daily, weekdays, weekends or a list like mon,wed,fri")
	fs.StringVar(&f.tone, "tone", string(defaults.Tone), "bell, chime, digital, alarm, beep or custom")
	fs.IntVar(&f.volume, "volume", defaults.Volume, "volume percentage")
	fs.BoolVar(&f.vibration, "vibration", false, "vibrate while ringing")
	fs.IntVar(&f.codeLength, "code-length", defaults.CodeLength, "digits of the dismissal code")
	fs.StringVar(&f.audio, "audio", "", "custom audio reference, required for the custom tone")
	fs.BoolVar(&f.fadeIn, "fade-in", false, "fade the volume in")
	fs.BoolVar(&f.growing, "growing", false, "keep raising the volume")
	fs.IntVar(&f.snooze, "snooze", 0, "snooze minutes for this alarm, 0 uses the default")
	fs.BoolVar(&f.disabled, "disabled", false, "store the alarm disabled")
}

// apply copies the flags that were set on fs into a.
func (f *alarmFlags) apply(fs *pflag.FlagSet, a *domain.Alarm) error {
	var err error

	fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "time":
			a.Time = f.time
		case "label":
			a.Label = f.label
		case "days":
			var days []int
			if days, err = client.ParseDays(f.days); err == nil {
				a.DaysOfWeek = days
			}
		case "tone":
			a.Tone = domain.Tone(f.tone)
		case "volume":
			a.Volume = f.volume
		case "vibration":
			a.Vibration = f.vibration
		case "code-length":
			a.CodeLength = f.codeLength
		case "audio":
			a.CustomAudioReference = f.audio
		case "fade-in":
			a.FadeIn = f.fadeIn
		case "growing":
			a.Growing = f.growing
		case "snooze":
			a.SnoozeMinutes = f.snooze
		case "disabled":
			a.Enabled = !f.disabled
		}
	})

	return err
}

//nolint:gochecknoglobals // Cobra commands and their flag targets.
var (
	addFlags   alarmFlags
	editFlags  alarmFlags
	retagTone  string
	retagLevel int

	alarmCmd = &cobra.Command{
		Use:   "alarm",
		Short: "Manage alarms.",
	}
)

//nolint:gochecknoinits,funlen // Required by Cobra CLI framework architecture.
func init() {
	addCmd := &cobra.Command{
		Use:   "add <HH:MM>",
		Short: "Create an alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := domain.NewAlarm(args[0])
			if err := addFlags.apply(cmd.Flags(), a); err != nil {
				return err
			}

			return run(cmd, "alarm", client.AlarmCreate(a))
		},
	}
	addFlags.register(addCmd.Flags(), false)

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an alarm. Only the given flags are applied.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "alarm", client.AlarmUpdate(args[0], func(a *domain.Alarm) error {
				return editFlags.apply(cmd.Flags(), a)
			}))
		},
	}
	editFlags.register(editCmd.Flags(), true)

	retagCmd := &cobra.Command{
		Use:   "retag <id>...",
		Short: "Set tone and/or volume on several alarms.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tone   *domain.Tone
				volume *int
			)

			if cmd.Flags().Changed("tone") {
				t := domain.Tone(retagTone)
				tone = &t
			}

			if cmd.Flags().Changed("volume") {
				volume = &retagLevel
			}

			return run(cmd, "alarm", client.AlarmRetag(tone, volume, args...))
		},
	}
	retagCmd.Flags().StringVar(&retagTone, "tone", "", "new tone")
	retagCmd.Flags().IntVar(&retagLevel, "volume", 0, "new volume percentage")

	alarmCmd.AddCommand(
		simple("list", "List alarms.", "alarm", client.AlarmList()),
		addCmd,
		editCmd,
		bulkCmd("delete <id>...", "Delete alarms.", client.AlarmDelete),
		bulkCmd("enable <id>...", "Enable alarms.", func(ids ...string) client.Action {
			return client.AlarmEnable(true, ids...)
		}),
		bulkCmd("disable <id>...", "Disable alarms.", func(ids ...string) client.Action {
			return client.AlarmEnable(false, ids...)
		}),
		bulkCmd("skip <id>...", "Skip alarms for the rest of today.", client.AlarmSkip),
		bulkCmd("duplicate <id>...", "Copy alarms.", client.AlarmDuplicate),
		retagCmd,
	)

	rootCmd.AddCommand(alarmCmd)
}

// bulkCmd builds a subcommand taking one or more alarm ids.
func bulkCmd(use, short string, action func(ids ...string) client.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "alarm", action(args...))
		},
	}
}
