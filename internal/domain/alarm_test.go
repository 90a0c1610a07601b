package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAlarmValidate covers the field invariants of an alarm.
func TestAlarmValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewAlarm("07:00").Validate())

	cases := map[string]func(a *Alarm){
		"unpadded time":     func(a *Alarm) { a.Time = "7:00" },
		"hour 24":           func(a *Alarm) { a.Time = "24:00" },
		"empty time":        func(a *Alarm) { a.Time = "" },
		"code length zero":  func(a *Alarm) { a.CodeLength = 0 },
		"code length 11":    func(a *Alarm) { a.CodeLength = 11 },
		"weekday 7":         func(a *Alarm) { a.DaysOfWeek = []int{1, 7} },
		"duplicate weekday": func(a *Alarm) { a.DaysOfWeek = []int{1, 1} },
		"volume over 100":   func(a *Alarm) { a.Volume = 101 },
		"unknown tone":      func(a *Alarm) { a.Tone = "siren" },
		"custom no audio":   func(a *Alarm) { a.Tone = ToneCustom },
		"snooze too long":   func(a *Alarm) { a.SnoozeMinutes = 61 },
		"bad skip date":     func(a *Alarm) { a.SkipDate = "14/10/2026" },
	}

	for name, mutate := range cases {
		a := NewAlarm("07:00")
		mutate(a)

		err := a.Validate()
		require.ErrorIs(t, err, ErrInvalidAlarm, name)
	}

	a := NewAlarm("23:59")
	a.Tone = ToneCustom
	a.CustomAudioReference = "blob:abc"
	a.DaysOfWeek = []int{0, 6}
	a.CodeLength = 10
	require.NoError(t, a.Validate())
}

// TestAlarmValidate_Message checks that field problems are readable.
func TestAlarmValidate_Message(t *testing.T) {
	t.Parallel()

	a := NewAlarm("7:5")
	a.CodeLength = 0

	err := a.Validate()
	require.ErrorContains(t, err, "Time must be HH:MM in 24h format")
	require.ErrorContains(t, err, "CodeLength must be between 1 and 10")
}

// TestAlarmFiresOn verifies once alarms match every day and repeating alarms only theirs.
func TestAlarmFiresOn(t *testing.T) {
	t.Parallel()

	once := NewAlarm("07:00")
	for day := range 7 {
		require.True(t, once.FiresOn(day))
	}

	weekdays := NewAlarm("07:00")
	weekdays.DaysOfWeek = []int{1, 2, 3, 4, 5}
	require.False(t, weekdays.FiresOn(0))
	require.True(t, weekdays.FiresOn(3))
	require.False(t, weekdays.FiresOn(6))
}

// TestAlarmClone verifies Clone deep-copies the weekday slice.
func TestAlarmClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Alarm)(nil).Clone())

	a := NewAlarm("06:30")
	a.DaysOfWeek = []int{1, 3}

	c := a.Clone()
	require.Equal(t, a, c)

	c.DaysOfWeek[0] = 5
	require.Equal(t, 1, a.DaysOfWeek[0])
}
