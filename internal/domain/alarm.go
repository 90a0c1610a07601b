package domain

import "slices"

// Tone names a synthesized ring tone, or ToneCustom for user audio.
type Tone string

// Supported tones.
const (
	ToneBell    Tone = "bell"
	ToneChime   Tone = "chime"
	ToneDigital Tone = "digital"
	ToneAlarm   Tone = "alarm"
	ToneBeep    Tone = "beep"
	ToneCustom  Tone = "custom"
)

// Code length bounds for the dismissal challenge.
const (
	MinCodeLength = 1
	MaxCodeLength = 10
)

// Alarm is a scheduled wake-up owned by the alarm registry.
type Alarm struct {
	// ID is an opaque identifier assigned by the registry.
	ID string `json:"id"`
	// Time is the local fire minute in 24h "HH:MM" form.
	Time string `json:"time" validate:"required,clocktime"`
	// Label is free text shown while ringing.
	Label string `json:"label"`
	// Enabled reports whether the scheduler considers this alarm at all.
	Enabled bool `json:"enabled"`
	// DaysOfWeek holds weekdays (Sunday=0). Empty means a once alarm.
	DaysOfWeek []int `json:"daysOfWeek" validate:"max=7,unique,dive,min=0,max=6"`
	// Tone selects the ring sound.
	Tone Tone `json:"tone" validate:"required,oneof=bell chime digital alarm beep custom"`
	// Volume is a percentage.
	Volume int `json:"volume" validate:"min=0,max=100"`
	// Vibration toggles the vibration pattern while ringing.
	Vibration bool `json:"vibration"`
	// CodeLength is the number of digits of the dismissal code.
	CodeLength int `json:"codeLength" validate:"min=1,max=10"`
	// CustomAudioReference is an opaque handle to user audio, required for ToneCustom.
	CustomAudioReference string `json:"customAudioReference,omitempty" validate:"required_if=Tone custom"`
	// FadeIn gradually raises the volume when ringing starts.
	FadeIn bool `json:"fadeIn"`
	// Growing keeps raising the volume while the alarm rings.
	Growing bool `json:"growing"`
	// SnoozeMinutes overrides the default snooze delay when set.
	SnoozeMinutes int `json:"snoozeMinutes,omitempty" validate:"omitempty,min=1,max=60"`
	// SkipDate is a local "YYYY-MM-DD" date on which the alarm does not fire.
	SkipDate string `json:"skipDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// IsOnce reports whether the alarm has no repeat days.
func (a *Alarm) IsOnce() bool {
	return len(a.DaysOfWeek) == 0
}

// FiresOn reports whether the alarm is scheduled for the given weekday.
func (a *Alarm) FiresOn(weekday int) bool {
	return a.IsOnce() || slices.Contains(a.DaysOfWeek, weekday)
}

// Clone returns a deep copy of the alarm.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a
	cloned.DaysOfWeek = slices.Clone(a.DaysOfWeek)

	return &cloned
}

// NewAlarm returns an enabled once alarm at hhmm with the defaults of a fresh form.
func NewAlarm(hhmm string) *Alarm {
	return &Alarm{
		Time:       hhmm,
		Enabled:    true,
		DaysOfWeek: []int{},
		Tone:       ToneBell,
		Volume:     80,
		CodeLength: 4,
	}
}
