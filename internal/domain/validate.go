package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// clockTimePattern matches a zero-padded 24h "HH:MM".
var clockTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

var fieldMessages = map[string]string{
	"Alarm.Time.required":                 "is required",
	"Alarm.Time.clocktime":                "must be HH:MM in 24h format",
	"Alarm.DaysOfWeek.unique":             "must not repeat days",
	"Alarm.DaysOfWeek.max":                "must hold at most 7 days",
	"Alarm.DaysOfWeek[0].min":             "must be between 0 and 6",
	"Alarm.Tone.oneof":                    "must be one of bell, chime, digital, alarm, beep, custom",
	"Alarm.Volume.min":                    "must be between 0 and 100",
	"Alarm.Volume.max":                    "must be between 0 and 100",
	"Alarm.CodeLength.min":                "must be between 1 and 10",
	"Alarm.CodeLength.max":                "must be between 1 and 10",
	"Alarm.CustomAudioReference.required": "is required for the custom tone",
	"Alarm.SnoozeMinutes.min":             "must be between 1 and 60",
	"Alarm.SnoozeMinutes.max":             "must be between 1 and 60",
	"Alarm.SkipDate.datetime":             "must be YYYY-MM-DD",
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		//nolint:errcheck // Registration only fails on an empty tag name.
		_ = validate.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
			return clockTimePattern.MatchString(fl.Field().String())
		})
	})

	return validate
}

// ValidClockTime reports whether s is a zero-padded 24h "HH:MM".
func ValidClockTime(s string) bool {
	return clockTimePattern.MatchString(s)
}

// Validate checks the alarm invariants and returns an ErrInvalidAlarm
// wrapping a readable description of every failing field.
func (a *Alarm) Validate() error {
	err := validatorInstance().Struct(a)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidAlarm, err)
	}

	problems := make([]string, 0, len(validationErrs))

	for _, e := range validationErrs {
		problems = append(problems, e.Field()+" "+fieldMessage(e))
	}

	return fmt.Errorf("%w: %s", ErrInvalidAlarm, strings.Join(problems, "; "))
}

// fieldMessage looks up a message for the failing tag, folding slice
// element namespaces onto the first element's entry.
func fieldMessage(e validator.FieldError) string {
	namespace := e.StructNamespace()
	if i := strings.Index(namespace, "["); i >= 0 {
		namespace = namespace[:i] + "[0]"
	}

	tag := e.Tag()
	if tag == "required_if" {
		tag = "required"
	}

	if v, ok := fieldMessages[namespace+"."+tag]; ok {
		return v
	}

	if strings.HasSuffix(namespace, "[0]") {
		if v, ok := fieldMessages[namespace+".min"]; ok {
			return v
		}
	}

	return "is invalid"
}
