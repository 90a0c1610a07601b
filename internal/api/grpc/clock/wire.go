package clock

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
)

// StartTimerRequest starts a countdown.
type StartTimerRequest struct {
	Seconds int `json:"seconds"`
}

// StartTimerResponse carries the new countdown id.
type StartTimerResponse struct {
	ID string `json:"id"`
}

// ChangedResponse reports whether a toggle-like call changed anything.
type ChangedResponse struct {
	Changed bool `json:"changed"`
}

// LapResponse carries the recorded lap.
type LapResponse struct {
	ElapsedMs int64 `json:"elapsedMs"`
}

// DeleteLapRequest names a lap by position.
type DeleteLapRequest struct {
	Index int `json:"index"`
}

// AlarmRequest carries one alarm for create or update.
type AlarmRequest struct {
	Alarm domain.Alarm `json:"alarm"`
}

// AlarmResponse carries one stored alarm.
type AlarmResponse struct {
	Alarm domain.Alarm `json:"alarm"`
}

// AlarmsResponse carries alarms in registry order.
type AlarmsResponse struct {
	Alarms []domain.Alarm `json:"alarms"`
}

// IDsRequest selects alarms for a bulk operation.
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// RetagRequest sets tone and/or volume on a selection.
type RetagRequest struct {
	IDs    []string     `json:"ids"`
	Tone   *domain.Tone `json:"tone,omitempty"`
	Volume *int         `json:"volume,omitempty"`
}

// DigitRequest carries one code digit.
type DigitRequest struct {
	Digit int `json:"digit"`
}

// DigitResponse reports how a digit was handled. Ignored input is not an error.
type DigitResponse struct {
	Outcome string `json:"outcome"`
	Ignored bool   `json:"ignored"`
}

// SnoozeRequest snoozes for Minutes; zero selects the default.
type SnoozeRequest struct {
	Minutes int `json:"minutes"`
}

// SnoozeResponse carries the booked wake time.
type SnoozeResponse struct {
	FireAt time.Time `json:"fireAt"`
}

// WatchRequest filters the event stream. Empty kinds means everything.
type WatchRequest struct {
	Kinds []events.Kind `json:"kinds"`
}

// EventMessage is the wire form of a bus event.
type EventMessage struct {
	Kind        events.Kind       `json:"kind"`
	At          time.Time         `json:"at"`
	AlarmID     string            `json:"alarmId,omitempty"`
	Label       string            `json:"label,omitempty"`
	CodeLength  int               `json:"codeLength,omitempty"`
	Snoozed     bool              `json:"snoozed,omitempty"`
	Status      domain.RingStatus `json:"status,omitempty"`
	Attempts    int               `json:"attempts,omitempty"`
	FireAt      *time.Time        `json:"fireAt,omitempty"`
	TimerID     string            `json:"timerId,omitempty"`
	RemainingMs int64             `json:"remainingMs,omitempty"`
}

// NewEventMessage flattens a bus event.
func NewEventMessage(ev events.Event) EventMessage {
	msg := EventMessage{Kind: ev.Kind(), At: ev.OccurredAt()}

	switch e := ev.(type) {
	case events.AlarmFiring:
		msg.AlarmID = e.Alarm.ID
		msg.Label = e.Alarm.Label
		msg.CodeLength = e.CodeLength
		msg.Snoozed = e.Snoozed
	case events.RingResolved:
		msg.AlarmID = e.AlarmID
		msg.Status = e.Status
		msg.Attempts = e.Attempts
	case events.AlarmSnoozed:
		fireAt := e.FireAt
		msg.AlarmID = e.AlarmID
		msg.FireAt = &fireAt
	case events.TimerFinished:
		msg.TimerID = e.TimerID
	case events.TimerTick:
		msg.TimerID = e.TimerID
		msg.RemainingMs = e.Remaining.Milliseconds()
	}

	return msg
}

// Encode converts v to a Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	blob, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}

	out := new(structpb.Struct)
	if err = protojson.Unmarshal(blob, out); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}

	return out, nil
}

// MustEncode is Encode for values that always encode, such as requests
// built from plain fields.
func MustEncode(v any) *structpb.Struct {
	out, err := Encode(v)
	if err != nil {
		panic(err)
	}

	return out
}

// Decode fills v from a Struct. A nil or empty Struct leaves v unchanged.
func Decode(in *structpb.Struct, v any) error {
	if in == nil || len(in.GetFields()) == 0 {
		return nil
	}

	blob, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}

	if err = json.Unmarshal(blob, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}

	return nil
}
