package domain

// RingStatus is the lifecycle phase of a ring session.
type RingStatus string

// Ring session phases. Dismissed and Snoozed are terminal.
const (
	RingRinging   RingStatus = "ringing"
	RingDismissed RingStatus = "dismissed"
	RingSnoozed   RingStatus = "snoozed"
)

// Terminal reports whether no further input is accepted.
func (s RingStatus) Terminal() bool {
	return s == RingDismissed || s == RingSnoozed
}
