package domain

import "errors"

// Sentinel errors used across layers.
var (
	// ErrInvalidDuration rejects a timer start with a non-positive duration.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidState rejects an operation that the current lifecycle phase does not allow.
	ErrInvalidState = errors.New("invalid state")
	// ErrIndexOutOfRange rejects a lap deletion with a bad index.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInputIgnored reports dropped code input. Callers treat it as a no-op, not a failure.
	ErrInputIgnored = errors.New("input ignored")
	// ErrNotRunning rejects a lap on a stopwatch that is not running.
	ErrNotRunning = errors.New("not running")
	// ErrNotFound is returned for unknown alarm ids.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAlarm wraps alarm validation failures.
	ErrInvalidAlarm = errors.New("invalid alarm")
)
