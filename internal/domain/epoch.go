package domain

import "time"

// EpochMs converts t to Unix milliseconds.
func EpochMs(t time.Time) int64 {
	return t.UnixMilli()
}

// FromEpochMs converts Unix milliseconds to a UTC time.Time.
func FromEpochMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
