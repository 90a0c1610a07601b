// Package domain contains the core types of the alarm clock: alarms,
// the single-slot timer and stopwatch records, ring session status and
// the sentinel errors shared by every layer.
//
// Timer and stopwatch records hold epoch-millisecond timestamps only.
// Remaining and elapsed time are always derived from those timestamps and
// the current clock, never accumulated tick by tick.
package domain
