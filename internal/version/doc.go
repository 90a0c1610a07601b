// Package version exposes build metadata for alarm-clockd and alarm-clock.
//
// Version, Commit and BuildTime are injected at build time via ldflags.
package version
