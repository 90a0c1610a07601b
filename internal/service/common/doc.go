// Package common holds the gRPC client of the alarm clock daemon.
//
// Client exposes one typed method per ClockService call plus the event
// stream. DetectActor names the calling user for the daemon log.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
