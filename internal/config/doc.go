// Package config defines the settings shared by the daemon and the CLI and
// provides helpers to load, validate and save them in YAML format.
//
// Validate fills defaults for every optional field, so a loaded Config is
// always complete.
package config
