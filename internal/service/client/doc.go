// Package client holds the command handlers shared by the alarm-clock CLI.
//
// Each handler connects to the daemon, performs one call and renders the
// result as plain text. Parsing of user input such as durations and
// weekday lists lives here too so that the Cobra layer stays thin.
package client
