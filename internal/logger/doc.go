// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext, FromContext, WithName, WithKV),
//   - level configuration and parsing utilities,
//   - key-value helpers (InfoKV, WarnKV, ErrorKV).
//
// Engines, the scheduler and the relay never hold a logger of their own:
// they take a context and log through the logger carried on it.
package logger
