package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store defines persistence operations for opaque state blobs.
type Store interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores blob under key, replacing any previous value.
	Set(ctx context.Context, key string, blob []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Keys used by the state owners. Each owner writes only its own key.
const (
	KeyTimer     = "timer-state"
	KeyStopwatch = "stopwatch-state"
	KeyAlarms    = "alarms"
	KeySnoozes   = "snoozes"
)

// Supported backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

var (
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("state not found")
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown state backend")
)

// Open creates the store for the named backend. The returned close function
// releases backend resources and is never nil.
func Open(backend, path string) (Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory:
		return NewMemoryStore(), noop, nil
	case BackendFile, "":
		return NewFileStore(path), noop, nil
	case BackendSQLite:
		store, err := NewSQLiteStore(path)
		if err != nil {
			return nil, noop, err
		}

		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
