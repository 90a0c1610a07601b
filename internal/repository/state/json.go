package state

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yoruboku/alarm2/internal/logger"
)

// LoadJSON decodes the value under key into v and reports whether it was found.
// Read failures and malformed records are logged and reported as absent.
func LoadJSON(ctx context.Context, store Store, key string, v any) bool {
	blob, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.WarnKV(ctx, "Unable to read state, starting empty", "key", key, "error", err)
		}

		return false
	}

	if err = json.Unmarshal(blob, v); err != nil {
		logger.WarnKV(ctx, "Malformed state record, treating as absent", "key", key, "error", err)
		return false
	}

	return true
}

// SaveJSON encodes v under key. Failures are logged and returned.
func SaveJSON(ctx context.Context, store Store, key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		logger.ErrorKV(ctx, "Unable to encode state", "key", key, "error", err)
		return err
	}

	if err = store.Set(ctx, key, blob); err != nil {
		logger.ErrorKV(ctx, "Unable to persist state", "key", key, "error", err)
		return err
	}

	return nil
}

// RemoveKey deletes key. Failures are logged and returned.
func RemoveKey(ctx context.Context, store Store, key string) error {
	if err := store.Remove(ctx, key); err != nil {
		logger.ErrorKV(ctx, "Unable to clear state", "key", key, "error", err)
		return err
	}

	return nil
}
