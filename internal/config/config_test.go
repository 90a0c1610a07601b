package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	err := Validate(new(Config))
	require.Error(t, err)

	// Bad socket.
	err = Validate(&Config{ServerAddress: "bad:address"})
	require.Error(t, err)

	// Bad backend.
	err = Validate(&Config{ServerAddress: "127.0.0.1:0", State: StateConfig{Backend: "redis"}})
	require.ErrorIs(t, err, errUnknownBackend)

	// Bad timezone.
	err = Validate(&Config{ServerAddress: "127.0.0.1:0", Timezone: "Mars/Olympus"})
	require.Error(t, err)

	// Snooze out of range.
	err = Validate(&Config{ServerAddress: "127.0.0.1:0", Ring: RingConfig{DefaultSnooze: 2 * time.Hour}})
	require.ErrorIs(t, err, errSnoozeOutOfRange)

	// Defaults filled.
	settings := &Config{ServerAddress: "127.0.0.1:0", State: StateConfig{Backend: " SQLite "}}
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, DefaultTickInterval, settings.TickInterval)
	require.Equal(t, "sqlite", settings.State.Backend)
	require.Equal(t, DefaultStateFilename, settings.State.Path)
	require.True(t, settings.RelayEnabled())
	require.Equal(t, DefaultSnooze, settings.Ring.DefaultSnooze)
	require.Equal(t, DefaultIncorrectLockout, settings.Ring.IncorrectLockout)
	require.Equal(t, time.Local, settings.Location())
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	disabled := false
	settings := &Config{
		ServerAddress: "127.0.0.1:50061",
		Timezone:      "Europe/Paris",
		State:         StateConfig{Backend: "sqlite", Path: filepath.Join(dir, "state.db")},
		Relay:         RelayConfig{Enabled: &disabled},
		Ring:          RingConfig{DefaultSnooze: 10 * time.Minute},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, "Europe/Paris", loaded.Location().String())
	require.Equal(t, settings.State, loaded.State)
	require.False(t, loaded.RelayEnabled())
	require.Equal(t, 10*time.Minute, loaded.Ring.DefaultSnooze)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadOrDefault falls back to defaults only for a missing file.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultServerAddress, cfg.ServerAddress)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server_addr: ''\n"), DefaultFilePermissions))

	_, err = LoadOrDefault(bad)
	require.Error(t, err)
}
