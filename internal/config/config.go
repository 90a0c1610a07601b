package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by alarm-clockd and alarm-clock.
type Config struct {
	// ServerAddress is the gRPC address of the daemon.
	ServerAddress string `yaml:"server_addr"`
	// Timeout is the per-RPC timeout used by the CLI.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is a zap level name.
	LogLevel string `yaml:"log_level"`
	// Timezone is the IANA zone used for alarm minute and weekday matching.
	Timezone string `yaml:"timezone"`
	// TickInterval is the cadence of scheduler and timer checks.
	TickInterval time.Duration `yaml:"tick_interval"`
	// State selects the durable store backend.
	State StateConfig `yaml:"state"`
	// Relay configures the background relay.
	Relay RelayConfig `yaml:"relay"`
	// Ring configures ring session behaviour.
	Ring RingConfig `yaml:"ring"`
	// Notifications configures notification delivery.
	Notifications NotificationsConfig `yaml:"notifications"`
}

// StateConfig selects the durable store.
type StateConfig struct {
	// Backend is one of "file", "sqlite" or "memory".
	Backend string `yaml:"backend"`
	// Path is the file or database location.
	Path string `yaml:"path"`
}

// RelayConfig configures the background relay.
type RelayConfig struct {
	// Enabled starts the relay next to the primary tick loop.
	Enabled *bool `yaml:"enabled"`
	// Interval is the relay tick cadence.
	Interval time.Duration `yaml:"interval"`
}

// RingConfig configures ring sessions.
type RingConfig struct {
	// DefaultSnooze is used when a snooze request names no delay and the alarm has none.
	DefaultSnooze time.Duration `yaml:"default_snooze"`
	// IncorrectLockout is how long input is ignored after a wrong code.
	IncorrectLockout time.Duration `yaml:"incorrect_lockout"`
}

// NotificationsConfig configures notification delivery.
type NotificationsConfig struct {
	// Desktop also sends OS desktop notifications.
	Desktop bool `yaml:"desktop"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alarm-clock-settings.yaml"

	// DefaultStateFilename is the default filename for the JSON state store.
	DefaultStateFilename = "alarm-clock-state.json"

	// DefaultServerAddress is used by Default.
	DefaultServerAddress = "127.0.0.1:50061"

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultTickInterval is the nominal 1 Hz tick.
	DefaultTickInterval = time.Second

	// DefaultRelayInterval is the relay cadence.
	DefaultRelayInterval = 250 * time.Millisecond

	// DefaultSnooze is the snooze delay when nothing else is configured.
	DefaultSnooze = 5 * time.Minute

	// DefaultIncorrectLockout is the input lock after a wrong code.
	DefaultIncorrectLockout = 500 * time.Millisecond

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is used when creating state directories.
	DefaultDirPermissions = 0o755

	// maxSnooze bounds DefaultSnooze.
	maxSnooze = time.Hour
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownBackend is returned for an unsupported state backend.
	errUnknownBackend = errors.New("state backend must be file, sqlite or memory")
	// errSnoozeOutOfRange is returned for a default snooze outside (0, 1h].
	errSnoozeOutOfRange = errors.New("default snooze must be between 1m and 1h")
)

// Default returns a complete configuration for a local daemon.
func Default() *Config {
	cfg := &Config{ServerAddress: DefaultServerAddress}

	//nolint:errcheck // Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes Settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling defaults for optional ones.
//
//nolint:cyclop // A flat list of defaults reads better than helpers.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = "info"
	}

	if settings.Timezone == "" {
		settings.Timezone = "Local"
	}

	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	if settings.TickInterval <= 0 {
		settings.TickInterval = DefaultTickInterval
	}

	settings.State.Backend = strings.ToLower(strings.TrimSpace(settings.State.Backend))
	switch settings.State.Backend {
	case "":
		settings.State.Backend = "file"
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, settings.State.Backend)
	}

	if settings.State.Path == "" {
		settings.State.Path = DefaultStateFilename
	}

	if settings.Relay.Enabled == nil {
		enabled := true
		settings.Relay.Enabled = &enabled
	}

	if settings.Relay.Interval <= 0 {
		settings.Relay.Interval = DefaultRelayInterval
	}

	if settings.Ring.DefaultSnooze == 0 {
		settings.Ring.DefaultSnooze = DefaultSnooze
	}

	if settings.Ring.DefaultSnooze < time.Minute || settings.Ring.DefaultSnooze > maxSnooze {
		return errSnoozeOutOfRange
	}

	if settings.Ring.IncorrectLockout <= 0 {
		settings.Ring.IncorrectLockout = DefaultIncorrectLockout
	}

	return nil
}

// Location returns the configured time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}

	return loc
}

// RelayEnabled reports whether the background relay should run.
func (c *Config) RelayEnabled() bool {
	return c.Relay.Enabled == nil || *c.Relay.Enabled
}
