package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/chiller-supervisor/internal/logger"
)

// Config holds the settings shared by the supervisor and the control CLI.
type Config struct {
	// ListenAddress is the gRPC address of the supervisory API.
	ListenAddress string `yaml:"listen_addr"`
	// MetricsAddress is the HTTP address serving /metrics. Empty disables it.
	MetricsAddress string `yaml:"metrics_addr"`
	// RegistryFile is an optional YAML rule file replacing the compiled-in rulebook.
	RegistryFile string `yaml:"registry_file"`
	// StateFile is where alarm state is persisted between restarts. Empty disables it.
	StateFile string `yaml:"state_file"`
	// TickInterval is the evaluation period of the alarm engine.
	TickInterval time.Duration `yaml:"tick_interval"`
	// Capacity is the number of alarm store slots.
	Capacity int `yaml:"capacity"`
	// StrictRegistry refuses to start when the rulebook does not fit the store.
	StrictRegistry *bool `yaml:"strict_registry"`
	// SignalStaleAfter is how long a pushed reading stays valid.
	SignalStaleAfter time.Duration `yaml:"signal_stale_after"`
	// TripCommand is run with the alarm code appended when a trip activates.
	TripCommand []string `yaml:"trip_command"`
	// TripTimeout bounds the run time of TripCommand.
	TripTimeout time.Duration `yaml:"trip_timeout"`
	// LogLevel is the minimum log level.
	LogLevel string `yaml:"log_level"`
	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format"`
	// Timeout is the duration of client RPC calls.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "chiller-supervisor.yaml"

	// DefaultListenAddress is the default gRPC address.
	DefaultListenAddress = "127.0.0.1:50061"

	// DefaultTickInterval is the default control-cycle period.
	DefaultTickInterval = time.Second

	// DefaultCapacity is the default number of alarm store slots.
	DefaultCapacity = 64

	// DefaultSignalStaleAfter is the default validity of a pushed reading.
	DefaultSignalStaleAfter = 5 * time.Second

	// DefaultTripTimeout is the default run time limit of the trip command.
	DefaultTripTimeout = 10 * time.Second

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBadLogLevel is returned for unknown log levels.
	errBadLogLevel = errors.New("unknown log level")
	// errNegative is returned for negative durations and sizes.
	errNegative = errors.New("value must not be negative")
)

// Load reads configuration from the provided path and validates it.
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

// Save writes settings to the provided path.
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

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ListenAddress == "" {
		settings.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if settings.MetricsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}

	if settings.TickInterval < 0 || settings.Capacity < 0 || settings.SignalStaleAfter < 0 ||
		settings.TripTimeout < 0 || settings.Timeout < 0 {
		return errNegative
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%q: %w", settings.LogLevel, errBadLogLevel)
	}

	if settings.TickInterval == 0 {
		settings.TickInterval = DefaultTickInterval
	}

	if settings.Capacity == 0 {
		settings.Capacity = DefaultCapacity
	}

	if settings.StrictRegistry == nil {
		strict := true
		settings.StrictRegistry = &strict
	}

	if settings.SignalStaleAfter == 0 {
		settings.SignalStaleAfter = DefaultSignalStaleAfter
	}

	if settings.TripTimeout == 0 {
		settings.TripTimeout = DefaultTripTimeout
	}

	if settings.Timeout == 0 {
		settings.Timeout = DefaultTimeout
	}

	return nil
}

// Strict reports whether the rulebook must fit the alarm store.
func (c *Config) Strict() bool {
	return c.StrictRegistry == nil || *c.StrictRegistry
}
