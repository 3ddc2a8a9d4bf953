package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, format validations and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	// Missing address falls back to the default.
	empty := new(Config)
	require.NoError(t, Validate(empty))
	require.Equal(t, DefaultListenAddress, empty.ListenAddress)

	// Bad address.
	require.Error(t, Validate(&Config{ListenAddress: "bad:address"}))

	// Bad metrics address.
	require.Error(t, Validate(&Config{ListenAddress: "127.0.0.1:0", MetricsAddress: "nope:port"}))

	// Bad log level.
	require.Error(t, Validate(&Config{ListenAddress: "127.0.0.1:0", LogLevel: "loud"}))

	// Negative values.
	require.Error(t, Validate(&Config{ListenAddress: "127.0.0.1:0", Capacity: -1}))

	// Defaults.
	settings := &Config{ListenAddress: "127.0.0.1:0"}
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultTickInterval, settings.TickInterval)
	require.Equal(t, DefaultCapacity, settings.Capacity)
	require.Equal(t, DefaultSignalStaleAfter, settings.SignalStaleAfter)
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.True(t, settings.Strict())
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	strict := false
	settings := &Config{
		ListenAddress:  "127.0.0.1:50061",
		MetricsAddress: "127.0.0.1:9100",
		TickInterval:   500 * time.Millisecond,
		Capacity:       32,
		StrictRegistry: &strict,
		TripCommand:    []string{"/usr/local/bin/stop-compressor", "--now"},
		LogLevel:       "debug",
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ListenAddress, loaded.ListenAddress)
	require.Equal(t, settings.TickInterval, loaded.TickInterval)
	require.Equal(t, 32, loaded.Capacity)
	require.False(t, loaded.Strict())
	require.Equal(t, settings.TripCommand, loaded.TripCommand)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_ParsesDurations reads human-readable durations from YAML.
func TestLoad_ParsesDurations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	doc := "listen_addr: 127.0.0.1:50061\ntick_interval: 250ms\nsignal_stale_after: 3s\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	require.Equal(t, 3*time.Second, cfg.SignalStaleAfter)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
