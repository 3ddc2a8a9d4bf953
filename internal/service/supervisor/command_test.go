package supervisor

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/chiller-supervisor/internal/config"
	"github.com/oshokin/chiller-supervisor/internal/dispatch"
	"github.com/oshokin/chiller-supervisor/internal/logger"
)

// TestApplyLogSettings_JSONReachesAlarmEvents checks that a context named before
// the settings were applied still logs alarm events in the configured format.
//
//nolint:paralleltest // Replaces the global logger.
func TestApplyLogSettings_JSONReachesAlarmEvents(t *testing.T) {
	prev := logger.Logger()
	t.Cleanup(func() { logger.SetLogger(prev) })

	var buf bytes.Buffer

	ctx := applyLogSettings(context.Background(), &config.Config{LogFormat: logger.FormatJSON}, &buf)
	ctx = logger.WithName(ctx, "chiller-supervisor")

	dispatch.NewLogSink(ctx).LogEvent("HIGH_DISCHARGE_PRESSURE", "ALARM_ON")
	logger.InfoKV(ctx, "Alarms acknowledged", "actor", operator.String())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"event":"ALARM_ON"`)
	require.Contains(t, lines[0], `"logger":"chiller-supervisor.alarms"`)
	require.Contains(t, lines[1], `"message":"Alarms acknowledged"`)
}

// TestApplyLogSettings_KeepsContextWithoutFormat leaves the caller's logger alone.
//
//nolint:paralleltest // Changes the global level.
func TestApplyLogSettings_KeepsContextWithoutFormat(t *testing.T) {
	var buf bytes.Buffer

	ctx := logger.ToContext(context.Background(), logger.New(nil, logger.FormatJSON, &buf))

	got := applyLogSettings(ctx, &config.Config{LogLevel: "info"}, nil)
	require.Same(t, logger.FromContext(ctx), logger.FromContext(got))
}
