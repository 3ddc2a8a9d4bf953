package integration

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/chiller-supervisor/internal/config"
	domain "github.com/oshokin/chiller-supervisor/internal/domain/alarm"
	"github.com/oshokin/chiller-supervisor/internal/registry"
	"github.com/oshokin/chiller-supervisor/internal/service/common"
	"github.com/oshokin/chiller-supervisor/internal/service/supervisor"
)

const (
	tickInterval = 20 * time.Millisecond
	waitFor      = 3 * time.Second
)

// reservePort returns a free loopback address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// testRulebook has one instant latched trip and one instant auto-clearing warning.
func testRulebook() []domain.Definition {
	return []domain.Definition{
		{
			Code:      "LOW_SUCTION_PRESSURE",
			Name:      "Low suction pressure",
			Kind:      domain.KindWarning,
			Priority:  domain.PriorityMedium,
			AutoClear: true,
			Source:    "suction_pressure",
			Operator:  domain.OperatorLessThan,
			Threshold: 110,
		},
		{
			Code:      "HIGH_DISCHARGE_PRESSURE",
			Name:      "High discharge pressure",
			Kind:      domain.KindAlarm,
			Priority:  domain.PriorityCritical,
			Latched:   true,
			Source:    "discharge_pressure",
			Operator:  domain.OperatorGreaterThan,
			Threshold: 435,
		},
	}
}

// startSupervisor writes settings and a rule file, then runs the supervisor in the background.
// Returns a stop function that waits for Run to return.
func startSupervisor(t *testing.T, addr, metricsAddr, statePath string) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yaml")
	rulesPath := filepath.Join(dir, "rules.yaml")

	require.NoError(t, registry.Save(rulesPath, testRulebook()))
	require.NoError(t, config.Save(cfgPath, &config.Config{
		ListenAddress:  addr,
		MetricsAddress: metricsAddr,
		RegistryFile:   rulesPath,
		StateFile:      statePath,
		TickInterval:   tickInterval,
		Timeout:        2 * time.Second,
	}))

	done := make(chan error, 1)

	go func() {
		done <- supervisor.Run(ctx, &supervisor.Options{ConfigPath: cfgPath})
	}()

	// Wait briefly for server to start listening.
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, waitFor, 10*time.Millisecond)

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

// TestSupervisor_TripAckReset drives a latched trip over gRPC from activation to reset.
func TestSupervisor_TripAckReset(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	metricsAddr := reservePort(t)
	statePath := filepath.Join(t.TempDir(), "state.yaml")

	stop := startSupervisor(t, addr, metricsAddr, statePath)
	defer stop()

	ctx := context.Background()

	c, err := common.Dial(ctx, addr, common.WithCallTimeout(2*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	actor := &domain.Actor{Hostname: "test-hostname", Username: "test-user"}

	require.NoError(t, c.PushSignals(ctx, map[string]any{
		"suction_pressure":   120.0,
		"discharge_pressure": 450.0,
	}))

	require.Eventually(t, func() bool {
		summary, err := c.Summary(ctx)

		return err == nil && summary.GetFields()["any_trip"].GetBoolValue()
	}, waitFor, tickInterval)

	list, err := c.ListAlarms(ctx)
	require.NoError(t, err)

	alarms := list.GetFields()["alarms"].GetListValue().GetValues()
	require.Len(t, alarms, 2)
	require.Equal(t, "HIGH_DISCHARGE_PRESSURE", alarms[1].GetStructValue().GetFields()["code"].GetStringValue())

	// Not acknowledged yet.
	err = c.ResetAlarm(ctx, actor, 1)
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	require.NoError(t, c.AckAll(ctx, actor))

	// Condition still present.
	err = c.ResetAlarm(ctx, actor, 1)
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	require.NoError(t, c.PushSignals(ctx, map[string]any{"discharge_pressure": 400.0}))

	require.Eventually(t, func() bool {
		return c.ResetAlarm(ctx, actor, 1) == nil
	}, waitFor, tickInterval)

	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	require.False(t, summary.GetFields()["any_trip"].GetBoolValue())

	err = c.ResetAlarm(ctx, actor, 42)
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = os.Stat(statePath)
	require.NoError(t, err)

	resp, err := http.Get("http://" + metricsAddr + "/metrics") //nolint:noctx // Test scrape.
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "chiller_alarms_activations_total")
}

// TestSupervisor_RestoresLatchedTrip keeps an unreset trip across a restart.
func TestSupervisor_RestoresLatchedTrip(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	statePath := filepath.Join(t.TempDir(), "state.yaml")
	ctx := context.Background()

	stop := startSupervisor(t, addr, "", statePath)

	c, err := common.Dial(ctx, addr)
	require.NoError(t, err)

	require.NoError(t, c.PushSignals(ctx, map[string]any{"discharge_pressure": 500.0}))
	require.Eventually(t, func() bool {
		summary, err := c.Summary(ctx)

		return err == nil && summary.GetFields()["any_trip"].GetBoolValue()
	}, waitFor, tickInterval)

	_ = c.Close()

	stop()

	addr = reservePort(t)
	stop = startSupervisor(t, addr, "", statePath)
	defer stop()

	c, err = common.Dial(ctx, addr)
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	// No readings were pushed to the new process; the trip is latched from disk.
	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	require.True(t, summary.GetFields()["any_trip"].GetBoolValue())
	require.InDelta(t, 1, summary.GetFields()["unacknowledged"].GetNumberValue(), 0)
}
