package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"google.golang.org/grpc"

	api "github.com/oshokin/chiller-supervisor/internal/api/grpc/supervisor"
	"github.com/oshokin/chiller-supervisor/internal/config"
	domain "github.com/oshokin/chiller-supervisor/internal/domain/alarm"
	"github.com/oshokin/chiller-supervisor/internal/dispatch"
	"github.com/oshokin/chiller-supervisor/internal/engine"
	"github.com/oshokin/chiller-supervisor/internal/logger"
	"github.com/oshokin/chiller-supervisor/internal/observability/metrics"
	"github.com/oshokin/chiller-supervisor/internal/registry"
	repository "github.com/oshokin/chiller-supervisor/internal/repository/state"
	"github.com/oshokin/chiller-supervisor/internal/signal"
	"github.com/oshokin/chiller-supervisor/internal/version"
)

// Options controls the chiller-supervisor process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress overrides the gRPC listen address from settings.
	ListenAddress string
	// StateFile overrides the alarm state file from settings.
	StateFile string
}

// metricsShutdownTimeout bounds the graceful stop of the metrics endpoint.
const metricsShutdownTimeout = 5 * time.Second

// Run starts the engine, the gRPC server and the optional metrics endpoint,
// and blocks until ctx is canceled or the server stops.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	ctx = logger.WithName(applyLogSettings(ctx, settings, os.Stdout), "chiller-supervisor")

	if opts.StateFile != "" {
		settings.StateFile = opts.StateFile
	}

	if opts.ListenAddress != "" {
		settings.ListenAddress = opts.ListenAddress
	}

	defs, err := loadRulebook(ctx, settings)
	if err != nil {
		return err
	}

	m := metrics.New()

	sink, err := buildSink(ctx, settings, m)
	if err != nil {
		return err
	}

	source := signal.NewPushSource(settings.SignalStaleAfter)
	eng := engine.New(defs, source, sink,
		engine.WithCapacity(settings.Capacity),
		engine.WithLogger(logger.FromContext(ctx).Named("engine")))

	var repo repository.Repository
	if settings.StateFile != "" {
		repo = repository.NewFileRepository(settings.StateFile)
	}

	svc, err := newService(ctx, eng, source, m, repo)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", settings.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.ListenAddress, err)
	}

	grpcServer := grpc.NewServer()
	api.Register(grpcServer, api.NewServer(svc))

	if settings.MetricsAddress != "" {
		stopMetrics := serveMetrics(ctx, settings.MetricsAddress, m)
		defer stopMetrics()
	}

	go svc.run(ctx, settings.TickInterval)

	logger.InfoKV(ctx, "Supervisor listening",
		"listen_address", settings.ListenAddress,
		"definitions", len(defs),
		"capacity", settings.Capacity,
		"state_file", settings.StateFile,
		"version", version.Short())

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// applyLogSettings switches the global logger to the configured level and format.
// The returned context carries the new logger, so everything derived from it
// writes in the configured format.
func applyLogSettings(ctx context.Context, settings *config.Config, w io.Writer) context.Context {
	if lvl, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(lvl)
	}

	if settings.LogFormat == "" {
		return ctx
	}

	l := logger.New(nil, settings.LogFormat, w)
	logger.SetLogger(l)

	return logger.ToContext(ctx, l)
}

// loadRulebook reads the rulebook and runs startup diagnostics.
func loadRulebook(ctx context.Context, settings *config.Config) ([]domain.Definition, error) {
	defs, err := registry.Load(settings.RegistryFile)
	if err != nil {
		return nil, fmt.Errorf("load rulebook: %w", err)
	}

	diagnostics := registry.Validate(defs, settings.Capacity)
	for _, warning := range diagnostics.Warnings {
		logger.WarnKV(ctx, "Rulebook warning", "error", warning)
	}

	if err := diagnostics.Err(); err != nil {
		if settings.Strict() {
			return nil, fmt.Errorf("validate rulebook: %w", err)
		}

		logger.ErrorKV(ctx, "Rulebook does not fit the alarm store", "error", err)
	}

	return defs, nil
}

// buildSink fans transitions out to the log, the metrics and the trip command.
func buildSink(ctx context.Context, settings *config.Config, m *metrics.Metrics) (engine.Sink, error) {
	sinks := []engine.Sink{dispatch.NewLogSink(ctx), m}

	if len(settings.TripCommand) > 0 {
		command, err := dispatch.NewCommandSink(ctx, settings.TripCommand, settings.TripTimeout)
		if err != nil {
			return nil, fmt.Errorf("trip command: %w", err)
		}

		sinks = append(sinks, command)
	}

	return dispatch.NewMultiSink(sinks...), nil
}

// serveMetrics exposes /metrics on address and returns a stop function.
func serveMetrics(ctx context.Context, address string, m *metrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: metricsShutdownTimeout,
	}

	go func() {
		logger.InfoKV(ctx, "Metrics listening", "metrics_address", address)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "Metrics server failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "Metrics server shutdown", "error", err)
		}
	}
}
