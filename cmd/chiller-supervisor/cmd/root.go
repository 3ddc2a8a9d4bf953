package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/chiller-supervisor/internal/config"
	"github.com/oshokin/chiller-supervisor/internal/service/supervisor"
	"github.com/oshokin/chiller-supervisor/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where alarm state is persisted.
	stateFile string

	// rootCmd represents the base command for running the supervisor.
	rootCmd = &cobra.Command{
		Use:   "chiller-supervisor [listen-address]",
		Short: "Run the chiller alarm and safety supervisor.",
		Long: `Evaluates the alarm rulebook against pushed signal readings every tick,
debounces, latches and auto-clears alarms and warnings, and serves the
supervisory gRPC API (list, summary, acknowledge, reset, push signals).

The rulebook is the compiled-in chiller table unless registry_file is set.
Listen address can be provided as argument to override config (e.g., :50061).
Alarm state is persisted to a YAML file for recovery across restarts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &supervisor.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				StateFile:     stateFile,
			}

			return supervisor.Run(ctx, options)
		},
	}
)

// Execute runs the chiller-supervisor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&stateFile, "state-file", "s", "", "path to persist alarm state (overrides config)")
}
