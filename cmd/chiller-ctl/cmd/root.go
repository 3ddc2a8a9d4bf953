package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/chiller-supervisor/internal/config"
	"github.com/oshokin/chiller-supervisor/internal/logger"
	"github.com/oshokin/chiller-supervisor/internal/service/ctl"
	"github.com/oshokin/chiller-supervisor/internal/version"
)

// errSlotOrAll is returned when reset gets both or neither of a slot and --all.
var errSlotOrAll = errors.New("give either a slot or --all")

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the supervisor address from config.
	serverAddress string
	// watch is the refresh period of the summary command.
	watch time.Duration
	// resetAll resets every qualifying alarm instead of one slot.
	resetAll bool

	// rootCmd represents the base command of the operator CLI.
	rootCmd = &cobra.Command{
		Use:   "chiller-ctl",
		Short: "Operate the chiller alarm supervisor.",
		Long: `Operator client for the chiller alarm supervisor.

Lists alarms, shows the HMI summary, acknowledges alarms, resets latched
trips and pushes signal readings. Acknowledgments and resets are recorded
with the current user and hostname.`,
		SilenceUsage: true,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List tracked alarms.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(func(ctx context.Context) error {
				return ctl.List(ctx, options(cmd))
			})
		},
	}

	summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Show the alarm summary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(func(ctx context.Context) error {
				return ctl.Summary(ctx, options(cmd), watch)
			})
		},
	}

	ackCmd = &cobra.Command{
		Use:   "ack",
		Short: "Acknowledge every alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(func(ctx context.Context) error {
				return ctl.Ack(ctx, options(cmd))
			})
		},
	}

	resetCmd = &cobra.Command{
		Use:   "reset [slot]",
		Short: "Reset a latched alarm that is acknowledged and no longer present.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var slot uint32

			switch {
			case resetAll && len(args) == 0:
			case !resetAll && len(args) == 1:
				parsed, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("slot %q: %w", args[0], err)
				}

				slot = uint32(parsed)
			default:
				return errSlotOrAll
			}

			return withContext(func(ctx context.Context) error {
				return ctl.Reset(ctx, options(cmd), slot, resetAll)
			})
		},
	}

	pushCmd = &cobra.Command{
		Use:   "push name=value...",
		Short: "Push signal readings (numbers, true/false or null).",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(func(ctx context.Context) error {
				return ctl.Push(ctx, options(cmd), args)
			})
		},
	}
)

// withContext runs fn with a context canceled on SIGTERM or SIGINT.
func withContext(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return fn(logger.WithName(ctx, "chiller-ctl"))
}

func options(cmd *cobra.Command) *ctl.Options {
	return &ctl.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	}
}

// Execute runs the chiller-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "a", "", "supervisor address (overrides config)")

	summaryCmd.Flags().DurationVarP(&watch, "watch", "w", 0, "refresh period; zero prints once")
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "reset every qualifying alarm")

	rootCmd.AddCommand(listCmd, summaryCmd, ackCmd, resetCmd, pushCmd)
}
