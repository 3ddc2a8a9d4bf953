package dispatch

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/oshokin/chiller-supervisor/internal/domain/alarm"
	"github.com/oshokin/chiller-supervisor/internal/logger"
)

// ErrEmptyCommand is returned when a trip command has no program.
var ErrEmptyCommand = errors.New("trip command is empty")

// CommandSink runs an external protective action when a trip activates,
// e.g. a compressor stop hook. The alarm code is appended as the last argument.
//
// The command is started asynchronously so a slow hook never delays a tick.
// Warnings and events are ignored.
type CommandSink struct {
	// ctx bounds the lifetime of started commands and carries the logger.
	ctx context.Context //nolint:containedctx // Sink methods have no context parameter.
	// argv is the program and its leading arguments.
	argv []string
	// timeout limits each command run.
	timeout time.Duration
	// done receives the result of every finished run, if set.
	done chan<- error
}

// NewCommandSink creates a sink running argv on trips.
func NewCommandSink(ctx context.Context, argv []string, timeout time.Duration) (*CommandSink, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyCommand
	}

	return &CommandSink{
		ctx:     logger.WithName(ctx, "trip-command"),
		argv:    append([]string(nil), argv...),
		timeout: timeout,
	}, nil
}

// LogEvent implements engine.Sink.
func (s *CommandSink) LogEvent(string, string) {}

// OnWarning implements engine.Sink.
func (s *CommandSink) OnWarning(*alarm.Definition) {}

// OnAlarmTrip implements engine.Sink.
func (s *CommandSink) OnAlarmTrip(def *alarm.Definition) {
	ctx := s.ctx

	var cancel context.CancelFunc = func() {}
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}

	args := append(append([]string(nil), s.argv[1:]...), def.Code)

	//nolint:gosec // The command comes from the operator's configuration.
	cmd := exec.CommandContext(ctx, s.argv[0], args...)

	if err := cmd.Start(); err != nil {
		cancel()
		logger.ErrorKV(ctx, "Trip command failed to start", "code", def.Code, "error", err)
		s.report(err)

		return
	}

	go func() {
		defer cancel()

		err := cmd.Wait()
		if err != nil {
			logger.ErrorKV(ctx, "Trip command failed", "code", def.Code, "error", err)
		} else {
			logger.InfoKV(ctx, "Trip command finished", "code", def.Code)
		}

		s.report(err)
	}()
}

func (s *CommandSink) report(err error) {
	if s.done != nil {
		s.done <- err
	}
}
