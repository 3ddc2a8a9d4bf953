package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/oshokin/chiller-supervisor/internal/config"
	"github.com/oshokin/chiller-supervisor/internal/logger"
	"github.com/oshokin/chiller-supervisor/internal/service/common"
)

// Options configures every chiller-ctl command.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the supervisor address from config when specified.
	ServerAddress string
	// Out receives command output; stdout when nil.
	Out io.Writer
}

var (
	// ErrBadReading is returned for a signal argument that is not name=value.
	ErrBadReading = errors.New("reading must be name=value")
	// ErrNoReadings is returned when push gets no arguments.
	ErrNoReadings = errors.New("no readings given")
)

// session is a connected client with its settings.
type session struct {
	client *common.Client
	out    io.Writer
}

// connect loads settings and dials the supervisor.
func connect(ctx context.Context, opts *Options) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	serverAddress := cfg.ListenAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	logger.DebugKV(ctx, "Connected to supervisor", "server_address", serverAddress)

	return &session{client: client, out: out}, nil
}

func (s *session) close() {
	_ = s.client.Close()
}

// List prints every tracked alarm.
func List(ctx context.Context, opts *Options) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	alarms, err := s.client.ListAlarms(ctx)
	if err != nil {
		return err
	}

	return printMessage(s.out, alarms)
}

// Summary prints the supervisory overview once, or every interval until ctx
// is canceled when interval is positive.
func Summary(ctx context.Context, opts *Options, interval time.Duration) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	show := func() error {
		summary, err := s.client.Summary(ctx)
		if err != nil {
			return err
		}

		return printMessage(s.out, summary)
	}

	if err := show(); err != nil || interval <= 0 {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := show(); err != nil {
				// Keep watching through transient failures.
				logger.ErrorKV(ctx, "Summary failed", "error", err)
			}
		}
	}
}

// Ack acknowledges every alarm as the current operator.
func Ack(ctx context.Context, opts *Options) error {
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.client.AckAll(ctx, actor); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alarms acknowledged", "actor", actor.String())

	return nil
}

// Reset clears one latched alarm by slot, or every qualifying one when all is set.
func Reset(ctx context.Context, opts *Options, slot uint32, all bool) error {
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	if all {
		n, err := s.client.ResetAll(ctx, actor)
		if err != nil {
			return err
		}

		logger.InfoKV(ctx, "Alarms reset", "count", n, "actor", actor.String())

		return nil
	}

	if err := s.client.ResetAlarm(ctx, actor, slot); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alarm reset", "slot", slot, "actor", actor.String())

	return nil
}

// Push sends name=value readings to the supervisor.
func Push(ctx context.Context, opts *Options, args []string) error {
	readings, err := ParseReadings(args)
	if err != nil {
		return err
	}

	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.client.PushSignals(ctx, readings); err != nil {
		return err
	}

	logger.DebugKV(ctx, "Signals pushed", "count", len(readings))

	return nil
}

// ParseReadings converts name=value arguments. Values are numbers, true/false
// (sent as booleans) or null (invalidates the signal).
func ParseReadings(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, ErrNoReadings
	}

	readings := make(map[string]any, len(args))

	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")

		name = strings.TrimSpace(name)
		raw = strings.TrimSpace(raw)

		if !ok || name == "" || raw == "" {
			return nil, fmt.Errorf("%q: %w", arg, ErrBadReading)
		}

		switch strings.ToLower(raw) {
		case "null":
			readings[name] = nil
		case "true":
			readings[name] = true
		case "false":
			readings[name] = false
		default:
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", arg, ErrBadReading)
			}

			readings[name] = value
		}
	}

	return readings, nil
}

// printMessage writes msg as indented JSON.
func printMessage(w io.Writer, msg proto.Message) error {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}

	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}

	return nil
}
