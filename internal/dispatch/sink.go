package dispatch

import (
	"context"
	"reflect"

	"github.com/oshokin/chiller-supervisor/internal/domain/alarm"
	"github.com/oshokin/chiller-supervisor/internal/engine"
	"github.com/oshokin/chiller-supervisor/internal/logger"
)

// LogSink writes alarm events to the structured logger carried by a context.
type LogSink struct {
	// ctx carries the logger and its fields.
	ctx context.Context //nolint:containedctx // Sink methods have no context parameter.
}

// NewLogSink creates a sink logging through the logger in ctx.
func NewLogSink(ctx context.Context) *LogSink {
	return &LogSink{ctx: logger.WithName(ctx, "alarms")}
}

// LogEvent implements engine.Sink.
func (s *LogSink) LogEvent(code, event string) {
	logger.InfoKV(s.ctx, "Alarm event", "code", code, "event", event)
}

// OnAlarmTrip implements engine.Sink.
func (s *LogSink) OnAlarmTrip(def *alarm.Definition) {
	logger.ErrorKV(s.ctx, "Alarm trip",
		"code", def.Code, "name", def.Name, "priority", def.Priority.String(), "source", def.Source)
}

// OnWarning implements engine.Sink.
func (s *LogSink) OnWarning(def *alarm.Definition) {
	logger.WarnKV(s.ctx, "Alarm warning",
		"code", def.Code, "name", def.Name, "priority", def.Priority.String(), "source", def.Source)
}

// MultiSink forwards every call to each of its sinks in order.
type MultiSink struct {
	sinks []engine.Sink
}

// NewMultiSink builds a MultiSink, skipping nil sinks and nil pointers
// wrapped in the interface.
func NewMultiSink(sinks ...engine.Sink) *MultiSink {
	m := &MultiSink{sinks: make([]engine.Sink, 0, len(sinks))}

	for _, s := range sinks {
		if isNil(s) {
			continue
		}

		m.sinks = append(m.sinks, s)
	}

	return m
}

func isNil(s engine.Sink) bool {
	if s == nil {
		return true
	}

	v := reflect.ValueOf(s)

	return v.Kind() == reflect.Pointer && v.IsNil()
}

// LogEvent implements engine.Sink.
func (m *MultiSink) LogEvent(code, event string) {
	for _, s := range m.sinks {
		s.LogEvent(code, event)
	}
}

// OnAlarmTrip implements engine.Sink.
func (m *MultiSink) OnAlarmTrip(def *alarm.Definition) {
	for _, s := range m.sinks {
		s.OnAlarmTrip(def)
	}
}

// OnWarning implements engine.Sink.
func (m *MultiSink) OnWarning(def *alarm.Definition) {
	for _, s := range m.sinks {
		s.OnWarning(def)
	}
}
