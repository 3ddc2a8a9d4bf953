package engine

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/oshokin/chiller-supervisor/internal/domain/alarm"
	"github.com/oshokin/chiller-supervisor/internal/logger"
)

// Events passed to Sink.LogEvent.
const (
	EventOn  = "ALARM_ON"
	EventOff = "ALARM_OFF"
)

// SignalSource maps a signal name to its current measurement.
// Unknown or invalid signals read as NaN. Read must not block.
type SignalSource interface {
	Read(name string) float64
}

// Sink receives the side effects of state transitions.
type Sink interface {
	// LogEvent records an EventOn or EventOff for a definition code.
	LogEvent(code, event string)
	// OnAlarmTrip is called once per activation of a trip-class definition.
	OnAlarmTrip(def *alarm.Definition)
	// OnWarning is called once per activation of a warning definition.
	OnWarning(def *alarm.Definition)
}

var (
	// ErrIndexOutOfRange is returned for a slot index past the tracked count.
	ErrIndexOutOfRange = errors.New("alarm index out of range")
	// ErrNotActive is returned when resetting an alarm that is not asserted.
	ErrNotActive = errors.New("alarm is not active")
	// ErrNotAcknowledged is returned when resetting an alarm nobody acknowledged.
	ErrNotAcknowledged = errors.New("alarm is not acknowledged")
	// ErrConditionPresent is returned when resetting an alarm whose condition still holds.
	ErrConditionPresent = errors.New("alarm condition is still present")
	// ErrAutoClearing is returned when resetting an alarm that clears by itself.
	ErrAutoClearing = errors.New("alarm clears automatically")
	// ErrRegistryMismatch is returned when restored state does not match the rulebook.
	ErrRegistryMismatch = errors.New("state does not match rulebook")
)

// Engine evaluates the rulebook on every tick and tracks alarm states.
//
// Engine is not safe for concurrent use; callers serialize access.
type Engine struct {
	// defs is the private copy of the rulebook.
	defs []alarm.Definition
	// source provides signal readings.
	source SignalSource
	// sink receives transition side effects.
	sink Sink
	// store holds the tracked alarm states.
	store *store
	// log is used for diagnostics that are not alarm events.
	log *zap.SugaredLogger
	// untracked marks definitions that could not get a slot.
	untracked map[int]struct{}
	// revision increases on every observable state change.
	revision uint64
}

// Option configures the engine.
type Option func(*Engine)

// WithCapacity sets the number of alarm store slots.
func WithCapacity(capacity int) Option {
	return func(e *Engine) {
		if capacity > 0 {
			e.store = newStore(capacity)
		}
	}
}

// WithLogger sets the logger for engine diagnostics.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an engine over a copy of defs.
func New(defs []alarm.Definition, source SignalSource, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		defs:      slices.Clone(defs),
		source:    source,
		sink:      sink,
		store:     newStore(DefaultCapacity),
		log:       logger.Logger(),
		untracked: make(map[int]struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Init clears all tracked state.
func (e *Engine) Init() {
	e.store.reset()
	clear(e.untracked)
	e.revision++
}

// Tick evaluates every definition in rulebook order at time now (milliseconds).
func (e *Engine) Tick(now uint32) {
	for i := range e.defs {
		e.evaluate(now, i)
	}
}

func (e *Engine) evaluate(now uint32, index int) {
	def := &e.defs[index]
	trig := alarm.Evaluate(def, e.source.Read(def.Source))

	slot, err := e.store.acquire(index, def)
	if err != nil {
		if _, seen := e.untracked[index]; !seen {
			e.untracked[index] = struct{}{}
			e.log.Warnw("Alarm definition is not tracked",
				"code", def.Code, "index", index, "capacity", e.store.capacity, "error", err)
		}

		return
	}

	slot.ConditionTrue = trig

	if trig {
		e.onTrue(now, def, slot)

		return
	}

	e.onFalse(now, def, slot)
}

func (e *Engine) onTrue(now uint32, def *alarm.Definition, slot *alarm.State) {
	if slot.Active {
		slot.LastTrueAt = now
		slot.Clearing = false

		return
	}

	if !slot.Pending {
		slot.Pending = true
		slot.FirstTrueAt = now
	}

	if alarm.Elapsed(now, slot.FirstTrueAt) < def.DebounceMillis() {
		return
	}

	slot.Pending = false
	slot.Active = true
	slot.Acknowledged = false
	slot.LastTrueAt = now
	slot.ActivatedAt = now
	e.revision++

	e.sink.LogEvent(def.Code, EventOn)

	if def.IsTrip() {
		e.sink.OnAlarmTrip(def)
	} else {
		e.sink.OnWarning(def)
	}
}

func (e *Engine) onFalse(now uint32, def *alarm.Definition, slot *alarm.State) {
	// Debounce needs contiguous true samples.
	slot.Pending = false
	slot.FirstTrueAt = 0

	if !slot.Active || !def.AutoClear {
		return
	}

	if !slot.Clearing {
		slot.Clearing = true
		slot.ClearStartAt = now
	}

	if alarm.Elapsed(now, slot.ClearStartAt) < def.ClearMillis() {
		return
	}

	slot.Clearing = false
	slot.ClearStartAt = 0
	slot.Active = false
	slot.Acknowledged = true
	e.revision++

	e.sink.LogEvent(def.Code, EventOff)
}

// AckAll acknowledges every tracked alarm without deactivating it.
func (e *Engine) AckAll() {
	for i := range e.store.len() {
		slot := e.store.at(i)
		if !slot.Acknowledged {
			slot.Acknowledged = true
			e.revision++
		}
	}
}

// Reset clears the latched alarm held in slot i.
//
// The alarm must be active, acknowledged and its condition absent at the
// latest evaluation. Auto-clearing alarms cannot be reset.
func (e *Engine) Reset(i int) error {
	slot := e.store.at(i)
	if slot == nil {
		return fmt.Errorf("reset %d: %w", i, ErrIndexOutOfRange)
	}

	def := &e.defs[slot.Index]

	switch {
	case !slot.Active:
		return fmt.Errorf("reset %s: %w", def.Code, ErrNotActive)
	case def.AutoClear:
		return fmt.Errorf("reset %s: %w", def.Code, ErrAutoClearing)
	case !slot.Acknowledged:
		return fmt.Errorf("reset %s: %w", def.Code, ErrNotAcknowledged)
	case slot.ConditionTrue:
		return fmt.Errorf("reset %s: %w", def.Code, ErrConditionPresent)
	}

	slot.Active = false
	slot.Pending = false
	slot.Clearing = false
	e.revision++

	e.sink.LogEvent(def.Code, EventOff)

	return nil
}

// ResetAll resets every alarm that qualifies for Reset and returns how many were cleared.
func (e *Engine) ResetAll() int {
	var n int

	for i := range e.store.len() {
		if e.Reset(i) == nil {
			n++
		}
	}

	return n
}

// AnyActive reports whether any tracked alarm or warning is asserted.
func (e *Engine) AnyActive() bool {
	for i := range e.store.len() {
		if e.store.at(i).Active {
			return true
		}
	}

	return false
}

// AnyTrip reports whether any trip-class alarm is asserted. Warnings are ignored.
func (e *Engine) AnyTrip() bool {
	for i := range e.store.len() {
		slot := e.store.at(i)
		if slot.Active && e.defs[slot.Index].IsTrip() {
			return true
		}
	}

	return false
}

// Count returns the number of tracked slots, active or not.
func (e *Engine) Count() int {
	return e.store.len()
}

// Capacity returns the number of slots of the alarm store.
func (e *Engine) Capacity() int {
	return e.store.capacity
}

// Get returns a copy of the state held in slot i.
func (e *Engine) Get(i int) (alarm.State, bool) {
	slot := e.store.at(i)
	if slot == nil {
		return alarm.State{}, false
	}

	return *slot, true
}

// Definition returns the rulebook row at index.
func (e *Engine) Definition(index int) (alarm.Definition, bool) {
	if index < 0 || index >= len(e.defs) {
		return alarm.Definition{}, false
	}

	return e.defs[index], true
}

// Definitions returns a copy of the rulebook.
func (e *Engine) Definitions() []alarm.Definition {
	return slices.Clone(e.defs)
}

// Untracked returns how many definitions could not get a slot.
func (e *Engine) Untracked() int {
	return len(e.untracked)
}

// Revision increases whenever an alarm activates, clears, is acknowledged or reset.
func (e *Engine) Revision() uint64 {
	return e.revision
}

// Snapshot returns a copy of every tracked state in slot order.
func (e *Engine) Snapshot() []alarm.State {
	return slices.Clone(e.store.slots)
}

// Restore replaces tracked state with a snapshot taken from the same rulebook.
// Timing fields are dropped because the millisecond counter restarts with the process.
func (e *Engine) Restore(states []alarm.State) error {
	if len(states) > e.store.capacity {
		return fmt.Errorf("restore %d states: %w", len(states), ErrStoreFull)
	}

	seen := make(map[int]struct{}, len(states))

	for _, st := range states {
		def, ok := e.Definition(st.Index)
		if !ok || def.Code != st.Code {
			return fmt.Errorf("restore %s at %d: %w", st.Code, st.Index, ErrRegistryMismatch)
		}

		if _, dup := seen[st.Index]; dup {
			return fmt.Errorf("restore %s at %d twice: %w", st.Code, st.Index, ErrRegistryMismatch)
		}

		seen[st.Index] = struct{}{}
	}

	e.store.reset()

	for _, st := range states {
		def := &e.defs[st.Index]

		slot, err := e.store.acquire(st.Index, def)
		if err != nil {
			return err
		}

		slot.Active = st.Active
		slot.Acknowledged = st.Acknowledged
		slot.ConditionTrue = st.ConditionTrue
	}

	e.revision++

	return nil
}
