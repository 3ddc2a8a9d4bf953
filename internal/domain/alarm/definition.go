package alarm

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Kind separates trip-class alarms from advisory warnings.
type Kind uint8

const (
	// KindWarning is advisory only.
	KindWarning Kind = iota
	// KindAlarm is a trip-class condition that stops equipment.
	KindAlarm
)

// Priority is informational severity forwarded for downstream triage.
type Priority uint8

const (
	// PriorityLow is the lowest severity.
	PriorityLow Priority = iota
	// PriorityMedium is the default severity of warnings.
	PriorityMedium
	// PriorityHigh is used by most trips.
	PriorityHigh
	// PriorityCritical is used by trips protecting the compressor and water loops.
	PriorityCritical
)

// Operator is the comparison applied between a measurement and a threshold.
type Operator uint8

const (
	// OperatorGreaterThan triggers when the measurement exceeds the threshold.
	OperatorGreaterThan Operator = iota
	// OperatorLessThan triggers when the measurement is below the threshold.
	OperatorLessThan
	// OperatorEqual triggers when the measurement equals the threshold.
	OperatorEqual
	// OperatorBand is a range test against runtime setpoints.
	// The engine cannot resolve setpoints, so it never triggers.
	OperatorBand
)

// ErrUnknownTag is returned when a textual kind, priority or operator is not recognized.
var ErrUnknownTag = errors.New("unknown tag")

var (
	kindTags     = [...]string{KindWarning: "warning", KindAlarm: "alarm"}
	priorityTags = [...]string{
		PriorityLow:      "low",
		PriorityMedium:   "medium",
		PriorityHigh:     "high",
		PriorityCritical: "critical",
	}
	operatorTags = [...]string{
		OperatorGreaterThan: "gt",
		OperatorLessThan:    "lt",
		OperatorEqual:       "eq",
		OperatorBand:        "band",
	}
)

// Definition is one immutable row of the alarm rulebook.
//
// Code is used for logs and HMI correlation and is not unique: the rulebook
// carries warning and trip rows sharing a code. Identity is the position of
// the definition in its registry.
type Definition struct {
	// Code is the short identifier used in logs.
	Code string `yaml:"code"`
	// Name is the human-readable description.
	Name string `yaml:"name"`
	// Kind selects the trip or warning callback.
	Kind Kind `yaml:"kind"`
	// Priority is forwarded to consumers and not used by the engine.
	Priority Priority `yaml:"priority"`
	// Latched alarms stay active until acknowledged and explicitly reset.
	Latched bool `yaml:"latched"`
	// AutoClear lets the alarm deactivate once the condition has been false for ClearS.
	AutoClear bool `yaml:"auto_clear"`
	// DebounceS is how long the condition must hold before activation, in seconds.
	DebounceS uint16 `yaml:"debounce_s"`
	// ClearS is how long the condition must be absent before auto-clear, in seconds.
	ClearS uint16 `yaml:"clear_s"`
	// MinOnS is the re-fire inhibition window. Carried but not enforced.
	MinOnS uint16 `yaml:"min_on_s"`
	// Source is the name of the signal this definition reads.
	Source string `yaml:"source"`
	// Operator is the comparison applied to the signal.
	Operator Operator `yaml:"op"`
	// Threshold is the comparison value, ignored for OperatorBand.
	Threshold float64 `yaml:"threshold"`
}

// DebounceMillis returns the debounce window in milliseconds.
func (d *Definition) DebounceMillis() uint32 {
	return uint32(d.DebounceS) * 1000
}

// ClearMillis returns the auto-clear window in milliseconds.
func (d *Definition) ClearMillis() uint32 {
	return uint32(d.ClearS) * 1000
}

// IsTrip reports whether the definition is trip-class.
func (d *Definition) IsTrip() bool {
	return d.Kind == KindAlarm
}

// Evaluate applies the definition's operator to a measurement.
// NaN never triggers, and neither do operators the engine cannot resolve.
func Evaluate(def *Definition, measurement float64) bool {
	if math.IsNaN(measurement) {
		return false
	}

	switch def.Operator {
	case OperatorGreaterThan:
		return measurement > def.Threshold
	case OperatorLessThan:
		return measurement < def.Threshold
	case OperatorEqual:
		return measurement == def.Threshold
	case OperatorBand:
		// Setpoints are not visible here; band rules must be precomputed upstream.
		return false
	default:
		return false
	}
}

// Supported reports whether the engine can evaluate the operator on its own.
func (o Operator) Supported() bool {
	switch o {
	case OperatorGreaterThan, OperatorLessThan, OperatorEqual:
		return true
	case OperatorBand:
		return false
	default:
		return false
	}
}

// String returns the rule-file tag of the operator.
func (o Operator) String() string {
	return tagOf(operatorTags[:], int(o), "op")
}

// MarshalText implements encoding.TextMarshaler.
func (o Operator) MarshalText() ([]byte, error) {
	return marshalTag(operatorTags[:], int(o), "operator")
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operator) UnmarshalText(text []byte) error {
	i, err := parseTag(operatorTags[:], string(text), "operator")
	if err != nil {
		return err
	}

	*o = Operator(i)

	return nil
}

// String returns the rule-file tag of the kind.
func (k Kind) String() string {
	return tagOf(kindTags[:], int(k), "kind")
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return marshalTag(kindTags[:], int(k), "kind")
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	i, err := parseTag(kindTags[:], string(text), "kind")
	if err != nil {
		return err
	}

	*k = Kind(i)

	return nil
}

// String returns the rule-file tag of the priority.
func (p Priority) String() string {
	return tagOf(priorityTags[:], int(p), "priority")
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return marshalTag(priorityTags[:], int(p), "priority")
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	i, err := parseTag(priorityTags[:], string(text), "priority")
	if err != nil {
		return err
	}

	*p = Priority(i)

	return nil
}

func tagOf(tags []string, i int, prefix string) string {
	if i >= 0 && i < len(tags) {
		return tags[i]
	}

	return fmt.Sprintf("%s(%d)", prefix, i)
}

func marshalTag(tags []string, i int, what string) ([]byte, error) {
	if i < 0 || i >= len(tags) {
		return nil, fmt.Errorf("%s %d: %w", what, i, ErrUnknownTag)
	}

	return []byte(tags[i]), nil
}

func parseTag(tags []string, s, what string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, tag := range tags {
		if tag == s {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%s %q: %w", what, s, ErrUnknownTag)
}
