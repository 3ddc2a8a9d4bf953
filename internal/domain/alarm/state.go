package alarm

// State is the live timing and acknowledgment state of one tracked definition.
//
// Timestamps are milliseconds of a caller-supplied monotonic counter and are
// compared with wrapping uint32 subtraction, so zero is a valid instant.
type State struct {
	// Index is the registry position of the owning definition.
	Index int `yaml:"index"`
	// Code mirrors the definition code so persisted state can be checked
	// against a changed rulebook.
	Code string `yaml:"code"`
	// FirstTrueAt is when the condition started holding continuously.
	// Meaningful only while Pending.
	FirstTrueAt uint32 `yaml:"first_true_at"`
	// LastTrueAt is the most recent true observation while active.
	LastTrueAt uint32 `yaml:"last_true_at"`
	// ActivatedAt is when the alarm last became active.
	ActivatedAt uint32 `yaml:"activated_at"`
	// ClearStartAt is when the condition started being continuously false
	// while active. Meaningful only while Clearing.
	ClearStartAt uint32 `yaml:"clear_start_at"`
	// Pending is set while the condition accumulates toward the debounce window.
	Pending bool `yaml:"pending"`
	// Clearing is set while an active auto-clear alarm accumulates toward ClearS.
	Clearing bool `yaml:"clearing"`
	// ConditionTrue is the rule result of the latest evaluation.
	ConditionTrue bool `yaml:"condition_true"`
	// Active indicates whether the alarm is currently asserted.
	Active bool `yaml:"active"`
	// Acknowledged indicates an operator acknowledged the alarm.
	Acknowledged bool `yaml:"acknowledged"`
}

// NewState returns an idle state owned by the definition at index.
func NewState(index int, def *Definition) State {
	return State{
		Index: index,
		Code:  def.Code,
	}
}

// Elapsed returns now-since with wrapping semantics.
func Elapsed(now, since uint32) uint32 {
	return now - since
}
