package supervisor

import (
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/chiller-supervisor/internal/domain/alarm"
)

// toProtoEntries converts alarm entries to {"alarms": [...]}.
func toProtoEntries(entries []domain.Entry) (*structpb.Struct, error) {
	alarms := make([]any, 0, len(entries))

	for i := range entries {
		e := &entries[i]

		alarms = append(alarms, map[string]any{
			"slot":           e.Slot,
			"index":          e.State.Index,
			"code":           e.Definition.Code,
			"name":           e.Definition.Name,
			"kind":           e.Definition.Kind.String(),
			"priority":       e.Definition.Priority.String(),
			"latched":        e.Definition.Latched,
			"auto_clear":     e.Definition.AutoClear,
			"source":         e.Definition.Source,
			"op":             e.Definition.Operator.String(),
			"threshold":      e.Definition.Threshold,
			"active":         e.State.Active,
			"acknowledged":   e.State.Acknowledged,
			"condition_true": e.State.ConditionTrue,
			"pending":        e.State.Pending,
			"clearing":       e.State.Clearing,
			"first_true_at":  e.State.FirstTrueAt,
			"last_true_at":   e.State.LastTrueAt,
			"activated_at":   e.State.ActivatedAt,
		})
	}

	return structpb.NewStruct(map[string]any{"alarms": alarms})
}

// toProtoSummary converts the supervisory overview.
func toProtoSummary(s domain.Summary) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"any_active":      s.AnyActive,
		"any_trip":        s.AnyTrip,
		"tracked":         s.Tracked,
		"capacity":        s.Capacity,
		"untracked":       s.Untracked,
		"active_warnings": s.ActiveWarnings,
		"active_trips":    s.ActiveTrips,
		"unacknowledged":  s.Unacknowledged,
	})
}
