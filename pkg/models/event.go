package models

import "time"

// EventKind enumerates the AgentEvent kinds (spec §3).
type EventKind string

const (
	EventStageStarted      EventKind = "stage_started"
	EventStageThinking     EventKind = "stage_thinking"
	EventHandoff           EventKind = "handoff"
	EventStageCompleted    EventKind = "stage_completed"
	EventApprovalRequired  EventKind = "approval_required"
	EventError             EventKind = "error"
	EventMetric            EventKind = "metric"
)

// AgentEvent is a typed observation emitted by the coordinator or a stage
// (spec §3). Sequence is assigned by the events Hub per request, strictly
// increasing starting at 1, with no gaps — the testable property in spec §8.
type AgentEvent struct {
	RequestID string
	Seq       int
	Timestamp time.Time
	Kind      EventKind
	Payload   map[string]any
}

// NewThinkingEvent builds a stage_thinking payload carrying a confidence
// score and human-readable note (spec §3).
func NewThinkingEvent(confidence float64, note string) map[string]any {
	return map[string]any{"confidence": confidence, "note": note}
}

// NewHandoffEvent builds a handoff payload.
func NewHandoffEvent(from, to, reason string) map[string]any {
	return map[string]any{"from": from, "to": to, "reason": reason}
}

// NewCompletedEvent builds a stage_completed payload.
func NewCompletedEvent(result string, duration time.Duration, tools []string) map[string]any {
	return map[string]any{
		"result":      result,
		"duration_ms": duration.Milliseconds(),
		"tools":       tools,
	}
}

// NewApprovalRequiredEvent builds an approval_required payload.
func NewApprovalRequiredEvent(context map[string]any) map[string]any {
	payload := map[string]any{}
	for k, v := range context {
		payload[k] = v
	}
	return payload
}

// NewErrorEvent builds an error payload with a stable kind string and a
// human-readable message (no stack traces, per spec §7 propagation policy).
func NewErrorEvent(kind, message string) map[string]any {
	return map[string]any{"kind": kind, "message": message}
}

// NewMetricEvent builds a metric payload.
func NewMetricEvent(name string, value float64) map[string]any {
	return map[string]any{"name": name, "value": value}
}
