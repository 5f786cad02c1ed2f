// Package agent implements the five pipeline stages (C7, spec §4.7): pure
// functions over a shared PipelineState, each with its own timeout budget,
// retry policy, and circuit breaker. Stages do not share mutable state
// except through the PipelineState the coordinator threads between them,
// matching the teacher's Controller/ExecutionContext split (pkg/agent/
// base_agent.go, pkg/agent/context.go) generalized from an LLM iteration
// loop to this system's fixed five-step pipeline.
package agent

import (
	"context"
	"time"

	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/events"
	"github.com/burnwise/coordinator/pkg/models"
	"github.com/burnwise/coordinator/pkg/notify"
	"github.com/burnwise/coordinator/pkg/store"
	"github.com/burnwise/coordinator/pkg/weather"
)

// ApprovalDecision is the human response to a Stage B approval_required
// pause (spec §4.7 Stage B, §8 property 2).
type ApprovalDecision string

const (
	ApprovalApprove ApprovalDecision = "approve"
	ApprovalReject  ApprovalDecision = "reject"
)

// Deps bundles the facades and shared configuration every stage depends on.
// Stages take Deps explicitly rather than reaching into a global, following
// the teacher's ExecutionContext.Services convention (pkg/agent/context.go)
// narrowed from an ent-backed service registry to this system's handful of
// facade interfaces.
type Deps struct {
	Store     store.Store
	Weather   weather.Provider
	Notifier  notify.Notifier
	Hub       *events.Hub
	Fuels     config.FuelTable
	Conflict  *config.ConflictConfig
	Optimizer *config.OptimizerConfig
	Queue     *config.QueueConfig
}

// PeerBurn is another burn scheduled or candidate for the same target date,
// carrying the fields Stage D (C6 input) and Stage E (conflict reporting)
// need without dragging in the full coordinator-side record.
type PeerBurn struct {
	Request    models.BurnRequest
	Dispersion models.DispersionResult
	StartHour  float64
}

// PipelineState threads through all five stages for a single request,
// accumulating each stage's output (spec §3, §4.7).
type PipelineState struct {
	Request    models.BurnRequest
	Weather    models.WeatherSnapshot
	Dispersion models.DispersionResult
	Conflicts  []models.ConflictRecord
	Schedule   models.Schedule

	// Approval receives the human decision for Stage B's pause. The
	// coordinator supplies this channel per request; Stage B blocks on it
	// only after emitting approval_required.
	Approval chan ApprovalDecision

	// PeerBurns is every other scheduled/candidate burn for the target
	// date, supplied by the coordinator from its in-memory per-date
	// candidate set before Stage D runs.
	PeerBurns []PeerBurn
}

// Stage is the common shape every pipeline stage implements (spec §4.7:
// "Each stage is a function (ctx, state_in) -> state_out with an explicit
// timeout budget, a retry policy, and a circuit breaker"). The coordinator
// uses Budget to size the context passed to Run and applies no retry or
// breaker of its own: a stage that retries does so inside Run through
// pkg/retry (Stage B for weather lookups, Stage E for notifier sends), and
// the breakers are decorators on the provider facades (pkg/weather,
// pkg/notify) wired in by cmd/burnwise.
type Stage interface {
	Name() string
	Budget(cfg *config.QueueConfig) time.Duration
	Run(ctx context.Context, deps Deps, state *PipelineState) error
}

// Stages returns the five pipeline stages in execution order (spec §4.7).
func Stages() []Stage {
	return []Stage{
		ValidateStage{},
		WeatherAssessStage{},
		PredictStage{},
		OptimizeStage{},
		AlertStage{},
	}
}

func emit(deps Deps, requestID string, kind models.EventKind, payload map[string]any) {
	if deps.Hub == nil {
		return
	}
	deps.Hub.Publish(requestID, kind, payload)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
