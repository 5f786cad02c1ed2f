package agent

import (
	"context"
	"time"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/conflict"
	"github.com/burnwise/coordinator/pkg/models"
	"github.com/burnwise/coordinator/pkg/optimizer"
)

// OptimizeStage implements Stage D (spec §4.7): gathers the candidate burn
// set for the target date (already attached to state.PeerBurns by the
// coordinator), runs the simulated-annealing search (C6), writes the
// resulting Schedule, and records the conflict deltas it implies.
type OptimizeStage struct{}

func (OptimizeStage) Name() string { return "optimize" }

func (OptimizeStage) Budget(cfg *config.QueueConfig) time.Duration { return cfg.StageDBudget }

func (OptimizeStage) Run(ctx context.Context, deps Deps, state *PipelineState) error {
	req := &state.Request
	date := req.BurnDate.Format("2006-01-02")

	burns := make([]optimizer.Burn, 0, len(state.PeerBurns)+1)
	burns = append(burns, optimizer.Burn{ID: req.ID, Window: req.Window, Priority: req.Priority, Acres: req.Acres})
	for _, p := range state.PeerBurns {
		burns = append(burns, optimizer.Burn{ID: p.Request.ID, Window: p.Request.Window, Priority: p.Request.Priority, Acres: p.Request.Acres})
	}

	scorer := conflictScorer(req, state, deps.Conflict, date)
	sched := optimizer.Run(ctx, date, burns, scorer, deps.Optimizer)
	if sched.Termination == models.TerminationAborted {
		emit(deps, req.ID, models.EventMetric, models.NewMetricEvent("optimizer_iterations", float64(sched.Iterations)))
		return &bwerr.CancelledError{Stage: "optimize"}
	}

	conflicts, err := conflict.Detect(date, candidatesFromSchedule(req, state, sched), deps.Conflict)
	if err != nil {
		return err
	}

	state.Schedule = sched
	state.Conflicts = conflicts
	req.ScheduleDate = date
	if start, ok := sched.Assignments[req.ID]; ok {
		req.AssignedStart = &start
	}
	req.State = models.StateScheduled
	req.UpdatedAt = time.Now()
	return nil
}

// conflictScorer builds an optimizer.ConflictScorer that re-scores the
// current assignment against every peer burn using each burn's already-
// computed DispersionResult — only the assigned start hour varies between
// iterations, so the expensive C4 computation never re-runs inside the
// search loop.
func conflictScorer(req *models.BurnRequest, state *PipelineState, cfg *config.ConflictConfig, date string) optimizer.ConflictScorer {
	return func(assignments map[string]float64) float64 {
		candidates := candidatesFromAssignments(req, state, assignments)
		records, err := conflict.Detect(date, candidates, cfg)
		if err != nil || len(records) == 0 {
			return 0
		}
		var sum float64
		for _, r := range records {
			sum += r.Score
		}
		return clamp01(sum / float64(len(records)))
	}
}

func candidatesFromAssignments(req *models.BurnRequest, state *PipelineState, assignments map[string]float64) []conflict.Candidate {
	candidates := make([]conflict.Candidate, 0, len(state.PeerBurns)+1)
	candidates = append(candidates, conflict.Candidate{Request: *req, Dispersion: state.Dispersion, StartHour: assignments[req.ID]})
	for _, p := range state.PeerBurns {
		candidates = append(candidates, conflict.Candidate{Request: p.Request, Dispersion: p.Dispersion, StartHour: assignments[p.Request.ID]})
	}
	return candidates
}

func candidatesFromSchedule(req *models.BurnRequest, state *PipelineState, sched models.Schedule) []conflict.Candidate {
	return candidatesFromAssignments(req, state, sched.Assignments)
}
