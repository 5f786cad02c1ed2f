// Package optimizer implements the simulated-annealing schedule optimizer
// (C6, spec §4.6): a seeded search over per-burn start-time assignments on a
// single target date, maximizing a weighted objective of priority
// satisfaction, conflict penalty, time-preference gap, and an efficiency
// bonus.
package optimizer

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/models"
)

// ConflictScorer computes the severity-weighted conflict penalty for a
// candidate assignment. The optimizer depends on this function rather than
// pkg/conflict directly so a run can be tested against a synthetic scorer
// without invoking the full dispersion-backed detector.
type ConflictScorer func(assignments map[string]float64) float64

// Burn is one optimizer input: a burn's id, scheduling window, declared
// priority, and acreage. The objective does not use Acres.
type Burn struct {
	ID       string
	Window   models.TimeWindow
	Priority float64 // spec §3, 0-10
	Acres    float64
}

// Run executes the simulated-annealing search described in spec §4.6 and
// returns the best Schedule found. If cfg.Seed is set, two Run calls with
// identical burns and cfg produce an identical result (spec §4.6
// "Determinism").
func Run(ctx context.Context, date string, burns []Burn, scorer ConflictScorer, cfg *config.OptimizerConfig) models.Schedule {
	if len(burns) == 0 {
		return models.Schedule{
			Date:        date,
			Assignments: map[string]float64{},
			Score:       0,
			Iterations:  0,
			Termination: models.TerminationConverged,
			CreatedAt:   time.Now(),
		}
	}

	rng := newRNG(cfg.Seed)

	current := initialAssignment(burns, rng)
	currentScore := objective(current, burns, scorer, cfg)

	best := cloneAssignment(current)
	bestScore := currentScore

	sched := models.Schedule{Date: date, CreatedAt: time.Now()}

	temperature := cfg.InitialTemperature
	iterSinceImprovement := 0
	recentScores := make([]float64, 0, cfg.ConvergenceWindow)
	reason := models.TerminationMaxIter

	for k := 0; k < cfg.MaxIterations; k++ {
		select {
		case <-ctx.Done():
			reason = models.TerminationAborted
			sched.Iterations = k
			return finalize(sched, best, bestScore, reason)
		default:
		}

		candidate := neighbor(current, burns, rng, cfg.SlotMinutes)
		candidateScore := objective(candidate, burns, scorer, cfg)

		if accept(currentScore, candidateScore, temperature, rng) {
			current = candidate
			currentScore = candidateScore
		}

		if currentScore > bestScore {
			best = cloneAssignment(current)
			bestScore = currentScore
			iterSinceImprovement = 0
		} else {
			iterSinceImprovement++
		}

		sched.History = append(sched.History, models.ScoreSample{Iteration: k, Temperature: temperature, Score: currentScore})

		if iterSinceImprovement >= cfg.ReheatThreshold {
			temperature = minFloat(temperature*cfg.ReheatFactor, cfg.InitialTemperature)
			sched.Reheats = append(sched.Reheats, models.ReheatEvent{Iteration: k, NewTemperature: temperature})
			iterSinceImprovement = 0
			recentScores = recentScores[:0]
		} else {
			temperature = maxFloat(cfg.FinalTemperature, temperature*cfg.CoolingRate)
		}

		recentScores = append(recentScores, currentScore)
		if len(recentScores) > cfg.ConvergenceWindow {
			recentScores = recentScores[1:]
		}
		if len(recentScores) == cfg.ConvergenceWindow && relativeImprovement(recentScores) < cfg.ConvergenceThresh {
			reason = models.TerminationConverged
			sched.Iterations = k + 1
			return finalize(sched, best, bestScore, reason)
		}
	}

	sched.Iterations = cfg.MaxIterations
	return finalize(sched, best, bestScore, reason)
}

func finalize(sched models.Schedule, best map[string]float64, bestScore float64, reason models.TerminationReason) models.Schedule {
	sched.Assignments = best
	sched.Score = bestScore
	sched.Termination = reason
	return sched
}

func newRNG(seed *int64) *rand.Rand {
	if seed != nil {
		s := uint64(*seed)
		return rand.New(rand.NewPCG(s, s^0x9E3779B97F4A7C15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func initialAssignment(burns []Burn, rng *rand.Rand) map[string]float64 {
	out := make(map[string]float64, len(burns))
	for _, b := range burns {
		out[b.ID] = randomSlot(b.Window, rng)
	}
	return out
}

func cloneAssignment(a map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func randomSlot(w models.TimeWindow, rng *rand.Rand) float64 {
	span := w.End - w.Start
	if span <= 0 {
		return float64(w.Start)
	}
	return float64(w.Start) + rng.Float64()*float64(span)
}

// neighbor implements spec §4.6's move set: with probability 1/2, shift one
// burn by one slot within its window; otherwise swap the start slots of two
// burns whose windows overlap.
func neighbor(current map[string]float64, burns []Burn, rng *rand.Rand, slotMinutes int) map[string]float64 {
	next := cloneAssignment(current)
	if len(burns) == 0 {
		return next
	}
	slotHours := float64(slotMinutes) / 60.0

	if rng.Float64() < 0.5 || len(burns) < 2 {
		b := burns[rng.IntN(len(burns))]
		delta := slotHours
		if rng.Float64() < 0.5 {
			delta = -slotHours
		}
		shifted := next[b.ID] + delta
		if shifted < float64(b.Window.Start) {
			shifted = float64(b.Window.Start)
		}
		// The window is a half-open [start, end) range (spec §3), so the
		// last valid slot is one slot short of end, never end itself.
		maxSlot := float64(b.Window.End) - slotHours
		if maxSlot < float64(b.Window.Start) {
			maxSlot = float64(b.Window.Start)
		}
		if shifted > maxSlot {
			shifted = maxSlot
		}
		next[b.ID] = shifted
		return next
	}

	a := burns[rng.IntN(len(burns))]
	b := burns[rng.IntN(len(burns))]
	if a.ID == b.ID || !windowsOverlap(a.Window, b.Window) {
		return next
	}
	next[a.ID], next[b.ID] = next[b.ID], next[a.ID]
	if !a.Window.Contains(next[a.ID]) || !b.Window.Contains(next[b.ID]) {
		return current // swap would violate a window; reject the move
	}
	return next
}

func windowsOverlap(a, b models.TimeWindow) bool {
	return a.Start < b.End && b.Start < a.End
}

// accept implements spec §4.6's acceptance rule.
func accept(oldScore, newScore, temperature float64, rng *rand.Rand) bool {
	if newScore >= oldScore {
		return true
	}
	if temperature <= 0 {
		return false
	}
	p := math.Exp((newScore - oldScore) / temperature)
	return rng.Float64() < p
}

// relativeImprovement is the fractional change between the window's first
// and last recorded score, used for the convergence termination condition.
func relativeImprovement(scores []float64) float64 {
	if len(scores) < 2 {
		return 1
	}
	first, last := scores[0], scores[len(scores)-1]
	denom := absFloat(first)
	if denom == 0 {
		denom = 1
	}
	return absFloat(last-first) / denom
}

// objective implements spec §4.6's weighted objective J.
func objective(assignments map[string]float64, burns []Burn, scorer ConflictScorer, cfg *config.OptimizerConfig) float64 {
	prioritySat := prioritySatisfaction(assignments, burns)
	conflictPenalty := 0.0
	if scorer != nil {
		conflictPenalty = clamp01(scorer(assignments))
	}
	timeGap := timePreferenceGap(assignments, burns)
	efficiency := efficiencyBonus(burns)

	return cfg.WeightPriority*prioritySat -
		cfg.WeightConflict*conflictPenalty -
		cfg.WeightTimeGap*timeGap +
		cfg.WeightEfficiency*efficiency
}

// prioritySatisfaction rewards assigning higher-priority burns closer to the
// center of their preferred window (a proxy for "got their preferred slot"
// absent a separate preferred-time input).
func prioritySatisfaction(assignments map[string]float64, burns []Burn) float64 {
	if len(burns) == 0 {
		return 0
	}
	var weighted, totalPriority float64
	for _, b := range burns {
		mid := (float64(b.Window.Start) + float64(b.Window.End)) / 2
		span := float64(b.Window.End - b.Window.Start)
		if span <= 0 {
			span = 1
		}
		dist := absFloat(assignments[b.ID]-mid) / (span / 2)
		satisfaction := 1 - clamp01(dist)
		priority := b.Priority
		if priority <= 0 {
			priority = 0.1
		}
		weighted += priority * satisfaction
		totalPriority += priority
	}
	if totalPriority == 0 {
		return 0
	}
	return weighted / totalPriority
}

// timePreferenceGap penalizes assignments far from each burn's window
// midpoint, normalized to [0, 1].
func timePreferenceGap(assignments map[string]float64, burns []Burn) float64 {
	if len(burns) == 0 {
		return 0
	}
	var total float64
	for _, b := range burns {
		mid := (float64(b.Window.Start) + float64(b.Window.End)) / 2
		span := float64(b.Window.End - b.Window.Start)
		if span <= 0 {
			span = 1
		}
		total += clamp01(absFloat(assignments[b.ID]-mid) / (span / 2))
	}
	return total / float64(len(burns))
}

// efficiencyBonus rewards larger batches of burns sharing the date as a
// throughput proxy: the burn count divided by 20, capped at 1. Burn sizes
// are not considered.
func efficiencyBonus(burns []Burn) float64 {
	if len(burns) == 0 {
		return 0
	}
	return clamp01(float64(len(burns)) / 20.0)
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

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
