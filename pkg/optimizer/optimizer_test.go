package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/models"
)

func seededConfig(seed int64) *config.OptimizerConfig {
	cfg := config.DefaultOptimizerConfig()
	cfg.Seed = &seed
	cfg.MaxIterations = 500
	return cfg
}

func sampleBurns() []Burn {
	return []Burn{
		{ID: "a", Window: models.TimeWindow{Start: 8, End: 16}, Priority: 7, Acres: 100},
		{ID: "b", Window: models.TimeWindow{Start: 9, End: 17}, Priority: 3, Acres: 50},
		{ID: "c", Window: models.TimeWindow{Start: 6, End: 12}, Priority: 9, Acres: 200},
	}
}

func TestRunEmptyBurnsReturnsEmptySchedule(t *testing.T) {
	cfg := seededConfig(1)
	sched := Run(context.Background(), "2026-08-01", nil, nil, cfg)
	assert.Empty(t, sched.Assignments)
	assert.Equal(t, "2026-08-01", sched.Date)
}

func TestRunDeterministicWithSameSeed(t *testing.T) {
	cfg := seededConfig(42)
	burns := sampleBurns()

	first := Run(context.Background(), "2026-08-01", burns, nil, cfg)
	second := Run(context.Background(), "2026-08-01", burns, nil, seededConfig(42))

	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Score, second.Score)
}

func TestRunAssignmentsRespectWindows(t *testing.T) {
	cfg := seededConfig(7)
	burns := sampleBurns()
	sched := Run(context.Background(), "2026-08-01", burns, nil, cfg)

	windows := map[string]models.TimeWindow{
		"a": burns[0].Window,
		"b": burns[1].Window,
		"c": burns[2].Window,
	}
	assert.True(t, sched.Valid(windows))
}

func TestRunRespectsContextCancellation(t *testing.T) {
	cfg := seededConfig(3)
	cfg.MaxIterations = 1_000_000
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sched := Run(ctx, "2026-08-01", sampleBurns(), nil, cfg)
	assert.Equal(t, models.TerminationAborted, sched.Termination)
}

func TestRunUsesConflictScorer(t *testing.T) {
	cfg := seededConfig(11)
	burns := sampleBurns()

	var calls int
	scorer := func(assignments map[string]float64) float64 {
		calls++
		return 0.5
	}
	sched := Run(context.Background(), "2026-08-01", burns, scorer, cfg)
	assert.Greater(t, calls, 0)
	assert.NotEmpty(t, sched.Assignments)
}

func TestRunTerminatesWithinMaxIterationsOrConvergence(t *testing.T) {
	cfg := seededConfig(99)
	start := time.Now()
	sched := Run(context.Background(), "2026-08-01", sampleBurns(), nil, cfg)
	elapsed := time.Since(start)

	require.LessOrEqual(t, sched.Iterations, cfg.MaxIterations)
	assert.Less(t, elapsed, 5*time.Second)
}
