// Package config assembles the umbrella configuration object consumed by the
// coordinator, stages, and facades: worker pool sizing, optimizer
// parameters, breaker/cache tuning, the configurable fuel-emission table, and
// mock-mode toggles. The shape follows the teacher's pkg/config: one small
// struct per concern with a DefaultXConfig constructor, merged by a loader
// that applies operator overrides and then validates (coercing, never
// failing closed, per spec §4.6).
package config

import "time"

// QueueConfig contains coordinator queue and worker pool configuration
// (spec §4.8, §5).
type QueueConfig struct {
	WorkerCount   int           `yaml:"worker_count"`
	QueueCapacity int           `yaml:"queue_capacity"`
	StageASlack   time.Duration `yaml:"stage_a_budget"`
	StageBBudget  time.Duration `yaml:"stage_b_budget"`
	StageCBudget  time.Duration `yaml:"stage_c_budget"`
	StageDBudget  time.Duration `yaml:"stage_d_budget"`
	StageEBudget  time.Duration `yaml:"stage_e_budget"`
	// DeadlineSlack is the fractional slack added to the sum of stage
	// budgets to form the overall per-request deadline (spec §5).
	DeadlineSlack float64 `yaml:"deadline_slack"`
}

// DefaultQueueConfig returns the built-in defaults from spec §4.7/§4.8/§5.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		WorkerCount:   8,
		QueueCapacity: 100,
		StageASlack:   200 * time.Millisecond,
		StageBBudget:  25 * time.Second,
		StageCBudget:  5 * time.Second,
		StageDBudget:  30 * time.Second,
		StageEBudget:  10 * time.Second,
		DeadlineSlack: 0.2,
	}
}

// Validate coerces invalid fields to defaults in place, matching the
// "validated defaults" contract rather than rejecting construction.
func (q *QueueConfig) Validate() {
	d := DefaultQueueConfig()
	if q.WorkerCount <= 0 {
		q.WorkerCount = d.WorkerCount
	}
	if q.QueueCapacity <= 0 {
		q.QueueCapacity = d.QueueCapacity
	}
	if q.StageBBudget <= 0 {
		q.StageBBudget = d.StageBBudget
	}
	if q.StageCBudget <= 0 {
		q.StageCBudget = d.StageCBudget
	}
	if q.StageDBudget <= 0 {
		q.StageDBudget = d.StageDBudget
	}
	if q.StageEBudget <= 0 {
		q.StageEBudget = d.StageEBudget
	}
	if q.DeadlineSlack <= 0 {
		q.DeadlineSlack = d.DeadlineSlack
	}
}

// OverallDeadline sums the per-stage budgets plus the configured slack
// (spec §5).
func (q *QueueConfig) OverallDeadline() time.Duration {
	total := q.StageASlack + q.StageBBudget + q.StageCBudget + q.StageDBudget + q.StageEBudget
	return total + time.Duration(float64(total)*q.DeadlineSlack)
}
