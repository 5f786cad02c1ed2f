package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnwise/coordinator/pkg/agent"
	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/events"
	"github.com/burnwise/coordinator/pkg/models"
	"github.com/burnwise/coordinator/pkg/store/memstore"
	notifymock "github.com/burnwise/coordinator/pkg/notify/mock"
	weathermock "github.com/burnwise/coordinator/pkg/weather/mock"
)

func testConfig(workerCount, queueCapacity int) *config.Config {
	cfg := &config.Config{
		Queue: &config.QueueConfig{
			WorkerCount:   workerCount,
			QueueCapacity: queueCapacity,
			StageASlack:   200 * time.Millisecond,
			StageBBudget:  time.Second,
			StageCBudget:  time.Second,
			StageDBudget:  time.Second,
			StageEBudget:  time.Second,
			DeadlineSlack: 0.2,
		},
		Optimizer: &config.OptimizerConfig{
			InitialTemperature: 50,
			FinalTemperature:   1,
			CoolingRate:        0.9,
			MaxIterations:      50,
			ReheatThreshold:    20,
			ReheatFactor:       1.5,
			ConvergenceWindow:  10,
			ConvergenceThresh:  0.001,
			SlotMinutes:        15,
			WeightPriority:     0.4,
			WeightConflict:     0.3,
			WeightTimeGap:      0.2,
			WeightEfficiency:   0.1,
		},
		Conflict: config.DefaultConflictConfig(),
		Fuels:    config.DefaultFuelTable(),
	}
	return cfg
}

func testDeps(cfg *config.Config) agent.Deps {
	return agent.Deps{
		Store:     memstore.New(),
		Weather:   weathermock.New(),
		Notifier:  notifymock.New(),
		Hub:       events.NewHub(),
		Fuels:     cfg.Fuels,
		Conflict:  cfg.Conflict,
		Optimizer: cfg.Optimizer,
		Queue:     cfg.Queue,
	}
}

func squareFieldAround(lat, lon float64) models.Polygon {
	const d = 0.01
	return models.Polygon{Ring: []models.LatLon{
		{Lat: lat - d, Lon: lon - d},
		{Lat: lat - d, Lon: lon + d},
		{Lat: lat + d, Lon: lon + d},
		{Lat: lat + d, Lon: lon - d},
		{Lat: lat - d, Lon: lon - d},
	}}
}

func validRequest(farmID string, lat, lon float64) models.BurnRequest {
	return models.BurnRequest{
		FarmID:        farmID,
		Field:         squareFieldAround(lat, lon),
		Acres:         1000, // matches the ~1000-acre squareFieldAround polygon within ±20%
		Fuel:          models.FuelWheatStubble,
		Intensity:     models.IntensityModerate,
		BurnDate:      time.Now().Add(48 * time.Hour),
		Window:        models.TimeWindow{Start: 8, End: 16},
		Priority:      5,
		Contact:       models.ContactSMS,
		ContactHandle: "+15555550100",
	}
}

func waitForTerminal(t *testing.T, c *Coordinator, id string, timeout time.Duration) Status {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		st, ok := c.Status(id)
		require.True(t, ok)
		if st.State.Terminal() {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("request %s did not reach a terminal state within %s", id, timeout)
	return Status{}
}

func TestSubmitHappyPathReachesDone(t *testing.T) {
	cfg := testConfig(2, 10)
	deps := testDeps(cfg)
	c := New(cfg, deps)
	c.Start(context.Background())
	defer c.Stop()

	id, err := c.Submit(context.Background(), validRequest("farm-1", 36.0, -120.0))
	require.NoError(t, err)

	st := waitForTerminal(t, c, id, 2*time.Second)
	assert.Equal(t, models.StateDone, st.State)
	assert.NoError(t, st.Err)
	require.NotNil(t, st.Weather)
	require.NotNil(t, st.Dispersion)
	require.NotNil(t, st.Schedule)
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	cfg := testConfig(1, 10)
	deps := testDeps(cfg)
	c := New(cfg, deps)
	c.Start(context.Background())
	defer c.Stop()

	req := validRequest("", 36.0, -120.0) // missing farm id fails both DTO and domain validation
	id, err := c.Submit(context.Background(), req)
	require.NoError(t, err)

	st := waitForTerminal(t, c, id, 2*time.Second)
	assert.Equal(t, models.StateRejected, st.State)
	require.Error(t, st.Err)
	kind, ok := bwerr.KindOf(st.Err)
	require.True(t, ok)
	assert.Equal(t, bwerr.KindValidation, kind)
}

func TestSubmitBackpressureWhenQueueFull(t *testing.T) {
	cfg := testConfig(0, 1) // zero workers: nothing drains the queue
	deps := testDeps(cfg)
	c := New(cfg, deps)
	// Intentionally do not Start the coordinator so the queue never drains.

	_, err := c.Submit(context.Background(), validRequest("farm-1", 36.0, -120.0))
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), validRequest("farm-2", 36.1, -120.1))
	require.Error(t, err)
	kind, ok := bwerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, bwerr.KindBackpressure, kind)
}

func TestApproveUnknownRequestReturnsFalse(t *testing.T) {
	cfg := testConfig(1, 10)
	deps := testDeps(cfg)
	c := New(cfg, deps)
	c.Start(context.Background())
	defer c.Stop()

	ok := c.Approve("does-not-exist", agent.ApprovalApprove)
	assert.False(t, ok)
}

func TestCancelUnknownRequestReturnsFalse(t *testing.T) {
	cfg := testConfig(1, 10)
	deps := testDeps(cfg)
	c := New(cfg, deps)
	c.Start(context.Background())
	defer c.Stop()

	assert.False(t, c.Cancel("does-not-exist"))
}

func TestCancelMidPipelineTransitionsToFailed(t *testing.T) {
	cfg := testConfig(1, 10)
	deps := testDeps(cfg)
	c := New(cfg, deps)
	c.Start(context.Background())
	defer c.Stop()

	id, err := c.Submit(context.Background(), validRequest("farm-1", 36.0, -120.0))
	require.NoError(t, err)

	// Give the worker a brief moment to pick up the job and attach a cancel func.
	require.Eventually(t, func() bool {
		return c.Cancel(id)
	}, 500*time.Millisecond, time.Millisecond)

	st := waitForTerminal(t, c, id, 2*time.Second)
	assert.Equal(t, models.StateFailed, st.State)
	require.Error(t, st.Err)
	kind, ok := bwerr.KindOf(st.Err)
	require.True(t, ok)
	assert.Equal(t, bwerr.KindCancelled, kind)
}

func TestStatusUnknownIDReturnsNotOK(t *testing.T) {
	cfg := testConfig(1, 10)
	deps := testDeps(cfg)
	c := New(cfg, deps)

	_, ok := c.Status("nope")
	assert.False(t, ok)
}

func TestQueueDepthReflectsPendingWork(t *testing.T) {
	cfg := testConfig(0, 10) // no workers: submitted jobs stay queued
	deps := testDeps(cfg)
	c := New(cfg, deps)

	assert.Equal(t, 0, c.QueueDepth())
	_, err := c.Submit(context.Background(), validRequest("farm-1", 36.0, -120.0))
	require.NoError(t, err)
	assert.Equal(t, 1, c.QueueDepth())
}

func TestHubReturnsUnderlyingBus(t *testing.T) {
	cfg := testConfig(1, 10)
	deps := testDeps(cfg)
	c := New(cfg, deps)
	assert.Same(t, deps.Hub, c.Hub())
}

func TestTwoRequestsSameDateBothReachDone(t *testing.T) {
	cfg := testConfig(2, 10)
	deps := testDeps(cfg)
	c := New(cfg, deps)
	c.Start(context.Background())
	defer c.Stop()

	date := time.Now().Add(48 * time.Hour)
	r1 := validRequest("farm-1", 36.0, -120.0)
	r1.BurnDate = date
	r2 := validRequest("farm-2", 38.0, -118.0) // far enough away to avoid a conflict
	r2.BurnDate = date

	id1, err := c.Submit(context.Background(), r1)
	require.NoError(t, err)
	id2, err := c.Submit(context.Background(), r2)
	require.NoError(t, err)

	st1 := waitForTerminal(t, c, id1, 3*time.Second)
	st2 := waitForTerminal(t, c, id2, 3*time.Second)
	assert.Equal(t, models.StateDone, st1.State)
	assert.Equal(t, models.StateDone, st2.State)
}
