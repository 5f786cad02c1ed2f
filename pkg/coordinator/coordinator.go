// Package coordinator implements the per-request pipeline driver (C8, spec
// §4.8): a bounded work queue, a fixed-size worker pool, per-request
// lifecycle tracking, human-approval delivery, cooperative cancellation,
// and per-target-date serialization of Stage D's optimizer run (spec §5).
// Grounded on the teacher's pkg/queue.WorkerPool/Worker split: a pool that
// owns a bounded set of goroutines draining a shared work source, each
// worker processing one unit end to end, a session/request cancel registry,
// and a graceful Stop that waits for in-flight work rather than killing it.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/burnwise/coordinator/pkg/agent"
	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/events"
	"github.com/burnwise/coordinator/pkg/metrics"
	"github.com/burnwise/coordinator/pkg/models"
	"github.com/burnwise/coordinator/pkg/store"
)

// Status is the externally visible lifecycle snapshot returned by
// Coordinator.Status (spec §6 status endpoint).
type Status struct {
	ID         string
	State      models.RequestState
	LastEvent  *models.AgentEvent
	Weather    *models.WeatherSnapshot
	Dispersion *models.DispersionResult
	Schedule   *models.Schedule
	Err        error
}

type job struct{ id string }

// record is the coordinator's private per-request bookkeeping: the
// pipeline state threaded through the five stages, the most recent event
// (for Status), the terminal error if any, and the cancel func for the
// request's currently running stage context.
type record struct {
	mu        sync.Mutex
	state     *agent.PipelineState
	lastEvent *models.AgentEvent
	err       error
	cancel    context.CancelFunc
}

// Coordinator drives the five-stage pipeline for every submitted request.
type Coordinator struct {
	cfg  *config.Config
	deps agent.Deps

	queue    chan job
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.RWMutex
	records map[string]*record

	byDateMu sync.Mutex
	byDate   map[string][]string // date -> request ids with at least a DispersionResult

	dateLocksMu sync.Mutex
	dateLocks   map[string]*sync.Mutex // serializes Stage D per target date (spec §5)
}

// New constructs a Coordinator over the given configuration and facades.
// Call Start to begin draining submitted work.
func New(cfg *config.Config, deps agent.Deps) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		deps:      deps,
		queue:     make(chan job, cfg.Queue.QueueCapacity),
		stopCh:    make(chan struct{}),
		records:   make(map[string]*record),
		byDate:    make(map[string][]string),
		dateLocks: make(map[string]*sync.Mutex),
	}
}

// Start spawns cfg.Queue.WorkerCount worker goroutines draining the queue
// (spec §5: "a bounded worker pool drains the coordinator's work queue") and
// one persister goroutine subscribed to every event the Hub carries.
func (c *Coordinator) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.runEventPersister()

	for i := 0; i < c.cfg.Queue.WorkerCount; i++ {
		c.wg.Add(1)
		go c.runWorker(ctx, i)
	}
}

// runEventPersister subscribes to the Hub for every request and every kind
// and writes each one to the append-only agent_events sink (spec §6). This
// is the single place events are persisted: stage-internal events
// (stage_thinking, approval_required, notify_failed) reach the Hub the same
// way coordinator-originated ones do (pkg/agent's free-standing emit, vs
// Coordinator.emit), so subscribing here instead of persisting from each
// emit call keeps the persisted set in lockstep with the Hub's sequence
// counter — no seq is assigned without also being written.
func (c *Coordinator) runEventPersister() {
	defer c.wg.Done()
	sub := c.deps.Hub.Subscribe("", nil, 0)
	defer sub.Close()
	for {
		select {
		case <-c.stopCh:
			return
		case evt, ok := <-sub.Events:
			if !ok {
				return
			}
			c.persistEvent(evt)
			if rec, found := c.getRecord(evt.RequestID); found {
				e := evt
				rec.mu.Lock()
				rec.lastEvent = &e
				rec.mu.Unlock()
			}
		}
	}
}

// Stop signals every worker to finish its current request and exit,
// blocking until they do (no in-flight request is abandoned mid-stage).
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// Submit enqueues req for processing and returns its assigned id.
// *bwerr.BackpressureError if the queue is at capacity (spec §4.8).
func (c *Coordinator) Submit(ctx context.Context, req models.BurnRequest) (string, error) {
	req.ID = uuid.NewString()
	now := time.Now()
	req.State = models.StateReceived
	req.CreatedAt = now
	req.UpdatedAt = now

	rec := &record{state: &agent.PipelineState{
		Request:  req,
		Approval: make(chan agent.ApprovalDecision, 1),
	}}

	c.mu.Lock()
	c.records[req.ID] = rec
	c.mu.Unlock()

	c.persist(ctx, &rec.state.Request)

	select {
	case c.queue <- job{id: req.ID}:
	default:
		c.mu.Lock()
		delete(c.records, req.ID)
		c.mu.Unlock()
		return "", &bwerr.BackpressureError{Reason: "request queue at capacity"}
	}
	metrics.RecordSubmitted()
	return req.ID, nil
}

// Status returns the current lifecycle snapshot for id, or ok=false if id
// is unknown.
func (c *Coordinator) Status(id string) (Status, bool) {
	rec, ok := c.getRecord(id)
	if !ok {
		return Status{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	st := Status{ID: id, State: rec.state.Request.State, Err: rec.err}
	if rec.lastEvent != nil {
		evt := *rec.lastEvent
		st.LastEvent = &evt
	}
	if rec.state.Request.WeatherSnapshotID != "" {
		w := rec.state.Weather
		st.Weather = &w
	}
	if rec.state.Request.DispersionID != "" {
		d := rec.state.Dispersion
		st.Dispersion = &d
	}
	if rec.state.Request.ScheduleDate != "" {
		s := rec.state.Schedule
		st.Schedule = &s
	}
	return st, true
}

// Cancel cooperatively cancels a running request (spec §4.8). Returns
// false if id is unknown or the request has no stage currently running.
func (c *Coordinator) Cancel(id string) bool {
	rec, ok := c.getRecord(id)
	if !ok {
		return false
	}
	rec.mu.Lock()
	cancel := rec.cancel
	rec.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Approve delivers a human approval decision to a request paused in Stage B
// (spec §4.7 Stage B, §8 scenario 2). Returns false if id is unknown or not
// currently awaiting a decision.
func (c *Coordinator) Approve(id string, decision agent.ApprovalDecision) bool {
	rec, ok := c.getRecord(id)
	if !ok {
		return false
	}
	select {
	case rec.state.Approval <- decision:
		return true
	default:
		return false
	}
}

// Hub exposes the broadcast bus for subscribers (HTTP/WebSocket layer).
func (c *Coordinator) Hub() *events.Hub { return c.deps.Hub }

func (c *Coordinator) getRecord(id string) (*record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[id]
	return rec, ok
}

func (c *Coordinator) runWorker(ctx context.Context, idx int) {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case j := <-c.queue:
			c.process(ctx, j.id)
		}
	}
}

// process drives a single request through every pipeline stage in order,
// enforcing the overall per-request deadline (spec §5: sum of stage
// budgets plus 20% slack), persisting state before emitting the
// corresponding event (spec §4.8 invariant), and transitioning to
// rejected/failed per the error taxonomy's propagation policy (spec §7).
func (c *Coordinator) process(parent context.Context, id string) {
	rec, ok := c.getRecord(id)
	if !ok {
		return
	}

	deadline := c.cfg.Queue.OverallDeadline()
	timeoutCtx, cancelTimeout := context.WithTimeout(parent, deadline)
	defer cancelTimeout()
	runCtx, cancelManual := context.WithCancel(timeoutCtx)
	defer cancelManual()

	rec.mu.Lock()
	rec.cancel = cancelManual
	rec.mu.Unlock()
	defer func() {
		rec.mu.Lock()
		rec.cancel = nil
		rec.mu.Unlock()
	}()

	for _, stage := range agent.Stages() {
		name := stage.Name()

		if runCtx.Err() != nil {
			c.fail(rec, &bwerr.CancelledError{Stage: name})
			return
		}

		c.emit(rec, models.EventStageStarted, map[string]any{"stage": name})
		start := time.Now()

		stageCtx, cancelStage := context.WithTimeout(runCtx, stage.Budget(c.cfg.Queue))
		var err error
		if name == "optimize" {
			err = c.runOptimize(stageCtx, rec, stage)
		} else {
			err = stage.Run(stageCtx, c.deps, rec.state)
		}
		cancelStage()

		c.persist(context.Background(), &rec.state.Request)

		if name == "predict" && err == nil {
			date := rec.state.Request.BurnDate.Format("2006-01-02")
			c.addDateCandidate(date, id)
		}

		if err != nil {
			c.fail(rec, err)
			return
		}

		elapsed := time.Since(start)
		metrics.RecordStageDuration(name, elapsed)
		c.emit(rec, models.EventStageCompleted, models.NewCompletedEvent(name, elapsed, nil))
	}

	metrics.RecordTermination(string(models.StateDone))
}

// fail records err as the request's terminal error, transitions its state
// per the error taxonomy (spec §7), persists, and emits the error event.
func (c *Coordinator) fail(rec *record, err error) {
	req := &rec.state.Request
	kind, _ := bwerr.KindOf(err)
	switch kind {
	case bwerr.KindValidation, bwerr.KindAuth, bwerr.KindNumeric:
		req.State = models.StateRejected
	default:
		req.State = models.StateFailed
	}
	req.UpdatedAt = time.Now()

	rec.mu.Lock()
	rec.err = err
	rec.mu.Unlock()

	c.persist(context.Background(), req)
	c.emit(rec, models.EventError, models.NewErrorEvent(string(kind), err.Error()))
	metrics.RecordTermination(string(req.State))

	slog.Warn("request terminated", "request_id", req.ID, "state", req.State, "error", err)
}

// runOptimize serializes Stage D per target date (spec §5: "Concurrent
// optimizations for the same target date serialize on a per-date mutex")
// and attaches the coordinator's in-memory candidate set for that date as
// PeerBurns before running the stage.
func (c *Coordinator) runOptimize(ctx context.Context, rec *record, stage agent.Stage) error {
	req := &rec.state.Request
	date := req.BurnDate.Format("2006-01-02")

	dl := c.dateLock(date)
	dl.Lock()
	defer dl.Unlock()

	rec.state.PeerBurns = c.peerBurns(date, req.ID)
	return stage.Run(ctx, c.deps, rec.state)
}

func (c *Coordinator) dateLock(date string) *sync.Mutex {
	c.dateLocksMu.Lock()
	defer c.dateLocksMu.Unlock()
	m, ok := c.dateLocks[date]
	if !ok {
		m = &sync.Mutex{}
		c.dateLocks[date] = m
	}
	return m
}

// addDateCandidate registers id as a Stage D candidate for date once its
// DispersionResult is available (i.e. Stage C has succeeded).
func (c *Coordinator) addDateCandidate(date, id string) {
	c.byDateMu.Lock()
	defer c.byDateMu.Unlock()
	for _, existing := range c.byDate[date] {
		if existing == id {
			return
		}
	}
	c.byDate[date] = append(c.byDate[date], id)
}

// peerBurns snapshots every other candidate for date, excluding excludeID
// and any burn that has since been rejected or failed.
func (c *Coordinator) peerBurns(date, excludeID string) []agent.PeerBurn {
	c.byDateMu.Lock()
	ids := append([]string(nil), c.byDate[date]...)
	c.byDateMu.Unlock()

	peers := make([]agent.PeerBurn, 0, len(ids))
	for _, pid := range ids {
		if pid == excludeID {
			continue
		}
		prec, ok := c.getRecord(pid)
		if !ok {
			continue
		}
		prec.mu.Lock()
		state := prec.state.Request.State
		if state == models.StateRejected || state == models.StateFailed {
			prec.mu.Unlock()
			continue
		}
		start := float64(prec.state.Request.Window.Start)
		if prec.state.Request.AssignedStart != nil {
			start = *prec.state.Request.AssignedStart
		}
		peers = append(peers, agent.PeerBurn{
			Request:    prec.state.Request,
			Dispersion: prec.state.Dispersion,
			StartHour:  start,
		})
		prec.mu.Unlock()
	}
	return peers
}

// emit publishes kind/payload for the request owning rec. Persistence and
// the record's lastEvent (for Status) are handled by runEventPersister,
// which observes every event the Hub carries — including the stage-internal
// ones stages emit directly, not just these coordinator-originated ones.
func (c *Coordinator) emit(rec *record, kind models.EventKind, payload map[string]any) {
	c.deps.Hub.Publish(rec.state.Request.ID, kind, payload)
}

func (c *Coordinator) persistEvent(evt models.AgentEvent) {
	row := store.Row{
		ID: fmt.Sprintf("%s-%d", evt.RequestID, evt.Seq),
		Scalars: map[string]any{
			"request_id": evt.RequestID,
			"seq":        evt.Seq,
			"ts":         evt.Timestamp,
			"kind":       string(evt.Kind),
			"payload":    evt.Payload,
		},
	}
	if err := c.deps.Store.Put(context.Background(), "agent_events", row); err != nil {
		slog.Warn("failed to persist agent event", "request_id", evt.RequestID, "seq", evt.Seq, "error", err)
	}
}

func (c *Coordinator) persist(ctx context.Context, req *models.BurnRequest) {
	if err := c.deps.Store.Put(ctx, "burn_requests", burnRequestRow(req)); err != nil {
		slog.Warn("failed to persist burn request", "request_id", req.ID, "error", err)
	}
}

func burnRequestRow(req *models.BurnRequest) store.Row {
	return store.Row{
		ID: req.ID,
		Scalars: map[string]any{
			"farm_id":      req.FarmID,
			"acres":        req.Acres,
			"fuel":         string(req.Fuel),
			"date":         req.BurnDate.Format("2006-01-02"),
			"window_start": req.Window.Start,
			"window_end":   req.Window.End,
			"priority":     req.Priority,
			"state":        string(req.State),
			"created_at":   req.CreatedAt,
			"updated_at":   req.UpdatedAt,
		},
	}
}

// QueueDepth returns the number of requests currently waiting to be
// claimed by a worker, for health/metrics surfacing.
func (c *Coordinator) QueueDepth() int { return len(c.queue) }
