// Package events implements the coordination substrate's broadcast bus (C9,
// spec §4.9): a typed publish/subscribe hub with a per-request replay
// window, so a stage pipeline run can be observed live and late subscribers
// can still catch up on what they missed.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/burnwise/coordinator/pkg/models"
)

// ReplayWindow is the number of most recent events retained per request for
// late subscribers to catch up on (spec §4.9).
const ReplayWindow = 200

const defaultSubscriberBuffer = 64

// Hub is a typed publish/subscribe event bus, one per coordinator process.
// Delivery is best-effort: a subscriber whose channel is full has the event
// dropped rather than blocking the publisher, and Dropped reports the
// running count for metrics export.
//
// Unlike the teacher's ConnectionManager, which fans events out across pods
// via PostgreSQL LISTEN/NOTIFY, a Hub lives entirely in one process — a
// single coordinator owns a run's pipeline end to end, so there is no
// cross-pod distribution problem to solve.
type Hub struct {
	mu      sync.Mutex
	seq     map[string]int
	history map[string][]models.AgentEvent
	subs    map[string]*subscriber
	nextID  int
	dropped int64
}

type subscriber struct {
	id        string
	requestID string // "" subscribes to every request
	kinds     map[models.EventKind]bool
	ch        chan models.AgentEvent
}

// Subscription is a live handle returned by Subscribe. The caller ranges
// over Events until Close closes it.
type Subscription struct {
	Events <-chan models.AgentEvent
	cancel func()
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.cancel()
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		seq:     make(map[string]int),
		history: make(map[string][]models.AgentEvent),
		subs:    make(map[string]*subscriber),
	}
}

// Publish assigns the next sequence number for requestID, records the event
// in the replay window, and delivers it to every matching subscriber.
// Delivery and sequencing happen under the same lock so that events for a
// single requestID are always observed by subscribers in publish order.
func (h *Hub) Publish(requestID string, kind models.EventKind, payload map[string]any) models.AgentEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq[requestID]++
	evt := models.AgentEvent{
		RequestID: requestID,
		Seq:       h.seq[requestID],
		Timestamp: time.Now(),
		Kind:      kind,
		Payload:   payload,
	}

	hist := append(h.history[requestID], evt)
	if len(hist) > ReplayWindow {
		hist = hist[len(hist)-ReplayWindow:]
	}
	h.history[requestID] = hist

	for _, sub := range h.subs {
		if !sub.matches(requestID, kind) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			h.dropped++
		}
	}
	return evt
}

func (s *subscriber) matches(requestID string, kind models.EventKind) bool {
	if s.requestID != "" && s.requestID != requestID {
		return false
	}
	if len(s.kinds) > 0 && !s.kinds[kind] {
		return false
	}
	return true
}

// Subscribe registers a subscriber for requestID (empty string matches
// every request) restricted to kinds (empty matches every kind), replays
// buffered events for requestID with Seq > replayFrom, then returns a live
// Subscription for everything published afterward. Pass replayFrom 0 to
// receive the whole retained window.
func (h *Hub) Subscribe(requestID string, kinds []models.EventKind, replayFrom int) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := fmt.Sprintf("sub-%d", h.nextID)

	kindSet := make(map[models.EventKind]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}

	sub := &subscriber{
		id:        id,
		requestID: requestID,
		kinds:     kindSet,
		ch:        make(chan models.AgentEvent, defaultSubscriberBuffer),
	}
	h.subs[id] = sub

	for _, evt := range h.history[requestID] {
		if evt.Seq <= replayFrom || !sub.matches(requestID, evt.Kind) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			h.dropped++
		}
	}

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return &Subscription{Events: sub.ch, cancel: cancel}
}

// Dropped returns the running count of events dropped because a
// subscriber's buffer was full (spec §4.9's "dropped" metric).
func (h *Hub) Dropped() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// subscriberCount returns the number of currently registered subscribers.
// Used by tests to poll instead of sleeping, matching the teacher's
// unexported subscriberCount helper.
func (h *Hub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
