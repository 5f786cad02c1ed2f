package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnwise/coordinator/pkg/models"
)

func TestPublishAssignsIncreasingSequence(t *testing.T) {
	h := NewHub()
	e1 := h.Publish("req-1", models.EventStageStarted, nil)
	e2 := h.Publish("req-1", models.EventStageCompleted, nil)
	other := h.Publish("req-2", models.EventStageStarted, nil)

	assert.Equal(t, 1, e1.Seq)
	assert.Equal(t, 2, e2.Seq)
	assert.Equal(t, 1, other.Seq, "sequence numbers are scoped per request")
}

func TestSubscribeReceivesLiveEvents(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("req-1", nil, 0)
	defer sub.Close()

	h.Publish("req-1", models.EventStageStarted, map[string]any{"stage": "validate"})

	select {
	case evt := <-sub.Events:
		assert.Equal(t, models.EventStageStarted, evt.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeFiltersByRequestID(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("req-1", nil, 0)
	defer sub.Close()

	h.Publish("req-2", models.EventStageStarted, nil)

	select {
	case evt := <-sub.Events:
		t.Fatalf("unexpected event for unrelated request: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeFiltersByKind(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("req-1", []models.EventKind{models.EventError}, 0)
	defer sub.Close()

	h.Publish("req-1", models.EventStageStarted, nil)
	h.Publish("req-1", models.EventError, map[string]any{"kind": "validation"})

	select {
	case evt := <-sub.Events:
		assert.Equal(t, models.EventError, evt.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error event")
	}
}

func TestSubscribeReplaysHistory(t *testing.T) {
	h := NewHub()
	h.Publish("req-1", models.EventStageStarted, nil)
	h.Publish("req-1", models.EventStageCompleted, nil)

	sub := h.Subscribe("req-1", nil, 0)
	defer sub.Close()

	var got []models.AgentEvent
	for i := 0; i < 2; i++ {
		select {
		case evt := <-sub.Events:
			got = append(got, evt)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for replayed events")
		}
	}
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Seq)
	assert.Equal(t, 2, got[1].Seq)
}

func TestSubscribeReplayFromSkipsEarlierEvents(t *testing.T) {
	h := NewHub()
	h.Publish("req-1", models.EventStageStarted, nil)
	h.Publish("req-1", models.EventStageCompleted, nil)

	sub := h.Subscribe("req-1", nil, 1)
	defer sub.Close()

	select {
	case evt := <-sub.Events:
		assert.Equal(t, 2, evt.Seq)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case evt := <-sub.Events:
		t.Fatalf("unexpected extra event: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDroppedIncrementsWhenSubscriberBufferFull(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("req-1", nil, 0)
	defer sub.Close()

	for i := 0; i < defaultSubscriberBuffer+10; i++ {
		h.Publish("req-1", models.EventMetric, nil)
	}

	assert.Greater(t, h.Dropped(), int64(0))
}

func TestSubscriptionCloseUnregisters(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("req-1", nil, 0)
	assert.Equal(t, 1, h.subscriberCount())

	sub.Close()
	assert.Equal(t, 0, h.subscriberCount())

	_, ok := <-sub.Events
	assert.False(t, ok, "channel should be closed")
}
