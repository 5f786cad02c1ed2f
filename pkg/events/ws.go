package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/burnwise/coordinator/pkg/models"
)

// wsClientMessage is the JSON structure for client -> server WebSocket
// messages, matching the teacher's ClientMessage shape with request_id and
// kinds replacing channel/last_event_id.
type wsClientMessage struct {
	Action    string   `json:"action"` // "subscribe", "unsubscribe", "ping"
	RequestID string   `json:"request_id,omitempty"`
	Kinds     []string `json:"kinds,omitempty"`
	LastSeq   int      `json:"last_seq,omitempty"`
}

// WSManager upgrades HTTP connections to WebSocket and relays Hub events to
// them. One coordinator process runs one WSManager over one Hub.
type WSManager struct {
	hub          *Hub
	writeTimeout time.Duration
}

// NewWSManager constructs a WSManager over hub. writeTimeout bounds how
// long a single event write may block a connection's pump goroutine.
func NewWSManager(hub *Hub, writeTimeout time.Duration) *WSManager {
	return &WSManager{hub: hub, writeTimeout: writeTimeout}
}

// HandleConnection manages one WebSocket client's lifecycle: it reads
// subscribe/unsubscribe/ping messages until the connection closes, blocking
// the caller for the connection's lifetime. Call it from the HTTP handler
// that performs the WebSocket upgrade.
func (m *WSManager) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sub *Subscription
	defer func() {
		if sub != nil {
			sub.Close()
		}
	}()

	for {
		_, data, err := conn.Read(connCtx)
		if err != nil {
			return
		}

		var msg wsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("events: invalid websocket message", "error", err)
			continue
		}

		switch msg.Action {
		case "subscribe":
			if sub != nil {
				sub.Close()
			}
			kinds := make([]models.EventKind, len(msg.Kinds))
			for i, k := range msg.Kinds {
				kinds[i] = models.EventKind(k)
			}
			sub = m.hub.Subscribe(msg.RequestID, kinds, msg.LastSeq)
			m.sendJSON(connCtx, conn, map[string]string{"type": "subscription.confirmed", "request_id": msg.RequestID})
			go m.pump(connCtx, conn, sub)

		case "unsubscribe":
			if sub != nil {
				sub.Close()
				sub = nil
			}

		case "ping":
			m.sendJSON(connCtx, conn, map[string]string{"type": "pong"})
		}
	}
}

// pump relays sub's events to conn until the subscription closes or the
// write fails.
func (m *WSManager) pump(ctx context.Context, conn *websocket.Conn, sub *Subscription) {
	for {
		select {
		case evt, ok := <-sub.Events:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if err := m.write(ctx, conn, data); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *WSManager) sendJSON(ctx context.Context, conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = m.write(ctx, conn, data)
}

func (m *WSManager) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, m.writeTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
