// Package notify is the notifier facade (C3, spec §4.3). It delivers alerts
// over SMS or the broadcast bus and tracks each send through a
// queued -> sent -> delivered|failed state machine, the same shape the
// teacher's MCP client tracks a tool call's lifecycle through.
package notify

import (
	"context"
	"time"
)

// Channel identifies a delivery transport.
type Channel string

const (
	ChannelSMS       Channel = "sms"
	ChannelBroadcast Channel = "broadcast"
)

// DeliveryState is the lifecycle of a single send.
type DeliveryState string

const (
	StateQueued    DeliveryState = "queued"
	StateSent      DeliveryState = "sent"
	StateDelivered DeliveryState = "delivered"
	StateFailed    DeliveryState = "failed"
)

// Terminal reports whether s ends the delivery's lifecycle.
func (s DeliveryState) Terminal() bool {
	return s == StateDelivered || s == StateFailed
}

// Receipt is returned by Send and updated in place by the provider as the
// delivery progresses through its state machine.
type Receipt struct {
	ProviderID string
	Channel    Channel
	Recipient  string
	State      DeliveryState
	QueuedAt   time.Time
	UpdatedAt  time.Time
	Error      string
}

// Payload is the content handed to a provider for delivery.
type Payload struct {
	Subject string
	Body    string
	// Tags lets callers attach structured context (e.g. request id, conflict
	// id) that a provider may use for deduplication or logging without the
	// core depending on provider-specific fields.
	Tags map[string]string
}

// Notifier is the C3 facade. Send fails with *bwerr.UnavailableError
// (transient) or *bwerr.AuthError; the core retries transient failures with
// capped backoff (spec §4.3) and, on permanent failure, emits
// AgentEvent(error) without failing the owning pipeline stage.
type Notifier interface {
	Send(ctx context.Context, channel Channel, recipient string, payload Payload) (Receipt, error)
}
