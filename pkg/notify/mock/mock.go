// Package mock is the deterministic notify.Notifier used when
// use_mock_notifier is set (spec §6 default). It returns synthetic delivery
// receipts that transition straight to delivered, the same
// always-succeeds-instantly shape the spec calls for in mock mode.
package mock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/burnwise/coordinator/pkg/notify"
)

// Notifier is an in-memory notify.Notifier. Every send succeeds and
// transitions synchronously to delivered; Sent records every call for
// tests that assert on what was dispatched.
type Notifier struct {
	mu      sync.Mutex
	sent    []notify.Receipt
	counter atomic.Int64
}

func New() *Notifier { return &Notifier{} }

func (n *Notifier) Send(ctx context.Context, channel notify.Channel, recipient string, payload notify.Payload) (notify.Receipt, error) {
	id := n.counter.Add(1)
	now := time.Now()
	receipt := notify.Receipt{
		ProviderID: fmt.Sprintf("mock-%d", id),
		Channel:    channel,
		Recipient:  recipient,
		State:      notify.StateDelivered,
		QueuedAt:   now,
		UpdatedAt:  now,
	}
	n.mu.Lock()
	n.sent = append(n.sent, receipt)
	n.mu.Unlock()
	return receipt, nil
}

// Sent returns every receipt issued so far, in call order.
func (n *Notifier) Sent() []notify.Receipt {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Receipt, len(n.sent))
	copy(out, n.sent)
	return out
}
