package notify

import (
	"context"

	"github.com/burnwise/coordinator/pkg/cache"
)

// BreakerNotifier decorates a Notifier with the per-stage/provider circuit
// breaker (C10, spec §4.10), scoped to Stage E ("alert").
type BreakerNotifier struct {
	next     Notifier
	breakers *cache.BreakerRegistry
	stage    string
}

// NewBreakerNotifier wraps next with breakers, scoped to stage (normally
// "alert", Stage E's name).
func NewBreakerNotifier(next Notifier, breakers *cache.BreakerRegistry, stage string) *BreakerNotifier {
	return &BreakerNotifier{next: next, breakers: breakers, stage: stage}
}

func (n *BreakerNotifier) Send(ctx context.Context, channel Channel, recipient string, payload Payload) (Receipt, error) {
	var receipt Receipt
	err := n.breakers.Execute(cache.Key(n.stage, string(channel)), func() error {
		got, err := n.next.Send(ctx, channel, recipient, payload)
		if err != nil {
			return err
		}
		receipt = got
		return nil
	})
	return receipt, err
}
