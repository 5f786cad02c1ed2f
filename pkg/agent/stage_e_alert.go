package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/models"
	"github.com/burnwise/coordinator/pkg/notify"
	"github.com/burnwise/coordinator/pkg/retry"
)

// AlertStage implements Stage E (spec §4.7): notifies affected contacts and
// the broadcast bus of the scheduling decision and every conflict the
// request participates in. Failures are surfaced as error events but never
// fail the request — it still reaches done if Stage D succeeded (spec §7).
type AlertStage struct{}

func (AlertStage) Name() string { return "alert" }

func (AlertStage) Budget(cfg *config.QueueConfig) time.Duration { return cfg.StageEBudget }

func (AlertStage) Run(ctx context.Context, deps Deps, state *PipelineState) error {
	req := &state.Request

	body := fmt.Sprintf("burn %s scheduled for %s", req.ID, req.ScheduleDate)
	if req.AssignedStart != nil {
		body = fmt.Sprintf("%s at hour %.2f", body, *req.AssignedStart)
	}
	sendNotification(ctx, deps, req, notify.Payload{Subject: "burn scheduled", Body: body})

	for _, c := range state.Conflicts {
		if c.A != req.ID && c.B != req.ID {
			continue
		}
		cBody := fmt.Sprintf("conflict (%s, severity %s) with burn %s", c.Kind, c.Severity, otherBurn(c, req.ID))
		sendNotification(ctx, deps, req, notify.Payload{
			Subject: "burn conflict",
			Body:    cBody,
			Tags:    map[string]string{"severity": string(c.Severity), "kind": string(c.Kind)},
		})
	}

	req.State = models.StateDone
	req.UpdatedAt = time.Now()
	return nil
}

func sendNotification(ctx context.Context, deps Deps, req *models.BurnRequest, payload notify.Payload) {
	channel := notify.ChannelSMS
	if req.Contact == models.ContactBroadcast {
		channel = notify.ChannelBroadcast
	}
	var budget time.Duration
	if deps.Queue != nil {
		budget = deps.Queue.StageEBudget
	}
	err := retry.Do(ctx, retry.DefaultPolicy(budget), func(ctx context.Context) error {
		_, err := deps.Notifier.Send(ctx, channel, req.ContactHandle, payload)
		return err
	})
	if err != nil {
		emit(deps, req.ID, models.EventError, models.NewErrorEvent("notify_failed", err.Error()))
	}
}

func otherBurn(c models.ConflictRecord, id string) string {
	if c.A == id {
		return c.B
	}
	return c.A
}
