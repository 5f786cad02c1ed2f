package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnwise/coordinator/pkg/models"
	"github.com/burnwise/coordinator/pkg/notify"
	notifymock "github.com/burnwise/coordinator/pkg/notify/mock"
)

func TestAlertStageSendsScheduleNotificationAndReachesDone(t *testing.T) {
	notifier := notifymock.New()
	deps := Deps{Notifier: notifier}

	req := validPipelineRequest()
	start := 9.5
	req.ScheduleDate = "2026-08-01"
	req.AssignedStart = &start
	state := &PipelineState{Request: req}

	err := AlertStage{}.Run(context.Background(), deps, state)
	require.NoError(t, err)
	assert.Equal(t, models.StateDone, state.Request.State)

	sent := notifier.Sent()
	require.Len(t, sent, 1)
}

func TestAlertStageSendsOneNotificationPerParticipatingConflict(t *testing.T) {
	notifier := notifymock.New()
	deps := Deps{Notifier: notifier}

	req := validPipelineRequest()
	req.ID = "burn-a"
	state := &PipelineState{
		Request: req,
		Conflicts: []models.ConflictRecord{
			{A: "burn-a", B: "burn-b", Kind: models.ConflictSpatial, Severity: models.SeverityHigh, Score: 0.7},
			{A: "burn-c", B: "burn-d", Kind: models.ConflictSpatial, Severity: models.SeverityLow, Score: 0.1},
		},
	}

	err := AlertStage{}.Run(context.Background(), deps, state)
	require.NoError(t, err)

	// One notification for the schedule plus one for the conflict that
	// names burn-a; the unrelated burn-c/burn-d conflict is skipped.
	assert.Len(t, notifier.Sent(), 2)
}

func TestAlertStageSurvivesNotifierFailure(t *testing.T) {
	deps := Deps{Notifier: failingNotifier{}}

	req := validPipelineRequest()
	state := &PipelineState{Request: req}

	err := AlertStage{}.Run(context.Background(), deps, state)
	require.NoError(t, err)
	assert.Equal(t, models.StateDone, state.Request.State)
}

type failingNotifier struct{}

func (failingNotifier) Send(ctx context.Context, channel notify.Channel, recipient string, payload notify.Payload) (notify.Receipt, error) {
	return notify.Receipt{}, errors.New("sms gateway unreachable")
}
