package agent

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/models"
)

// submitDTO mirrors the external submit endpoint's input object (spec §6)
// for go-playground/validator structural checks — field presence, ranges,
// enum membership — run ahead of the domain-level BurnRequest.Validate
// geometry and acreage-consistency invariants (spec §3).
type submitDTO struct {
	FarmID          string  `validate:"required"`
	Acres           float64 `validate:"gt=0"`
	CropType        string  `validate:"required,oneof=wheat_stubble rice_straw corn_stalks orchard_prunings grass"`
	TimeWindowStart int     `validate:"gte=0,lte=23"`
	TimeWindowEnd   int     `validate:"gt=0,lte=24"`
	PriorityScore   float64 `validate:"gte=0,lte=10"`
	ContactMethod   string  `validate:"required,oneof=sms broadcast"`
}

var structValidate = validator.New()

// ValidateStage implements Stage A (spec §4.7): polygon well-formedness,
// acreage range, window sanity, future date, recognized fuel — no external
// I/O. Rejects with *bwerr.ValidationError carrying every failing field.
type ValidateStage struct{}

func (ValidateStage) Name() string { return "validate" }

func (ValidateStage) Budget(cfg *config.QueueConfig) time.Duration { return cfg.StageASlack }

func (ValidateStage) Run(_ context.Context, _ Deps, state *PipelineState) error {
	req := &state.Request

	dto := submitDTO{
		FarmID:          req.FarmID,
		Acres:           req.Acres,
		CropType:        string(req.Fuel),
		TimeWindowStart: req.Window.Start,
		TimeWindowEnd:   req.Window.End,
		PriorityScore:   req.Priority,
		ContactMethod:   string(req.Contact),
	}

	fields := map[string]string{}
	if err := structValidate.Struct(dto); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		} else {
			fields["_struct"] = err.Error()
		}
	}

	if err := req.Validate(); err != nil {
		fields["_domain"] = err.Error()
	}

	if !req.BurnDate.After(time.Now()) {
		fields["burn_date"] = "must be a future date"
	}

	if len(fields) > 0 {
		return &bwerr.ValidationError{Fields: fields}
	}

	req.State = models.StateValidated
	req.UpdatedAt = time.Now()
	return nil
}
