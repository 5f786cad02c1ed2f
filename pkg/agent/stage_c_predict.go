package agent

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/dispersion"
	"github.com/burnwise/coordinator/pkg/models"
	"github.com/burnwise/coordinator/pkg/store"
)

const dispersionTable = "dispersion_results"

// PredictStage implements Stage C (spec §4.7): runs the Gaussian plume
// model (C4) and stores the fingerprinted result. A non-finite model
// output is a fatal bug class — never retried — reported as
// *bwerr.NumericError (spec §4.4, §4.7).
type PredictStage struct{}

func (PredictStage) Name() string { return "predict" }

func (PredictStage) Budget(cfg *config.QueueConfig) time.Duration { return cfg.StageCBudget }

func (PredictStage) Run(ctx context.Context, deps Deps, state *PipelineState) error {
	req := &state.Request

	result := dispersion.Compute(*req, state.Weather, deps.Fuels)
	if !result.AllFinite() {
		return &bwerr.NumericError{Stage: "predict", Detail: "dispersion model produced a non-finite output"}
	}

	result.ID = uuid.NewString()
	result.RequestID = req.ID

	if err := deps.Store.Put(ctx, dispersionTable, dispersionRow(result)); err != nil {
		return &bwerr.UnavailableError{Provider: "store", Cause: err}
	}

	req.MaxRadiusMeters = result.RadiusM
	req.DispersionID = result.ID
	state.Dispersion = result
	req.State = models.StatePredicted
	req.UpdatedAt = time.Now()
	return nil
}

func dispersionRow(d models.DispersionResult) store.Row {
	return store.Row{
		ID: d.ID,
		Scalars: map[string]any{
			"request_id":      d.RequestID,
			"emission_gs":     d.EmissionGS,
			"eff_height_m":    d.EffHeightM,
			"radius_m":        d.RadiusM,
			"poor_dispersion": d.PoorDispersion,
			"out_of_envelope": d.OutOfEnvelope,
		},
		Vectors: map[string][]float64{"vector": d.Vector},
	}
}
