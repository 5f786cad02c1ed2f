package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/models"
)

func squareField(lat, lon, halfDeg float64) models.Polygon {
	return models.Polygon{Ring: []models.LatLon{
		{Lat: lat - halfDeg, Lon: lon - halfDeg},
		{Lat: lat - halfDeg, Lon: lon + halfDeg},
		{Lat: lat + halfDeg, Lon: lon + halfDeg},
		{Lat: lat + halfDeg, Lon: lon - halfDeg},
		{Lat: lat - halfDeg, Lon: lon - halfDeg},
	}}
}

func validPipelineRequest() models.BurnRequest {
	return models.BurnRequest{
		FarmID:        "farm-1",
		Field:         squareField(36.0, -120.0, 0.01),
		Acres:         1000, // the 0.01-degree half-side square at lat 36 is ~991 acres
		Fuel:          models.FuelWheatStubble,
		Intensity:     models.IntensityModerate,
		BurnDate:      time.Now().Add(48 * time.Hour),
		Window:        models.TimeWindow{Start: 8, End: 16},
		Priority:      5,
		Contact:       models.ContactSMS,
		ContactHandle: "+15555550100",
	}
}

func TestValidateStageAcceptsWellFormedRequest(t *testing.T) {
	state := &PipelineState{Request: validPipelineRequest()}
	err := ValidateStage{}.Run(context.Background(), Deps{}, state)
	require.NoError(t, err)
	assert.Equal(t, models.StateValidated, state.Request.State)
}

func TestValidateStageRejectsMissingFarmID(t *testing.T) {
	req := validPipelineRequest()
	req.FarmID = ""
	state := &PipelineState{Request: req}

	err := ValidateStage{}.Run(context.Background(), Deps{}, state)
	require.Error(t, err)
	kind, ok := bwerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, bwerr.KindValidation, kind)

	var verr *bwerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "FarmID")
}

func TestValidateStageRejectsUnrecognizedFuel(t *testing.T) {
	req := validPipelineRequest()
	req.Fuel = "compost"
	state := &PipelineState{Request: req}

	err := ValidateStage{}.Run(context.Background(), Deps{}, state)
	require.Error(t, err)
	var verr *bwerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "CropType")
}

func TestValidateStageRejectsPastBurnDate(t *testing.T) {
	req := validPipelineRequest()
	req.BurnDate = time.Now().Add(-24 * time.Hour)
	state := &PipelineState{Request: req}

	err := ValidateStage{}.Run(context.Background(), Deps{}, state)
	require.Error(t, err)
	var verr *bwerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "burn_date")
}

func TestValidateStageRejectsAcreagePolygonMismatch(t *testing.T) {
	req := validPipelineRequest()
	req.Acres = 5000 // wildly inconsistent with the ~991-acre polygon
	state := &PipelineState{Request: req}

	err := ValidateStage{}.Run(context.Background(), Deps{}, state)
	require.Error(t, err)
	var verr *bwerr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "_domain")
}

func TestValidateStageBudgetUsesStageASlack(t *testing.T) {
	cfg := &config.QueueConfig{StageASlack: 123 * time.Millisecond}
	assert.Equal(t, 123*time.Millisecond, ValidateStage{}.Budget(cfg))
}
