package dispersion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/models"
)

func baseRequest() models.BurnRequest {
	return models.BurnRequest{
		ID:        "req-1",
		Acres:     100,
		Fuel:      models.FuelWheatStubble,
		Intensity: models.IntensityModerate,
		Window:    models.TimeWindow{Start: 8, End: 16},
	}
}

func baseSnapshot() models.WeatherSnapshot {
	return models.WeatherSnapshot{
		Lat: 36.0, Lon: -120.0,
		Timestamp:    time.Now(),
		TemperatureC: 22,
		HumidityPct:  45,
		WindSpeedMS:  4,
		WindDirDeg:   270,
		VisibilityKm: 15,
		Stability:    models.StabilityD,
	}
}

func TestComputeProducesFiniteResult(t *testing.T) {
	result := Compute(baseRequest(), baseSnapshot(), config.DefaultFuelTable())
	require.True(t, result.AllFinite())
	assert.Greater(t, result.RadiusM, 0.0)
	assert.Len(t, result.Footprint, footprintSampleCount)
	assert.Greater(t, result.PM25At1km, result.PM25At25km)
}

func TestComputeCalmWindDoesNotDivideByZero(t *testing.T) {
	snap := baseSnapshot()
	snap.WindSpeedMS = 0
	result := Compute(baseRequest(), snap, config.DefaultFuelTable())
	assert.True(t, result.PoorDispersion)
	assert.True(t, result.AllFinite())
	assert.Greater(t, result.RadiusM, 0.0)
}

func TestComputeExtremeTemperatureFlagsOutOfEnvelope(t *testing.T) {
	snap := baseSnapshot()
	snap.TemperatureC = 80 // above the +49C envelope
	result := Compute(baseRequest(), snap, config.DefaultFuelTable())
	assert.True(t, result.OutOfEnvelope)
	assert.True(t, result.AllFinite())
}

func TestComputeUnknownStabilityFallsBackToWorstCase(t *testing.T) {
	snap := baseSnapshot()
	snap.Stability = "" // invalid/unset
	result := Compute(baseRequest(), snap, config.DefaultFuelTable())
	assert.True(t, result.AllFinite())
}

func TestComputeHigherIntensityIncreasesConcentration(t *testing.T) {
	fuels := config.DefaultFuelTable()
	low := baseRequest()
	low.Intensity = models.IntensityLow
	high := baseRequest()
	high.Intensity = models.IntensityHigh

	snap := baseSnapshot()
	lowResult := Compute(low, snap, fuels)
	highResult := Compute(high, snap, fuels)
	assert.Greater(t, highResult.PM25At1km, lowResult.PM25At1km)
}

func TestComputeResultVectorIsUnitLength(t *testing.T) {
	result := Compute(baseRequest(), baseSnapshot(), config.DefaultFuelTable())
	assert.Len(t, result.Vector, models.PlumeVectorDim)
	assert.InDelta(t, 1.0, models.Magnitude(result.Vector), 1e-9)
}
