package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareField(centerLat, centerLon, halfSideDeg float64) Polygon {
	return Polygon{Ring: []LatLon{
		{Lat: centerLat - halfSideDeg, Lon: centerLon - halfSideDeg},
		{Lat: centerLat - halfSideDeg, Lon: centerLon + halfSideDeg},
		{Lat: centerLat + halfSideDeg, Lon: centerLon + halfSideDeg},
		{Lat: centerLat + halfSideDeg, Lon: centerLon - halfSideDeg},
		{Lat: centerLat - halfSideDeg, Lon: centerLon - halfSideDeg},
	}}
}

func TestPolygonCentroid(t *testing.T) {
	p := squareField(36.0, -120.0, 0.01)
	c := p.Centroid()
	assert.InDelta(t, 36.0, c.Lat, 1e-9)
	assert.InDelta(t, -120.0, c.Lon, 1e-9)
}

func TestPolygonClosed(t *testing.T) {
	p := squareField(36.0, -120.0, 0.01)
	assert.True(t, p.Closed())

	open := Polygon{Ring: p.Ring[:len(p.Ring)-1]}
	assert.False(t, open.Closed())
}

func TestPolygonSelfIntersects(t *testing.T) {
	simple := squareField(36.0, -120.0, 0.01)
	assert.False(t, simple.SelfIntersects())

	bowtie := Polygon{Ring: []LatLon{
		{Lat: 0, Lon: 0},
		{Lat: 1, Lon: 1},
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 0},
		{Lat: 0, Lon: 0},
	}}
	assert.True(t, bowtie.SelfIntersects())
}

func TestPolygonApproxAreaHectares(t *testing.T) {
	// A roughly 1km x 1km square is about 100 hectares.
	p := squareField(36.0, -120.0, 0.0045)
	area := p.ApproxAreaHectares()
	assert.InDelta(t, 100, area, 20)
}

func TestBurnRequestDurationHours(t *testing.T) {
	tests := []struct {
		acres float64
		want  float64
	}{
		{acres: 10, want: 1},
		{acres: 100, want: 2},
		{acres: 1000, want: 8},
	}
	for _, tt := range tests {
		req := &BurnRequest{Acres: tt.acres}
		assert.Equal(t, tt.want, req.DurationHours())
	}
}

func validBurnRequest() BurnRequest {
	field := squareField(36.0, -120.0, 0.0045) // ~81 ha, ~200 acres
	return BurnRequest{
		FarmID:    "farm-1",
		Field:     field,
		Acres:     field.ApproxAreaHectares() * 2.47105,
		Fuel:      FuelWheatStubble,
		Intensity: IntensityModerate,
		BurnDate:  time.Now().Add(48 * time.Hour),
		Window:    TimeWindow{Start: 8, End: 16},
		Priority:  5,
		Contact:   ContactSMS,
	}
}

func TestBurnRequestValidate_Valid(t *testing.T) {
	req := validBurnRequest()
	require.NoError(t, req.Validate())
}

func TestBurnRequestValidate_MissingFarmID(t *testing.T) {
	req := validBurnRequest()
	req.FarmID = ""
	assert.Error(t, req.Validate())
}

func TestBurnRequestValidate_BadFuel(t *testing.T) {
	req := validBurnRequest()
	req.Fuel = "unobtainium"
	assert.Error(t, req.Validate())
}

func TestBurnRequestValidate_BadWindow(t *testing.T) {
	req := validBurnRequest()
	req.Window = TimeWindow{Start: 10, End: 5}
	assert.Error(t, req.Validate())
}

func TestBurnRequestValidate_AcreageMismatch(t *testing.T) {
	req := validBurnRequest()
	req.Acres = req.Acres * 10 // way outside ±20% tolerance
	assert.Error(t, req.Validate())
}

func TestBurnRequestValidate_PriorityOutOfRange(t *testing.T) {
	req := validBurnRequest()
	req.Priority = 11
	assert.Error(t, req.Validate())
}

func TestTimeWindowContains(t *testing.T) {
	w := TimeWindow{Start: 8, End: 16}
	assert.True(t, w.Contains(8))
	assert.True(t, w.Contains(15.9))
	assert.False(t, w.Contains(16))
	assert.False(t, w.Contains(7.9))
}

func TestRequestStateTerminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateRejected.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateReceived.Terminal())
	assert.False(t, StateScheduled.Terminal())
}
