package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnwise/coordinator/pkg/models"
)

func TestCurrentIsDeterministicForFixedClock(t *testing.T) {
	fixed := time.Date(2026, 7, 31, 14, 0, 0, 0, time.UTC)
	p := New()
	p.Now = func() time.Time { return fixed }

	a, err := p.Current(context.Background(), 36.0, -120.0)
	require.NoError(t, err)
	b, err := p.Current(context.Background(), 36.0, -120.0)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, a.Stability.Valid())
}

func TestCurrentStaysWithinEnvelope(t *testing.T) {
	p := New()
	p.Now = func() time.Time { return time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC) }
	snap, err := p.Current(context.Background(), 36.0, -120.0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, snap.TemperatureC, -40.0)
	assert.LessOrEqual(t, snap.TemperatureC, 49.0)
	assert.GreaterOrEqual(t, snap.HumidityPct, 0.0)
	assert.LessOrEqual(t, snap.HumidityPct, 100.0)
}

func TestForecastReturnsOneSnapshotPerHourInWindow(t *testing.T) {
	p := New()
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	window := models.TimeWindow{Start: 8, End: 12}

	snaps, err := p.Forecast(context.Background(), 36.0, -120.0, date, window)
	require.NoError(t, err)
	require.Len(t, snaps, 4)
	for i, s := range snaps {
		assert.Equal(t, window.Start+i, s.Timestamp.Hour())
	}
}

func TestForecastDegenerateWindowStillReturnsOneSample(t *testing.T) {
	p := New()
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	window := models.TimeWindow{Start: 10, End: 10}

	snaps, err := p.Forecast(context.Background(), 36.0, -120.0, date, window)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}
