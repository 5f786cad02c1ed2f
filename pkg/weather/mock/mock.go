// Package mock is the deterministic weather.Provider used when
// use_mock_weather is set (spec §6 default). It generates plausible,
// seeded snapshots rather than real observations, for the same reason the
// teacher ships mock MCP servers for its own integration tests
// (pkg/mcp/testing.go) — deterministic fixtures without a live dependency.
package mock

import (
	"context"
	"math"
	"time"

	"github.com/burnwise/coordinator/pkg/models"
	"github.com/burnwise/coordinator/pkg/weather"
)

// Provider is a deterministic weather.Provider: every call for the same
// (lat, lon, timestamp) returns the same snapshot, derived from a simple
// diurnal/seasonal model rather than random sampling, so tests that depend
// on it never flake.
type Provider struct {
	// BaseTempC is the mean annual temperature at the simulated location.
	BaseTempC float64
	// BaseWindMS is the mean wind speed.
	BaseWindMS float64
	// Now lets tests pin "current time" instead of depending on the wall clock.
	Now func() time.Time
}

// New returns a Provider with representative Central Valley defaults.
func New() *Provider {
	return &Provider{BaseTempC: 18, BaseWindMS: 3.5, Now: time.Now}
}

func (p *Provider) Current(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	return p.snapshotAt(lat, lon, p.Now()), nil
}

func (p *Provider) Forecast(ctx context.Context, lat, lon float64, date time.Time, window models.TimeWindow) ([]models.WeatherSnapshot, error) {
	start := window.Start
	end := window.End
	if end <= start {
		end = start + 1
	}
	out := make([]models.WeatherSnapshot, 0, end-start)
	for h := start; h < end; h++ {
		ts := time.Date(date.Year(), date.Month(), date.Day(), h, 0, 0, 0, date.Location())
		out = append(out, p.snapshotAt(lat, lon, ts))
	}
	return out, nil
}

func (p *Provider) snapshotAt(lat, lon float64, ts time.Time) models.WeatherSnapshot {
	hour := float64(ts.Hour()) + float64(ts.Minute())/60
	dayFrac := float64(ts.YearDay()) / 365.25

	diurnal := math.Sin((hour - 6) / 24 * 2 * math.Pi)
	seasonal := math.Sin((dayFrac - 0.25) * 2 * math.Pi)

	temp := p.BaseTempC + 8*diurnal + 10*seasonal
	wind := math.Abs(p.BaseWindMS + 1.5*math.Sin(hour/24*2*math.Pi+1))
	windDir := math.Mod(180+45*math.Sin(dayFrac*2*math.Pi), 360)
	humidity := clamp(55-20*diurnal, 5, 100)
	precip := clamp(20+15*seasonal, 0, 100)
	visibility := clamp(20-8*math.Max(0, seasonal), 0.5, 25)

	stability := weather.ClassifyStability(wind, precip, hour)

	snap := models.WeatherSnapshot{
		Lat:           lat,
		Lon:           lon,
		Timestamp:     ts,
		TemperatureC:  temp,
		HumidityPct:   humidity,
		WindSpeedMS:   wind,
		WindDirDeg:    windDir,
		PrecipProbPct: precip,
		VisibilityKm:  visibility,
		Stability:     stability,
	}
	snap.ClampToEnvelope()
	snap.Vector = snap.Fingerprint()
	return snap
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
