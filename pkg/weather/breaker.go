package weather

import (
	"context"
	"time"

	"github.com/burnwise/coordinator/pkg/cache"
	"github.com/burnwise/coordinator/pkg/models"
)

// BreakerProvider decorates a Provider with the per-stage/provider circuit
// breaker (C10, spec §4.10): while the "weather_assess:weather" breaker is
// open, Current/Forecast fail fast with *bwerr.UnavailableError instead of
// attempting the underlying call.
type BreakerProvider struct {
	next     Provider
	breakers *cache.BreakerRegistry
	stage    string
}

// NewBreakerProvider wraps next with breakers, scoped to stage (normally
// "weather_assess", Stage B's name).
func NewBreakerProvider(next Provider, breakers *cache.BreakerRegistry, stage string) *BreakerProvider {
	return &BreakerProvider{next: next, breakers: breakers, stage: stage}
}

func (p *BreakerProvider) Current(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	var snap models.WeatherSnapshot
	err := p.breakers.Execute(cache.Key(p.stage, "weather-current"), func() error {
		got, err := p.next.Current(ctx, lat, lon)
		if err != nil {
			return err
		}
		snap = got
		return nil
	})
	return snap, err
}

func (p *BreakerProvider) Forecast(ctx context.Context, lat, lon float64, date time.Time, window models.TimeWindow) ([]models.WeatherSnapshot, error) {
	var snaps []models.WeatherSnapshot
	err := p.breakers.Execute(cache.Key(p.stage, "weather-forecast"), func() error {
		got, err := p.next.Forecast(ctx, lat, lon, date, window)
		if err != nil {
			return err
		}
		snaps = got
		return nil
	})
	return snaps, err
}
