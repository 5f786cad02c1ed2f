package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/burnwise/coordinator/pkg/cache"
	"github.com/burnwise/coordinator/pkg/models"
)

// CachingProvider decorates a Provider with the bounded TTL cache from
// C10 (spec §4.10): weather current reads cache for CurrentTTL, forecast
// reads for ForecastTTL, keyed by an (endpoint, parameters) fingerprint.
// Mirrors the teacher's decorator-over-interface style (the same Provider
// interface is satisfied by the cache wrapper, the real client, and the
// mock, so callers never distinguish them).
type CachingProvider struct {
	next        Provider
	cache       cache.Cache
	currentTTL  time.Duration
	forecastTTL time.Duration
}

// NewCachingProvider wraps next with cache, using currentTTL/forecastTTL
// for the two endpoints it fronts.
func NewCachingProvider(next Provider, c cache.Cache, currentTTL, forecastTTL time.Duration) *CachingProvider {
	return &CachingProvider{next: next, cache: c, currentTTL: currentTTL, forecastTTL: forecastTTL}
}

func (p *CachingProvider) Current(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	key := fmt.Sprintf("weather:current:%.4f:%.4f", lat, lon)
	if v, ok := p.cache.Get(ctx, key); ok {
		if snap, ok := v.(models.WeatherSnapshot); ok {
			return snap, nil
		}
	}
	snap, err := p.next.Current(ctx, lat, lon)
	if err != nil {
		return models.WeatherSnapshot{}, err
	}
	p.cache.Set(ctx, key, snap, p.currentTTL)
	return snap, nil
}

func (p *CachingProvider) Forecast(ctx context.Context, lat, lon float64, date time.Time, window models.TimeWindow) ([]models.WeatherSnapshot, error) {
	key := fmt.Sprintf("weather:forecast:%.4f:%.4f:%s:%d-%d", lat, lon, date.Format("2006-01-02"), window.Start, window.End)
	if v, ok := p.cache.Get(ctx, key); ok {
		if snaps, ok := v.([]models.WeatherSnapshot); ok {
			return snaps, nil
		}
	}
	snaps, err := p.next.Forecast(ctx, lat, lon, date, window)
	if err != nil {
		return nil, err
	}
	p.cache.Set(ctx, key, snaps, p.forecastTTL)
	return snaps, nil
}
