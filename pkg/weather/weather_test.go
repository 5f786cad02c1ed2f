package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/cache"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/models"
)

type countingProvider struct {
	calls int
	snap  models.WeatherSnapshot
	err   error
}

func (c *countingProvider) Current(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	c.calls++
	return c.snap, c.err
}

func (c *countingProvider) Forecast(ctx context.Context, lat, lon float64, date time.Time, window models.TimeWindow) ([]models.WeatherSnapshot, error) {
	c.calls++
	return []models.WeatherSnapshot{c.snap}, c.err
}

func TestCachingProviderServesFromCacheOnSecondCall(t *testing.T) {
	next := &countingProvider{snap: models.WeatherSnapshot{ID: "s1", TemperatureC: 20}}
	c := cache.NewTTLCache(10)
	p := NewCachingProvider(next, c, time.Minute, time.Minute)

	snap1, err := p.Current(context.Background(), 36.0, -120.0)
	require.NoError(t, err)
	snap2, err := p.Current(context.Background(), 36.0, -120.0)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls, "second call should be served from cache")
	assert.Equal(t, snap1, snap2)
}

func TestCachingProviderDistinctLocationsMiss(t *testing.T) {
	next := &countingProvider{snap: models.WeatherSnapshot{ID: "s1"}}
	c := cache.NewTTLCache(10)
	p := NewCachingProvider(next, c, time.Minute, time.Minute)

	_, _ = p.Current(context.Background(), 36.0, -120.0)
	_, _ = p.Current(context.Background(), 37.0, -121.0)

	assert.Equal(t, 2, next.calls)
}

func TestCachingProviderPropagatesError(t *testing.T) {
	boom := errors.New("provider down")
	next := &countingProvider{err: boom}
	c := cache.NewTTLCache(10)
	p := NewCachingProvider(next, c, time.Minute, time.Minute)

	_, err := p.Current(context.Background(), 36.0, -120.0)
	assert.ErrorIs(t, err, boom)
}

func TestBreakerProviderFailsFastOnceOpen(t *testing.T) {
	boom := &bwerr.UnavailableError{Provider: "weather"}
	next := &countingProvider{err: boom}
	breakers := cache.NewBreakerRegistry(&config.BreakerConfig{FailureThreshold: 1, CooldownPeriod: time.Minute, HalfOpenProbes: 1})
	p := NewBreakerProvider(next, breakers, "weather_assess")

	_, err := p.Current(context.Background(), 36.0, -120.0)
	require.Error(t, err)

	callsBefore := next.calls
	_, err = p.Current(context.Background(), 36.0, -120.0)
	require.Error(t, err)
	kind, ok := bwerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, bwerr.KindUnavailable, kind)
	assert.Equal(t, callsBefore, next.calls, "breaker should short-circuit without calling next")
}

func TestClassifyStabilityNighttimeCalm(t *testing.T) {
	assert.Equal(t, models.StabilityF, ClassifyStability(1.0, 10, 2))
}

func TestClassifyStabilityDaytimeClearLightWind(t *testing.T) {
	assert.Equal(t, models.StabilityA, ClassifyStability(1.0, 10, 13))
}

func TestClassifyStabilityCloudyDaytime(t *testing.T) {
	assert.Equal(t, models.StabilityD, ClassifyStability(3.0, 80, 13))
}
