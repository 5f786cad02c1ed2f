package config

import "time"

// BreakerConfig controls the per-stage, per-provider circuit breaker (C10,
// spec §4.10).
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	CooldownPeriod   time.Duration `yaml:"cooldown_period"`
	HalfOpenProbes   uint32        `yaml:"half_open_probes"`
}

// DefaultBreakerConfig returns the built-in defaults (spec §4.10: k=5, t=30s).
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		FailureThreshold: 5,
		CooldownPeriod:   30 * time.Second,
		HalfOpenProbes:   1,
	}
}

func (b *BreakerConfig) Validate() {
	d := DefaultBreakerConfig()
	if b.FailureThreshold <= 0 {
		b.FailureThreshold = d.FailureThreshold
	}
	if b.CooldownPeriod <= 0 {
		b.CooldownPeriod = d.CooldownPeriod
	}
	if b.HalfOpenProbes == 0 {
		b.HalfOpenProbes = d.HalfOpenProbes
	}
}

// CacheConfig controls the bounded LRU+TTL cache (C10, spec §4.10).
type CacheConfig struct {
	MaxEntries      int           `yaml:"max_entries"`
	WeatherCurrentTTL time.Duration `yaml:"weather_current_ttl"`
	WeatherForecastTTL time.Duration `yaml:"weather_forecast_ttl"`
	VectorNearestTTL  time.Duration `yaml:"vector_nearest_ttl"`
	// RedisAddr, when non-empty, switches the cache implementation from the
	// in-process LRU to a Redis-backed TTL cache sharing state across
	// coordinator replicas. Empty means use_mock_store-style in-memory only.
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

// DefaultCacheConfig returns the built-in defaults (spec §4.10: weather
// current 10m, forecast 1h, vector nearest 5m).
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MaxEntries:         10000,
		WeatherCurrentTTL:  10 * time.Minute,
		WeatherForecastTTL: time.Hour,
		VectorNearestTTL:   5 * time.Minute,
	}
}

func (c *CacheConfig) Validate() {
	d := DefaultCacheConfig()
	if c.MaxEntries <= 0 {
		c.MaxEntries = d.MaxEntries
	}
	if c.WeatherCurrentTTL <= 0 {
		c.WeatherCurrentTTL = d.WeatherCurrentTTL
	}
	if c.WeatherForecastTTL <= 0 {
		c.WeatherForecastTTL = d.WeatherForecastTTL
	}
	if c.VectorNearestTTL <= 0 {
		c.VectorNearestTTL = d.VectorNearestTTL
	}
}
