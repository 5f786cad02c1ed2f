package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/burnwise/coordinator/pkg/models"
)

// Initialize loads .env from configDir (teacher's cmd/tarsy/main.go pattern),
// then reads the recognized environment variables from spec §6, overlays an
// optional deploy/config/fuels.yaml, and returns a validated Config. A
// missing .env or fuels.yaml is not an error — Initialize logs nothing here
// (callers log, matching the teacher's main.go which treats a missing .env
// as a warning, not a fatal) and proceeds with defaults.
func Initialize(configDir string) (*Config, error) {
	envPath := filepath.Join(configDir, ".env")
	_ = godotenv.Load(envPath) // best-effort; missing file is fine

	cfg := &Config{
		configDir: configDir,
		Queue:     DefaultQueueConfig(),
		Optimizer: DefaultOptimizerConfig(),
		Breaker:   DefaultBreakerConfig(),
		Cache:     DefaultCacheConfig(),
		Conflict:  DefaultConflictConfig(),
		Fuels:     DefaultFuelTable(),
	}

	applyEnv(cfg)

	fuelsPath := filepath.Join(configDir, "fuels.yaml")
	if data, err := os.ReadFile(fuelsPath); err == nil {
		var overrides map[string]float64
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", fuelsPath, err)
		}
		for fuel, factor := range overrides {
			cfg.Fuels[models.FuelType(fuel)] = factor
		}
	}

	cfg.Validate()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Providers.WeatherBaseURL = envString("WEATHER_BASE_URL", "https://api.weather.example")
	cfg.Providers.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	cfg.Providers.SMSBaseURL = envString("SMS_BASE_URL", "https://api.sms.example")
	cfg.Providers.SMSAPIKey = os.Getenv("SMS_API_KEY")
	cfg.StoreDSN = os.Getenv("STORE_DSN")

	cfg.Mocks.UseMockStore = envBool("USE_MOCK_STORE", true)
	cfg.Mocks.UseMockWeather = envBool("USE_MOCK_WEATHER", true)
	cfg.Mocks.UseMockNotifier = envBool("USE_MOCK_NOTIFIER", true)

	if v := envInt("WORKER_POOL_SIZE", 0); v > 0 {
		cfg.Queue.WorkerCount = v
	}
	if v := envInt("QUEUE_CAPACITY", 0); v > 0 {
		cfg.Queue.QueueCapacity = v
	}
	if v := envDuration("CACHE_TTL_WEATHER", 0); v > 0 {
		cfg.Cache.WeatherCurrentTTL = v
	}
	cfg.Cache.RedisAddr = os.Getenv("REDIS_ADDR")
	if v := envInt("BREAKER_THRESHOLD", 0); v > 0 {
		cfg.Breaker.FailureThreshold = v
	}
	if v := envDuration("BREAKER_COOLDOWN", 0); v > 0 {
		cfg.Breaker.CooldownPeriod = v
	}
	if v := envInt("OPTIMIZER_MAX_ITERATIONS", 0); v > 0 {
		cfg.Optimizer.MaxIterations = v
	}
	if v, ok := os.LookupEnv("OPTIMIZER_SEED"); ok {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Optimizer.Seed = &seed
		}
	}
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
