package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeReturnsValidatedDefaultsWithNoEnvOrOverrides(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Initialize(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ConfigDir())
	assert.Equal(t, DefaultQueueConfig().WorkerCount, cfg.Queue.WorkerCount)
	assert.True(t, cfg.Mocks.UseMockStore)
	assert.True(t, cfg.Mocks.UseMockWeather)
	assert.True(t, cfg.Mocks.UseMockNotifier)
	assert.NotEmpty(t, cfg.Providers.WeatherBaseURL)
}

func TestInitializeAppliesFuelsYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	content := "wheat_stubble: 42\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fuels.yaml"), []byte(content), 0o644))

	cfg, err := Initialize(dir)
	require.NoError(t, err)
	assert.Equal(t, 42.0, cfg.Fuels.EmissionFactor("wheat_stubble"))
}

func TestInitializeRejectsMalformedFuelsYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fuels.yaml"), []byte("not: [valid: yaml"), 0o644))

	_, err := Initialize(dir)
	assert.Error(t, err)
}

func TestApplyEnvOverridesWorkerPoolSize(t *testing.T) {
	t.Setenv("WORKER_POOL_SIZE", "16")
	t.Setenv("QUEUE_CAPACITY", "250")
	t.Setenv("USE_MOCK_WEATHER", "false")

	cfg := &Config{
		Queue: DefaultQueueConfig(), Optimizer: DefaultOptimizerConfig(),
		Breaker: DefaultBreakerConfig(), Cache: DefaultCacheConfig(), Conflict: DefaultConflictConfig(),
	}
	applyEnv(cfg)

	assert.Equal(t, 16, cfg.Queue.WorkerCount)
	assert.Equal(t, 250, cfg.Queue.QueueCapacity)
	assert.False(t, cfg.Mocks.UseMockWeather)
}

func TestApplyEnvIgnoresMalformedIntAndFallsBackToDefault(t *testing.T) {
	t.Setenv("WORKER_POOL_SIZE", "not-a-number")

	cfg := &Config{
		Queue: DefaultQueueConfig(), Optimizer: DefaultOptimizerConfig(),
		Breaker: DefaultBreakerConfig(), Cache: DefaultCacheConfig(), Conflict: DefaultConflictConfig(),
	}
	before := cfg.Queue.WorkerCount
	applyEnv(cfg)
	assert.Equal(t, before, cfg.Queue.WorkerCount)
}

func TestApplyEnvParsesOptimizerSeed(t *testing.T) {
	t.Setenv("OPTIMIZER_SEED", "12345")

	cfg := &Config{
		Queue: DefaultQueueConfig(), Optimizer: DefaultOptimizerConfig(),
		Breaker: DefaultBreakerConfig(), Cache: DefaultCacheConfig(), Conflict: DefaultConflictConfig(),
	}
	applyEnv(cfg)
	require.NotNil(t, cfg.Optimizer.Seed)
	assert.Equal(t, int64(12345), *cfg.Optimizer.Seed)
}
