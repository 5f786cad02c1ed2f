// Command burnwise runs the agricultural-burn coordination service: the
// five-stage pipeline (C7), its bounded worker pool (C8), the broadcast
// event bus (C9), and the HTTP/WebSocket API in front of them.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/burnwise/coordinator/pkg/agent"
	"github.com/burnwise/coordinator/pkg/cache"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/coordinator"
	"github.com/burnwise/coordinator/pkg/events"
	"github.com/burnwise/coordinator/pkg/metrics"
	"github.com/burnwise/coordinator/pkg/notify"
	mocknotify "github.com/burnwise/coordinator/pkg/notify/mock"
	"github.com/burnwise/coordinator/pkg/notify/smsnotify"
	"github.com/burnwise/coordinator/pkg/store"
	"github.com/burnwise/coordinator/pkg/store/memstore"
	"github.com/burnwise/coordinator/pkg/store/pgstore"
	"github.com/burnwise/coordinator/pkg/version"
	"github.com/burnwise/coordinator/pkg/weather"
	"github.com/burnwise/coordinator/pkg/weather/httpweather"
	mockweather "github.com/burnwise/coordinator/pkg/weather/mock"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "release"))

	slog.Info("starting burnwise", "version", version.Full(), "config_dir", *configDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataStore, closeStore := buildStore(ctx, cfg)
	if closeStore != nil {
		defer closeStore()
	}

	breakers := cache.NewBreakerRegistry(cfg.Breaker)
	weatherCache, vectorCache := buildCaches(cfg)

	weatherProvider := buildWeatherProvider(cfg, weatherCache, breakers)
	notifier := buildNotifier(cfg, breakers)
	cachedStore := store.NewCachingStore(dataStore, vectorCache, cfg.Cache.VectorNearestTTL)

	hub := events.NewHub()

	deps := agent.Deps{
		Store:     cachedStore,
		Weather:   weatherProvider,
		Notifier:  notifier,
		Hub:       hub,
		Fuels:     cfg.Fuels,
		Conflict:  cfg.Conflict,
		Optimizer: cfg.Optimizer,
		Queue:     cfg.Queue,
	}

	coord := coordinator.New(cfg, deps)
	coord.Start(ctx)
	defer coord.Stop()

	stopPoller := make(chan struct{})
	go metrics.StartPoller(15*time.Second, map[string]cache.Cache{
		"weather": weatherCache,
		"vector":  vectorCache,
	}, breakers, stopPoller)
	defer close(stopPoller)
	metrics.NewQueueDepthGauge(func() float64 { return float64(coord.QueueDepth()) })
	metrics.NewEventsDroppedGauge(func() float64 { return float64(hub.Dropped()) })

	wsManager := events.NewWSManager(hub, 5*time.Second)

	router := newRouter(cfg, coord, wsManager)

	srv := &http.Server{Addr: ":" + httpPort, Handler: router}
	go func() {
		slog.Info("http server listening", "port", httpPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown", "error", err)
	}
}

// buildStore constructs the C1 facade per cfg.Mocks.UseMockStore. The
// returned close func is nil for the mock implementation.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, func()) {
	if cfg.Mocks.UseMockStore {
		return memstore.New(), nil
	}
	pg, err := pgstore.New(ctx, cfg.StoreDSN)
	if err != nil {
		log.Fatalf("failed to connect to store: %v", err)
	}
	return pg, pg.Close
}

// buildCaches returns two independent Cache instances — weather and vector
// nearest-neighbor — so a saturated weather cache can never evict a
// vector-nearest entry. RedisAddr selects the shared Redis-backed cache;
// empty selects the in-process bounded LRU.
func buildCaches(cfg *config.Config) (cache.Cache, cache.Cache) {
	if cfg.Cache.RedisAddr != "" {
		return cache.NewRedisCache(cfg.Cache.RedisAddr), cache.NewRedisCache(cfg.Cache.RedisAddr)
	}
	return cache.NewTTLCache(cfg.Cache.MaxEntries), cache.NewTTLCache(cfg.Cache.MaxEntries)
}

// buildWeatherProvider composes the real or mock Provider with the cache
// and breaker decorators (spec §4.10). Cache wraps innermost so a cache hit
// never counts against the breaker.
func buildWeatherProvider(cfg *config.Config, c cache.Cache, breakers *cache.BreakerRegistry) weather.Provider {
	var base weather.Provider
	if cfg.Mocks.UseMockWeather {
		base = mockweather.New()
	} else {
		base = httpweather.New(cfg.Providers.WeatherBaseURL, cfg.Providers.WeatherAPIKey)
	}
	cached := weather.NewCachingProvider(base, c, cfg.Cache.WeatherCurrentTTL, cfg.Cache.WeatherForecastTTL)
	return weather.NewBreakerProvider(cached, breakers, "weather_assess")
}

// buildNotifier composes the real or mock Notifier with the breaker
// decorator (spec §4.10). Notifications are never cached — every send is a
// distinct side effect.
func buildNotifier(cfg *config.Config, breakers *cache.BreakerRegistry) notify.Notifier {
	var base notify.Notifier
	if cfg.Mocks.UseMockNotifier {
		base = mocknotify.New()
	} else {
		base = smsnotify.New(cfg.Providers.SMSBaseURL, cfg.Providers.SMSAPIKey)
	}
	return notify.NewBreakerNotifier(base, breakers, "alert")
}
