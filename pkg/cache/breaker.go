package cache

import (
	"fmt"
	"sync"

	"github.com/sony/gobreaker"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/config"
)

// BreakerRegistry lazily constructs and caches one gobreaker.CircuitBreaker
// per (stage, provider) name, implementing C10's per-stage/provider breaker
// (spec §4.10): opens after FailureThreshold consecutive failures, probes
// once after CooldownPeriod, closes on success. Grounded on
// jordigilh-kubernaut's circuit-breaker-manager construction
// (test/integration/notification/suite_test.go), the only gobreaker usage
// anywhere in the retrieved pack.
type BreakerRegistry struct {
	cfg *config.BreakerConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewBreakerRegistry returns a registry that builds breakers from cfg.
func NewBreakerRegistry(cfg *config.BreakerConfig) *BreakerRegistry {
	return &BreakerRegistry{cfg: cfg, breakers: make(map[string]*gobreaker.CircuitBreaker[any])}
}

func (r *BreakerRegistry) breakerFor(name string) *gobreaker.CircuitBreaker[any] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	threshold := uint32(r.cfg.FailureThreshold)
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: r.cfg.HalfOpenProbes,
		Timeout:     r.cfg.CooldownPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
	r.breakers[name] = cb
	return cb
}

// Execute runs fn through the named breaker. While open, fn never runs and
// Execute returns *bwerr.UnavailableError immediately (spec §4.10: "While
// open, callers receive ErrUnavailable immediately").
func (r *BreakerRegistry) Execute(name string, fn func() error) error {
	cb := r.breakerFor(name)
	_, err := cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &bwerr.UnavailableError{Provider: name, Cause: err}
	}
	return err
}

// State reports the current state of the named breaker ("closed" if it has
// never been constructed), for health/status surfacing.
func (r *BreakerRegistry) State(name string) string {
	r.mu.Lock()
	cb, ok := r.breakers[name]
	r.mu.Unlock()
	if !ok {
		return "closed"
	}
	return cb.State().String()
}

// Names returns every breaker name constructed so far, for metrics polling.
func (r *BreakerRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	return names
}

// key builds the (stage, provider) breaker name used consistently by every
// caller, e.g. "weather_assess:weather-provider".
func key(stage, provider string) string {
	return fmt.Sprintf("%s:%s", stage, provider)
}

// Key exposes the naming convention for callers outside this package.
func Key(stage, provider string) string { return key(stage, provider) }
