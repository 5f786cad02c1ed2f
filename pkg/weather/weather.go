// Package weather is the weather provider facade (C2, spec §4.2). It exposes
// current-conditions and hourly-forecast lookups behind a narrow interface so
// the agent pipeline never depends on a specific provider's wire format,
// mirroring the way the teacher hides MCP server transport behind
// pkg/mcp.Client.
package weather

import (
	"context"
	"time"

	"github.com/burnwise/coordinator/pkg/models"
)

// Provider is the weather facade. Current and Forecast fail with
// *bwerr.UnavailableError (transient), *bwerr.AuthError, or
// *bwerr.RateLimitedError — the core wraps every call in pkg/retry's
// exponential backoff up to the stage's retry budget (spec §4.2).
type Provider interface {
	// Current returns the latest snapshot for lat/lon.
	Current(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error)

	// Forecast returns hourly snapshots for lat/lon on date, filtered to
	// window's local hour range, ordered by timestamp ascending.
	Forecast(ctx context.Context, lat, lon float64, date time.Time, window models.TimeWindow) ([]models.WeatherSnapshot, error)
}
