// Package httpweather is the real weather.Provider, used when
// use_mock_weather is unset. It speaks a generic JSON REST weather API (the
// kind every commercial weather provider exposes) over net/http — the
// retrieved pack has no generic REST client library wired anywhere (the
// teacher talks MCP over its SDK transport, and the NWWS plugin speaks XMPP,
// neither of which fits a JSON-over-HTTPS weather API), so this follows the
// teacher's own classify-then-wrap error convention
// (pkg/mcp/recovery.go's ClassifyError) on top of the standard library
// client rather than reaching for an unrelated transport dependency.
package httpweather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/models"
	"github.com/burnwise/coordinator/pkg/weather"
)

// Provider talks to a REST weather API over HTTP.
type Provider struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// New returns a Provider pointed at baseURL, authenticating with apiKey.
func New(baseURL, apiKey string) *Provider {
	return &Provider{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     slog.Default(),
	}
}

type currentResponse struct {
	TemperatureC  float64 `json:"temperature_c"`
	HumidityPct   float64 `json:"humidity_pct"`
	WindSpeedMS   float64 `json:"wind_speed_ms"`
	WindDirDeg    float64 `json:"wind_dir_deg"`
	PrecipProbPct float64 `json:"precip_prob_pct"`
	VisibilityKm  float64 `json:"visibility_km"`
}

type forecastResponse struct {
	Hourly []struct {
		TimestampUnix int64   `json:"ts"`
		currentResponse
	} `json:"hourly"`
}

func (p *Provider) Current(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	var resp currentResponse
	if err := p.getJSON(ctx, "/v1/current", url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}, &resp); err != nil {
		return models.WeatherSnapshot{}, err
	}
	now := time.Now().UTC()
	snap := snapshotFromResponse(lat, lon, now, resp)
	return snap, nil
}

func (p *Provider) Forecast(ctx context.Context, lat, lon float64, date time.Time, window models.TimeWindow) ([]models.WeatherSnapshot, error) {
	var resp forecastResponse
	if err := p.getJSON(ctx, "/v1/forecast", url.Values{
		"lat":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":  {strconv.FormatFloat(lon, 'f', -1, 64)},
		"date": {date.Format("2006-01-02")},
	}, &resp); err != nil {
		return nil, err
	}

	start := window.Start
	end := window.End
	if end <= start {
		end = start + 1
	}

	out := make([]models.WeatherSnapshot, 0, len(resp.Hourly))
	for _, h := range resp.Hourly {
		ts := time.Unix(h.TimestampUnix, 0).UTC()
		hour := ts.Hour()
		if hour < start || hour >= end {
			continue
		}
		out = append(out, snapshotFromResponse(lat, lon, ts, h.currentResponse))
	}
	return out, nil
}

func snapshotFromResponse(lat, lon float64, ts time.Time, r currentResponse) models.WeatherSnapshot {
	hour := float64(ts.Hour())
	stability := weather.ClassifyStability(r.WindSpeedMS, r.PrecipProbPct, hour)
	snap := models.WeatherSnapshot{
		Lat:           lat,
		Lon:           lon,
		Timestamp:     ts,
		TemperatureC:  r.TemperatureC,
		HumidityPct:   r.HumidityPct,
		WindSpeedMS:   r.WindSpeedMS,
		WindDirDeg:    r.WindDirDeg,
		PrecipProbPct: r.PrecipProbPct,
		VisibilityKm:  r.VisibilityKm,
		Stability:     stability,
	}
	snap.ClampToEnvelope()
	snap.Vector = snap.Fingerprint()
	return snap
}

func (p *Provider) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := p.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpweather: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return &bwerr.UnavailableError{Provider: "weather", Cause: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &bwerr.UnavailableError{Provider: "weather", Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &bwerr.AuthError{Provider: "weather", Cause: fmt.Errorf("status %d", status)}
	case status == http.StatusTooManyRequests:
		return &bwerr.RateLimitedError{RetryAfter: 0}
	case status >= 500:
		return &bwerr.UnavailableError{Provider: "weather", Cause: fmt.Errorf("status %d", status)}
	default:
		return &bwerr.UnavailableError{Provider: "weather", Cause: fmt.Errorf("unexpected status %d", status)}
	}
}
