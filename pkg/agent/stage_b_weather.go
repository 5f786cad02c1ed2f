package agent

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/models"
	"github.com/burnwise/coordinator/pkg/retry"
	"github.com/burnwise/coordinator/pkg/store"
)

const weatherHistoryTable = "weather_history"
const weatherNeighborK = 5

// WeatherAssessStage implements Stage B (spec §4.7): fetches current and
// forecast conditions via C2, fingerprints the snapshot, estimates
// confidence via nearest-neighbor over historical weather, and pauses for
// human approval when conditions are unsafe for burning.
type WeatherAssessStage struct{}

func (WeatherAssessStage) Name() string { return "weather_assess" }

func (WeatherAssessStage) Budget(cfg *config.QueueConfig) time.Duration { return cfg.StageBBudget }

func (s WeatherAssessStage) Run(ctx context.Context, deps Deps, state *PipelineState) error {
	req := &state.Request
	centroid := req.Field.Centroid()

	policy := retry.DefaultPolicy(deps.Queue.StageBBudget)
	var snap models.WeatherSnapshot
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		got, err := deps.Weather.Current(ctx, centroid.Lat, centroid.Lon)
		if err != nil {
			return err
		}
		snap = got
		return nil
	})
	if err != nil {
		return err
	}

	// The forecast call is informational context for the confidence
	// estimate, not itself on the critical path — Current already
	// succeeded, so a forecast failure does not fail the stage.
	_, _ = deps.Weather.Forecast(ctx, centroid.Lat, centroid.Lon, req.BurnDate, req.Window)

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	fp := snap.Fingerprint()

	confidence := weatherConfidence(ctx, deps.Store, fp)
	emit(deps, req.ID, models.EventStageThinking,
		models.NewThinkingEvent(confidence, "nearest-neighbor confidence over historical weather fingerprints"))

	if err := deps.Store.Put(ctx, weatherHistoryTable, weatherRow(snap)); err != nil {
		return &bwerr.UnavailableError{Provider: "store", Cause: err}
	}

	state.Weather = snap
	req.WeatherSnapshotID = snap.ID

	if snap.UnsafeForBurning() {
		emit(deps, req.ID, models.EventApprovalRequired, models.NewApprovalRequiredEvent(map[string]any{
			"wind_speed_ms":   snap.WindSpeedMS,
			"humidity_pct":    snap.HumidityPct,
			"visibility_km":   snap.VisibilityKm,
			"precip_prob_pct": snap.PrecipProbPct,
		}))

		select {
		case decision := <-state.Approval:
			if decision == ApprovalReject {
				return &bwerr.ValidationError{Fields: map[string]string{
					"weather": "rejected on human review of unsafe conditions",
				}}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	req.State = models.StateWeatherAssessed
	req.UpdatedAt = time.Now()
	return nil
}

// weatherConfidence averages the cosine similarity of fp against its
// k-nearest historical neighbors, 0 if the table is empty or unreachable.
func weatherConfidence(ctx context.Context, st store.Store, fp []float64) float64 {
	neighbors, err := st.Nearest(ctx, weatherHistoryTable, "vector", fp, weatherNeighborK)
	if err != nil || len(neighbors) == 0 {
		return 0
	}
	var sum float64
	var n int
	for _, row := range neighbors {
		vec, ok := row.Vectors["vector"]
		if !ok {
			continue
		}
		sim, err := store.CosineSimilarity(weatherHistoryTable, "vector", fp, vec)
		if err != nil {
			continue
		}
		sum += sim
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp01(sum / float64(n))
}

func weatherRow(snap models.WeatherSnapshot) store.Row {
	return store.Row{
		ID: snap.ID,
		Scalars: map[string]any{
			"lat":             snap.Lat,
			"lon":             snap.Lon,
			"timestamp":       snap.Timestamp,
			"temperature_c":   snap.TemperatureC,
			"humidity_pct":    snap.HumidityPct,
			"wind_speed_ms":   snap.WindSpeedMS,
			"wind_dir_deg":    snap.WindDirDeg,
			"precip_prob_pct": snap.PrecipProbPct,
			"visibility_km":   snap.VisibilityKm,
			"stability":       string(snap.Stability),
		},
		Vectors: map[string][]float64{"vector": snap.Vector},
	}
}
