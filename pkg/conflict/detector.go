package conflict

import (
	"math"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/models"
)

// Candidate is one scheduled burn input to Detect: its request (for
// centroid/acreage/window), dispersion result (for footprint/PM2.5), and
// assigned start hour for the target date.
type Candidate struct {
	Request    models.BurnRequest
	Dispersion models.DispersionResult
	StartHour  float64
}

// Detect runs the full C5 algorithm (spec §4.5) over candidates scheduled on
// the same date and returns every pairwise ConflictRecord. Returns
// *bwerr.CapacityError without processing anything if len(candidates)
// exceeds cfg.MaxBurnsPerDate.
func Detect(date string, candidates []Candidate, cfg *config.ConflictConfig) ([]models.ConflictRecord, error) {
	if len(candidates) > cfg.MaxBurnsPerDate {
		return nil, &bwerr.CapacityError{Date: date, Limit: cfg.MaxBurnsPerDate, Got: len(candidates)}
	}

	// Widen the grid cells to the largest pair reach so the 3x3 neighborhood
	// covers every pair within radiusA+radiusB+slack.
	cellKm := cfg.GridCellKm
	for _, c := range candidates {
		if reach := (2*c.Dispersion.RadiusM + cfg.ProximitySlackM) / 1000; reach > cellKm {
			cellKm = reach
		}
	}
	g := newGrid(cellKm)
	centroids := make([]models.LatLon, len(candidates))
	for i, c := range candidates {
		centroids[i] = c.Request.Field.Centroid()
		g.insert(i, centroids[i])
	}

	seen := make(map[[2]int]bool)
	var records []models.ConflictRecord

	for i, a := range candidates {
		radiusA := a.Dispersion.RadiusM
		for _, j := range g.candidates(centroids[i]) {
			if j <= i {
				continue
			}
			b := candidates[j]
			pairKey := [2]int{i, j}
			if seen[pairKey] {
				continue
			}
			seen[pairKey] = true

			distM := haversineMeters(centroids[i], centroids[j])
			radiusB := b.Dispersion.RadiusM
			if distM > radiusA+radiusB+cfg.ProximitySlackM {
				continue
			}

			timeOverlap := temporalOverlapHours(a, b)
			peakPM25 := plumeOverlapPeak(a, b, centroids[i], centroids[j])

			if timeOverlap <= 0 && peakPM25 <= 0 {
				continue
			}

			score := severityScore(distM, radiusA+radiusB+cfg.ProximitySlackM, timeOverlap, peakPM25)
			kind := classifyKind(distM, radiusA, radiusB, timeOverlap)

			overlapM := math.Max(0, radiusA+radiusB-distM)
			rec := models.NewConflictRecord(a.Request.ID, b.Request.ID, kind, score, overlapM, timeOverlap, peakPM25)
			records = append(records, rec)
		}
	}
	return records, nil
}

// temporalOverlapHours implements spec §4.5 step 2.
func temporalOverlapHours(a, b Candidate) float64 {
	aStart, aEnd := a.StartHour, a.StartHour+a.Request.DurationHours()
	bStart, bEnd := b.StartHour, b.StartHour+b.Request.DurationHours()
	overlap := math.Min(aEnd, bEnd) - math.Max(aStart, bStart)
	if overlap < 0 {
		return 0
	}
	return overlap
}

// plumeOverlapPeak implements spec §4.5 step 3: sample points on the line
// connecting the two centroids, summing each burn's contribution at that
// point (approximated here from each burn's own headline concentration
// profile, since the full 2-D field is not retained past dispersion.Compute).
func plumeOverlapPeak(a, b Candidate, ca, cb models.LatLon) float64 {
	const samples = 9
	distM := haversineMeters(ca, cb)
	if distM <= 0 {
		return math.Max(interpolatePM25(a.Dispersion, 0), interpolatePM25(b.Dispersion, 0))
	}

	var peak float64
	for i := 0; i <= samples; i++ {
		frac := float64(i) / float64(samples)
		distFromA := frac * distM
		distFromB := (1 - frac) * distM
		combined := interpolatePM25(a.Dispersion, distFromA) + interpolatePM25(b.Dispersion, distFromB)
		if combined > peak {
			peak = combined
		}
	}
	return peak
}

// interpolatePM25 linearly interpolates between a dispersion result's
// reference-distance samples (1/5/10/25 km) for a sample point at distM
// meters from the burn's centroid, returning 0 beyond 25 km or past the
// burn's own effective radius.
func interpolatePM25(d models.DispersionResult, distM float64) float64 {
	if distM > d.RadiusM || distM > 25000 {
		return 0
	}
	points := []struct {
		distM float64
		pm25  float64
	}{
		{0, d.PM25At1km},
		{1000, d.PM25At1km},
		{5000, d.PM25At5km},
		{10000, d.PM25At10km},
		{25000, d.PM25At25km},
	}
	for i := 1; i < len(points); i++ {
		if distM <= points[i].distM {
			lo, hi := points[i-1], points[i]
			if hi.distM == lo.distM {
				return hi.pm25
			}
			frac := (distM - lo.distM) / (hi.distM - lo.distM)
			return lo.pm25 + frac*(hi.pm25-lo.pm25)
		}
	}
	return 0
}

// severityScore implements spec §4.5 step 4.
func severityScore(distM, maxRelevantDistM, timeOverlapH, peakPM25 float64) float64 {
	proximityNorm := 1 - clamp01(distM/maxRelevantDistM)
	timeNorm := clamp01(timeOverlapH / 8.0)
	pm25Norm := clamp01(peakPM25 / models.PM25ThresholdUgM3)
	return 0.4*proximityNorm + 0.3*timeNorm + 0.3*pm25Norm
}

func classifyKind(distM, radiusA, radiusB, timeOverlapH float64) models.ConflictKind {
	spatial := distM <= radiusA+radiusB
	temporal := timeOverlapH > 0
	switch {
	case spatial && temporal:
		return models.ConflictCombined
	case spatial:
		return models.ConflictSpatial
	default:
		return models.ConflictTemporal
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// haversineMeters is the great-circle distance between two lat/lon points.
func haversineMeters(a, b models.LatLon) float64 {
	const earthRadiusM = 6371000.0
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}
