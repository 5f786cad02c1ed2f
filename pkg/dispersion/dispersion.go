// Package dispersion implements the Gaussian plume smoke dispersion model
// (C4, spec §4.4): emission rate, Briggs plume rise, Pasquill-Gifford
// dispersion coefficients, ground-level concentration, and effective
// downwind radius.
package dispersion

import (
	"math"

	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/models"
)

const (
	// windFloorMS is the minimum wind speed used in the concentration
	// formula's denominator, avoiding a division singularity at calm wind
	// (spec §4.4 edge case).
	windFloorMS = 0.5

	acresToHectares = 0.404685642

	// footprintSampleCount is the number of bearings sampled for the
	// footprint polygon (spec §4.4 outputs).
	footprintSampleCount = 16

	// maxSearchRadiusM bounds the bisection search for the effective radius.
	maxSearchRadiusM = 50_000
	minSearchRadiusM = 1
)

// Compute runs the full C4 pipeline for a single burn against a single
// weather snapshot and returns its DispersionResult.
func Compute(req models.BurnRequest, w models.WeatherSnapshot, fuels config.FuelTable) models.DispersionResult {
	outOfEnvelope := w.ClampToEnvelope()

	u := w.WindSpeedMS
	poorDispersion := u < windFloorMS
	if u < windFloorMS {
		u = windFloorMS
	}

	q := emissionRateGS(req, fuels)
	h := effectivePlumeHeight(q, u)

	class := w.Stability
	if !class.Valid() {
		class = worstCaseClass
	}

	sigmaYRef := sigmaY(class, 1000)
	sigmaZRef := sigmaZ(class, 1000)

	result := models.DispersionResult{
		RequestID:      req.ID,
		EmissionGS:     q,
		EffHeightM:     h,
		SigmaYRefM:     sigmaYRef,
		SigmaZRefM:     sigmaZRef,
		PoorDispersion: poorDispersion,
		OutOfEnvelope:  outOfEnvelope,
	}

	result.PM25At1km = concentration(q, u, h, class, 1000, 0)
	result.PM25At5km = concentration(q, u, h, class, 5000, 0)
	result.PM25At10km = concentration(q, u, h, class, 10000, 0)
	result.PM25At25km = concentration(q, u, h, class, 25000, 0)

	if !result.AllFinite() {
		class = worstCaseClass
		result.SigmaYRefM = sigmaY(class, 1000)
		result.SigmaZRefM = sigmaZ(class, 1000)
		result.PM25At1km = concentration(q, u, h, class, 1000, 0)
		result.PM25At5km = concentration(q, u, h, class, 5000, 0)
		result.PM25At10km = concentration(q, u, h, class, 10000, 0)
		result.PM25At25km = concentration(q, u, h, class, 25000, 0)
	}

	result.RadiusM = effectiveRadius(q, u, h, class)
	result.Footprint = footprint(q, u, h, class, w.WindDirDeg, result.RadiusM)
	result.Vector = result.Fingerprint()
	return result
}

// emissionRateGS computes Q (spec §4.4 step 1): acreage (converted to
// hectares) x fuel emission factor x intensity factor / burn duration.
func emissionRateGS(req models.BurnRequest, fuels config.FuelTable) float64 {
	hectares := req.Acres * acresToHectares
	factor := fuels.EmissionFactor(req.Fuel)
	duration := req.DurationHours()
	if duration <= 0 {
		duration = 1
	}
	return hectares * factor * req.Intensity.Multiplier() / duration
}

// concentration evaluates the steady-state Gaussian plume formula (spec
// §4.4 step 4) at downwind distance x, crosswind offset y, ground level.
func concentration(q, u, h float64, class models.StabilityClass, x, y float64) float64 {
	if x <= 0 {
		return 0
	}
	sy := sigmaY(class, x)
	sz := sigmaZ(class, x)
	if sy <= 0 || sz <= 0 {
		return 0
	}
	crosswind := math.Exp(-(y * y) / (2 * sy * sy))
	vertical := math.Exp(-(h * h) / (2 * sz * sz))
	c := q / (math.Pi * u * sy * sz) * crosswind * vertical
	// g/m^3 -> ug/m^3
	return c * 1e6
}

// maxOverY returns the maximum concentration at downwind distance x, which
// for this symmetric Gaussian form occurs at y = 0.
func maxOverY(q, u, h float64, class models.StabilityClass, x float64) float64 {
	return concentration(q, u, h, class, x, 0)
}

// effectiveRadius finds the smallest x where maxOverY(x) <= threshold via
// bisection on a logarithmic grid (spec §4.4 step 5).
func effectiveRadius(q, u, h float64, class models.StabilityClass) float64 {
	if maxOverY(q, u, h, class, minSearchRadiusM) <= models.PM25ThresholdUgM3 {
		return minSearchRadiusM
	}
	if maxOverY(q, u, h, class, maxSearchRadiusM) > models.PM25ThresholdUgM3 {
		return maxSearchRadiusM
	}

	lo, hi := minSearchRadiusM, maxSearchRadiusM
	for i := 0; i < 64; i++ {
		mid := math.Sqrt(lo * hi) // log-scale midpoint
		if maxOverY(q, u, h, class, mid) > models.PM25ThresholdUgM3 {
			lo = mid
		} else {
			hi = mid
		}
		if hi/lo < 1.0001 {
			break
		}
	}
	return hi
}

// footprint builds footprintSampleCount rays at evenly spaced bearings. A
// ray within 90 degrees of the downwind direction gets the downwind
// effective radius scaled by the cosine of its angular offset; bearings
// more than 90 degrees off the downwind axis are given the fixed minimum
// radius since the plume is negligible there.
func footprint(q, u, h float64, class models.StabilityClass, windDirDeg, downwindRadiusM float64) []models.FootprintRay {
	downwindBearing := math.Mod(windDirDeg+180, 360)
	rays := make([]models.FootprintRay, 0, footprintSampleCount)
	for i := 0; i < footprintSampleCount; i++ {
		bearing := math.Mod(float64(i)*(360.0/footprintSampleCount), 360)
		offset := angularDiff(bearing, downwindBearing)
		if offset > 90 {
			rays = append(rays, models.FootprintRay{BearingDeg: bearing, RadiusM: minSearchRadiusM})
			continue
		}
		scale := math.Cos(offset * math.Pi / 180)
		rays = append(rays, models.FootprintRay{BearingDeg: bearing, RadiusM: downwindRadiusM * scale})
	}
	return rays
}

func angularDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
