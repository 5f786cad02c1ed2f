package models

import (
	"math"
	"time"
)

// StabilityClass is the Pasquill–Gifford atmospheric stability category.
type StabilityClass string

const (
	StabilityA StabilityClass = "A" // very unstable
	StabilityB StabilityClass = "B"
	StabilityC StabilityClass = "C"
	StabilityD StabilityClass = "D" // neutral
	StabilityE StabilityClass = "E"
	StabilityF StabilityClass = "F" // very stable
)

func (s StabilityClass) Valid() bool {
	switch s {
	case StabilityA, StabilityB, StabilityC, StabilityD, StabilityE, StabilityF:
		return true
	}
	return false
}

// WeatherVectorDim is the fixed dimension of a weather fingerprint (spec §3).
const WeatherVectorDim = 128

// WeatherSnapshot is point-in-time (or hourly forecast) conditions at a
// location (spec §3).
type WeatherSnapshot struct {
	ID            string
	Lat, Lon      float64
	Timestamp     time.Time
	TemperatureC  float64
	HumidityPct   float64
	WindSpeedMS   float64
	WindDirDeg    float64
	PrecipProbPct float64
	VisibilityKm  float64
	Stability     StabilityClass
	Vector        []float64 // 128-d unit vector, see Fingerprint()
}

// ClampToEnvelope enforces spec §4.4 edge-case clamping: temperature bounds
// [-40, 49]°C, humidity [0, 100]%, and a floor on wind speed handled
// separately by the dispersion model (not here, since 0 m/s is itself a
// valid, meaningful "calm" reading that Stage C must flag, not silently
// raise). Returns whether any field was out of its nominal envelope so the
// caller can flag the downstream result as "out-of-envelope".
func (w *WeatherSnapshot) ClampToEnvelope() (outOfEnvelope bool) {
	if w.TemperatureC < -40 {
		w.TemperatureC = -40
		outOfEnvelope = true
	} else if w.TemperatureC > 49 {
		w.TemperatureC = 49
		outOfEnvelope = true
	}
	if w.HumidityPct < 0 {
		w.HumidityPct = 0
		outOfEnvelope = true
	} else if w.HumidityPct > 100 {
		w.HumidityPct = 100
		outOfEnvelope = true
	}
	return outOfEnvelope
}

// UnsafeForBurning reports the Stage B approval trigger conditions (spec §4.7
// Stage B): wind > 11 m/s, humidity < 15%, visibility < 3 km, or precip
// probability > 60%.
func (w *WeatherSnapshot) UnsafeForBurning() bool {
	return w.WindSpeedMS > 11 || w.HumidityPct < 15 || w.VisibilityKm < 3 || w.PrecipProbPct > 60
}

// Fingerprint derives a fixed-length 128-d unit vector encoding condition,
// trend, diurnal phase, and seasonal phase, per spec §3. The encoding here is
// a deterministic feature projection: normalized scalar features occupy the
// first block, sinusoidal phase encodings (diurnal from the timestamp's
// hour, seasonal from its day-of-year) fill the remainder, and the whole
// vector is L2-normalized so nearest-neighbor lookups via C1 compare
// direction rather than magnitude.
func (w *WeatherSnapshot) Fingerprint() []float64 {
	v := make([]float64, WeatherVectorDim)

	scalars := []float64{
		w.TemperatureC / 50.0,
		w.HumidityPct / 100.0,
		w.WindSpeedMS / 30.0,
		w.WindDirDeg / 360.0,
		w.PrecipProbPct / 100.0,
		w.VisibilityKm / 50.0,
		stabilityOrdinal(w.Stability) / 5.0,
	}
	copy(v, scalars)

	hourFrac := float64(w.Timestamp.Hour())/24.0 + float64(w.Timestamp.Minute())/1440.0
	diurnal := 2 * math.Pi * hourFrac
	yearFrac := float64(w.Timestamp.YearDay()) / 365.25
	seasonal := 2 * math.Pi * yearFrac

	// Diurnal harmonics (sin, cos) occupy indices [32, 64), seasonal
	// harmonics [64, 96), and diurnal x seasonal cross terms [96, 128), so
	// the tail of the vector carries signal instead of trailing zeros (which would distort cosine similarity toward
	// spurious agreement between any two sparse vectors).
	for i := 0; i < 16; i++ {
		h := float64(i + 1)
		v[32+i] = math.Sin(h * diurnal)
		v[48+i] = math.Cos(h * diurnal)
		v[64+i] = math.Sin(h * seasonal)
		v[80+i] = math.Cos(h * seasonal)
	}
	for i := 96; i < WeatherVectorDim; i++ {
		j := i - 96
		v[i] = math.Sin(float64(j+1)*diurnal) * math.Cos(float64(j+1)*seasonal)
	}

	Normalize(v)
	w.Vector = v
	return v
}

func stabilityOrdinal(s StabilityClass) float64 {
	switch s {
	case StabilityA:
		return 0
	case StabilityB:
		return 1
	case StabilityC:
		return 2
	case StabilityD:
		return 3
	case StabilityE:
		return 4
	case StabilityF:
		return 5
	default:
		return 3
	}
}

// Normalize scales v in place to unit L2 magnitude. A zero vector is left
// unchanged (dividing by zero magnitude would produce NaN); callers that
// require a strictly unit vector should check Magnitude(v) > 0 first.
func Normalize(v []float64) {
	m := Magnitude(v)
	if m == 0 {
		return
	}
	for i := range v {
		v[i] /= m
	}
}

// Magnitude returns the L2 norm of v.
func Magnitude(v []float64) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	return math.Sqrt(sumSq)
}
