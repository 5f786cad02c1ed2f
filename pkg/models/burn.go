// Package models defines the domain entities shared across every component
// of the coordination pipeline: BurnRequest, WeatherSnapshot, DispersionResult,
// ConflictRecord, Schedule, and AgentEvent. Types here carry no persistence or
// transport logic — they are plain data plus the invariants a caller must
// uphold, matching the teacher's pkg/models convention of thin structs wrapped
// by service-layer behavior rather than smart active-record objects.
package models

import (
	"fmt"
	"math"
	"time"
)

// FuelType enumerates the recognized crop fuel types. The emission-factor
// table keyed by FuelType lives in pkg/config (operator-configurable per the
// spec's Open Question on fuel tables).
type FuelType string

const (
	FuelWheatStubble    FuelType = "wheat_stubble"
	FuelRiceStraw       FuelType = "rice_straw"
	FuelCornStalks      FuelType = "corn_stalks"
	FuelOrchardPrunings FuelType = "orchard_prunings"
	FuelGrass           FuelType = "grass"
)

func (f FuelType) Valid() bool {
	switch f {
	case FuelWheatStubble, FuelRiceStraw, FuelCornStalks, FuelOrchardPrunings, FuelGrass:
		return true
	}
	return false
}

// IntensityFactor enumerates the burn-intensity multipliers used by the
// dispersion model's emission-rate calculation (spec §4.4 step 1).
type IntensityFactor string

const (
	IntensityLow      IntensityFactor = "low"
	IntensityModerate IntensityFactor = "moderate"
	IntensityHigh     IntensityFactor = "high"
)

// Multiplier returns the numeric intensity multiplier, defaulting to
// "moderate" (1.0) for an unrecognized or empty value.
func (i IntensityFactor) Multiplier() float64 {
	switch i {
	case IntensityLow:
		return 0.6
	case IntensityHigh:
		return 1.5
	default:
		return 1.0
	}
}

// ContactMethod enumerates how a farm operator is reachable for alerts.
type ContactMethod string

const (
	ContactSMS       ContactMethod = "sms"
	ContactBroadcast ContactMethod = "broadcast"
)

// RequestState is the BurnRequest lifecycle state (spec §3).
type RequestState string

const (
	StateReceived        RequestState = "received"
	StateValidated       RequestState = "validated"
	StateWeatherAssessed RequestState = "weather_assessed"
	StatePredicted       RequestState = "predicted"
	StateScheduled       RequestState = "scheduled"
	StateAlerted         RequestState = "alerted"
	StateDone            RequestState = "done"
	StateRejected        RequestState = "rejected"
	StateFailed          RequestState = "failed"
)

// Terminal reports whether no further stage may run for a request in this state.
func (s RequestState) Terminal() bool {
	switch s {
	case StateDone, StateRejected, StateFailed:
		return true
	}
	return false
}

// LatLon is a WGS84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Polygon is a closed ring of LatLon vertices in WGS84, first point == last point.
type Polygon struct {
	Ring []LatLon `json:"ring"`
}

// Centroid returns the arithmetic mean of the ring's distinct vertices. This
// is an approximation (not an area-weighted centroid) adequate for the
// coarse spatial gridding the conflict detector performs; precise polygon
// centroid math is out of the core's scope per spec §1 (no CFD-grade modeling).
func (p Polygon) Centroid() LatLon {
	if len(p.Ring) == 0 {
		return LatLon{}
	}
	n := len(p.Ring)
	if p.Ring[0] == p.Ring[n-1] && n > 1 {
		n--
	}
	var sumLat, sumLon float64
	for i := 0; i < n; i++ {
		sumLat += p.Ring[i].Lat
		sumLon += p.Ring[i].Lon
	}
	return LatLon{Lat: sumLat / float64(n), Lon: sumLon / float64(n)}
}

// Closed reports whether the ring's first and last vertices coincide and it
// has enough vertices to bound an area.
func (p Polygon) Closed() bool {
	n := len(p.Ring)
	return n >= 4 && p.Ring[0] == p.Ring[n-1]
}

// SelfIntersects reports whether any two non-adjacent edges of the ring
// cross. Uses the standard segment-intersection test; O(n^2) which is fine
// for the small field polygons this system validates (tens of vertices).
func (p Polygon) SelfIntersects() bool {
	n := len(p.Ring) - 1 // last point duplicates first in a closed ring
	if n < 4 {
		return false
	}
	for i := 0; i < n; i++ {
		a1, a2 := p.Ring[i], p.Ring[i+1]
		for j := i + 1; j < n; j++ {
			if j == i || (j+1)%n == i {
				continue
			}
			b1, b2 := p.Ring[j], p.Ring[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, p3, p4 LatLon) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

func cross(o, a, b LatLon) float64 {
	return (a.Lon-o.Lon)*(b.Lat-o.Lat) - (a.Lat-o.Lat)*(b.Lon-o.Lon)
}

// ApproxAreaHectares returns the shoelace-formula planar approximation of the
// polygon's area, converting degrees to meters via an equirectangular
// projection centered on the centroid. Adequate for the acreage-consistency
// check (spec §3 invariant: acreage within ±20% of polygon area); not a
// geodesic area calculation.
func (p Polygon) ApproxAreaHectares() float64 {
	n := len(p.Ring)
	if n < 4 {
		return 0
	}
	c := p.Centroid()
	const metersPerDegLat = 111320.0
	metersPerDegLon := 111320.0 * math.Cos(c.Lat*math.Pi/180.0)

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, pt := range p.Ring {
		xs[i] = (pt.Lon - c.Lon) * metersPerDegLon
		ys[i] = (pt.Lat - c.Lat) * metersPerDegLat
	}

	var area2 float64
	for i := 0; i < n-1; i++ {
		area2 += xs[i]*ys[i+1] - xs[i+1]*ys[i]
	}
	areaM2 := area2 / 2
	if areaM2 < 0 {
		areaM2 = -areaM2
	}
	return areaM2 / 10000.0 // m^2 -> hectares
}

// TimeWindow is the operator-supplied burn window [Start, End) in local hours.
type TimeWindow struct {
	Start int `json:"start_hour"`
	End   int `json:"end_hour"`
}

func (w TimeWindow) Valid() bool {
	return w.Start >= 0 && w.End > w.Start && w.End <= 24
}

func (w TimeWindow) Contains(hour float64) bool {
	return hour >= float64(w.Start) && hour < float64(w.End)
}

// BurnRequest is an operator-submitted intent to burn a field (spec §3).
type BurnRequest struct {
	ID              string
	FarmID          string
	Field           Polygon
	Acres           float64
	Fuel            FuelType
	Intensity       IntensityFactor
	BurnDate        time.Time // calendar date, time-of-day ignored
	Window          TimeWindow
	Priority        float64 // 0..10
	MaxRadiusMeters float64 // derived, set by Stage C
	Contact         ContactMethod
	ContactHandle   string

	State     RequestState
	CreatedAt time.Time
	UpdatedAt time.Time

	WeatherSnapshotID string
	DispersionID      string
	ScheduleDate      string
	AssignedStart     *float64 // hour-of-day, set once scheduled
}

// DurationHours implements spec §4.5 step 2: 1 hour per 50 acres, clamped to [1, 8].
func (b *BurnRequest) DurationHours() float64 {
	d := b.Acres / 50.0
	if d < 1 {
		d = 1
	}
	if d > 8 {
		d = 8
	}
	return d
}

func (b *BurnRequest) Validate() error {
	if b.FarmID == "" {
		return fmt.Errorf("farm_id is required")
	}
	if b.Acres <= 0 {
		return fmt.Errorf("acres must be positive")
	}
	if !b.Fuel.Valid() {
		return fmt.Errorf("unrecognized fuel type %q", b.Fuel)
	}
	if !b.Window.Valid() {
		return fmt.Errorf("invalid time window [%d, %d)", b.Window.Start, b.Window.End)
	}
	if b.Priority < 0 || b.Priority > 10 {
		return fmt.Errorf("priority_score must be in [0, 10]")
	}
	if !b.Field.Closed() {
		return fmt.Errorf("field_boundary must be a closed ring")
	}
	if b.Field.SelfIntersects() {
		return fmt.Errorf("field_boundary must not self-intersect")
	}
	area := b.Field.ApproxAreaHectares() * 2.47105 // hectares -> acres
	if area > 0 {
		lo, hi := b.Acres*0.8, b.Acres*1.2
		if area < lo || area > hi {
			return fmt.Errorf("acres %.2f inconsistent with polygon area %.2f (±20%% tolerance)", b.Acres, area)
		}
	}
	return nil
}
