package models

// ConflictKind classifies why two burns conflict (spec §3).
type ConflictKind string

const (
	ConflictSpatial  ConflictKind = "spatial"
	ConflictTemporal ConflictKind = "temporal"
	ConflictCombined ConflictKind = "combined"
)

// Severity discretizes a continuous conflict score (spec §3, §4.5 step 4).
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityFromScore maps a [0,1] score to a discrete Severity per the
// thresholds in spec §4.5 step 4: critical >= 0.8, high >= 0.6, medium >= 0.3,
// low otherwise (and low only applies when score > 0; a score of exactly 0
// means no conflict and should not be emitted as a ConflictRecord at all).
func SeverityFromScore(score float64) Severity {
	switch {
	case score >= 0.8:
		return SeverityCritical
	case score >= 0.6:
		return SeverityHigh
	case score >= 0.3:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ConflictRecord is a pair (A, B) whose plumes interact (spec §3). Canonical
// ordering requires A < B; NewConflictRecord enforces this so callers never
// construct an invalid pair.
type ConflictRecord struct {
	A, B              string
	Kind              ConflictKind
	Severity          Severity
	Score             float64
	OverlapFootprintM float64 // approximate linear overlap extent, meters
	TimeOverlapHours  float64
	PeakPM25          float64
}

// NewConflictRecord canonicalizes (a, b) so A < B always holds, swapping any
// kind- or overlap-specific asymmetric fields is unnecessary since all of
// them are already symmetric in the two burns.
func NewConflictRecord(a, b string, kind ConflictKind, score float64, overlapM, timeOverlapH, peakPM25 float64) ConflictRecord {
	if b < a {
		a, b = b, a
	}
	return ConflictRecord{
		A: a, B: b, Kind: kind,
		Severity:          SeverityFromScore(score),
		Score:             score,
		OverlapFootprintM: overlapM,
		TimeOverlapHours:  timeOverlapH,
		PeakPM25:          peakPM25,
	}
}
