package models

import "time"

// PatternType identifies the root-cause family of a degradation pattern.
type PatternType string

const (
	PatternNetworkEquipmentFailure PatternType = "network_equipment_failure"
	PatternAntennaAlignment        PatternType = "antenna_alignment"
	PatternSatelliteInterference   PatternType = "satellite_interference"
	PatternAntennaMisalignment     PatternType = "antenna_misalignment"
)

// Scope is the organizational level a correlation analysis covers.
type Scope string

const (
	ScopeNetwork    Scope = "network"
	ScopeHubAntenna Scope = "hub_antenna"
	ScopeSatellite  Scope = "satellite"
	ScopeLink       Scope = "link"
)

// DegradationPattern is a detected correlated group of underperforming
// entities sharing a plausible common root cause. Severity and
// Confidence are always within [0,1]; AffectedItems holds entity IDs in
// detection order with no duplicates.
type DegradationPattern struct {
	PatternID         string             `json:"pattern_id"`
	Type              PatternType        `json:"pattern_type"`
	Severity          float64            `json:"severity"`
	Confidence        float64            `json:"confidence"`
	AffectedItems     []int64            `json:"affected_items"`
	RootCause         string             `json:"root_cause"`
	SupportingMetrics map[string]float64 `json:"supporting_metrics"`
	Timestamp         time.Time          `json:"timestamp"`
	HoursDuration     int                `json:"hours_duration"`
	DevicesAffected   int                `json:"devices_affected_count"`
	LinksAffected     int                `json:"links_affected_count"`
}

// Clamp forces Severity and Confidence into [0,1].
func (p *DegradationPattern) Clamp() {
	p.Severity = clamp01(p.Severity)
	p.Confidence = clamp01(p.Confidence)
}

// CorrelationAnalysis is the result of one analyze call: every pattern
// found in the lookback window plus an overall correlation strength and
// advisory text. Immutable once returned.
type CorrelationAnalysis struct {
	AnalysisID       string               `json:"analysis_id"`
	Scope            Scope                `json:"scope"`
	ScopeID          string               `json:"scope_id"`
	Timestamp        time.Time            `json:"timestamp"`
	HoursAnalyzed    int                  `json:"hours_analyzed"`
	Patterns         []DegradationPattern `json:"patterns_found"`
	CorrelationScore float64              `json:"correlation_score"`
	Recommendations  []string             `json:"recommendations"`
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
