package models

import "time"

// Severity is the categorical severity of a scored anomaly, derived from
// the anomaly score relative to its batch's score distribution.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank maps a severity to a numeric order for comparisons.
// Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AnomalyRecord is one flagged row from a scored batch. Records are
// immutable once returned; the caller owns persistence.
type AnomalyRecord struct {
	Index           int       `json:"index"`
	Score           float64   `json:"anomaly_score"`
	Severity        Severity  `json:"severity"`
	AffectedMetrics []string  `json:"affected_metrics"`
	Timestamp       time.Time `json:"timestamp"`
}
