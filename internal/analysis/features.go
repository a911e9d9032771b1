// Package analysis turns raw measurement records into feature matrices,
// scores them for outliers, and classifies the severity of what it
// finds.
package analysis

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInsufficientData means the batch is smaller than the minimum
	// viable sample for distribution-based scoring. Recoverable: the
	// detector returns an empty result instead of failing.
	ErrInsufficientData = errors.New("insufficient data for anomaly detection")
	// ErrInsufficientFeatures means none of the domain's declared
	// columns resolved to numeric data.
	ErrInsufficientFeatures = errors.New("no numeric feature columns found")
	// ErrUnknownDomain means the domain tag is not one of
	// network/site/link.
	ErrUnknownDomain = errors.New("unknown detection domain")
)

// DefaultMinSamples is the batch size below which scoring is refused.
const DefaultMinSamples = 10

// Domain tags which feature schema a batch of records belongs to.
type Domain string

const (
	DomainNetwork Domain = "network"
	DomainSite    Domain = "site"
	DomainLink    Domain = "link"
)

// FeatureColumns returns the declared, ordered feature schema for the
// domain.
func (d Domain) FeatureColumns() ([]string, error) {
	switch d {
	case DomainNetwork:
		return []string{"bandwidth_usage", "packet_loss", "latency", "error_rate", "connection_count"}, nil
	case DomainSite:
		return []string{"response_time", "uptime_percentage", "request_count", "error_count", "cpu_usage", "memory_usage"}, nil
	case DomainLink:
		return []string{"throughput", "utilization", "errors", "discards"}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}
}

// Record is one raw ingest record: feature name to value, plus an
// optional "timestamp" field (time.Time or RFC 3339 string). Records
// are resolved against the domain schema exactly once, at extraction.
type Record map[string]any

// FeatureSet is a resolved N x M feature matrix together with the
// column ordering that produced it and per-row timestamps (zero when a
// record carried none).
type FeatureSet struct {
	Columns    []string
	Matrix     [][]float64
	Timestamps []time.Time
}

// ExtractFeatures resolves the domain's declared columns against the
// batch and builds the feature matrix. A declared column is kept when
// it holds a numeric value in at least one record and never holds a
// non-numeric one; missing values impute to 0. minSamples <= 0 falls
// back to DefaultMinSamples.
func ExtractFeatures(records []Record, domain Domain, minSamples int) (*FeatureSet, error) {
	declared, err := domain.FeatureColumns()
	if err != nil {
		return nil, err
	}
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}

	columns := resolveColumns(records, declared)
	if len(columns) == 0 {
		return nil, ErrInsufficientFeatures
	}
	if len(records) < minSamples {
		return nil, fmt.Errorf("%w: got %d records, need %d", ErrInsufficientData, len(records), minSamples)
	}

	fs := &FeatureSet{
		Columns:    columns,
		Matrix:     make([][]float64, len(records)),
		Timestamps: make([]time.Time, len(records)),
	}
	for i, rec := range records {
		row := make([]float64, len(columns))
		for j, col := range columns {
			if v, ok := numericValue(rec[col]); ok {
				row[j] = v
			}
		}
		fs.Matrix[i] = row
		fs.Timestamps[i] = recordTimestamp(rec)
	}
	return fs, nil
}

// resolveColumns keeps declared columns that are numeric wherever they
// appear, preserving the declared order.
func resolveColumns(records []Record, declared []string) []string {
	var columns []string
	for _, col := range declared {
		seen, usable := false, true
		for _, rec := range records {
			v, present := rec[col]
			if !present || v == nil {
				continue
			}
			if _, ok := numericValue(v); !ok {
				usable = false
				break
			}
			seen = true
		}
		if seen && usable {
			columns = append(columns, col)
		}
	}
	return columns
}

// numericValue coerces the numeric types a decoded record can carry.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// recordTimestamp pulls an optional timestamp off a record.
func recordTimestamp(rec Record) time.Time {
	switch ts := rec["timestamp"].(type) {
	case time.Time:
		return ts
	case string:
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
