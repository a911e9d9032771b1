package analysis

import (
	"math"
	"sort"

	"github.com/vsatops/linksight/pkg/models"
)

// Severity multipliers applied to the batch's 90th-percentile score.
const (
	criticalMultiplier = 1.5
	highMultiplier     = 1.0
	mediumMultiplier   = 0.5

	severityPercentile = 0.90
	deviationSigmas    = 2.0
)

// ClassifySeverity maps a raw anomaly score to a severity label
// relative to the score distribution of its batch. Monotonic: a higher
// score never yields a lower severity within the same batch.
func ClassifySeverity(score float64, batchScores []float64) models.Severity {
	p90 := percentile(batchScores, severityPercentile)
	switch {
	case score > p90*criticalMultiplier:
		return models.SeverityCritical
	case score > p90*highMultiplier:
		return models.SeverityHigh
	case score > p90*mediumMultiplier:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// AffectedMetrics names the features whose values in sample deviate
// from the batch mean by more than two standard deviations, ordered by
// normalized deviation descending. When nothing crosses the bar the
// single most deviant feature is reported, so the result is never
// empty.
func AffectedMetrics(sample []float64, matrix [][]float64, columns []string) []string {
	if len(sample) == 0 || len(matrix) == 0 || len(columns) == 0 {
		return nil
	}
	means, stds := columnStats(matrix)

	type deviation struct {
		name string
		z    float64
	}
	var affected []deviation
	maxIdx, maxZ := 0, -1.0
	for j := range columns {
		if j >= len(sample) {
			break
		}
		var z float64
		if stds[j] > 0 {
			z = math.Abs(sample[j]-means[j]) / stds[j]
		}
		if z > maxZ {
			maxIdx, maxZ = j, z
		}
		if stds[j] > 0 && z > deviationSigmas {
			affected = append(affected, deviation{columns[j], z})
		}
	}
	if len(affected) == 0 {
		return []string{columns[maxIdx]}
	}

	sort.SliceStable(affected, func(i, j int) bool { return affected[i].z > affected[j].z })
	names := make([]string, len(affected))
	for i, d := range affected {
		names[i] = d.name
	}
	return names
}

// columnStats computes per-column mean and population standard
// deviation.
func columnStats(matrix [][]float64) (means, stds []float64) {
	cols := len(matrix[0])
	n := float64(len(matrix))
	means = make([]float64, cols)
	stds = make([]float64, cols)

	for _, row := range matrix {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}
	for _, row := range matrix {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
	}
	return means, stds
}

// percentile returns the p-quantile of values using nearest-rank on a
// sorted copy.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
