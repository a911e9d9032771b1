package correlation

import (
	"math"

	"github.com/vsatops/linksight/pkg/models"
)

// correlationScore rates how strongly a set of degraded links points at
// a shared cause. Breadth (how many links) contributes 40%, consistency
// (how uniformly their grades sit) 60%.
func correlationScore(degraded map[int64][]models.LinkGrade) float64 {
	if len(degraded) == 0 {
		return 0
	}
	breadth := math.Min(float64(len(degraded))/10, 1)

	var grades []float64
	for _, gs := range degraded {
		for _, g := range gs {
			grades = append(grades, g.Grade)
		}
	}
	consistency := 0.5
	if len(grades) >= 2 {
		consistency = clamp01(1 - sampleStdev(grades)/10)
	}
	return math.Min(1, 0.4*breadth+0.6*consistency)
}

// bidirectionalScore is the fraction of a link's grade records degraded
// in both directions at once.
func bidirectionalScore(grades []models.LinkGrade, threshold float64) float64 {
	if len(grades) == 0 {
		return 0
	}
	qualifying := 0
	for _, g := range grades {
		if g.IBDegradation >= threshold && g.OBDegradation >= threshold {
			qualifying++
		}
	}
	return float64(qualifying) / float64(len(grades))
}

// sampleStdev is the n-1 standard deviation.
func sampleStdev(values []float64) float64 {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / (n - 1))
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
