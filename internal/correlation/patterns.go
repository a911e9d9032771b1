package correlation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vsatops/linksight/pkg/models"
)

// detectTemporal buckets degraded grade records by hour and emits one
// equipment-failure pattern per hour in which enough distinct links
// degraded together.
func (e *Engine) detectTemporal(degraded map[int64][]models.LinkGrade, networkID int64) []models.DegradationPattern {
	type sample struct {
		linkID int64
		grade  float64
	}
	hourly := map[time.Time][]sample{}
	for linkID, grades := range degraded {
		for _, g := range grades {
			hour := g.Timestamp.UTC().Truncate(time.Hour)
			hourly[hour] = append(hourly[hour], sample{linkID, g.Grade})
		}
	}

	hours := make([]time.Time, 0, len(hourly))
	for h := range hourly {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })

	var patterns []models.DegradationPattern
	for _, hour := range hours {
		samples := hourly[hour]
		linkSet := map[int64]struct{}{}
		sum, min := 0.0, math.Inf(1)
		for _, s := range samples {
			linkSet[s.linkID] = struct{}{}
			sum += s.grade
			if s.grade < min {
				min = s.grade
			}
		}
		if len(linkSet) < e.cfg.MinLinksForPattern {
			continue
		}
		avg := sum / float64(len(samples))
		affected := sortedIDs(linkSet)

		patterns = append(patterns, models.DegradationPattern{
			PatternID:     fmt.Sprintf("NET_%d_%s", networkID, hour.Format("2006-01-02T15")),
			Type:          models.PatternNetworkEquipmentFailure,
			Severity:      1 - avg/10,
			Confidence:    math.Min(0.95, float64(len(linkSet))/5),
			AffectedItems: affected,
			RootCause:     "Simultaneous degradation across multiple links suggests shared network equipment or hardware failure",
			SupportingMetrics: map[string]float64{
				"avg_grade":      avg,
				"min_grade":      min,
				"affected_links": float64(len(linkSet)),
				"samples":        float64(len(samples)),
			},
			Timestamp:       hour,
			HoursDuration:   1,
			DevicesAffected: len(linkSet),
			LinksAffected:   len(linkSet),
		})
	}
	return patterns
}

// detectAlignment emits one antenna-alignment pattern per degraded link
// whose instability is elevated in both directions. Instability on both
// sides of the same antenna is the alignment signature; one-sided
// instability stays attributed to the remote end.
func (e *Engine) detectAlignment(degraded map[int64][]models.LinkGrade, siteID int64) []models.DegradationPattern {
	var patterns []models.DegradationPattern
	for _, linkID := range sortedKeys(degraded) {
		grades := degraded[linkID]
		ib, ob := meanInstability(grades)
		if ib <= e.cfg.InstabilityThreshold || ob <= e.cfg.InstabilityThreshold {
			continue
		}
		patterns = append(patterns, models.DegradationPattern{
			PatternID:     fmt.Sprintf("HUB_%d_%d_%s", siteID, linkID, shortID()),
			Type:          models.PatternAntennaAlignment,
			Severity:      math.Max(ib, ob),
			Confidence:    0.85,
			AffectedItems: []int64{linkID},
			RootCause:     "Elevated instability in both directions indicates hub antenna alignment or pointing issues",
			SupportingMetrics: map[string]float64{
				"avg_ib_instability":     ib,
				"avg_ob_instability":     ob,
				"grade_records_analyzed": float64(len(grades)),
			},
			Timestamp:       grades[0].Timestamp,
			HoursDuration:   len(grades),
			DevicesAffected: 1,
			LinksAffected:   1,
		})
	}
	return patterns
}

// detectSatellite emits a single interference pattern covering every
// degraded link on the satellite, once enough links are affected.
func (e *Engine) detectSatellite(degraded map[int64][]models.LinkGrade, satellite string) []models.DegradationPattern {
	if len(degraded) < e.cfg.MinLinksForPattern {
		return nil
	}

	affected := sortedKeys(degraded)
	var all []models.LinkGrade
	for _, id := range affected {
		all = append(all, degraded[id]...)
	}
	var gradeSum, congestionSum float64
	for _, g := range all {
		gradeSum += g.Grade
		congestionSum += g.Congestion
	}
	avgGrade := gradeSum / float64(len(all))
	avgCongestion := congestionSum / float64(len(all))

	return []models.DegradationPattern{{
		PatternID:     fmt.Sprintf("SAT_%s_%s", satellite, shortID()),
		Type:          models.PatternSatelliteInterference,
		Severity:      math.Max(1-avgGrade/10, avgCongestion),
		Confidence:    0.88,
		AffectedItems: affected,
		RootCause:     "Multiple links on the same satellite degrading together suggests interference or satellite underperformance",
		SupportingMetrics: map[string]float64{
			"affected_links":     float64(len(affected)),
			"avg_grade":          avgGrade,
			"avg_congestion":     avgCongestion,
			"total_measurements": float64(len(all)),
		},
		Timestamp:       all[0].Timestamp,
		HoursDuration:   len(all),
		DevicesAffected: len(affected),
		LinksAffected:   len(affected),
	}}
}

// detectBidirectional emits one misalignment pattern per grade record
// degraded in both directions at once.
func (e *Engine) detectBidirectional(grades []models.LinkGrade, linkID int64) []models.DegradationPattern {
	var patterns []models.DegradationPattern
	for _, g := range grades {
		if g.IBDegradation < e.cfg.DegradationThreshold || g.OBDegradation < e.cfg.DegradationThreshold {
			continue
		}
		patterns = append(patterns, models.DegradationPattern{
			PatternID:     fmt.Sprintf("LINK_%d_%s", linkID, g.Timestamp.UTC().Format("2006-01-02T15:04:05")),
			Type:          models.PatternAntennaMisalignment,
			Severity:      math.Max(g.IBDegradation, g.OBDegradation),
			Confidence:    0.90,
			AffectedItems: []int64{linkID},
			RootCause:     "Simultaneous inbound and outbound degradation indicates antenna misalignment at the remote site",
			SupportingMetrics: map[string]float64{
				"ib_degradation": g.IBDegradation,
				"ob_degradation": g.OBDegradation,
				"grade":          g.Grade,
			},
			Timestamp:       g.Timestamp,
			HoursDuration:   1,
			DevicesAffected: 1,
			LinksAffected:   1,
		})
	}
	return patterns
}

func sortedKeys(m map[int64][]models.LinkGrade) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
