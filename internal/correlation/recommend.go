package correlation

import (
	"fmt"

	"github.com/vsatops/linksight/pkg/models"
)

// Recommendation text is operator-facing and kept deliberately plain.
// Thresholds per scope: network 0.8/0.6, hub antenna 0.75, satellite
// 0.7, bidirectional link 0.6.

func networkRecommendations(sites, links int, score float64, patterns []models.DegradationPattern) []string {
	var recs []string
	switch {
	case score > 0.8:
		recs = append(recs, "CRITICAL: Strong correlation detected across network. Investigate potential equipment failure at central hub or core network equipment.")
	case score > 0.6:
		recs = append(recs, "HIGH: Moderate correlation detected across multiple sites. Check for common equipment, power infrastructure, or core network issues.")
	}
	recs = append(recs,
		fmt.Sprintf("Affected sites: %d, affected links: %d", sites, links),
		"Check network equipment logs at affected sites for errors",
		"Verify power stability and UPS status at affected locations",
		"Review recent configuration changes affecting multiple sites",
	)
	if len(patterns) > 0 {
		recs = append(recs, fmt.Sprintf("%d temporal correlation pattern(s) detected, prioritize the most recent window", len(patterns)))
	}
	return recs
}

func antennaRecommendations(degraded, total int, score float64) []string {
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(degraded) / float64(total)
	}
	var recs []string
	if score > 0.75 {
		recs = append(recs,
			fmt.Sprintf("CRITICAL: %.0f%% of hub links show instability, hub antenna alignment issue likely.", pct),
			"Schedule immediate antenna alignment check",
		)
	} else {
		recs = append(recs,
			"WARNING: Hub antenna showing instability patterns.",
			"Verify antenna orientation and mechanical stability",
		)
	}
	recs = append(recs,
		"Check hub equipment (modem, amplifier, frequency converter) status",
		"Inspect cable connections and potential water ingress",
		"Consider frequency retuning if recent weather events occurred",
	)
	return recs
}

func satelliteRecommendations(links int, score float64) []string {
	var recs []string
	if score > 0.7 {
		recs = append(recs, "CRITICAL: Widespread degradation across satellite links, interference or satellite issue likely.")
	} else {
		recs = append(recs, "WARNING: Multiple satellite links degrading together.")
	}
	recs = append(recs,
		fmt.Sprintf("Affected links on this satellite: %d", links),
		"Check for known interference events or adjacent satellite activity",
		"Verify transponder power levels and carrier allocations",
		"Contact the satellite operator if degradation persists",
	)
	return recs
}

func bidirectionalRecommendations(score float64) []string {
	var recs []string
	if score > 0.6 {
		recs = append(recs,
			"CRITICAL: Persistent bidirectional degradation, antenna misalignment highly likely.",
			"IMMEDIATE ACTION: Schedule antenna re-alignment at the remote site",
		)
	} else {
		recs = append(recs,
			"WARNING: Intermittent bidirectional degradation detected.",
			"Monitor the link and verify antenna mounting stability",
		)
	}
	recs = append(recs,
		"Check for physical obstructions or recent site work near the antenna",
		"Verify BUC and LNB output levels on both directions",
	)
	return recs
}
