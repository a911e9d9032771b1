// Package correlation detects correlated degradation patterns across
// organizational scopes and turns them into root-cause hypotheses:
// network-wide simultaneous degradation points at shared equipment, hub
// antenna instability at alignment problems, satellite-wide degradation
// at interference, and bidirectional link degradation at antenna
// misalignment.
package correlation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vsatops/linksight/internal/metrics"
	"github.com/vsatops/linksight/pkg/models"
)

// ErrNotHubAntenna is returned when a hub-antenna analysis is requested
// for a site that is not marked as a hub.
var ErrNotHubAntenna = errors.New("site is not a hub antenna")

// DefaultLookbackHours is the analysis window when the caller passes a
// non-positive one.
const DefaultLookbackHours = 24

// Config carries the degradation thresholds. The values are empirically
// chosen and deliberately preserved; override via configuration rather
// than editing.
type Config struct {
	// WarningGrade marks a grade record as degraded (grade < 7.0).
	WarningGrade float64
	// CriticalGrade marks severe degradation (grade < 6.0).
	CriticalGrade float64
	// MinLinksForPattern is the minimum number of distinct degraded
	// links that form a shared-cause pattern.
	MinLinksForPattern int
	// DegradationThreshold is the minimum per-direction degradation
	// fraction for the bidirectional detector (0.2 = 20%).
	DegradationThreshold float64
	// InstabilityThreshold is the minimum mean instability marking a
	// link degraded for the hub-antenna detector (0.3 = 30%).
	InstabilityThreshold float64
}

// DefaultConfig returns the canonical thresholds.
func DefaultConfig() Config {
	return Config{
		WarningGrade:         7.0,
		CriticalGrade:        6.0,
		MinLinksForPattern:   2,
		DegradationThreshold: 0.2,
		InstabilityThreshold: 0.3,
	}
}

// GradeProvider supplies the pre-fetched entity and grade series an
// analysis consumes. The engine never issues storage queries itself.
type GradeProvider interface {
	LinksInNetwork(ctx context.Context, networkID int64) ([]models.Link, error)
	Site(ctx context.Context, siteID int64) (*models.Site, error)
	LinksAtSite(ctx context.Context, siteID int64) ([]models.Link, error)
	LinksForSatellite(ctx context.Context, satellite string) ([]models.Link, error)
	LinkGrades(ctx context.Context, linkID int64, since time.Time) ([]models.LinkGrade, error)
}

// Engine runs the four correlation analyses. Stateless and safe for
// concurrent use.
type Engine struct {
	cfg      Config
	provider GradeProvider
	now      func() time.Time
}

// NewEngine wires an engine to its data source. A zero Config falls
// back to DefaultConfig.
func NewEngine(provider GradeProvider, cfg Config) *Engine {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg, provider: provider, now: time.Now}
}

// AnalyzeNetwork looks for multiple links of one network degrading
// within the same hour, the signature of a shared equipment or hardware
// failure.
func (e *Engine) AnalyzeNetwork(ctx context.Context, networkID int64, hours int) (*models.CorrelationAnalysis, error) {
	hours = normalizeHours(hours)
	analysis := e.newAnalysis(models.ScopeNetwork, fmt.Sprintf("%d", networkID), "NET", hours)

	links, err := e.provider.LinksInNetwork(ctx, networkID)
	if err != nil {
		return nil, fmt.Errorf("load links for network %d: %w", networkID, err)
	}
	if len(links) == 0 {
		return e.finish(analysis, []string{"No links found in this network"}), nil
	}

	degraded, err := e.degradedGrades(ctx, links, hours, func(g models.LinkGrade) bool {
		return g.Grade < e.cfg.WarningGrade
	})
	if err != nil {
		return nil, err
	}
	if len(degraded) == 0 {
		return e.finish(analysis, []string{"No degradation detected in this network"}), nil
	}

	analysis.Patterns = e.detectTemporal(degraded, networkID)
	analysis.CorrelationScore = correlationScore(degraded)

	siteIDs := map[int64]struct{}{}
	for _, l := range links {
		if _, ok := degraded[l.LinkID]; ok {
			siteIDs[l.SiteID] = struct{}{}
		}
	}
	analysis.Recommendations = networkRecommendations(len(siteIDs), len(degraded), analysis.CorrelationScore, analysis.Patterns)
	return e.finish(analysis, nil), nil
}

// AnalyzeHubAntenna looks for instability across the links of one hub
// antenna site, the signature of an alignment or hub equipment problem.
// Fails with ErrNotHubAntenna when the site is not a hub.
func (e *Engine) AnalyzeHubAntenna(ctx context.Context, siteID int64, hours int) (*models.CorrelationAnalysis, error) {
	hours = normalizeHours(hours)
	analysis := e.newAnalysis(models.ScopeHubAntenna, fmt.Sprintf("%d", siteID), "HUB", hours)

	site, err := e.provider.Site(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("load site %d: %w", siteID, err)
	}
	if site == nil || !strings.Contains(strings.ToLower(site.Type), "hub") {
		return nil, fmt.Errorf("site %d: %w", siteID, ErrNotHubAntenna)
	}

	links, err := e.provider.LinksAtSite(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("load links for site %d: %w", siteID, err)
	}

	degraded := map[int64][]models.LinkGrade{}
	since := e.now().UTC().Add(-time.Duration(hours) * time.Hour)
	for _, link := range links {
		grades, err := e.provider.LinkGrades(ctx, link.LinkID, since)
		if err != nil {
			return nil, fmt.Errorf("load grades for link %d: %w", link.LinkID, err)
		}
		if len(grades) == 0 {
			continue
		}
		ib, ob := meanInstability(grades)
		if ib > e.cfg.InstabilityThreshold || ob > e.cfg.InstabilityThreshold {
			degraded[link.LinkID] = grades
		}
	}
	if len(degraded) == 0 {
		return e.finish(analysis, []string{"No antenna-level degradation detected"}), nil
	}

	analysis.Patterns = e.detectAlignment(degraded, siteID)
	analysis.CorrelationScore = correlationScore(degraded)
	analysis.Recommendations = antennaRecommendations(len(degraded), len(links), analysis.CorrelationScore)
	return e.finish(analysis, nil), nil
}

// AnalyzeSatellite looks for simultaneous degradation across the links
// riding one satellite, the signature of interference or satellite
// underperformance.
func (e *Engine) AnalyzeSatellite(ctx context.Context, satellite string, hours int) (*models.CorrelationAnalysis, error) {
	hours = normalizeHours(hours)
	analysis := e.newAnalysis(models.ScopeSatellite, satellite, "SAT", hours)

	links, err := e.provider.LinksForSatellite(ctx, satellite)
	if err != nil {
		return nil, fmt.Errorf("load links for satellite %q: %w", satellite, err)
	}
	if len(links) == 0 {
		return e.finish(analysis, []string{"No matching satellite links found"}), nil
	}

	degraded, err := e.degradedGrades(ctx, links, hours, func(g models.LinkGrade) bool {
		return g.Grade < e.cfg.WarningGrade
	})
	if err != nil {
		return nil, err
	}
	if len(degraded) == 0 {
		return e.finish(analysis, []string{"No degradation detected on this satellite"}), nil
	}

	analysis.Patterns = e.detectSatellite(degraded, satellite)
	analysis.CorrelationScore = correlationScore(degraded)
	analysis.Recommendations = satelliteRecommendations(len(degraded), analysis.CorrelationScore)
	return e.finish(analysis, nil), nil
}

// AnalyzeLink looks for simultaneous inbound and outbound degradation
// on a single link, the signature of antenna misalignment.
func (e *Engine) AnalyzeLink(ctx context.Context, linkID int64, hours int) (*models.CorrelationAnalysis, error) {
	hours = normalizeHours(hours)
	analysis := e.newAnalysis(models.ScopeLink, fmt.Sprintf("%d", linkID), "LINK", hours)

	since := e.now().UTC().Add(-time.Duration(hours) * time.Hour)
	grades, err := e.provider.LinkGrades(ctx, linkID, since)
	if err != nil {
		return nil, fmt.Errorf("load grades for link %d: %w", linkID, err)
	}
	if len(grades) == 0 {
		return e.finish(analysis, []string{"Insufficient data for analysis"}), nil
	}
	// The provider owns the slice it hands out; sort a copy.
	grades = append([]models.LinkGrade(nil), grades...)
	sort.Slice(grades, func(i, j int) bool { return grades[i].Timestamp.Before(grades[j].Timestamp) })

	analysis.Patterns = e.detectBidirectional(grades, linkID)
	if len(analysis.Patterns) == 0 {
		return e.finish(analysis, []string{"No bidirectional degradation detected"}), nil
	}

	analysis.CorrelationScore = bidirectionalScore(grades, e.cfg.DegradationThreshold)
	analysis.Recommendations = bidirectionalRecommendations(analysis.CorrelationScore)
	return e.finish(analysis, nil), nil
}

// degradedGrades fetches each link's grades inside the window and keeps
// links with at least one record matching the filter.
func (e *Engine) degradedGrades(ctx context.Context, links []models.Link, hours int, keep func(models.LinkGrade) bool) (map[int64][]models.LinkGrade, error) {
	since := e.now().UTC().Add(-time.Duration(hours) * time.Hour)
	degraded := map[int64][]models.LinkGrade{}
	for _, link := range links {
		grades, err := e.provider.LinkGrades(ctx, link.LinkID, since)
		if err != nil {
			return nil, fmt.Errorf("load grades for link %d: %w", link.LinkID, err)
		}
		var kept []models.LinkGrade
		for _, g := range grades {
			if keep(g) {
				kept = append(kept, g)
			}
		}
		if len(kept) > 0 {
			degraded[link.LinkID] = kept
		}
	}
	return degraded, nil
}

func (e *Engine) newAnalysis(scope models.Scope, scopeID, prefix string, hours int) *models.CorrelationAnalysis {
	return &models.CorrelationAnalysis{
		AnalysisID:    fmt.Sprintf("%s_%s_%s", prefix, scopeID, shortID()),
		Scope:         scope,
		ScopeID:       scopeID,
		Timestamp:     e.now().UTC(),
		HoursAnalyzed: hours,
	}
}

// finish clamps patterns, fills defaults, and records metrics.
func (e *Engine) finish(a *models.CorrelationAnalysis, advisories []string) *models.CorrelationAnalysis {
	if a.Patterns == nil {
		a.Patterns = []models.DegradationPattern{}
	}
	for i := range a.Patterns {
		a.Patterns[i].Clamp()
		metrics.PatternsDetected.WithLabelValues(string(a.Patterns[i].Type)).Inc()
	}
	if advisories != nil {
		a.Recommendations = advisories
	}
	metrics.CorrelationAnalyses.WithLabelValues(string(a.Scope)).Inc()
	slog.Info("correlation analysis complete",
		"analysis_id", a.AnalysisID, "scope", a.Scope, "scope_id", a.ScopeID,
		"patterns", len(a.Patterns), "correlation_score", a.CorrelationScore)
	return a
}

func normalizeHours(hours int) int {
	if hours <= 0 {
		return DefaultLookbackHours
	}
	return hours
}

// shortID returns an 8-hex-char run identifier.
func shortID() string {
	u := uuid.New()
	return fmt.Sprintf("%x", u[:4])
}

// meanInstability averages the per-direction instability of a grade
// series.
func meanInstability(grades []models.LinkGrade) (ib, ob float64) {
	for _, g := range grades {
		ib += g.IBInstability
		ob += g.OBInstability
	}
	n := float64(len(grades))
	return ib / n, ob / n
}
