package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vsatops/linksight/internal/cache"
	"github.com/vsatops/linksight/internal/forest"
	"github.com/vsatops/linksight/internal/metrics"
	"github.com/vsatops/linksight/pkg/models"
)

// DefaultSensitivity flags the top 5% of a batch by score.
const DefaultSensitivity = 0.95

// Options tunes the detector. Zero values fall back to defaults.
type Options struct {
	Trees      int
	Seed       int64
	MinSamples int
}

// Detector runs the scoring pipeline: extract features, fetch or train
// a scorer, score the batch, classify severities. Stateless apart from
// the shared model cache; safe for concurrent use.
type Detector struct {
	cache *cache.ModelCache
	opts  Options
	now   func() time.Time
}

// NewDetector wires a detector to a model cache. A nil cache disables
// caching (every call trains a fresh scorer).
func NewDetector(c *cache.ModelCache, opts Options) *Detector {
	if opts.Trees <= 0 {
		opts.Trees = forest.DefaultTrees
	}
	if opts.Seed == 0 {
		opts.Seed = forest.DefaultSeed
	}
	if opts.MinSamples <= 0 {
		opts.MinSamples = DefaultMinSamples
	}
	return &Detector{cache: c, opts: opts, now: time.Now}
}

// Detect scores a batch of records for the given domain and returns the
// flagged rows in index order. Sensitivity in [0,1] sets the expected
// outlier fraction (contamination = 1 - sensitivity). Batches below the
// minimum sample size return an empty, non-nil slice rather than an
// error.
func (d *Detector) Detect(ctx context.Context, domain Domain, records []Record, sensitivity float64) ([]models.AnomalyRecord, error) {
	start := d.now()
	if sensitivity <= 0 || sensitivity > 1 {
		sensitivity = DefaultSensitivity
	}

	fs, err := ExtractFeatures(records, domain, d.opts.MinSamples)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			slog.Warn("batch below minimum sample size, returning empty result",
				"domain", domain, "records", len(records), "min_samples", d.opts.MinSamples)
			return []models.AnomalyRecord{}, nil
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scorer, err := d.scorerFor(domain, fs)
	if err != nil {
		return nil, err
	}

	scores, err := scorer.Score(fs.Matrix)
	if err != nil {
		return nil, fmt.Errorf("score %s batch: %w", domain, err)
	}

	contamination := 1 - sensitivity
	cutoff := forest.Threshold(scores, contamination)

	anomalies := []models.AnomalyRecord{}
	for i, score := range scores {
		if score < cutoff {
			continue
		}
		severity := ClassifySeverity(score, scores)
		ts := fs.Timestamps[i]
		if ts.IsZero() {
			ts = d.now().UTC()
		}
		anomalies = append(anomalies, models.AnomalyRecord{
			Index:           i,
			Score:           score,
			Severity:        severity,
			AffectedMetrics: AffectedMetrics(fs.Matrix[i], fs.Matrix, fs.Columns),
			Timestamp:       ts,
		})
		metrics.AnomaliesDetected.WithLabelValues(string(domain), string(severity)).Inc()
	}

	metrics.ScoringTotal.WithLabelValues(string(domain)).Inc()
	metrics.ScoringDuration.WithLabelValues(string(domain)).Observe(d.now().Sub(start).Seconds())
	slog.Info("batch scored",
		"domain", domain, "records", len(records),
		"features", len(fs.Columns), "anomalies", len(anomalies))
	return anomalies, nil
}

// scorerFor returns a cached scorer for the batch shape or trains and
// caches a fresh one. Zero-variance columns inside the batch are
// handled by the scaler; a fully degenerate batch surfaces as an error.
func (d *Detector) scorerFor(domain Domain, fs *FeatureSet) (*forest.Forest, error) {
	var key cache.Key
	if d.cache != nil {
		key = cache.Key{
			Domain:       string(domain),
			FeatureCount: len(fs.Columns),
			BatchBucket:  cache.BatchBucket(len(fs.Matrix)),
		}
		if cached, ok := d.cache.Get(key); ok {
			metrics.ModelCacheHits.Inc()
			return cached, nil
		}
		metrics.ModelCacheMisses.Inc()
	}

	scorer := forest.New(forest.Options{Trees: d.opts.Trees, Seed: d.opts.Seed})
	if err := scorer.Fit(fs.Matrix); err != nil {
		return nil, fmt.Errorf("train %s scorer: %w", domain, err)
	}
	if d.cache != nil {
		d.cache.Set(key, scorer)
	}
	return scorer, nil
}
