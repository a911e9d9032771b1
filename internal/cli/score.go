package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsatops/linksight/internal/analysis"
	"github.com/vsatops/linksight/internal/cache"
	"github.com/vsatops/linksight/internal/config"
	"github.com/vsatops/linksight/internal/dataload"
)

// NewScoreCmd creates the 'score' command: score one metrics CSV for
// outliers and print the flagged rows as JSON.
func NewScoreCmd() *cobra.Command {
	var (
		domain      string
		input       string
		sensitivity float64
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a metrics batch for outliers",
		Example: `  # Score network metrics at the default sensitivity
  linksight score --domain network --input metrics.csv

  # Flag the top 10% instead of the top 5%
  linksight score --domain link --input link_kpis.csv --sensitivity 0.90`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if sensitivity == 0 {
				sensitivity = cfg.Detection.Sensitivity
			}

			records, err := dataload.ReadRecordsCSV(input)
			if err != nil {
				return err
			}

			detector := analysis.NewDetector(
				cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries),
				analysis.Options{
					Trees:      cfg.Detection.Trees,
					Seed:       cfg.Detection.Seed,
					MinSamples: cfg.Detection.MinSamples,
				})
			anomalies, err := detector.Detect(cmd.Context(), analysis.Domain(domain), records, sensitivity)
			if err != nil {
				return fmt.Errorf("score %s batch: %w", domain, err)
			}

			return printJSON(cmd.OutOrStdout(), map[string]any{
				"domain":      domain,
				"records":     len(records),
				"sensitivity": sensitivity,
				"anomalies":   anomalies,
			})
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "network", "metric domain: network, site, or link")
	cmd.Flags().StringVar(&input, "input", "", "metrics CSV to score")
	cmd.Flags().Float64Var(&sensitivity, "sensitivity", 0, "detection sensitivity in (0,1]; defaults to configuration")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
