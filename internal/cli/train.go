package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsatops/linksight/internal/analysis"
	"github.com/vsatops/linksight/internal/config"
	"github.com/vsatops/linksight/internal/dataload"
	"github.com/vsatops/linksight/internal/forest"
	"github.com/vsatops/linksight/pkg/models"
)

const modelCategory = "anomaly"

// NewTrainCmd creates the 'train' command: fit a scorer on a metrics
// CSV and persist the artifact to the model store.
func NewTrainCmd() *cobra.Command {
	var (
		domain      string
		input       string
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a scorer on a metrics batch and persist it",
		Example: `  # Train a network scorer from a day of metrics
  linksight train --domain network --input metrics.csv

  # Name the stored model explicitly
  linksight train --domain link --input kpis.csv --name offshore-links`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if name == "" {
				name = domain + "-scorer"
			}

			records, err := dataload.ReadRecordsCSV(input)
			if err != nil {
				return err
			}
			fs, err := analysis.ExtractFeatures(records, analysis.Domain(domain), cfg.Detection.MinSamples)
			if err != nil {
				return fmt.Errorf("extract %s features: %w", domain, err)
			}

			scorer := forest.New(forest.Options{
				Trees: cfg.Detection.Trees,
				Seed:  cfg.Detection.Seed,
			})
			if err := scorer.Fit(fs.Matrix); err != nil {
				return fmt.Errorf("train %s scorer: %w", domain, err)
			}
			artifact, err := scorer.Encode()
			if err != nil {
				return fmt.Errorf("encode scorer: %w", err)
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			meta, err := st.Save(cmd.Context(), modelCategory, artifact, models.ModelMetadata{
				Name:        name,
				Type:        "isolation_forest",
				Description: description,
				Hyperparameters: map[string]any{
					"domain": domain,
					"trees":  cfg.Detection.Trees,
					"seed":   cfg.Detection.Seed,
				},
				Metrics: map[string]float64{
					"training_rows":     float64(len(fs.Matrix)),
					"training_features": float64(len(fs.Columns)),
				},
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), meta)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "network", "metric domain: network, site, or link")
	cmd.Flags().StringVar(&input, "input", "", "metrics CSV to train on")
	cmd.Flags().StringVar(&name, "name", "", "stored model name; defaults to <domain>-scorer")
	cmd.Flags().StringVar(&description, "description", "", "free-form model description")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
