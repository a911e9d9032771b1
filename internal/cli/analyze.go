package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vsatops/linksight/internal/config"
	"github.com/vsatops/linksight/internal/correlation"
	"github.com/vsatops/linksight/internal/dataload"
	"github.com/vsatops/linksight/pkg/models"
)

// NewAnalyzeCmd creates the 'analyze' command group: one subcommand
// per correlation scope, all reading the configured data directory.
func NewAnalyzeCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Correlate link grade degradation at one scope",
		Example: `  # Network-wide simultaneous degradation
  linksight analyze network 9

  # Hub antenna instability over the last 48 hours
  linksight analyze hub 55 --hours 48

  # All links riding one satellite
  linksight analyze satellite IS-21

  # Bidirectional degradation on one link
  linksight analyze link 42`,
	}
	cmd.PersistentFlags().IntVar(&hours, "hours", 0, "lookback window in hours; defaults to configuration")

	run := func(cmd *cobra.Command, analyze func(*correlation.Engine, int) (*models.CorrelationAnalysis, error)) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if hours == 0 {
			hours = cfg.Analysis.LookbackHours
		}
		engine := correlation.NewEngine(dataload.New(cfg.Data.Dir), correlation.Config{
			WarningGrade:         cfg.Analysis.WarningGrade,
			CriticalGrade:        cfg.Analysis.CriticalGrade,
			MinLinksForPattern:   cfg.Analysis.MinLinksForPattern,
			DegradationThreshold: cfg.Analysis.DegradationThreshold,
			InstabilityThreshold: cfg.Analysis.InstabilityThreshold,
		})
		result, err := analyze(engine, hours)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "network <network-id>",
		Short: "Detect simultaneous degradation across a network's links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(e *correlation.Engine, h int) (*models.CorrelationAnalysis, error) {
				return e.AnalyzeNetwork(cmd.Context(), id, h)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "hub <site-id>",
		Short: "Detect alignment issues on a hub antenna's links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(e *correlation.Engine, h int) (*models.CorrelationAnalysis, error) {
				return e.AnalyzeHubAntenna(cmd.Context(), id, h)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "satellite <name>",
		Short: "Detect interference across one satellite's links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(e *correlation.Engine, h int) (*models.CorrelationAnalysis, error) {
				return e.AnalyzeSatellite(cmd.Context(), args[0], h)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "link <link-id>",
		Short: "Detect bidirectional degradation on one link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(e *correlation.Engine, h int) (*models.CorrelationAnalysis, error) {
				return e.AnalyzeLink(cmd.Context(), id, h)
			})
		},
	})

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}
