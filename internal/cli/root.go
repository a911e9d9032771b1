// Package cli wires the offline commands: score a metrics batch,
// run correlation analyses over the flat-file exports, train and
// persist scorers, and manage the model store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vsatops/linksight/internal/config"
	"github.com/vsatops/linksight/internal/store"
)

// NewRootCmd assembles the linksight command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linksight",
		Short: "Network performance outlier scoring and degradation correlation",
		Long: `linksight scores batches of network performance metrics for outliers
and correlates link grade degradation across networks, hub antennas,
satellites, and individual links.

Configuration is read from LINKSIGHT_* environment variables.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		NewScoreCmd(),
		NewAnalyzeCmd(),
		NewTrainCmd(),
		NewModelsCmd(),
	)
	return cmd
}

// openStore picks the model store backend from configuration: Redis
// when LINKSIGHT_REDIS_URL is set, the local filesystem otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store.RedisURL != "" {
		return store.NewRedisStore(ctx, cfg.Store.RedisURL)
	}
	return store.NewFSStore(cfg.Store.Dir)
}

// printJSON renders a result to the command's stdout.
func printJSON(w io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}
