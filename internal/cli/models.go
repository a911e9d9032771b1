package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsatops/linksight/internal/config"
)

// NewModelsCmd creates the 'models' command group for inspecting and
// pruning the model store.
func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect and manage stored models",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every stored model version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			metas, err := st.List(cmd.Context(), modelCategory)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), metas)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <name> <version>",
		Short: "Check a stored model's integrity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := st.Verify(cmd.Context(), modelCategory, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s: checksum ok\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name> <version>",
		Short: "Delete one stored model version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := st.Delete(cmd.Context(), modelCategory, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s v%s\n", args[0], args[1])
			return nil
		},
	})

	return cmd
}
