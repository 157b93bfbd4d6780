package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/promptbroker/promptbroker/internal/adapters/outbound/profilestore"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write the stock profile catalog into a directory",
		Long:  "Install the embedded stock profiles (including the general_default fallback) into a directory so they can be edited and hot-reloaded.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "profiles"
			if len(args) > 0 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			written, err := profilestore.InstallBuiltin(abs, force)
			if err != nil {
				return fmt.Errorf("installing stock profiles: %w", err)
			}
			if len(written) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing to do: profiles already present in %s (use --force to overwrite)\n", abs)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d profiles to %s\n", len(written), abs)
			for _, name := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing profile files")

	return cmd
}
