package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptbroker/promptbroker/internal/adapters/outbound/tui"
)

func newListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalogued profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			svc, _, err := newBroker(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			profiles := svc.ListProfiles()
			if asJSON {
				data, err := json.MarshalIndent(profiles, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderProfileList(profiles))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the profile list as JSON")

	return cmd
}
