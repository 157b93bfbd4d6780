package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptbroker/promptbroker/internal/adapters/outbound/tui"
)

func newResolveCmd() *cobra.Command {
	var (
		asJSON  bool
		profile string
	)

	cmd := &cobra.Command{
		Use:   "resolve <prompt>",
		Short: "Route a prompt against the catalog once and print the decision",
		Args:  cobra.MinimumNArgs(1),
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

			overrides := map[string]any{}
			if profile != "" {
				overrides["profile_name"] = profile
			}

			result, err := svc.Resolve(cmd.Context(), strings.Join(args, " "), overrides)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderResult(result))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw routing result as JSON")
	cmd.Flags().StringVar(&profile, "profile", "", "force a specific profile instead of scoring")

	return cmd
}
