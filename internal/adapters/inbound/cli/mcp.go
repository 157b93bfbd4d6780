package cli

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpadapter "github.com/promptbroker/promptbroker/internal/adapters/inbound/mcp"
	"github.com/promptbroker/promptbroker/internal/adapters/outbound/profilestore"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the prompt broker MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd())
	return cmd
}

func newMCPServeCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the prompt broker MCP server (stdio)",
		Long:  "Start the MCP server on stdio. AI-assistant hosts call the broker tools to resolve prompts against the profile catalog. Exits cleanly on stdin EOF.",
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

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			svc, store, err := newBroker(ctx, cfg, logger)
			if err != nil {
				return err
			}

			if watch {
				watcher, err := profilestore.NewWatcher(store, cfg.ProfilesDir, logger)
				if err != nil {
					return err
				}
				go func() {
					if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
						logger.Error("profile watcher stopped", zap.Error(err))
					}
				}()
			}

			logger.Info("mcp server starting",
				zap.String("version", version),
				zap.String("profiles_dir", cfg.ProfilesDir),
				zap.Bool("watch", watch))

			s := mcpadapter.NewPromptBrokerServer(svc, version, logger)
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "reload the catalog automatically when profile files change")

	return cmd
}
