// Package cli is the cobra command surface of the prompt broker binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	envconfig "github.com/promptbroker/promptbroker/internal/adapters/outbound/config"
	"github.com/promptbroker/promptbroker/internal/adapters/outbound/profilestore"
	"github.com/promptbroker/promptbroker/internal/application"
	"github.com/promptbroker/promptbroker/internal/domain"
	"github.com/promptbroker/promptbroker/internal/domain/analysis"
	"github.com/promptbroker/promptbroker/internal/domain/routing"
)

var (
	version = "dev"
	commit  = "none"
)

// errConfig marks startup configuration failures so Execute can exit 2
// instead of the generic 1.
var errConfig = errors.New("configuration error")

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "promptbroker",
		Short:         "Route prompts to the best-matching instruction profile",
		Long:          "promptbroker selects the single best-matching instruction profile for a prompt from a hot-reloadable markdown catalog, and serves the catalog to AI-assistant hosts over MCP stdio.",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("profiles-dir", "", "directory of .md profile files (default: embedded stock catalog, or MCP_PROFILES_DIR)")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default: info, or MCP_LOG_LEVEL)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newInitCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the CLI and maps failures to exit codes: 0 ok, 1 error,
// 2 configuration error.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "promptbroker: %v\n", err)
		if errors.Is(err, errConfig) {
			return 2
		}
		return 1
	}
	return 0
}

// buildConfig layers flag values over environment over defaults and
// validates the result.
func buildConfig(cmd *cobra.Command) (domain.Config, error) {
	cfg, err := envconfig.FromEnv()
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", errConfig, err)
	}
	if dir, _ := cmd.Flags().GetString("profiles-dir"); dir != "" {
		cfg.ProfilesDir = dir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %v", errConfig, err)
	}
	if cfg.ProfilesDir != "" {
		if _, err := os.Stat(cfg.ProfilesDir); err != nil {
			return cfg, fmt.Errorf("%w: profiles directory %s: %v", errConfig, cfg.ProfilesDir, err)
		}
	}
	return cfg, nil
}

// newLogger writes structured logs to stderr only; stdout belongs to the
// MCP transport.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", errConfig, level)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// newBroker assembles the full service stack and performs the initial
// catalog load.
func newBroker(ctx context.Context, cfg domain.Config, logger *zap.Logger) (*application.BrokerService, *profilestore.Store, error) {
	store := profilestore.New(cfg, logger)
	if _, err := store.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("loading profile catalog: %w", err)
	}

	analyzer, err := analysis.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("building analyzer: %w", err)
	}

	svc := application.NewBrokerService(store, analyzer, routing.New(cfg), logger)
	return svc, store, nil
}
