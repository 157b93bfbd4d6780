// Package config overlays MCP_* environment variables on the compiled-in
// defaults. CLI flags are applied on top by the command layer, so the
// precedence is flags > environment > defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/promptbroker/promptbroker/internal/domain"
)

const (
	envProfilesDir       = "MCP_PROFILES_DIR"
	envLogLevel          = "MCP_LOG_LEVEL"
	envComplexityRouting = "MCP_COMPLEXITY_ROUTING"
	envWordHigh          = "MCP_COMPLEXITY_WORD_HIGH"
	envWordMedium        = "MCP_COMPLEXITY_WORD_MEDIUM"
	envPreferThreshold   = "MCP_COMPLEXITY_PREFER_THRESHOLD"
)

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (domain.Config, error) {
	cfg := domain.DefaultConfig()

	if v := os.Getenv(envProfilesDir); v != "" {
		cfg.ProfilesDir = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(envComplexityRouting); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s=%q: %w", envComplexityRouting, v, err)
		}
		cfg.ComplexityRouting = b
	}

	for _, iv := range []struct {
		env  string
		dest *int
	}{
		{envWordHigh, &cfg.WordHighThreshold},
		{envWordMedium, &cfg.WordMediumThreshold},
		{envPreferThreshold, &cfg.PreferThreshold},
	} {
		v := os.Getenv(iv.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s=%q: %w", iv.env, v, err)
		}
		*iv.dest = n
	}

	return cfg, nil
}
