package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptbroker/promptbroker/internal/adapters/outbound/config"
	"github.com/promptbroker/promptbroker/internal/domain"
)

func TestFromEnv_DefaultsWhenUnset(t *testing.T) {
	for _, key := range []string{
		"MCP_PROFILES_DIR", "MCP_LOG_LEVEL", "MCP_COMPLEXITY_ROUTING",
		"MCP_COMPLEXITY_WORD_HIGH", "MCP_COMPLEXITY_WORD_MEDIUM", "MCP_COMPLEXITY_PREFER_THRESHOLD",
	} {
		t.Setenv(key, "")
	}

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MCP_PROFILES_DIR", "/etc/broker/profiles")
	t.Setenv("MCP_LOG_LEVEL", "debug")
	t.Setenv("MCP_COMPLEXITY_ROUTING", "false")
	t.Setenv("MCP_COMPLEXITY_WORD_HIGH", "100")
	t.Setenv("MCP_COMPLEXITY_WORD_MEDIUM", "50")
	t.Setenv("MCP_COMPLEXITY_PREFER_THRESHOLD", "75")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/etc/broker/profiles", cfg.ProfilesDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.ComplexityRouting)
	assert.Equal(t, 100, cfg.WordHighThreshold)
	assert.Equal(t, 50, cfg.WordMediumThreshold)
	assert.Equal(t, 75, cfg.PreferThreshold)
}

func TestFromEnv_InvalidBool(t *testing.T) {
	t.Setenv("MCP_COMPLEXITY_ROUTING", "maybe")
	_, err := config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MCP_COMPLEXITY_ROUTING")
}

func TestFromEnv_InvalidInt(t *testing.T) {
	t.Setenv("MCP_COMPLEXITY_WORD_HIGH", "lots")
	_, err := config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MCP_COMPLEXITY_WORD_HIGH")
}
