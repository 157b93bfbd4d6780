package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promptbroker/promptbroker/internal/domain"
)

func TestApplyOverrides_ScalarKeysReplace(t *testing.T) {
	m := domain.EnhancedMetadata{
		ParsedMetadata: domain.ParsedMetadata{
			Intent:      domain.IntentQuestion,
			Domain:      "engineering",
			Sensitivity: domain.SensitivityLow,
			Complexity:  domain.ComplexitySimple,
		},
	}

	m.ApplyOverrides(map[string]any{
		"domain":      "compliance",
		"intent":      "bug_report",
		"sensitivity": "high",
		"priority":    "critical",
		"audience":    "executives",
		"language":    "cs",
		"complexity":  "complex",
	})

	assert.Equal(t, "compliance", m.Domain)
	assert.Equal(t, domain.IntentBugReport, m.Intent)
	assert.Equal(t, domain.SensitivityHigh, m.Sensitivity)
	assert.Equal(t, "critical", m.Priority)
	assert.Equal(t, "executives", m.Audience)
	assert.Equal(t, "cs", m.Language)
	assert.Equal(t, domain.ComplexityComplex, m.Complexity)
}

func TestApplyOverrides_UnknownKeysIgnored(t *testing.T) {
	m := domain.EnhancedMetadata{
		ParsedMetadata: domain.ParsedMetadata{Domain: "engineering"},
	}

	m.ApplyOverrides(map[string]any{
		"profile_name": "technical_support",
		"favourite":    "blue",
		"score":        42,
	})

	assert.Equal(t, "engineering", m.Domain, "unknown keys must not touch recognised fields")
}

func TestApplyOverrides_WrongTypeIgnored(t *testing.T) {
	m := domain.EnhancedMetadata{
		ParsedMetadata: domain.ParsedMetadata{Domain: "engineering"},
	}

	m.ApplyOverrides(map[string]any{"domain": 7})

	assert.Equal(t, "engineering", m.Domain)
}

func TestApplyOverrides_TagsUnioned(t *testing.T) {
	m := domain.EnhancedMetadata{
		ParsedMetadata: domain.ParsedMetadata{
			Topics:       []string{"python"},
			Capabilities: []string{"programming"},
		},
		ContextTags: []string{"pii"},
	}

	// JSON-decoded arguments arrive as []any.
	m.ApplyOverrides(map[string]any{
		"context_tags": []any{"compliance", "pii"},
		"capabilities": []any{"programming", "code_generation"},
	})

	assert.Equal(t, []string{"pii", "compliance"}, m.ContextTags, "union keeps order, drops duplicates")
	assert.Equal(t, []string{"programming", "code_generation"}, m.Capabilities)
}

func TestApplyOverrides_SingleStringTag(t *testing.T) {
	m := domain.EnhancedMetadata{}
	m.ApplyOverrides(map[string]any{"context_tags": "pii"})

	assert.Equal(t, []string{"pii"}, m.ContextTags)
}

func TestRoutingTags_UnionOfAllTagSources(t *testing.T) {
	m := domain.EnhancedMetadata{
		ParsedMetadata: domain.ParsedMetadata{
			Topics:       []string{"python", "pii"},
			Capabilities: []string{"programming", "python"},
		},
		ContextTags: []string{"compliance"},
	}

	tags := m.RoutingTags()

	assert.Len(t, tags, 4)
	for _, want := range []string{"python", "pii", "programming", "compliance"} {
		assert.True(t, tags[want], "missing tag %q", want)
	}
}
