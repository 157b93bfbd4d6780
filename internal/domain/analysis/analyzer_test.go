package analysis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptbroker/promptbroker/internal/domain"
	"github.com/promptbroker/promptbroker/internal/domain/analysis"
)

func newAnalyzer(t *testing.T) *analysis.Analyzer {
	t.Helper()
	a, err := analysis.New(domain.DefaultConfig())
	require.NoError(t, err)
	return a
}

func TestAnalyze_EmptyPrompt(t *testing.T) {
	a := newAnalyzer(t)
	meta := a.Analyze("", nil)

	assert.Equal(t, domain.IntentStatement, meta.Intent)
	assert.Empty(t, meta.Domain)
	assert.Empty(t, meta.Topics)
	assert.Equal(t, domain.SensitivityLow, meta.Sensitivity)
	assert.Equal(t, 100, meta.SafetyScore)
	assert.Equal(t, domain.ToneNeutral, meta.Tone)
	assert.Equal(t, domain.ComplexitySimple, meta.Complexity)
	assert.Equal(t, 0, meta.WordCount)
}

func TestAnalyze_IntentClassification(t *testing.T) {
	a := newAnalyzer(t)

	tests := []struct {
		prompt string
		want   domain.Intent
	}{
		{"Debug my Python script that throws KeyError on line 42", domain.IntentDiagnosis},
		{"The app crashed with an error during startup", domain.IntentBugReport},
		{"Potřebuji vymyslet nápady pro logo fitness aplikace", domain.IntentBrainstorm},
		{"Please review my pull request before merging", domain.IntentReview},
		{"Napiš funkci pro výpočet průměru", domain.IntentCodeGeneration},
		{"What is the capital of France?", domain.IntentQuestion},
		{"The sky was blue yesterday.", domain.IntentStatement},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			meta := a.Analyze(tt.prompt, nil)
			assert.Equal(t, tt.want, meta.Intent, "prompt: %s", tt.prompt)
		})
	}
}

func TestAnalyze_IntentOrderingDiagnosisBeforeBugReport(t *testing.T) {
	a := newAnalyzer(t)

	// "debug" and "error" are both present; the first table entry wins.
	meta := a.Analyze("Help me debug this error", nil)
	assert.Equal(t, domain.IntentDiagnosis, meta.Intent)
}

func TestAnalyze_DomainDetection(t *testing.T) {
	a := newAnalyzer(t)

	meta := a.Analyze("My Python code does not compile", nil)
	assert.Equal(t, "engineering", meta.Domain)

	meta = a.Analyze("We need a GDPR audit next quarter", nil)
	assert.Equal(t, "compliance", meta.Domain)

	// Engineering comes first in the table, so mixed prompts resolve to it.
	meta = a.Analyze("Why does my code fail the compliance audit?", nil)
	assert.Equal(t, "engineering", meta.Domain)

	meta = a.Analyze("Good morning everyone", nil)
	assert.Empty(t, meta.Domain)
}

func TestAnalyze_TopicsAndCapabilities(t *testing.T) {
	a := newAnalyzer(t)

	meta := a.Analyze("Debug my Python script that throws KeyError on line 42", nil)

	assert.Equal(t, []string{"python"}, meta.Topics, "KeyError is lowercased before matching")
	assert.Contains(t, meta.Capabilities, "programming")
	assert.Contains(t, meta.Capabilities, "python")
	assert.Contains(t, meta.Capabilities, "code_generation", "seeded from the python topic")
}

func TestAnalyze_SensitivePromptCapsSafetyScore(t *testing.T) {
	a := newAnalyzer(t)

	meta := a.Analyze("Process this patient SSN record", nil)

	assert.Equal(t, domain.SensitivityHigh, meta.Sensitivity)
	assert.Contains(t, meta.Topics, "pii")
	assert.LessOrEqual(t, meta.SafetyScore, 40)
	assert.Equal(t, 35, meta.SafetyScore, "40 base minus one risk token (ssn)")
	assert.Equal(t, "compliance", meta.Domain)
}

func TestAnalyze_RiskTokensDeductFromSafetyScore(t *testing.T) {
	a := newAnalyzer(t)

	meta := a.Analyze("My password is stored next to the token file", nil)

	assert.Equal(t, domain.SensitivityLow, meta.Sensitivity)
	assert.Equal(t, 90, meta.SafetyScore, "two risk tokens at 5 each")
}

func TestAnalyze_ToneDetection(t *testing.T) {
	a := newAnalyzer(t)

	tests := []struct {
		prompt string
		want   domain.Tone
	}{
		{"URGENT: production outage in eu-west", domain.ToneUrgent},
		{"Dear team, kindly have a look", domain.ToneFormal},
		{"hey, gonna need a hand with this", domain.ToneCasual},
		{"Summarise the quarterly report", domain.ToneNeutral},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			meta := a.Analyze(tt.prompt, nil)
			assert.Equal(t, tt.want, meta.Tone)
		})
	}
}

func TestAnalyze_ComplexityWordBoundaries(t *testing.T) {
	a := newAnalyzer(t)

	words := func(n int) string {
		return strings.TrimSpace(strings.Repeat("tree ", n))
	}

	tests := []struct {
		words int
		want  domain.Complexity
	}{
		{39, domain.ComplexitySimple},
		{40, domain.ComplexityMedium},
		{79, domain.ComplexityMedium},
		{80, domain.ComplexityComplex},
		{120, domain.ComplexityComplex},
	}
	for _, tt := range tests {
		meta := a.Analyze(words(tt.words), nil)
		assert.Equal(t, tt.want, meta.Complexity, "%d words", tt.words)
		assert.Equal(t, tt.words, meta.WordCount)
	}
}

func TestAnalyze_ComplexityKeywordOverridesWordCount(t *testing.T) {
	a := newAnalyzer(t)

	meta := a.Analyze("Plan the enterprise architecture migration", nil)
	assert.Equal(t, domain.ComplexityComplex, meta.Complexity)
}

func TestAnalyze_WordCountIgnoresBarePunctuation(t *testing.T) {
	a := newAnalyzer(t)

	meta := a.Analyze("KeyError on line 42 !!", nil)
	assert.Equal(t, 4, meta.WordCount)
}

func TestAnalyze_OverridesWin(t *testing.T) {
	a := newAnalyzer(t)

	meta := a.Analyze("Debug my Python script", map[string]any{
		"domain":       "creative",
		"context_tags": []any{"pii"},
	})

	assert.Equal(t, "creative", meta.Domain, "caller override beats detection")
	assert.Equal(t, []string{"pii"}, meta.ContextTags)
	assert.True(t, meta.RoutingTags()["pii"])
}
