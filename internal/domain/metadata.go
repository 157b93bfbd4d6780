package domain

// Intent is the coarse classification of what the prompt asks for.
type Intent string

const (
	IntentStatement      Intent = "statement"
	IntentQuestion       Intent = "question"
	IntentBugReport      Intent = "bug_report"
	IntentBrainstorm     Intent = "brainstorm"
	IntentDiagnosis      Intent = "diagnosis"
	IntentReview         Intent = "review"
	IntentCodeGeneration Intent = "code_generation"
	IntentOther          Intent = "other"
)

// Sensitivity grades how carefully a prompt must be handled.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// Tone is the register of the prompt.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneUrgent  Tone = "urgent"
	ToneFormal  Tone = "formal"
	ToneCasual  Tone = "casual"
)

// Complexity buckets a prompt by how much work it implies.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// ParsedMetadata is what the analyser extracts from a raw prompt.
type ParsedMetadata struct {
	Prompt       string      `json:"prompt"`
	Intent       Intent      `json:"intent"`
	Domain       string      `json:"domain,omitempty"`
	Topics       []string    `json:"topics,omitempty"`
	Capabilities []string    `json:"capabilities,omitempty"`
	Sensitivity  Sensitivity `json:"sensitivity"`
	SafetyScore  int         `json:"safety_score"`
	Tone         Tone        `json:"tone"`
	Complexity   Complexity  `json:"complexity"`
	WordCount    int         `json:"word_count"`
}

// EnhancedMetadata is ParsedMetadata with caller-supplied overrides merged
// in. Caller values win over analyser values.
type EnhancedMetadata struct {
	ParsedMetadata

	Priority    string   `json:"priority,omitempty"`
	Audience    string   `json:"audience,omitempty"`
	Language    string   `json:"language,omitempty"`
	ContextTags []string `json:"context_tags,omitempty"`
}

// ApplyOverrides merges the recognised override keys into the metadata.
// Unknown keys are ignored. context_tags and capabilities are unioned with
// the analyser's values rather than replacing them.
func (m *EnhancedMetadata) ApplyOverrides(overrides map[string]any) {
	for key, raw := range overrides {
		switch key {
		case "domain":
			if v, ok := raw.(string); ok {
				m.Domain = v
			}
		case "intent":
			if v, ok := raw.(string); ok {
				m.Intent = Intent(v)
			}
		case "sensitivity":
			if v, ok := raw.(string); ok {
				m.Sensitivity = Sensitivity(v)
			}
		case "priority":
			if v, ok := raw.(string); ok {
				m.Priority = v
			}
		case "audience":
			if v, ok := raw.(string); ok {
				m.Audience = v
			}
		case "language":
			if v, ok := raw.(string); ok {
				m.Language = v
			}
		case "complexity":
			if v, ok := raw.(string); ok {
				m.Complexity = Complexity(v)
			}
		case "context_tags":
			m.ContextTags = unionTags(m.ContextTags, stringList(raw))
		case "capabilities":
			m.Capabilities = unionTags(m.Capabilities, stringList(raw))
		}
	}
}

// RoutingTags is the tag set the required-context gate checks against:
// topics, capabilities and caller context tags, deduplicated.
func (m *EnhancedMetadata) RoutingTags() map[string]bool {
	tags := make(map[string]bool, len(m.Topics)+len(m.Capabilities)+len(m.ContextTags))
	for _, t := range m.Topics {
		tags[t] = true
	}
	for _, c := range m.Capabilities {
		tags[c] = true
	}
	for _, t := range m.ContextTags {
		tags[t] = true
	}
	return tags
}

func stringList(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func unionTags(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	out := existing
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range extra {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
