// Package analysis extracts routing metadata from raw prompts using
// keyword-driven classification. The tables live in an embedded data file
// so deployments can be audited without reading code.
package analysis

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/promptbroker/promptbroker/internal/domain"
)

//go:embed keywords.yaml
var keywordsYAML []byte

// KeywordTables holds all classification tables. Intent and domain entries
// are ordered: the first entry with any matching keyword wins.
type KeywordTables struct {
	Intents []struct {
		Intent   string   `yaml:"intent"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"intents"`
	Domains []struct {
		Domain   string   `yaml:"domain"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"domains"`
	Topics []struct {
		Topic    string   `yaml:"topic"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"topics"`
	Capabilities []struct {
		Capability string   `yaml:"capability"`
		Keywords   []string `yaml:"keywords"`
		Topics     []string `yaml:"topics"`
	} `yaml:"capabilities"`
	SensitiveTopics    []string            `yaml:"sensitive_topics"`
	RiskTokens         []string            `yaml:"risk_tokens"`
	Tones              map[string][]string `yaml:"tones"`
	ComplexityKeywords []string            `yaml:"complexity_keywords"`
}

// Analyzer implements domain.PromptAnalyzer.
type Analyzer struct {
	tables *KeywordTables
	cfg    domain.Config
}

// New builds an analyzer from the embedded keyword tables.
func New(cfg domain.Config) (*Analyzer, error) {
	var tables KeywordTables
	if err := yaml.Unmarshal(keywordsYAML, &tables); err != nil {
		return nil, fmt.Errorf("parsing embedded keyword tables: %w", err)
	}
	return NewWithTables(cfg, &tables), nil
}

// NewWithTables builds an analyzer with custom tables (tests).
func NewWithTables(cfg domain.Config, tables *KeywordTables) *Analyzer {
	return &Analyzer{tables: tables, cfg: cfg}
}

// Analyze classifies a prompt and merges caller overrides on top.
func (a *Analyzer) Analyze(prompt string, overrides map[string]any) domain.EnhancedMetadata {
	text := normalize(prompt)
	words := countWords(prompt)

	meta := domain.EnhancedMetadata{
		ParsedMetadata: domain.ParsedMetadata{
			Prompt:      prompt,
			Intent:      a.classifyIntent(text),
			Domain:      a.detectDomain(text),
			SafetyScore: 100,
			Tone:        a.detectTone(text),
			WordCount:   words,
		},
	}

	meta.Topics = a.collectTopics(text)
	meta.Capabilities = a.inferCapabilities(text, meta.Topics)
	meta.Sensitivity, meta.SafetyScore = a.assessSafety(text, meta.Topics)
	meta.Complexity = a.bucketComplexity(text, words)

	meta.ApplyOverrides(overrides)
	return meta
}

// normalize lowercases and collapses whitespace. Punctuation inside the
// text is kept so markers like "?" still match.
func normalize(prompt string) string {
	return strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
}

// countWords counts whitespace-separated tokens containing at least one
// letter or digit.
func countWords(prompt string) int {
	n := 0
	for _, tok := range strings.Fields(prompt) {
		if strings.ContainsFunc(tok, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) {
			n++
		}
	}
	return n
}

func (a *Analyzer) classifyIntent(text string) domain.Intent {
	for _, entry := range a.tables.Intents {
		if containsAny(text, entry.Keywords) {
			return domain.Intent(entry.Intent)
		}
	}
	return domain.IntentStatement
}

func (a *Analyzer) detectDomain(text string) string {
	for _, entry := range a.tables.Domains {
		if containsAny(text, entry.Keywords) {
			return entry.Domain
		}
	}
	return ""
}

func (a *Analyzer) collectTopics(text string) []string {
	var topics []string
	for _, entry := range a.tables.Topics {
		if containsAny(text, entry.Keywords) {
			topics = append(topics, entry.Topic)
		}
	}
	return topics
}

func (a *Analyzer) inferCapabilities(text string, topics []string) []string {
	topicSet := make(map[string]bool, len(topics))
	for _, t := range topics {
		topicSet[t] = true
	}

	var caps []string
	for _, entry := range a.tables.Capabilities {
		matched := containsAny(text, entry.Keywords)
		if !matched {
			for _, t := range entry.Topics {
				if topicSet[t] {
					matched = true
					break
				}
			}
		}
		if matched {
			caps = append(caps, entry.Capability)
		}
	}
	return caps
}

func (a *Analyzer) assessSafety(text string, topics []string) (domain.Sensitivity, int) {
	sensitive := make(map[string]bool, len(a.tables.SensitiveTopics))
	for _, t := range a.tables.SensitiveTopics {
		sensitive[t] = true
	}

	sensitiveHits := 0
	for _, t := range topics {
		if sensitive[t] {
			sensitiveHits++
		}
	}

	riskHits := 0
	for _, tok := range a.tables.RiskTokens {
		if strings.Contains(text, tok) {
			riskHits++
		}
	}

	if sensitiveHits > 0 {
		score := 40 - 5*(sensitiveHits-1) - 5*riskHits
		if score < 0 {
			score = 0
		}
		return domain.SensitivityHigh, score
	}

	score := 100 - 5*riskHits
	if score < 0 {
		score = 0
	}
	return domain.SensitivityLow, score
}

func (a *Analyzer) detectTone(text string) domain.Tone {
	for _, tone := range []domain.Tone{domain.ToneUrgent, domain.ToneFormal, domain.ToneCasual} {
		if containsAny(text, a.tables.Tones[string(tone)]) {
			return tone
		}
	}
	return domain.ToneNeutral
}

func (a *Analyzer) bucketComplexity(text string, words int) domain.Complexity {
	if words >= a.cfg.WordHighThreshold || containsAny(text, a.tables.ComplexityKeywords) {
		return domain.ComplexityComplex
	}
	if words >= a.cfg.WordMediumThreshold {
		return domain.ComplexityMedium
	}
	return domain.ComplexitySimple
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
