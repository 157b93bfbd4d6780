package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ComplexSuffix pairs a base profile with its heavyweight sibling:
// "python_code_generation" and "python_code_generation_complex" are two
// variants of the same logical family.
const ComplexSuffix = "_complex"

const (
	TierSimple  = "simple"
	TierComplex = "complex"
)

// Profile is the unit of catalogued guidance: a block of instruction text,
// a checklist, and the machine-readable weights the router scores against.
type Profile struct {
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	Version             string         `json:"version"`
	ComplexityTier      string         `json:"complexity_tier"`
	Domains             []string       `json:"domains,omitempty"`
	Capabilities        []string       `json:"capabilities,omitempty"`
	KeywordWeights      map[string]int `json:"keyword_weights,omitempty"`
	PriorityWeights     map[string]int `json:"priority_weights,omitempty"`
	DomainWeights       map[string]int `json:"domain_weights,omitempty"`
	ComplexityWeights   map[string]int `json:"complexity_weights,omitempty"`
	RequiredContextTags []string       `json:"required_context_tags,omitempty"`
	DefaultScore        int            `json:"default_score"`
	Fallback            bool           `json:"fallback"`
	Instructions        string         `json:"instructions,omitempty"`
	Checklist           []string       `json:"checklist,omitempty"`

	// Unknown front-matter keys, preserved but never routed on.
	Extra map[string]any `json:"extra,omitempty"`

	// Provenance. Not used in routing.
	SourcePath   string    `json:"source_path,omitempty"`
	LastModified time.Time `json:"last_modified,omitempty"`
	ContentHash  string    `json:"content_hash,omitempty"`
	Warnings     []string  `json:"warnings,omitempty"`
}

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{2,49}$`)

// Validate checks the field contracts. Called by the parser after the
// front-matter has been decoded, so failures surface as parse errors
// naming the offending field.
func (p *Profile) Validate() error {
	if !nameRe.MatchString(p.Name) {
		return fmt.Errorf("name %q: must be 3-50 chars, lowercase letters, digits, underscore, starting with a letter", p.Name)
	}
	if l := len(p.Description); l < 10 || l > 200 {
		return fmt.Errorf("description: must be 10-200 chars, got %d", l)
	}
	if p.Version == "" {
		p.Version = "1.0.0"
	}
	if !validVersion(p.Version) {
		return fmt.Errorf("version %q: must be three dotted non-negative integers", p.Version)
	}
	if p.ComplexityTier == "" {
		p.ComplexityTier = TierSimple
	}
	if p.ComplexityTier != TierSimple && p.ComplexityTier != TierComplex {
		return fmt.Errorf("complexity_tier %q: must be %q or %q", p.ComplexityTier, TierSimple, TierComplex)
	}
	for kw, w := range p.KeywordWeights {
		if w < 1 || w > 20 {
			return fmt.Errorf("keyword_weights[%q]: weight %d out of range 1-20", kw, w)
		}
	}
	for label, w := range p.PriorityWeights {
		if w < 1 || w > 10 {
			return fmt.Errorf("priority_weights[%q]: weight %d out of range 1-10", label, w)
		}
	}
	for tag, w := range p.DomainWeights {
		if w < 1 || w > 10 {
			return fmt.Errorf("domain_weights[%q]: weight %d out of range 1-10", tag, w)
		}
	}
	for label, w := range p.ComplexityWeights {
		if w < 0 || w > 10 {
			return fmt.Errorf("complexity_weights[%q]: weight %d out of range 0-10", label, w)
		}
	}
	if p.DefaultScore < 0 {
		return fmt.Errorf("default_score: must be non-negative, got %d", p.DefaultScore)
	}
	return nil
}

// IsComplexVariant reports whether this profile is the heavyweight sibling
// of a base profile.
func (p *Profile) IsComplexVariant() bool {
	return strings.HasSuffix(p.Name, ComplexSuffix)
}

// BaseName strips the complex suffix, returning the logical family name.
func (p *Profile) BaseName() string {
	return strings.TrimSuffix(p.Name, ComplexSuffix)
}

// ComplexVariantName returns the name of the heavyweight sibling for a base
// profile, or the profile's own name if it already is one.
func (p *Profile) ComplexVariantName() string {
	if p.IsComplexVariant() {
		return p.Name
	}
	return p.Name + ComplexSuffix
}

func validVersion(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return false
		}
	}
	return true
}
