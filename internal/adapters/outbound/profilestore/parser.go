package profilestore

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"

	"github.com/promptbroker/promptbroker/internal/domain"
)

// frontMatter mirrors the recognised profile keys. Anything else lands in
// the catch-all map and is preserved on the Profile without affecting
// routing.
type frontMatter struct {
	Name                string         `yaml:"name"`
	Description         string         `yaml:"description"`
	Version             string         `yaml:"version"`
	ComplexityTier      string         `yaml:"complexity_tier"`
	Domains             []string       `yaml:"domains"`
	Capabilities        []string       `yaml:"capabilities"`
	KeywordWeights      map[string]int `yaml:"keyword_weights"`
	PriorityWeights     map[string]int `yaml:"priority_weights"`
	DomainWeights       map[string]int `yaml:"domain_weights"`
	ComplexityWeights   map[string]int `yaml:"complexity_weights"`
	RequiredContextTags []string       `yaml:"required_context_tags"`
	DefaultScore        *int           `yaml:"default_score"`
	Fallback            bool           `yaml:"fallback"`
	ShortInstructions   string         `yaml:"short_instructions"`
}

var knownKeys = map[string]bool{
	"name": true, "description": true, "version": true, "complexity_tier": true,
	"domains": true, "capabilities": true, "keyword_weights": true,
	"priority_weights": true, "domain_weights": true, "complexity_weights": true,
	"required_context_tags": true, "default_score": true, "fallback": true,
	"short_instructions": true,
}

var (
	headingRe   = regexp.MustCompile(`^##\s+(.+?)\s*$`)
	checklistRe = regexp.MustCompile(`^\s*-\s*\[\s*[xX]?\s*\]\s*(.+?)\s*$`)
)

// ParseProfile turns the bytes of one profile file into a Profile.
// Errors name the file and the failed field; a bad file never takes its
// siblings down — the loader isolates it in the reload report.
func ParseProfile(path string, data []byte, modTime time.Time) (*domain.Profile, error) {
	fmBlock, body, err := splitFrontMatter(string(data))
	if err != nil {
		return nil, domain.E(domain.KindParseError, "%s: %v", path, err)
	}

	var fm frontMatter
	var raw map[string]any
	if fmBlock != "" {
		if err := yaml.Unmarshal([]byte(fmBlock), &fm); err != nil {
			return nil, domain.E(domain.KindParseError, "%s: front-matter: %v", path, err)
		}
		if err := yaml.Unmarshal([]byte(fmBlock), &raw); err != nil {
			return nil, domain.E(domain.KindParseError, "%s: front-matter: %v", path, err)
		}
	}

	if fm.Name == "" {
		return nil, domain.E(domain.KindParseError, "%s: missing required front-matter field %q", path, "name")
	}
	if fm.Description == "" {
		return nil, domain.E(domain.KindParseError, "%s: missing required front-matter field %q", path, "description")
	}

	sections := splitSections(body)

	p := &domain.Profile{
		Name:                fm.Name,
		Description:         fm.Description,
		Version:             fm.Version,
		ComplexityTier:      fm.ComplexityTier,
		Domains:             fm.Domains,
		Capabilities:        fm.Capabilities,
		KeywordWeights:      lowercaseKeys(fm.KeywordWeights),
		PriorityWeights:     fm.PriorityWeights,
		DomainWeights:       fm.DomainWeights,
		ComplexityWeights:   fm.ComplexityWeights,
		RequiredContextTags: fm.RequiredContextTags,
		DefaultScore:        1,
		Fallback:            fm.Fallback,
		SourcePath:          path,
		LastModified:        modTime,
		ContentHash:         fmt.Sprintf("%016x", xxh3.Hash(data)),
	}
	if fm.DefaultScore != nil {
		p.DefaultScore = *fm.DefaultScore
	}

	for key, val := range raw {
		if !knownKeys[key] {
			if p.Extra == nil {
				p.Extra = make(map[string]any)
			}
			p.Extra[key] = val
		}
	}

	// Instructions fallback chain: section, Primary Role section,
	// short_instructions, whole body. Every fallback is a warning on the
	// profile, never a failure.
	switch {
	case sections["instructions"] != "":
		p.Instructions = sections["instructions"]
	case sections["primary role"] != "":
		p.Instructions = sections["primary role"]
		p.Warnings = append(p.Warnings, "no Instructions section; using Primary Role")
	case fm.ShortInstructions != "":
		p.Instructions = fm.ShortInstructions
		p.Warnings = append(p.Warnings, "no Instructions section; using short_instructions front-matter")
	default:
		p.Instructions = strings.TrimSpace(body)
		p.Warnings = append(p.Warnings, "no Instructions section; using full document body")
	}

	for _, line := range strings.Split(sections["checklist"], "\n") {
		if m := checklistRe.FindStringSubmatch(line); m != nil {
			p.Checklist = append(p.Checklist, m[1])
		}
	}

	if err := p.Validate(); err != nil {
		return nil, domain.E(domain.KindParseError, "%s: %v", path, err)
	}
	return p, nil
}

// splitFrontMatter separates the leading --- delimited block from the
// markdown body. A document without front-matter is all body.
func splitFrontMatter(doc string) (frontMatter, body string, err error) {
	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != "---" {
		return "", strings.Join(lines, "\n"), nil
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), nil
		}
	}
	return "", "", fmt.Errorf("unterminated front-matter block")
}

// splitSections cuts the body on level-2 headings. Titles are matched
// case-insensitively; the preamble before the first heading is dropped
// (the Instructions fallback uses the full body when nothing matched).
func splitSections(body string) map[string]string {
	sections := make(map[string]string)
	var current string
	var buf []string
	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
		buf = buf[:0]
	}
	for _, line := range strings.Split(body, "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			current = strings.ToLower(strings.TrimSpace(m[1]))
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return sections
}

// RenderProfile serialises a profile back to its file form: front-matter
// plus Instructions and Checklist sections. Parsing the output yields a
// profile equal to the input in its public projection.
func RenderProfile(p *domain.Profile) ([]byte, error) {
	fm := map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"version":     p.Version,
	}
	if p.ComplexityTier != domain.TierSimple {
		fm["complexity_tier"] = p.ComplexityTier
	}
	if len(p.Domains) > 0 {
		fm["domains"] = p.Domains
	}
	if len(p.Capabilities) > 0 {
		fm["capabilities"] = p.Capabilities
	}
	if len(p.KeywordWeights) > 0 {
		fm["keyword_weights"] = p.KeywordWeights
	}
	if len(p.PriorityWeights) > 0 {
		fm["priority_weights"] = p.PriorityWeights
	}
	if len(p.DomainWeights) > 0 {
		fm["domain_weights"] = p.DomainWeights
	}
	if len(p.ComplexityWeights) > 0 {
		fm["complexity_weights"] = p.ComplexityWeights
	}
	if len(p.RequiredContextTags) > 0 {
		fm["required_context_tags"] = p.RequiredContextTags
	}
	if p.DefaultScore != 1 {
		fm["default_score"] = p.DefaultScore
	}
	if p.Fallback {
		fm["fallback"] = true
	}
	for k, v := range p.Extra {
		fm[k] = v
	}

	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("serialising front-matter for %s: %w", p.Name, err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fmBytes)
	b.WriteString("---\n\n## Instructions\n\n")
	b.WriteString(p.Instructions)
	b.WriteString("\n")
	if len(p.Checklist) > 0 {
		b.WriteString("\n## Checklist\n\n")
		for _, item := range p.Checklist {
			b.WriteString("- [ ] " + item + "\n")
		}
	}
	return []byte(b.String()), nil
}

func lowercaseKeys(weights map[string]int) map[string]int {
	if weights == nil {
		return nil
	}
	out := make(map[string]int, len(weights))
	for kw, w := range weights {
		out[strings.ToLower(kw)] = w
	}
	return out
}

// sortedNames is shared by the store for stable report output.
func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
