// Package routing selects the single best-matching profile for a prompt
// using a deterministic weighted feature-match score. Every decision
// carries a trace so the outcome can be explained.
package routing

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/promptbroker/promptbroker/internal/domain"
)

// Reason records why a profile was chosen.
type Reason string

const (
	ReasonMatched           Reason = "matched"
	ReasonFallback          Reason = "fallback"
	ReasonForcedByOverride  Reason = "forced_by_override"
	ReasonUpgradedToComplex Reason = "upgraded_to_complex"
)

// Result is the outcome of one routing decision.
type Result struct {
	Profile     *domain.Profile         `json:"profile"`
	Metadata    domain.EnhancedMetadata `json:"metadata"`
	Score       int                     `json:"score"`
	Consistency float64                 `json:"consistency"`
	Reason      Reason                  `json:"reason"`
	Trace       Trace                   `json:"trace"`
}

// Trace exposes the scoring internals for the transparency surface.
type Trace struct {
	Scores       map[string]int `json:"scores"`
	Disqualified []string       `json:"disqualified,omitempty"`
	Rules        []string       `json:"rules,omitempty"`
}

// Router scores catalog profiles against prompt metadata.
type Router struct {
	cfg domain.Config
}

// New creates a router with the given thresholds.
func New(cfg domain.Config) *Router {
	return &Router{cfg: cfg}
}

// Route selects one profile from the catalog. forced, when non-empty,
// bypasses scoring entirely and returns the named profile.
func (r *Router) Route(catalog *domain.Catalog, meta domain.EnhancedMetadata, forced string) (*Result, error) {
	if forced != "" {
		p, ok := catalog.Get(forced)
		if !ok {
			return nil, domain.E(domain.KindNoMatchingProfile, "forced profile %q not in catalog", forced)
		}
		score, rules := r.score(p, meta)
		return &Result{
			Profile:     p,
			Metadata:    meta,
			Score:       score,
			Consistency: 100,
			Reason:      ReasonForcedByOverride,
			Trace:       Trace{Scores: map[string]int{p.Name: score}, Rules: rules},
		}, nil
	}

	tags := meta.RoutingTags()
	trace := Trace{Scores: make(map[string]int)}

	type candidate struct {
		profile  *domain.Profile
		score    int
		tagHits  int
		rules    []string
	}
	var eligible []candidate

	for _, p := range catalog.All() {
		if hits := tagIntersections(p, tags); len(p.RequiredContextTags) > 0 && hits == 0 {
			trace.Scores[p.Name] = 0
			trace.Disqualified = append(trace.Disqualified, p.Name)
			continue
		}
		score, rules := r.score(p, meta)
		trace.Scores[p.Name] = score
		// The fallback profile never competes on score; it is selected
		// only when nothing else is eligible.
		if score > 0 && !p.Fallback {
			eligible = append(eligible, candidate{
				profile: p,
				score:   score,
				tagHits: tagIntersections(p, tags),
				rules:   rules,
			})
		}
	}

	if len(eligible) == 0 {
		fb := catalog.Fallback()
		if fb == nil {
			return nil, domain.E(domain.KindNoMatchingProfile, "no profile scored above zero and no fallback is declared")
		}
		score, rules := r.score(fb, meta)
		trace.Rules = rules
		return &Result{
			Profile:     fb,
			Metadata:    meta,
			Score:       score,
			Consistency: 100,
			Reason:      ReasonFallback,
			Trace:       trace,
		}, nil
	}

	// Argmax with deterministic tie-breaking: more required-tag hits,
	// larger default score, lexicographically smaller name.
	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.tagHits != b.tagHits {
			return a.tagHits > b.tagHits
		}
		if a.profile.DefaultScore != b.profile.DefaultScore {
			return a.profile.DefaultScore > b.profile.DefaultScore
		}
		return a.profile.Name < b.profile.Name
	})

	winner := eligible[0]
	reason := ReasonMatched
	trace.Rules = winner.rules

	if sibling, ok := r.complexSibling(catalog, winner.profile, meta, tags); ok {
		score, rules := r.score(sibling, meta)
		trace.Scores[sibling.Name] = score
		winner = candidate{profile: sibling, score: score, rules: rules}
		reason = ReasonUpgradedToComplex
		trace.Rules = rules
	}

	scores := make([]int, 0, len(eligible)+1)
	seen := false
	for _, c := range eligible {
		scores = append(scores, c.score)
		if c.profile.Name == winner.profile.Name {
			seen = true
		}
	}
	if !seen {
		scores = append(scores, winner.score)
	}

	return &Result{
		Profile:     winner.profile,
		Metadata:    meta,
		Score:       winner.score,
		Consistency: consistency(winner.score, scores),
		Reason:      reason,
		Trace:       trace,
	}, nil
}

// score computes default_score plus keyword, domain, complexity, and
// priority contributions. Keyword matching is a case-insensitive substring
// test over the full prompt.
func (r *Router) score(p *domain.Profile, meta domain.EnhancedMetadata) (int, []string) {
	score := p.DefaultScore
	var rules []string
	if p.DefaultScore > 0 {
		rules = append(rules, fmt.Sprintf("default:+%d", p.DefaultScore))
	}

	prompt := strings.ToLower(meta.Prompt)
	for kw, w := range p.KeywordWeights {
		if strings.Contains(prompt, kw) {
			score += w
			rules = append(rules, fmt.Sprintf("keyword:%s:+%d", kw, w))
		}
	}
	if meta.Domain != "" {
		if w, ok := p.DomainWeights[meta.Domain]; ok {
			score += w
			rules = append(rules, fmt.Sprintf("domain:%s:+%d", meta.Domain, w))
		}
	}
	if w, ok := p.ComplexityWeights[string(meta.Complexity)]; ok {
		score += w
		rules = append(rules, fmt.Sprintf("complexity:%s:+%d", meta.Complexity, w))
	}
	if meta.Priority != "" {
		if w, ok := p.PriorityWeights[meta.Priority]; ok {
			score += w
			rules = append(rules, fmt.Sprintf("priority:%s:+%d", meta.Priority, w))
		}
	}
	sort.Strings(rules)
	return score, rules
}

// complexSibling returns the winner's _complex variant when the upgrade
// conditions hold: complexity routing enabled, sibling present, prompt
// complex enough, sibling not disqualified by its required tags.
func (r *Router) complexSibling(catalog *domain.Catalog, winner *domain.Profile, meta domain.EnhancedMetadata, tags map[string]bool) (*domain.Profile, bool) {
	if !r.cfg.ComplexityRouting || winner.IsComplexVariant() {
		return nil, false
	}
	if meta.Complexity != domain.ComplexityComplex && meta.WordCount < r.cfg.PreferThreshold {
		return nil, false
	}
	sibling, ok := catalog.Get(winner.ComplexVariantName())
	if !ok {
		return nil, false
	}
	if len(sibling.RequiredContextTags) > 0 && tagIntersections(sibling, tags) == 0 {
		return nil, false
	}
	return sibling, true
}

func tagIntersections(p *domain.Profile, tags map[string]bool) int {
	hits := 0
	for _, t := range p.RequiredContextTags {
		if tags[t] {
			hits++
		}
	}
	return hits
}

// consistency is the softmax weight of the winner's score among all
// positive scorers, in percent, with temperature max(1, top/5). A lone
// candidate is always 100.
func consistency(winner int, scores []int) float64 {
	if len(scores) <= 1 {
		return 100
	}
	top := scores[0]
	for _, s := range scores {
		if s > top {
			top = s
		}
	}
	temp := math.Max(1, float64(top)/5)

	var sum float64
	for _, s := range scores {
		sum += math.Exp(float64(s) / temp)
	}
	pct := 100 * math.Exp(float64(winner)/temp) / sum
	return math.Round(pct*10) / 10
}
