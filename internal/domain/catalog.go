package domain

import (
	"sort"
	"strings"
	"time"
)

// Catalog is an immutable snapshot of the loaded profiles plus the derived
// lookup indices. Reload builds a fresh Catalog and swaps the reference;
// a snapshot taken at request entry stays valid for the whole request.
type Catalog struct {
	generated time.Time
	profiles  []*Profile // sorted by name
	byName    map[string]*Profile
	fallback  *Profile
}

// NewCatalog builds a catalog from the given profiles. The caller is
// expected to have already resolved duplicate names and duplicate fallback
// declarations; if more than one fallback slips through, the first by
// sorted name wins.
func NewCatalog(profiles []*Profile, generated time.Time) *Catalog {
	sorted := make([]*Profile, len(profiles))
	copy(sorted, profiles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	c := &Catalog{
		generated: generated,
		profiles:  sorted,
		byName:    make(map[string]*Profile, len(sorted)),
	}
	for _, p := range sorted {
		c.byName[p.Name] = p
		if p.Fallback && c.fallback == nil {
			c.fallback = p
		}
	}
	return c
}

// Get returns the profile with the given name.
func (c *Catalog) Get(name string) (*Profile, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// All returns the profiles in stable name order.
func (c *Catalog) All() []*Profile {
	out := make([]*Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Fallback returns the last-resort profile, or nil if none is declared.
func (c *Catalog) Fallback() *Profile { return c.fallback }

// Len returns the number of loaded profiles.
func (c *Catalog) Len() int { return len(c.profiles) }

// Generated returns the snapshot timestamp.
func (c *Catalog) Generated() time.Time { return c.generated }

// TagMatch is one hit from a capability or domain lookup.
type TagMatch struct {
	Name       string  `json:"name"`
	MatchScore float64 `json:"match_score"`
}

// FindByCapability returns profiles matching the capability tag: 1.0 for an
// exact capability match, 0.7 for a case-insensitive substring match in
// capabilities, 0.5 for a match against keyword-weight keys. Sorted by
// score descending, then name.
func (c *Catalog) FindByCapability(capability string) []TagMatch {
	return c.findByTag(capability, func(p *Profile) []string { return p.Capabilities })
}

// FindByDomain is the analogous lookup over domain tags.
func (c *Catalog) FindByDomain(domain string) []TagMatch {
	return c.findByTag(domain, func(p *Profile) []string { return p.Domains })
}

func (c *Catalog) findByTag(tag string, tagsOf func(*Profile) []string) []TagMatch {
	lower := strings.ToLower(tag)
	var matches []TagMatch
	for _, p := range c.profiles {
		score := 0.0
		for _, t := range tagsOf(p) {
			switch {
			case t == tag:
				score = 1.0
			case score < 0.7 && strings.Contains(strings.ToLower(t), lower):
				score = 0.7
			}
			if score == 1.0 {
				break
			}
		}
		if score < 0.5 {
			for kw := range p.KeywordWeights {
				if strings.Contains(kw, lower) {
					score = 0.5
					break
				}
			}
		}
		if score > 0 {
			matches = append(matches, TagMatch{Name: p.Name, MatchScore: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].MatchScore != matches[j].MatchScore {
			return matches[i].MatchScore > matches[j].MatchScore
		}
		return matches[i].Name < matches[j].Name
	})
	return matches
}

// Summary is the aggregate view over the catalog.
type Summary struct {
	TotalProfiles   int            `json:"total_profiles"`
	Domains         []string       `json:"domains"`
	Capabilities    []string       `json:"capabilities"`
	ComplexityTiers map[string]int `json:"complexity_tiers"`
	Generated       time.Time      `json:"generated"`
}

// Summary aggregates profile counts and the union of all tags.
func (c *Catalog) Summary() Summary {
	domains := make(map[string]bool)
	capabilities := make(map[string]bool)
	tiers := make(map[string]int)
	for _, p := range c.profiles {
		for _, d := range p.Domains {
			domains[d] = true
		}
		for _, cap := range p.Capabilities {
			capabilities[cap] = true
		}
		tiers[p.ComplexityTier]++
	}
	return Summary{
		TotalProfiles:   len(c.profiles),
		Domains:         sortedKeys(domains),
		Capabilities:    sortedKeys(capabilities),
		ComplexityTiers: tiers,
		Generated:       c.generated,
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
