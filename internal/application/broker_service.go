// Package application wires the analyser, router, and profile source into
// the operations the tool surface and the CLI expose.
package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/promptbroker/promptbroker/internal/domain"
	"github.com/promptbroker/promptbroker/internal/domain/routing"
)

// BrokerService orchestrates the resolve pipeline:
// analyse prompt → merge overrides → score catalog → select profile.
type BrokerService struct {
	source   domain.ProfileSource
	analyzer domain.PromptAnalyzer
	router   *routing.Router
	logger   *zap.Logger
}

func NewBrokerService(
	source domain.ProfileSource,
	analyzer domain.PromptAnalyzer,
	router *routing.Router,
	logger *zap.Logger,
) *BrokerService {
	return &BrokerService{
		source:   source,
		analyzer: analyzer,
		router:   router,
		logger:   logger,
	}
}

// Resolve routes a prompt to the single best-matching profile. The
// overrides map may carry the recognised metadata keys plus profile_name,
// which forces the selection outright. The catalog snapshot is taken once
// here and used for the whole request. An empty prompt is analysed and
// routed like any other; with nothing to match it lands on the fallback.
func (s *BrokerService) Resolve(ctx context.Context, prompt string, overrides map[string]any) (*routing.Result, error) {
	forced := ""
	if v, ok := overrides["profile_name"].(string); ok {
		forced = v
	}

	catalog := s.source.Catalog()
	meta := s.analyzer.Analyze(prompt, overrides)

	result, err := s.router.Route(catalog, meta, forced)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("prompt resolved",
		zap.String("profile", result.Profile.Name),
		zap.Int("score", result.Score),
		zap.Float64("consistency", result.Consistency),
		zap.String("reason", string(result.Reason)))
	return result, nil
}

// ProfileSummary is one row of the list_profiles payload.
type ProfileSummary struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Domains      []string `json:"domains"`
	Capabilities []string `json:"capabilities"`
	Complexity   string   `json:"complexity"`
	Fallback     bool     `json:"fallback"`
}

// ListProfiles returns a summary row per catalogued profile, in name order.
func (s *BrokerService) ListProfiles() []ProfileSummary {
	profiles := s.source.Catalog().All()
	out := make([]ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ProfileSummary{
			Name:         p.Name,
			Description:  p.Description,
			Domains:      p.Domains,
			Capabilities: p.Capabilities,
			Complexity:   p.ComplexityTier,
			Fallback:     p.Fallback,
		})
	}
	return out
}

// ChecklistPayload is the get_checklist response.
type ChecklistPayload struct {
	ProfileName string   `json:"profile_name"`
	Items       []string `json:"items"`
	Count       int      `json:"count"`
}

// Checklist returns the checklist items of the named profile.
func (s *BrokerService) Checklist(name string) (*ChecklistPayload, error) {
	p, ok := s.source.Catalog().Get(name)
	if !ok {
		return nil, domain.E(domain.KindNotFound, "profile %q not found", name)
	}
	items := p.Checklist
	if items == nil {
		items = []string{}
	}
	return &ChecklistPayload{ProfileName: p.Name, Items: items, Count: len(items)}, nil
}

// ProfileMetadata returns the full profile record minus the instructions
// and checklist bodies, keeping the provenance fields.
func (s *BrokerService) ProfileMetadata(name string) (*domain.Profile, error) {
	p, ok := s.source.Catalog().Get(name)
	if !ok {
		return nil, domain.E(domain.KindNotFound, "profile %q not found", name)
	}
	meta := *p
	meta.Instructions = ""
	meta.Checklist = nil
	return &meta, nil
}

// Instructions returns the guidance body of the named profile.
func (s *BrokerService) Instructions(name string) (string, error) {
	p, ok := s.source.Catalog().Get(name)
	if !ok {
		return "", domain.E(domain.KindNotFound, "profile %q not found", name)
	}
	return p.Instructions, nil
}

// TagMatches is the find_profiles_by_* response.
type TagMatches struct {
	Profiles []domain.TagMatch `json:"profiles"`
	Count    int               `json:"count"`
}

// FindByCapability looks profiles up by capability tag.
func (s *BrokerService) FindByCapability(capability string) (*TagMatches, error) {
	if capability == "" {
		return nil, domain.E(domain.KindInvalidArgument, "capability must not be empty")
	}
	matches := s.source.Catalog().FindByCapability(capability)
	if matches == nil {
		matches = []domain.TagMatch{}
	}
	return &TagMatches{Profiles: matches, Count: len(matches)}, nil
}

// FindByDomain looks profiles up by domain tag.
func (s *BrokerService) FindByDomain(dom string) (*TagMatches, error) {
	if dom == "" {
		return nil, domain.E(domain.KindInvalidArgument, "domain must not be empty")
	}
	matches := s.source.Catalog().FindByDomain(dom)
	if matches == nil {
		matches = []domain.TagMatch{}
	}
	return &TagMatches{Profiles: matches, Count: len(matches)}, nil
}

// Summary returns the aggregate registry view.
func (s *BrokerService) Summary() domain.Summary {
	return s.source.Catalog().Summary()
}

// Reload swaps in a fresh catalog from disk.
func (s *BrokerService) Reload(ctx context.Context) (*domain.ReloadReport, error) {
	return s.source.Reload(ctx)
}
