// Package profilestore loads the profile catalog from disk (or from the
// embedded stock catalog) and owns the atomic hot-reload swap.
package profilestore

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/promptbroker/promptbroker/internal/domain"
)

//go:embed builtin/*.md
var builtinFS embed.FS

const metadataFileName = "profiles_metadata.json"

// Store implements domain.ProfileSource over a directory of .md profile
// files. The catalog reference is the only shared mutable state; it is
// replaced under the lock, never mutated, so readers keep a coherent
// snapshot for the length of a request.
type Store struct {
	dir           string // empty means the embedded stock catalog
	logger        *zap.Logger
	writeMetadata bool

	mu      sync.RWMutex
	catalog *domain.Catalog

	reloads singleflight.Group
}

// New creates a store over cfg.ProfilesDir. An empty directory path selects
// the embedded stock catalog.
func New(cfg domain.Config, logger *zap.Logger) *Store {
	return &Store{
		dir:           cfg.ProfilesDir,
		logger:        logger,
		writeMetadata: cfg.WriteMetadata && cfg.ProfilesDir != "",
	}
}

// Catalog returns the current snapshot. Before the first Load it returns
// an empty catalog rather than nil so callers need no special case.
func (s *Store) Catalog() *domain.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return domain.NewCatalog(nil, time.Time{})
	}
	return s.catalog
}

// Load walks the profiles directory (non-recursive, .md files only),
// parses every file, and swaps in the new catalog. Parse failures are
// isolated per file and surfaced in the report.
func (s *Store) Load(ctx context.Context) (*domain.ReloadReport, error) {
	report := &domain.ReloadReport{Timestamp: time.Now()}

	files, err := s.listProfileFiles()
	if err != nil {
		return nil, err
	}
	report.FilesConsidered = len(files)

	byName := make(map[string]*domain.Profile, len(files))
	order := make([]string, 0, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, domain.Wrap(domain.KindTimeout, err, "reload interrupted")
		}
		p, err := s.parseFile(name)
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		if prior, dup := byName[p.Name]; dup {
			// Lexicographically smaller path wins; files is sorted.
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"duplicate profile %q in %s ignored (already loaded from %s)",
				p.Name, p.SourcePath, prior.SourcePath))
			continue
		}
		byName[p.Name] = p
		order = append(order, p.Name)
		report.Warnings = append(report.Warnings, prefixWarnings(p)...)
	}

	profiles := make([]*domain.Profile, 0, len(order))
	for _, name := range order {
		profiles = append(profiles, byName[name])
	}
	demoteExtraFallbacks(profiles, report)

	catalog := domain.NewCatalog(profiles, report.Timestamp)

	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()

	for _, p := range catalog.All() {
		report.ProfileNames = append(report.ProfileNames, p.Name)
	}
	report.ProfilesLoaded = len(report.ProfileNames)
	report.Success = true

	if s.writeMetadata {
		if err := s.writeMetadataFile(catalog); err != nil {
			s.logger.Warn("metadata write-back failed", zap.Error(err))
			report.Warnings = append(report.Warnings, fmt.Sprintf("metadata write-back: %v", err))
		}
	}

	s.logger.Info("catalog loaded",
		zap.Int("files", report.FilesConsidered),
		zap.Int("profiles", report.ProfilesLoaded),
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

// Reload coalesces concurrent calls: one reload runs, waiters receive the
// in-flight reload's report.
func (s *Store) Reload(ctx context.Context) (*domain.ReloadReport, error) {
	v, err, _ := s.reloads.Do("reload", func() (any, error) {
		return s.Load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ReloadReport), nil
}

func (s *Store) listProfileFiles() ([]string, error) {
	var entries []fs.DirEntry
	var err error
	if s.dir == "" {
		entries, err = builtinFS.ReadDir("builtin")
	} else {
		entries, err = os.ReadDir(s.dir)
	}
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, err, "reading profiles directory")
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

func (s *Store) parseFile(name string) (*domain.Profile, error) {
	if s.dir == "" {
		data, err := builtinFS.ReadFile("builtin/" + name)
		if err != nil {
			return nil, domain.Wrap(domain.KindParseError, err, name)
		}
		return ParseProfile("builtin/"+name, data, time.Time{})
	}

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.Wrap(domain.KindParseError, err, path)
	}
	var modTime time.Time
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}
	return ParseProfile(path, data, modTime)
}

// demoteExtraFallbacks keeps the first fallback by sorted name and clears
// the flag on the rest, warning for each.
func demoteExtraFallbacks(profiles []*domain.Profile, report *domain.ReloadReport) {
	fallbacks := make(map[string]bool)
	for _, p := range profiles {
		if p.Fallback {
			fallbacks[p.Name] = true
		}
	}
	if len(fallbacks) <= 1 {
		return
	}
	keep := sortedNames(fallbacks)[0]
	for _, p := range profiles {
		if p.Fallback && p.Name != keep {
			p.Fallback = false
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"profile %q also declares fallback=true; keeping %q", p.Name, keep))
		}
	}
}

type metadataEntry struct {
	Name         string   `json:"name"`
	Complexity   string   `json:"complexity"`
	Domains      []string `json:"domains,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	SourcePath   string   `json:"source_path"`
	ContentHash  string   `json:"content_hash"`
}

type metadataDocument struct {
	Generated     time.Time       `json:"generated"`
	TotalProfiles int             `json:"total_profiles"`
	Profiles      []metadataEntry `json:"profiles"`
}

// writeMetadataFile publishes the derived catalog summary next to the
// profile files. Written to a temporary sibling and renamed so readers
// never observe a partial file.
func (s *Store) writeMetadataFile(catalog *domain.Catalog) error {
	doc := metadataDocument{
		Generated:     catalog.Generated(),
		TotalProfiles: catalog.Len(),
	}
	for _, p := range catalog.All() {
		doc.Profiles = append(doc.Profiles, metadataEntry{
			Name:         p.Name,
			Complexity:   p.ComplexityTier,
			Domains:      p.Domains,
			Capabilities: p.Capabilities,
			SourcePath:   p.SourcePath,
			ContentHash:  p.ContentHash,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+metadataFileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, metadataFileName))
}

func prefixWarnings(p *domain.Profile) []string {
	out := make([]string, 0, len(p.Warnings))
	for _, w := range p.Warnings {
		out = append(out, fmt.Sprintf("%s: %s", p.SourcePath, w))
	}
	return out
}

// InstallBuiltin writes the embedded stock catalog into dir. Existing
// files are only overwritten when force is set.
func InstallBuiltin(dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var written []string
	for _, e := range entries {
		dest := filepath.Join(dir, e.Name())
		if !force {
			if _, err := os.Stat(dest); err == nil {
				continue
			}
		}
		data, err := builtinFS.ReadFile("builtin/" + e.Name())
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return written, err
		}
		written = append(written, e.Name())
	}
	return written, nil
}
