package profilestore_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promptbroker/promptbroker/internal/adapters/outbound/profilestore"
	"github.com/promptbroker/promptbroker/internal/domain"
)

func writeProfile(t *testing.T, dir, file, name string, extra string) {
	t.Helper()
	doc := fmt.Sprintf(`---
name: %s
description: Test profile %s used by the store tests.
%s---

## Instructions

Guidance for %s.
`, name, name, extra, name)
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(doc), 0644))
}

func newStore(t *testing.T, dir string) *profilestore.Store {
	t.Helper()
	cfg := domain.DefaultConfig()
	cfg.ProfilesDir = dir
	return profilestore.New(cfg, zap.NewNop())
}

func TestStoreLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "alpha.md", "alpha_profile", "")
	writeProfile(t, dir, "beta.md", "beta_profile", "fallback: true\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	store := newStore(t, dir)
	report, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.FilesConsidered, "non-markdown files are skipped")
	assert.Equal(t, 2, report.ProfilesLoaded)
	assert.Equal(t, []string{"alpha_profile", "beta_profile"}, report.ProfileNames)
	assert.Empty(t, report.Errors)

	cat := store.Catalog()
	assert.Equal(t, 2, cat.Len())
	require.NotNil(t, cat.Fallback())
	assert.Equal(t, "beta_profile", cat.Fallback().Name)
}

func TestStoreLoad_BadFileIsIsolated(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "good.md", "good_profile", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.md"), []byte("---\nname: bad\n"), 0644))

	store := newStore(t, dir)
	report, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 1, report.ProfilesLoaded)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "bad.md")
	assert.Equal(t, 1, store.Catalog().Len())
}

func TestStoreLoad_DuplicateNameFirstFileWins(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "a_first.md", "shared_profile", "")
	writeProfile(t, dir, "z_second.md", "shared_profile", "")

	store := newStore(t, dir)
	report, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.ProfilesLoaded)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "duplicate profile")

	p, ok := store.Catalog().Get("shared_profile")
	require.True(t, ok)
	assert.Contains(t, p.SourcePath, "a_first.md")
}

func TestStoreLoad_ExtraFallbacksDemoted(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "a.md", "alpha_fallback", "fallback: true\n")
	writeProfile(t, dir, "b.md", "beta_fallback", "fallback: true\n")

	store := newStore(t, dir)
	report, err := store.Load(context.Background())
	require.NoError(t, err)

	require.NotNil(t, store.Catalog().Fallback())
	assert.Equal(t, "alpha_fallback", store.Catalog().Fallback().Name, "first by sorted name keeps the flag")

	beta, ok := store.Catalog().Get("beta_fallback")
	require.True(t, ok)
	assert.False(t, beta.Fallback)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "beta_fallback")
}

func TestStoreLoad_WritesMetadataFile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "alpha.md", "alpha_profile", "")

	store := newStore(t, dir)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "profiles_metadata.json"))
	require.NoError(t, err)

	var doc struct {
		TotalProfiles int `json:"total_profiles"`
		Profiles      []struct {
			Name        string `json:"name"`
			ContentHash string `json:"content_hash"`
		} `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.TotalProfiles)
	require.Len(t, doc.Profiles, 1)
	assert.Equal(t, "alpha_profile", doc.Profiles[0].Name)
	assert.Len(t, doc.Profiles[0].ContentHash, 16)
}

func TestStoreCatalog_EmptyBeforeFirstLoad(t *testing.T) {
	store := newStore(t, t.TempDir())
	cat := store.Catalog()
	require.NotNil(t, cat)
	assert.Equal(t, 0, cat.Len())
}

func TestStoreLoad_EmbeddedStockCatalog(t *testing.T) {
	store := newStore(t, "")
	report, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, report.ProfilesLoaded)
	assert.Empty(t, report.Errors)

	cat := store.Catalog()
	require.NotNil(t, cat.Fallback())
	assert.Equal(t, "general_default", cat.Fallback().Name)

	for _, name := range []string{
		"creative_brainstorm",
		"general_default",
		"privacy_sensitive",
		"python_code_generation",
		"python_code_generation_complex",
		"technical_support",
	} {
		_, ok := cat.Get(name)
		assert.True(t, ok, "stock profile %q missing", name)
	}
}

func TestStoreReload_SnapshotStaysValid(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "alpha.md", "alpha_profile", "")

	store := newStore(t, dir)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	before := store.Catalog()
	writeProfile(t, dir, "beta.md", "beta_profile", "")

	report, err := store.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.ProfilesLoaded)

	assert.Equal(t, 1, before.Len(), "pre-reload snapshot is immutable")
	assert.Equal(t, 2, store.Catalog().Len())
}

func TestStoreReload_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "alpha.md", "alpha_profile", "")
	writeProfile(t, dir, "beta.md", "beta_profile", "")

	store := newStore(t, dir)
	_, err := store.Load(context.Background())
	require.NoError(t, err)
	first := projection(store.Catalog())

	_, err = store.Reload(context.Background())
	require.NoError(t, err)
	second := projection(store.Catalog())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("catalog projection changed across identical reloads (-first +second):\n%s", diff)
	}
}

// projection is the public view compared across reloads: everything except
// load-time provenance.
func projection(c *domain.Catalog) []map[string]any {
	var out []map[string]any
	for _, p := range c.All() {
		out = append(out, map[string]any{
			"name":         p.Name,
			"description":  p.Description,
			"keywords":     p.KeywordWeights,
			"instructions": p.Instructions,
			"checklist":    p.Checklist,
			"fallback":     p.Fallback,
			"hash":         p.ContentHash,
		})
	}
	return out
}

func TestInstallBuiltin(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")

	written, err := profilestore.InstallBuiltin(dir, false)
	require.NoError(t, err)
	assert.Len(t, written, 6)

	// Second run without force touches nothing.
	written, err = profilestore.InstallBuiltin(dir, false)
	require.NoError(t, err)
	assert.Empty(t, written)

	written, err = profilestore.InstallBuiltin(dir, true)
	require.NoError(t, err)
	assert.Len(t, written, 6)

	store := newStore(t, dir)
	report, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, report.ProfilesLoaded)
	assert.Empty(t, report.Errors)
}
