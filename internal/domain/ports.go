package domain

import (
	"context"
	"time"
)

// ProfileSource provides catalog snapshots and hot reload.
type ProfileSource interface {
	// Catalog returns the current snapshot. Callers hold it for the
	// duration of their request; it is never mutated.
	Catalog() *Catalog

	// Reload rebuilds the catalog from disk and swaps it atomically.
	// Concurrent calls are coalesced: waiters receive the in-flight
	// reload's report.
	Reload(ctx context.Context) (*ReloadReport, error)
}

// PromptAnalyzer extracts routing metadata from a raw prompt.
type PromptAnalyzer interface {
	Analyze(prompt string, overrides map[string]any) EnhancedMetadata
}

// ReloadReport describes one catalog (re)load.
type ReloadReport struct {
	Success         bool      `json:"success"`
	FilesConsidered int       `json:"files_considered"`
	ProfilesLoaded  int       `json:"profiles_loaded"`
	ProfileNames    []string  `json:"profile_names"`
	Errors          []string  `json:"errors"`
	Warnings        []string  `json:"warnings"`
	Timestamp       time.Time `json:"timestamp"`
}
