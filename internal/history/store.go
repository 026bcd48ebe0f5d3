// Package history keeps a capped, de-duplicated, most-recent-first list of
// analysis results on top of an opaque blob backend.
package history

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jimezsa/ghostcli/internal/models"
)

// MaxEntries caps the stored history.
const MaxEntries = 50

// Backend persists the whole history list as one value.
type Backend interface {
	Get(ctx context.Context) ([]models.HistoryEntry, error)
	Set(ctx context.Context, entries []models.HistoryEntry) error
	Remove(ctx context.Context) error
}

// Store owns dedup and capacity; backends only load and save.
type Store struct {
	backend Backend
	max     int
	newID   func() string
	mu      sync.Mutex
}

func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		max:     MaxEntries,
		newID:   uuid.NewString,
	}
}

// Append records result at the head of the history, replacing any entry
// for the same job URL, and evicts the oldest entries beyond capacity.
func (s *Store) Append(ctx context.Context, result models.AnalysisResult) (models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.backend.Get(ctx)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("read history: %w", err)
	}

	entry := models.HistoryEntry{ID: s.newID(), AnalysisResult: result}
	if err := s.backend.Set(ctx, Prepend(existing, entry, s.max)); err != nil {
		return models.HistoryEntry{}, fmt.Errorf("write history: %w", err)
	}
	return entry, nil
}

// List returns the history, most recent first.
func (s *Store) List(ctx context.Context) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.backend.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Remove(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Prepend puts entry first, drops older entries with the same normalized
// job URL and truncates the list to max.
func Prepend(existing []models.HistoryEntry, entry models.HistoryEntry, max int) []models.HistoryEntry {
	key := NormalizeURL(entry.JobURL)
	out := make([]models.HistoryEntry, 0, len(existing)+1)
	out = append(out, entry)
	for _, item := range existing {
		if NormalizeURL(item.JobURL) == key {
			continue
		}
		out = append(out, item)
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// NormalizeURL strips surrounding space and trailing slashes.
func NormalizeURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}
