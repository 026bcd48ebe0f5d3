package history

import (
	"context"
	"sync"

	"github.com/jimezsa/ghostcli/internal/models"
)

// MemoryBackend keeps history for the lifetime of the process.
type MemoryBackend struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Get(_ context.Context) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.HistoryEntry{}, m.entries...), nil
}

func (m *MemoryBackend) Set(_ context.Context, entries []models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]models.HistoryEntry{}, entries...)
	return nil
}

func (m *MemoryBackend) Remove(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}
