package delivery

import (
	"sync"

	"github.com/jimezsa/ghostcli/internal/models"
)

// Board holds the results a surface currently displays, one per job
// identity, in first-shown order.
type Board struct {
	mu    sync.Mutex
	order []string
	items map[string]models.AnalysisResult
}

func NewBoard() *Board {
	return &Board{items: map[string]models.AnalysisResult{}}
}

// Put stores result and reports whether it replaced an existing entry.
func (b *Board) Put(result models.AnalysisResult) bool {
	key := models.JobIdentity(result.JobURL)
	b.mu.Lock()
	defer b.mu.Unlock()
	_, exists := b.items[key]
	if !exists {
		b.order = append(b.order, key)
	}
	b.items[key] = result
	return exists
}

// Remove drops the entry for jobURL, if any.
func (b *Board) Remove(jobURL string) bool {
	key := models.JobIdentity(jobURL)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.items[key]; !ok {
		return false
	}
	delete(b.items, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order = nil
	b.items = map[string]models.AnalysisResult{}
}

// Items returns the displayed results in order.
func (b *Board) Items() []models.AnalysisResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.AnalysisResult, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.items[key])
	}
	return out
}

func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}
