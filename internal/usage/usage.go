// Package usage keeps a per-article-type estimate of completion tokens. The estimate
// only seeds the generator's token budget, so every store is allowed to lose data.
package usage

import (
	"context"
	"math"
	"sync"
)

// Alpha is the weight of a new observation in the moving average.
const Alpha = 0.3

// Store records observed completion sizes and returns the running estimate.
type Store interface {
	Estimate(ctx context.Context, articleType string) (int, bool)
	Record(ctx context.Context, articleType string, tokens int)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu        sync.Mutex
	estimates map[string]float64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{estimates: make(map[string]float64)}
}

// Estimate returns the current estimate for articleType.
func (s *MemoryStore) Estimate(_ context.Context, articleType string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.estimates[articleType]
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}

// Record folds tokens into the estimate. Non-positive values are ignored.
func (s *MemoryStore) Record(_ context.Context, articleType string, tokens int) {
	if tokens <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.estimates[articleType]
	s.estimates[articleType] = blend(prev, ok, tokens)
}

// Reset drops every estimate.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	s.estimates = make(map[string]float64)
	s.mu.Unlock()
}

func blend(prev float64, hasPrev bool, tokens int) float64 {
	if !hasPrev {
		return float64(tokens)
	}
	return Alpha*float64(tokens) + (1-Alpha)*prev
}
