package server

import (
	"slices"
	"sync"

	"github.com/sells-group/lead-cli/internal/model"
)

// Store holds campaign results in memory for the lifetime of the process.
type Store struct {
	mu      sync.RWMutex
	results map[string]*model.CampaignResult
	order   []string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{results: make(map[string]*model.CampaignResult)}
}

// Put records a result under its run ID.
func (s *Store) Put(r *model.CampaignResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[r.RunID]; !ok {
		s.order = append(s.order, r.RunID)
	}
	s.results[r.RunID] = r
}

// Get returns the result for id.
func (s *Store) Get(id string) (*model.CampaignResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	return r, ok
}

// List returns all results, most recent first.
func (s *Store) List() []*model.CampaignResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.CampaignResult, 0, len(s.order))
	for _, id := range slices.Backward(s.order) {
		out = append(out, s.results[id])
	}
	return out
}
