package source

import (
	"context"
	"sync"

	"github.com/sells-group/lead-cli/internal/model"
)

type stubAdapter struct {
	name    string
	stage   model.Stage
	max     int
	records []model.Record
	err     error

	mu    sync.Mutex
	calls int
}

func (s *stubAdapter) Name() string       { return s.name }
func (s *stubAdapter) Stage() model.Stage { return s.stage }
func (s *stubAdapter) MaxRecords() int    { return s.max }

func (s *stubAdapter) Fetch(_ context.Context, _ Request) ([]model.Record, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.records, s.err
}

type recordingLimiter struct {
	mu      sync.Mutex
	sources []string
	err     error
}

func (l *recordingLimiter) Acquire(_ context.Context, source string, _ int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources = append(l.sources, source)
	return l.err
}
