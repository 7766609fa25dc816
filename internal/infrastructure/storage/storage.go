package storage

import (
	"context"
	"strings"
	"sync"

	"xchart/internal/application/port"
	"xchart/internal/domain/market"
)

// MemoryViewStore 进程内的 ViewStore，没有配置 sqlite / postgres 时使用
type MemoryViewStore struct {
	mu    sync.Mutex
	views map[string]market.ViewState
}

func NewMemoryViewStore() *MemoryViewStore {
	return &MemoryViewStore{views: make(map[string]market.ViewState)}
}

func (s *MemoryViewStore) SaveView(ctx context.Context, v market.ViewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[strings.TrimSpace(v.Name)] = v
	return nil
}

func (s *MemoryViewStore) LoadView(ctx context.Context, name string) (*market.ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[strings.TrimSpace(name)]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *MemoryViewStore) Close() error { return nil }

var _ port.ViewStore = (*MemoryViewStore)(nil)
