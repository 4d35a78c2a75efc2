package village

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"gramsuvidha/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store used in tests. Cross-table cascade
// behavior lives in the PostgreSQL store; here DeleteCascade only removes the
// village itself.
type MemoryStore struct {
	mu       sync.RWMutex
	villages map[uuid.UUID]Village
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{villages: make(map[uuid.UUID]Village)}
}

func (s *MemoryStore) Create(_ context.Context, v *Village) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.villages {
		if strings.EqualFold(existing.Name, v.Name) && strings.EqualFold(existing.District, v.District) {
			return sentinel.ErrConflict
		}
	}
	s.villages[v.ID] = *v
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Village, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.villages[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Village, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	villages := make([]Village, 0, len(s.villages))
	for _, v := range s.villages {
		villages = append(villages, v)
	}
	sort.Slice(villages, func(i, j int) bool {
		if villages[i].Name != villages[j].Name {
			return villages[i].Name < villages[j].Name
		}
		return villages[i].District < villages[j].District
	})
	return villages, nil
}

func (s *MemoryStore) Update(_ context.Context, v *Village) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.villages[v.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for id, existing := range s.villages {
		if id != v.ID && strings.EqualFold(existing.Name, v.Name) && strings.EqualFold(existing.District, v.District) {
			return sentinel.ErrConflict
		}
	}
	s.villages[v.ID] = *v
	return nil
}

func (s *MemoryStore) DeleteCascade(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.villages[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.villages, id)
	return nil
}

func (s *MemoryStore) VillageExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.villages[id]
	return ok, nil
}
