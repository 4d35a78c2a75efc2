package project

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gramsuvidha/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store used in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]Project
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[uuid.UUID]Project)}
}

func (s *MemoryStore) Create(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = *p
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.GetScoped(ctx, id, uuid.Nil)
}

func (s *MemoryStore) GetScoped(_ context.Context, id, villageID uuid.UUID) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok || (villageID != uuid.Nil && p.VillageID != villageID) {
		return nil, sentinel.ErrNotFound
	}
	out := p
	return &out, nil
}

func (s *MemoryStore) ListByVillage(_ context.Context, villageID uuid.UUID) ([]Project, error) {
	return s.list(func(p Project) bool { return p.VillageID == villageID })
}

func (s *MemoryStore) ListByVillageAndStatus(_ context.Context, villageID uuid.UUID, status Status) ([]Project, error) {
	return s.list(func(p Project) bool { return p.VillageID == villageID && p.Status == status })
}

func (s *MemoryStore) list(match func(Project) bool) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var projects []Project
	for _, p := range s.projects {
		if match(p) {
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func (s *MemoryStore) Update(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.projects[p.ID] = *p
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}
