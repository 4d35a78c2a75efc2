package grievance

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gramsuvidha/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store used in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	grievances map[uuid.UUID]Grievance
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grievances: make(map[uuid.UUID]Grievance)}
}

func (s *MemoryStore) Create(_ context.Context, g *Grievance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grievances[g.ID] = *g
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Grievance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grievances[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := g
	return &out, nil
}

func (s *MemoryStore) GetScoped(_ context.Context, id, villageID uuid.UUID) (*Grievance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grievances[id]
	if !ok || (villageID != uuid.Nil && g.VillageID != villageID) {
		return nil, sentinel.ErrNotFound
	}
	out := g
	return &out, nil
}

func (s *MemoryStore) GetOwned(_ context.Context, id, citizenID uuid.UUID) (*Grievance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grievances[id]
	if !ok || g.CitizenID != citizenID {
		return nil, sentinel.ErrNotFound
	}
	out := g
	return &out, nil
}

func (s *MemoryStore) ListByCitizen(_ context.Context, citizenID uuid.UUID) ([]Grievance, error) {
	return s.list(func(g Grievance) bool { return g.CitizenID == citizenID })
}

func (s *MemoryStore) ListByVillage(_ context.Context, villageID uuid.UUID) ([]Grievance, error) {
	return s.list(func(g Grievance) bool {
		return villageID == uuid.Nil || g.VillageID == villageID
	})
}

func (s *MemoryStore) ListByVillageAndStatus(_ context.Context, villageID uuid.UUID, status Status) ([]Grievance, error) {
	return s.list(func(g Grievance) bool {
		return (villageID == uuid.Nil || g.VillageID == villageID) && g.Status == status
	})
}

func (s *MemoryStore) list(match func(Grievance) bool) ([]Grievance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var grievances []Grievance
	for _, g := range s.grievances {
		if match(g) {
			grievances = append(grievances, g)
		}
	}
	sort.Slice(grievances, func(i, j int) bool {
		return grievances[i].CreatedAt.After(grievances[j].CreatedAt)
	})
	return grievances, nil
}

func (s *MemoryStore) Update(_ context.Context, g *Grievance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grievances[g.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.grievances[g.ID] = *g
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grievances[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.grievances, id)
	return nil
}

func (s *MemoryStore) StatusCounts(_ context.Context, villageID uuid.UUID) (map[Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[Status]int)
	for _, g := range s.grievances {
		if villageID == uuid.Nil || g.VillageID == villageID {
			counts[g.Status]++
		}
	}
	return counts, nil
}
