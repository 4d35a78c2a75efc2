package announcement

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gramsuvidha/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store used in tests.
type MemoryStore struct {
	mu            sync.RWMutex
	announcements map[uuid.UUID]Announcement
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{announcements: make(map[uuid.UUID]Announcement)}
}

func (s *MemoryStore) Create(_ context.Context, a *Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announcements[a.ID] = *a
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Announcement, error) {
	return s.GetScoped(ctx, id, uuid.Nil)
}

func (s *MemoryStore) GetScoped(_ context.Context, id, villageID uuid.UUID) (*Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.announcements[id]
	if !ok || (villageID != uuid.Nil && a.VillageID != villageID) {
		return nil, sentinel.ErrNotFound
	}
	out := a
	return &out, nil
}

func (s *MemoryStore) ListByVillage(_ context.Context, villageID uuid.UUID) ([]Announcement, error) {
	return s.list(villageID, "", 0)
}

func (s *MemoryStore) ListByVillageAndType(_ context.Context, villageID uuid.UUID, t Type) ([]Announcement, error) {
	return s.list(villageID, t, 0)
}

func (s *MemoryStore) ListLatest(_ context.Context, villageID uuid.UUID, limit int) ([]Announcement, error) {
	return s.list(villageID, "", limit)
}

func (s *MemoryStore) list(villageID uuid.UUID, t Type, limit int) ([]Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var announcements []Announcement
	for _, a := range s.announcements {
		if a.VillageID == villageID && (t == "" || a.Type == t) {
			announcements = append(announcements, a)
		}
	}
	sort.Slice(announcements, func(i, j int) bool {
		return announcements[i].CreatedAt.After(announcements[j].CreatedAt)
	})
	if limit > 0 && len(announcements) > limit {
		announcements = announcements[:limit]
	}
	return announcements, nil
}

func (s *MemoryStore) Update(_ context.Context, a *Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announcements[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.announcements[a.ID] = *a
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announcements[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.announcements, id)
	return nil
}

func (s *MemoryStore) TypeCounts(_ context.Context, villageID uuid.UUID) (map[Type]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[Type]int)
	for _, a := range s.announcements {
		if villageID == uuid.Nil || a.VillageID == villageID {
			counts[a.Type]++
		}
	}
	return counts, nil
}
