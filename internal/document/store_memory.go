package document

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gramsuvidha/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store used in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[uuid.UUID]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{documents: make(map[uuid.UUID]Document)}
}

func (s *MemoryStore) Create(_ context.Context, d *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[d.ID] = *d
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.GetScoped(ctx, id, uuid.Nil)
}

func (s *MemoryStore) GetScoped(_ context.Context, id, villageID uuid.UUID) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok || (villageID != uuid.Nil && d.VillageID != villageID) {
		return nil, sentinel.ErrNotFound
	}
	out := d
	return &out, nil
}

func (s *MemoryStore) ListByVillage(_ context.Context, villageID uuid.UUID) ([]Document, error) {
	return s.list(villageID, "")
}

func (s *MemoryStore) ListByVillageAndType(_ context.Context, villageID uuid.UUID, t Type) ([]Document, error) {
	return s.list(villageID, t)
}

func (s *MemoryStore) list(villageID uuid.UUID, t Type) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var documents []Document
	for _, d := range s.documents {
		if d.VillageID == villageID && (t == "" || d.Type == t) {
			documents = append(documents, d)
		}
	}
	sort.Slice(documents, func(i, j int) bool {
		return documents[i].CreatedAt.After(documents[j].CreatedAt)
	})
	return documents, nil
}

func (s *MemoryStore) Update(_ context.Context, d *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.documents[d.ID] = *d
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}
