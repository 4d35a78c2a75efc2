package lockout

import (
	"context"
	"sync"
	"time"
)

type failureRecord struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time
}

// MemoryStore is the single-process fallback when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*failureRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*failureRecord), now: time.Now}
}

func (s *MemoryStore) IncrFailure(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	rec, ok := s.records[key]
	if !ok || now.Sub(rec.windowStart) > window {
		rec = &failureRecord{windowStart: now}
		s.records[key] = rec
	}
	rec.count++
	return rec.count, nil
}

func (s *MemoryStore) Lock(_ context.Context, key string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		rec = &failureRecord{windowStart: s.now()}
		s.records[key] = rec
	}
	rec.lockedUntil = s.now().Add(d)
	return nil
}

func (s *MemoryStore) IsLocked(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return ok && s.now().Before(rec.lockedUntil), nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
