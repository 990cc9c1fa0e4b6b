package tokenstore

import (
	"context"
	"sync"

	"github.com/sakachris/ecom-frontend/internal/domain"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]domain.Credentials
	profiles map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]domain.Credentials),
		profiles: make(map[string][]byte),
	}
}

func (s *MemoryStore) Save(_ context.Context, sid string, rec domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.records[sid]
	if rec.Access != "" {
		cur.Access = rec.Access
	}
	if rec.Refresh != "" {
		cur.Refresh = rec.Refresh
	}
	if rec.Email != "" {
		cur.Email = rec.Email
	}
	if rec.FirstName != "" {
		cur.FirstName = rec.FirstName
	}
	if rec.LastName != "" {
		cur.LastName = rec.LastName
	}
	s.records[sid] = cur
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sid)
	delete(s.profiles, sid)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sid string) (domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[sid], nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, sid string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[sid] = append([]byte(nil), raw...)
	return nil
}

func (s *MemoryStore) Profile(_ context.Context, sid string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.profiles[sid]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}
