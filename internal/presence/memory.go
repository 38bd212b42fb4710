package presence

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for tests and single-instance runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Set(ctx context.Context, profileID string, available bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[profileID] = Record{Available: available, At: at}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, profileID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[profileID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) GetMany(ctx context.Context, profileIDs []string) (map[string]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*Record, len(profileIDs))
	for _, id := range profileIDs {
		if rec, ok := s.records[id]; ok {
			result[id] = &rec
		}
	}
	return result, nil
}
