package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process store. Records are copied on the way in and out.
type MemoryStore struct {
	records map[uuid.UUID][]byte
	mutex   sync.RWMutex
}

var _ MatchStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, id uuid.UUID) (*MatchRecord, error) {
	s.mutex.RLock()
	data, ok := s.records[id]
	s.mutex.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var rec MatchRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *MemoryStore) Save(_ context.Context, rec *MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	s.records[rec.ID] = data
	s.mutex.Unlock()
	return nil
}

func (s *MemoryStore) Refresh(ctx context.Context, id uuid.UUID) error {
	rec, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()
	return s.Save(ctx, rec)
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mutex.Lock()
	delete(s.records, id)
	s.mutex.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]uuid.UUID, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
