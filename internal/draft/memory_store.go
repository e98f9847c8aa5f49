package draft

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// memoryStore is an in-process draft store, used when Redis is not
// configured and as the test double for the Redis-backed store
type memoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore creates an in-memory draft store
func NewMemoryStore() Store {
	return &memoryStore{items: map[string][]byte{}}
}

func memoryKey(eventID, academyID string) string {
	return eventID + ":" + academyID
}

func (s *memoryStore) Save(_ context.Context, eventID, academyID string, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[memoryKey(eventID, academyID)] = payload
	return nil
}

func (s *memoryStore) Load(_ context.Context, eventID, academyID string) (*Snapshot, error) {
	s.mu.RLock()
	payload, ok := s.items[memoryKey(eventID, academyID)]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(payload, snap); err != nil {
		return nil, err
	}
	if snap.Expired(time.Now().UTC()) {
		return nil, nil
	}
	return snap, nil
}

func (s *memoryStore) Clear(_ context.Context, eventID, academyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, memoryKey(eventID, academyID))
	return nil
}
