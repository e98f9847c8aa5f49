package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bjjvisits-backend/pkg/redis"
)

// Redis keys live slightly longer than the restore window so an expired
// snapshot can still be inspected manually before Redis evicts it
const keyTTL = 25 * time.Hour

// redisStore persists snapshots in Redis under
// {env}:visit:backup:{eventID}:{academyID}
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed draft store
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Save(ctx context.Context, eventID, academyID string, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode draft snapshot: %w", err)
	}

	key := s.client.KeyBuilder.KeyVisitBackup(eventID, academyID)
	if err := s.client.Set(ctx, key, payload, keyTTL); err != nil {
		return fmt.Errorf("failed to save draft snapshot: %w", err)
	}
	return nil
}

func (s *redisStore) Load(ctx context.Context, eventID, academyID string) (*Snapshot, error) {
	key := s.client.KeyBuilder.KeyVisitBackup(eventID, academyID)

	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load draft snapshot: %w", err)
	}

	snap := &Snapshot{}
	if err := json.Unmarshal([]byte(raw), snap); err != nil {
		return nil, fmt.Errorf("failed to decode draft snapshot: %w", err)
	}

	if snap.Expired(time.Now().UTC()) {
		return nil, nil
	}
	return snap, nil
}

func (s *redisStore) Clear(ctx context.Context, eventID, academyID string) error {
	key := s.client.KeyBuilder.KeyVisitBackup(eventID, academyID)
	if err := s.client.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to clear draft snapshot: %w", err)
	}
	return nil
}
