package draft

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/redis"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *redis.Client, Store) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return mr, client, NewRedisStore(client)
}

func testSnapshot(ts time.Time) *Snapshot {
	started := ts.Add(-10 * time.Minute)
	return &Snapshot{
		Step: "ACTIVE",
		Visit: &domain.Visit{
			ID:        "visit-1",
			EventID:   "event-1",
			AcademyID: "academy-1",
			Status:    domain.VisitStatusPending,
			StartedAt: &started,
			Summary:   "halfway through",
		},
		PendingCodes:      []string{"ABC123"},
		MarketingAnswered: true,
		Timestamp:         ts,
	}
}

func TestRedisStoreSaveLoad(t *testing.T) {
	_, _, store := setupRedisStore(t)
	ctx := context.Background()

	snap := testSnapshot(time.Now().UTC())
	require.NoError(t, store.Save(ctx, "event-1", "academy-1", snap))

	loaded, err := store.Load(ctx, "event-1", "academy-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "ACTIVE", loaded.Step)
	assert.Equal(t, "visit-1", loaded.Visit.ID)
	assert.Equal(t, []string{"ABC123"}, loaded.PendingCodes)
	assert.True(t, loaded.MarketingAnswered)
}

func TestRedisStoreLoadAbsent(t *testing.T) {
	_, _, store := setupRedisStore(t)

	loaded, err := store.Load(context.Background(), "event-1", "academy-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStoreExpiredSnapshotIsAbsent(t *testing.T) {
	_, _, store := setupRedisStore(t)
	ctx := context.Background()

	stale := testSnapshot(time.Now().UTC().Add(-25 * time.Hour))
	require.NoError(t, store.Save(ctx, "event-1", "academy-1", stale))

	loaded, err := store.Load(ctx, "event-1", "academy-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStoreClear(t *testing.T) {
	_, _, store := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "event-1", "academy-1", testSnapshot(time.Now().UTC())))
	require.NoError(t, store.Clear(ctx, "event-1", "academy-1"))

	loaded, err := store.Load(ctx, "event-1", "academy-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStoreKeyIsEnvironmentPrefixed(t *testing.T) {
	mr, client, store := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "event-1", "academy-1", testSnapshot(time.Now().UTC())))

	key := client.KeyBuilder.KeyVisitBackup("event-1", "academy-1")
	assert.True(t, mr.Exists(key))

	raw, err := mr.Get(key)
	require.NoError(t, err)
	snap := &Snapshot{}
	require.NoError(t, json.Unmarshal([]byte(raw), snap))
	assert.Equal(t, "visit-1", snap.Visit.ID)
}

func TestRedisStoreKeysAreIsolatedPerPair(t *testing.T) {
	_, _, store := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "event-1", "academy-1", testSnapshot(time.Now().UTC())))

	other, err := store.Load(ctx, "event-1", "academy-2")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSnapshotExpired(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name    string
		age     time.Duration
		expired bool
	}{
		{"fresh", time.Minute, false},
		{"just under the window", MaxAge - time.Second, false},
		{"exactly at the window", MaxAge, true},
		{"old", 48 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &Snapshot{Timestamp: now.Add(-tt.age)}
			assert.Equal(t, tt.expired, snap.Expired(now))
		})
	}
}
