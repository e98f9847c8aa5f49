package draft

import (
	"context"
	"time"

	"bjjvisits-backend/internal/domain"
)

// MaxAge is how long a mirrored snapshot stays restorable. Older snapshots
// are treated as absent.
const MaxAge = 24 * time.Hour

// Snapshot is the durable mirror of an in-progress visit, written on every
// in-memory state change and cleared only after a successful finalize or
// full-record save.
type Snapshot struct {
	Step              string        `json:"step"`
	Visit             *domain.Visit `json:"visit"`
	PendingCodes      []string      `json:"pending_codes"`
	MarketingAnswered bool          `json:"marketing_answered"`
	Timestamp         time.Time     `json:"_timestamp"`
}

// Expired reports whether the snapshot is too old to restore
func (s *Snapshot) Expired(now time.Time) bool {
	return now.Sub(s.Timestamp) >= MaxAge
}

// Store is a durable draft store keyed by (event, academy). Load returns
// (nil, nil) when no restorable snapshot exists.
type Store interface {
	Save(ctx context.Context, eventID, academyID string, snap *Snapshot) error
	Load(ctx context.Context, eventID, academyID string) (*Snapshot, error)
	Clear(ctx context.Context, eventID, academyID string) error
}
