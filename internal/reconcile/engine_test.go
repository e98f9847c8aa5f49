package reconcile

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/logger"
)

// fakeVisitRepo is an in-memory VisitRepository for engine tests
type fakeVisitRepo struct {
	visits map[string]*domain.Visit
	order  []string
}

func newFakeVisitRepo(visits ...*domain.Visit) *fakeVisitRepo {
	r := &fakeVisitRepo{visits: map[string]*domain.Visit{}}
	for _, v := range visits {
		r.visits[v.ID] = v
		r.order = append(r.order, v.ID)
	}
	return r
}

func (r *fakeVisitRepo) Create(_ context.Context, visit *domain.Visit) error {
	r.visits[visit.ID] = visit
	r.order = append(r.order, visit.ID)
	return nil
}

func (r *fakeVisitRepo) Upsert(_ context.Context, visit *domain.Visit) error {
	if _, ok := r.visits[visit.ID]; !ok {
		r.order = append(r.order, visit.ID)
	}
	r.visits[visit.ID] = visit
	return nil
}

func (r *fakeVisitRepo) GetByID(_ context.Context, id string) (*domain.Visit, error) {
	return r.visits[id], nil
}

func (r *fakeVisitRepo) GetByEventAndAcademy(_ context.Context, eventID, academyID string) (*domain.Visit, error) {
	for _, id := range r.order {
		v := r.visits[id]
		if v != nil && v.EventID == eventID && v.AcademyID == academyID {
			return v, nil
		}
	}
	return nil, nil
}

func (r *fakeVisitRepo) ListByEvent(_ context.Context, eventID string) ([]*domain.Visit, error) {
	var out []*domain.Visit
	for _, id := range r.order {
		if v := r.visits[id]; v != nil && v.EventID == eventID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVisitRepo) ListAll(_ context.Context) ([]*domain.Visit, error) {
	var out []*domain.Visit
	for _, id := range r.order {
		if v := r.visits[id]; v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVisitRepo) HasPendingForSalesperson(_ context.Context, salespersonID string) (bool, error) {
	for _, v := range r.visits {
		if v.SalespersonID == salespersonID && v.Status == domain.VisitStatusPending && v.StartedAt != nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVisitRepo) UpdateTimes(_ context.Context, id string, startedAt, finishedAt *time.Time, status domain.VisitStatus) error {
	v := r.visits[id]
	v.StartedAt = startedAt
	v.FinishedAt = finishedAt
	v.Status = status
	return nil
}

func (r *fakeVisitRepo) UpdateVoucherCache(_ context.Context, id string, codes []string) error {
	r.visits[id].VouchersGenerated = codes
	return nil
}

func (r *fakeVisitRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := r.visits[id]; ok {
			delete(r.visits, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeVisitRepo) FinalizeWithVouchers(_ context.Context, visit *domain.Visit, _ []*domain.Voucher) error {
	return r.Upsert(context.Background(), visit)
}

// fakeVoucherRepo is an in-memory VoucherRepository for engine tests
type fakeVoucherRepo struct {
	vouchers []*domain.Voucher
}

func (r *fakeVoucherRepo) CreateBatch(_ context.Context, vouchers []*domain.Voucher) error {
	r.vouchers = append(r.vouchers, vouchers...)
	return nil
}

func (r *fakeVoucherRepo) CodeExists(_ context.Context, code string) (bool, error) {
	for _, v := range r.vouchers {
		if v.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVoucherRepo) ListByVisit(_ context.Context, visitID string) ([]*domain.Voucher, error) {
	var out []*domain.Voucher
	for _, v := range r.vouchers {
		if v.VisitID == visitID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVoucherRepo) ListByEvent(_ context.Context, eventID string) ([]*domain.Voucher, error) {
	var out []*domain.Voucher
	for _, v := range r.vouchers {
		if v.EventID == eventID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVoucherRepo) ListAll(_ context.Context) ([]*domain.Voucher, error) {
	return append([]*domain.Voucher(nil), r.vouchers...), nil
}

func (r *fakeVoucherRepo) ReassignVisit(_ context.Context, fromVisitIDs []string, toVisitID string) (int64, error) {
	from := map[string]bool{}
	for _, id := range fromVisitIDs {
		from[id] = true
	}
	var n int64
	for _, v := range r.vouchers {
		if from[v.VisitID] {
			v.VisitID = toVisitID
			n++
		}
	}
	return n, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	return log
}

func ts(offset time.Duration) time.Time {
	return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC).Add(offset)
}

func pendingVisit(id, eventID, academyID string, created time.Time) *domain.Visit {
	return &domain.Visit{
		ID:        id,
		EventID:   eventID,
		AcademyID: academyID,
		Status:    domain.VisitStatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func visitedVisit(id, eventID, academyID string, finished time.Time) *domain.Visit {
	started := finished.Add(-40 * time.Minute)
	return &domain.Visit{
		ID:         id,
		EventID:    eventID,
		AcademyID:  academyID,
		Status:     domain.VisitStatusVisited,
		StartedAt:  &started,
		FinishedAt: &finished,
		CreatedAt:  started,
		UpdatedAt:  finished,
	}
}

func TestSelectSurvivor(t *testing.T) {
	tests := []struct {
		name  string
		group []*domain.Visit
		want  string
	}{
		{
			name: "visited beats pending",
			group: []*domain.Visit{
				pendingVisit("pending", "e", "a", ts(time.Hour)),
				visitedVisit("visited", "e", "a", ts(0)),
			},
			want: "visited",
		},
		{
			name: "latest finish wins among visited",
			group: []*domain.Visit{
				visitedVisit("early", "e", "a", ts(0)),
				visitedVisit("late", "e", "a", ts(2*time.Hour)),
			},
			want: "late",
		},
		{
			name: "latest update wins among pending",
			group: []*domain.Visit{
				pendingVisit("stale", "e", "a", ts(0)),
				pendingVisit("fresh", "e", "a", ts(time.Hour)),
			},
			want: "fresh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			survivor, losers := selectSurvivor(tt.group)
			assert.Equal(t, tt.want, survivor.ID)
			assert.Len(t, losers, len(tt.group)-1)

			// order of the input must not change the outcome
			reversed := append([]*domain.Visit(nil), tt.group...)
			for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
				reversed[i], reversed[j] = reversed[j], reversed[i]
			}
			survivor2, _ := selectSurvivor(reversed)
			assert.Equal(t, tt.want, survivor2.ID)
		})
	}
}

func TestResolveDuplicates(t *testing.T) {
	survivor := visitedVisit("survivor", "event-1", "academy-1", ts(time.Hour))
	loser1 := pendingVisit("loser-1", "event-1", "academy-1", ts(0))
	loser2 := visitedVisit("loser-2", "event-1", "academy-1", ts(0))
	unrelated := pendingVisit("other", "event-1", "academy-2", ts(0))

	visits := newFakeVisitRepo(survivor, loser1, loser2, unrelated)
	vouchers := &fakeVoucherRepo{vouchers: []*domain.Voucher{
		{Code: "AAA111", VisitID: "loser-2", EventID: "event-1", AcademyID: "academy-1"},
		{Code: "BBB222", VisitID: "survivor", EventID: "event-1", AcademyID: "academy-1"},
	}}

	engine := NewEngine(visits, vouchers, testLogger(t))
	report := &Report{}
	require.NoError(t, engine.ResolveDuplicates(context.Background(), report))

	assert.Equal(t, 1, report.DuplicateGroups)
	assert.Equal(t, int64(2), report.VisitsDeleted)
	assert.Equal(t, int64(1), report.VouchersReassigned)

	remaining, _ := visits.ListAll(context.Background())
	ids := make([]string, 0, len(remaining))
	for _, v := range remaining {
		ids = append(ids, v.ID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"other", "survivor"}, ids)

	// the loser's voucher now belongs to the survivor
	moved, _ := vouchers.ListByVisit(context.Background(), "survivor")
	assert.Len(t, moved, 2)
}

func TestResolveDuplicatesDryRun(t *testing.T) {
	visits := newFakeVisitRepo(
		visitedVisit("a", "event-1", "academy-1", ts(time.Hour)),
		pendingVisit("b", "event-1", "academy-1", ts(0)),
	)
	vouchers := &fakeVoucherRepo{vouchers: []*domain.Voucher{
		{Code: "AAA111", VisitID: "b"},
	}}

	engine := NewEngine(visits, vouchers, testLogger(t))
	engine.DryRun = true
	report := &Report{}
	require.NoError(t, engine.ResolveDuplicates(context.Background(), report))

	assert.Equal(t, int64(1), report.VisitsDeleted, "dry run still counts")
	remaining, _ := visits.ListAll(context.Background())
	assert.Len(t, remaining, 2, "dry run must not delete")
	assert.Equal(t, "b", vouchers.vouchers[0].VisitID, "dry run must not reassign")
}

func TestNormalizeDurationsForcesVisitedOnCap(t *testing.T) {
	started := ts(0)
	finished := started.Add(3 * time.Hour)
	visit := &domain.Visit{
		ID:         "long",
		EventID:    "event-1",
		AcademyID:  "academy-1",
		Status:     domain.VisitStatusPending,
		StartedAt:  &started,
		FinishedAt: &finished,
	}
	unstarted := pendingVisit("unstarted", "event-1", "academy-2", ts(0))

	visits := newFakeVisitRepo(visit, unstarted)
	engine := NewEngine(visits, &fakeVoucherRepo{}, testLogger(t))

	report := &Report{}
	require.NoError(t, engine.NormalizeDurations(context.Background(), report))

	assert.Equal(t, 1, report.DurationsRepaired)
	assert.Equal(t, domain.VisitStatusVisited, visit.Status)
	assert.Equal(t, 60*time.Minute, visit.FinishedAt.Sub(*visit.StartedAt))
	assert.Nil(t, unstarted.StartedAt, "visits without timestamps are skipped")
}

func TestSyncVoucherCache(t *testing.T) {
	stale := visitedVisit("stale", "event-1", "academy-1", ts(time.Hour))
	stale.VouchersGenerated = []string{"OLD000"}
	clean := visitedVisit("clean", "event-1", "academy-2", ts(time.Hour))
	clean.VouchersGenerated = []string{"CCC333"}

	visits := newFakeVisitRepo(stale, clean)
	vouchers := &fakeVoucherRepo{vouchers: []*domain.Voucher{
		{Code: "AAA111", VisitID: "stale"},
		{Code: "BBB222", VisitID: "stale"},
		{Code: "CCC333", VisitID: "clean"},
	}}

	engine := NewEngine(visits, vouchers, testLogger(t))
	report := &Report{}
	require.NoError(t, engine.SyncVoucherCache(context.Background(), report))

	assert.Equal(t, 1, report.CachesRewritten)
	assert.Equal(t, []string{"AAA111", "BBB222"}, stale.VouchersGenerated)
	assert.Equal(t, []string{"CCC333"}, clean.VouchersGenerated)

	// a second pass is a no-op
	report2 := &Report{}
	require.NoError(t, engine.SyncVoucherCache(context.Background(), report2))
	assert.Zero(t, report2.CachesRewritten)
}

func TestSyncVoucherCacheClearsGhostCodes(t *testing.T) {
	ghost := visitedVisit("ghost", "event-1", "academy-1", ts(time.Hour))
	ghost.VouchersGenerated = []string{"GGG777"}

	visits := newFakeVisitRepo(ghost)
	engine := NewEngine(visits, &fakeVoucherRepo{}, testLogger(t))

	report := &Report{}
	require.NoError(t, engine.SyncVoucherCache(context.Background(), report))

	assert.Equal(t, 1, report.CachesRewritten)
	assert.Empty(t, ghost.VouchersGenerated)
}

func TestAuditOrphans(t *testing.T) {
	visits := newFakeVisitRepo(visitedVisit("alive", "event-1", "academy-1", ts(time.Hour)))
	vouchers := &fakeVoucherRepo{vouchers: []*domain.Voucher{
		{Code: "AAA111", VisitID: "alive"},
		{Code: "BBB222", VisitID: "deleted-long-ago"},
	}}

	engine := NewEngine(visits, vouchers, testLogger(t))
	report := &Report{}
	require.NoError(t, engine.AuditOrphans(context.Background(), report))

	assert.Equal(t, []string{"BBB222"}, report.OrphanedVouchers)
	// orphans are reported, never deleted
	all, _ := vouchers.ListAll(context.Background())
	assert.Len(t, all, 2)
}

func TestRunFullPass(t *testing.T) {
	dup1 := visitedVisit("dup-1", "event-1", "academy-1", ts(2*time.Hour))
	dup2 := pendingVisit("dup-2", "event-1", "academy-1", ts(0))

	started := ts(0)
	finished := started // zero duration
	broken := &domain.Visit{
		ID: "broken", EventID: "event-1", AcademyID: "academy-2",
		Status:    domain.VisitStatusVisited,
		StartedAt: &started, FinishedAt: &finished,
	}

	visits := newFakeVisitRepo(dup1, dup2, broken)
	vouchers := &fakeVoucherRepo{vouchers: []*domain.Voucher{
		{Code: "AAA111", VisitID: "dup-2"},
	}}

	engine := NewEngine(visits, vouchers, testLogger(t))
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.DuplicateGroups)
	assert.Equal(t, int64(1), report.VisitsDeleted)
	assert.Equal(t, 1, report.DurationsRepaired)
	assert.Equal(t, 30*time.Minute, broken.FinishedAt.Sub(*broken.StartedAt))
	assert.Empty(t, report.OrphanedVouchers)
	assert.Empty(t, report.Failures)

	// the reassigned voucher landed in the survivor's cache
	assert.Equal(t, []string{"AAA111"}, dup1.VouchersGenerated)

	// the whole pass is idempotent
	report2, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report2.DuplicateGroups)
	assert.Zero(t, report2.DurationsRepaired)
	assert.Zero(t, report2.CachesRewritten)
}
