package service

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/errors"
	"bjjvisits-backend/pkg/logger"
)

// fakeVoucherRepo is an in-memory VoucherRepository. CodeExists can be
// forced to report collisions for the first N calls.
type fakeVoucherRepo struct {
	vouchers   []*domain.Voucher
	collisions int
	checks     int
}

func (r *fakeVoucherRepo) CreateBatch(_ context.Context, vouchers []*domain.Voucher) error {
	r.vouchers = append(r.vouchers, vouchers...)
	return nil
}

func (r *fakeVoucherRepo) CodeExists(_ context.Context, code string) (bool, error) {
	r.checks++
	if r.collisions > 0 {
		r.collisions--
		return true, nil
	}
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
	return r.vouchers, nil
}

func (r *fakeVoucherRepo) ReassignVisit(_ context.Context, _ []string, _ string) (int64, error) {
	return 0, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	return log
}

func TestGenerateCodeFormat(t *testing.T) {
	svc := NewVoucherService(&fakeVoucherRepo{}, "https://app.example.com", testLogger(t))

	format := regexp.MustCompile(`^[A-Z]{3}[0-9]{3}$`)
	for i := 0; i < 50; i++ {
		code, err := svc.GenerateCode(context.Background())
		require.NoError(t, err)
		assert.Regexp(t, format, code)
	}
}

func TestGenerateCodeRetriesOnCollision(t *testing.T) {
	repo := &fakeVoucherRepo{collisions: 2}
	svc := NewVoucherService(repo, "https://app.example.com", testLogger(t))

	code, err := svc.GenerateCode(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.Equal(t, 3, repo.checks)
}

func TestGenerateCodeGivesUpAfterMaxAttempts(t *testing.T) {
	repo := &fakeVoucherRepo{collisions: 100}
	svc := NewVoucherService(repo, "https://app.example.com", testLogger(t))

	_, err := svc.GenerateCode(context.Background())
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeConflict, appErr.Type)
	assert.Equal(t, maxCodeAttempts, repo.checks)
}

func TestRedemptionLink(t *testing.T) {
	svc := NewVoucherService(&fakeVoucherRepo{}, "https://app.example.com/", testLogger(t))

	issuedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	link := svc.RedemptionLink("Gracie Barra & Co", []string{"ABC123", "DEF456"}, issuedAt)

	want := fmt.Sprintf("https://app.example.com/#/public-voucher/Gracie+Barra+%%26+Co|ABC123%%2CDEF456|%d",
		issuedAt.UnixMilli())
	assert.Equal(t, want, link)
}

func TestShareMessage(t *testing.T) {
	svc := NewVoucherService(&fakeVoucherRepo{}, "https://app.example.com", testLogger(t))
	issuedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	single := svc.ShareMessage("Atos HQ", []string{"ABC123"}, issuedAt)
	assert.Contains(t, single, "received 1 voucher:")
	assert.Contains(t, single, "ABC123")

	multi := svc.ShareMessage("Atos HQ", []string{"ABC123", "DEF456"}, issuedAt)
	assert.Contains(t, multi, "received 2 vouchers:")
	assert.Contains(t, multi, "ABC123, DEF456")
	assert.Contains(t, multi, svc.RedemptionLink("Atos HQ", []string{"ABC123", "DEF456"}, issuedAt))
}

func TestRedemptionQR(t *testing.T) {
	svc := NewVoucherService(&fakeVoucherRepo{}, "https://app.example.com", testLogger(t))

	png, err := svc.RedemptionQR("Atos HQ", []string{"ABC123"}, time.Now())
	require.NoError(t, err)
	require.True(t, len(png) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
