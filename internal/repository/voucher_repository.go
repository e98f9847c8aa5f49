package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/database"
)

// voucherRepository handles voucher operations with PostgreSQL
type voucherRepository struct {
	db *database.PostgresDB
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *database.PostgresDB) VoucherRepository {
	return &voucherRepository{
		db: db,
	}
}

// CreateBatch inserts voucher rows
func (r *voucherRepository) CreateBatch(ctx context.Context, vouchers []*domain.Voucher) error {
	if len(vouchers) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, voucher := range vouchers {
		batch.Queue(
			`INSERT INTO vouchers (code, visit_id, academy_id, event_id) VALUES ($1, $2, $3, $4)`,
			voucher.Code, voucher.VisitID, voucher.AcademyID, voucher.EventID,
		)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range vouchers {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to create voucher batch: %w", err)
		}
	}

	return nil
}

// CodeExists reports whether a code is already taken
func (r *voucherRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM vouchers WHERE code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check voucher code: %w", err)
	}

	return exists, nil
}

// ListByVisit retrieves a visit's vouchers in creation order
func (r *voucherRepository) ListByVisit(ctx context.Context, visitID string) ([]*domain.Voucher, error) {
	query := `
		SELECT code, visit_id, academy_id, event_id, created_at
		FROM vouchers
		WHERE visit_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Pool.Query(ctx, query, visitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vouchers by visit: %w", err)
	}
	defer rows.Close()

	return collectVouchers(rows)
}

// ListByEvent retrieves an event's vouchers in creation order
func (r *voucherRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Voucher, error) {
	query := `
		SELECT code, visit_id, academy_id, event_id, created_at
		FROM vouchers
		WHERE event_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vouchers by event: %w", err)
	}
	defer rows.Close()

	return collectVouchers(rows)
}

// ListAll retrieves every voucher, for batch reconciliation
func (r *voucherRepository) ListAll(ctx context.Context) ([]*domain.Voucher, error) {
	query := `
		SELECT code, visit_id, academy_id, event_id, created_at
		FROM vouchers
		ORDER BY created_at
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	return collectVouchers(rows)
}

func collectVouchers(rows pgx.Rows) ([]*domain.Voucher, error) {
	var vouchers []*domain.Voucher
	for rows.Next() {
		voucher := &domain.Voucher{}
		err := rows.Scan(
			&voucher.Code,
			&voucher.VisitID,
			&voucher.AcademyID,
			&voucher.EventID,
			&voucher.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher row: %w", err)
		}
		vouchers = append(vouchers, voucher)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading voucher rows: %w", err)
	}

	return vouchers, nil
}

// ReassignVisit repoints vouchers from the given visits to another visit
func (r *voucherRepository) ReassignVisit(ctx context.Context, fromVisitIDs []string, toVisitID string) (int64, error) {
	if len(fromVisitIDs) == 0 {
		return 0, nil
	}

	result, err := r.db.Pool.Exec(ctx,
		`UPDATE vouchers SET visit_id = $2 WHERE visit_id = ANY($1)`,
		fromVisitIDs, toVisitID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign vouchers: %w", err)
	}

	return result.RowsAffected(), nil
}
