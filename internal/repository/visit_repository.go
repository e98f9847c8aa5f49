package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/database"
)

const visitColumns = `
	id, event_id, academy_id, salesperson_id, status,
	started_at, finished_at, contact_person, temperature, summary,
	photos, left_banner, left_flyers, vouchers_generated,
	created_at, updated_at
`

// visitRepository handles visit operations with PostgreSQL
type visitRepository struct {
	db *database.PostgresDB
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *database.PostgresDB) VisitRepository {
	return &visitRepository{
		db: db,
	}
}

// Create inserts a new visit
func (r *visitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	query := `
		INSERT INTO visits (
			id, event_id, academy_id, salesperson_id, status,
			started_at, finished_at, contact_person, temperature, summary,
			photos, left_banner, left_flyers, vouchers_generated
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		visit.ID,
		visit.EventID,
		visit.AcademyID,
		visit.SalespersonID,
		visit.Status,
		visit.StartedAt,
		visit.FinishedAt,
		visit.ContactPerson,
		visit.Temperature,
		visit.Summary,
		visit.Photos,
		visit.LeftBanner,
		visit.LeftFlyers,
		visit.VouchersGenerated,
	).Scan(&visit.CreatedAt, &visit.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}

	return nil
}

// Upsert writes the full visit record, keyed by id
func (r *visitRepository) Upsert(ctx context.Context, visit *domain.Visit) error {
	query := `
		INSERT INTO visits (
			id, event_id, academy_id, salesperson_id, status,
			started_at, finished_at, contact_person, temperature, summary,
			photos, left_banner, left_flyers, vouchers_generated
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			contact_person = EXCLUDED.contact_person,
			temperature = EXCLUDED.temperature,
			summary = EXCLUDED.summary,
			photos = EXCLUDED.photos,
			left_banner = EXCLUDED.left_banner,
			left_flyers = EXCLUDED.left_flyers,
			vouchers_generated = EXCLUDED.vouchers_generated,
			updated_at = now()
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		visit.ID,
		visit.EventID,
		visit.AcademyID,
		visit.SalespersonID,
		visit.Status,
		visit.StartedAt,
		visit.FinishedAt,
		visit.ContactPerson,
		visit.Temperature,
		visit.Summary,
		visit.Photos,
		visit.LeftBanner,
		visit.LeftFlyers,
		visit.VouchersGenerated,
	).Scan(&visit.CreatedAt, &visit.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert visit: %w", err)
	}

	return nil
}

func scanVisit(row pgx.Row) (*domain.Visit, error) {
	visit := &domain.Visit{}
	err := row.Scan(
		&visit.ID,
		&visit.EventID,
		&visit.AcademyID,
		&visit.SalespersonID,
		&visit.Status,
		&visit.StartedAt,
		&visit.FinishedAt,
		&visit.ContactPerson,
		&visit.Temperature,
		&visit.Summary,
		&visit.Photos,
		&visit.LeftBanner,
		&visit.LeftFlyers,
		&visit.VouchersGenerated,
		&visit.CreatedAt,
		&visit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return visit, nil
}

// GetByID retrieves a visit by id
func (r *visitRepository) GetByID(ctx context.Context, id string) (*domain.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`

	visit, err := scanVisit(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	return visit, nil
}

// GetByEventAndAcademy retrieves the visit for one (event, academy) pair
func (r *visitRepository) GetByEventAndAcademy(ctx context.Context, eventID, academyID string) (*domain.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE event_id = $1 AND academy_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	visit, err := scanVisit(r.db.Pool.QueryRow(ctx, query, eventID, academyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get visit by event and academy: %w", err)
	}

	return visit, nil
}

// ListByEvent retrieves all visits within an event
func (r *visitRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE event_id = $1 ORDER BY created_at`

	rows, err := r.db.Pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits by event: %w", err)
	}
	defer rows.Close()

	return collectVisits(rows)
}

// ListAll retrieves every visit, for batch reconciliation
func (r *visitRepository) ListAll(ctx context.Context) ([]*domain.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits ORDER BY created_at`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	return collectVisits(rows)
}

func collectVisits(rows pgx.Rows) ([]*domain.Visit, error) {
	var visits []*domain.Visit
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit row: %w", err)
		}
		visits = append(visits, visit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading visit rows: %w", err)
	}

	return visits, nil
}

// HasPendingForSalesperson reports whether the salesperson already has an
// in-flight PENDING visit
func (r *visitRepository) HasPendingForSalesperson(ctx context.Context, salespersonID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM visits
			WHERE salesperson_id = $1 AND status = $2 AND started_at IS NOT NULL
		)
	`

	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, salespersonID, domain.VisitStatusPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending visits: %w", err)
	}

	return exists, nil
}

// UpdateTimes rewrites the lifecycle timestamps and status of a visit
func (r *visitRepository) UpdateTimes(ctx context.Context, id string, startedAt, finishedAt *time.Time, status domain.VisitStatus) error {
	query := `
		UPDATE visits
		SET started_at = $2, finished_at = $3, status = $4, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id, startedAt, finishedAt, status)
	if err != nil {
		return fmt.Errorf("failed to update visit times: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("visit %s not found", id)
	}

	return nil
}

// UpdateVoucherCache overwrites the denormalized voucher-code list
func (r *visitRepository) UpdateVoucherCache(ctx context.Context, id string, codes []string) error {
	query := `
		UPDATE visits
		SET vouchers_generated = $2, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id, codes)
	if err != nil {
		return fmt.Errorf("failed to update voucher cache: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("visit %s not found", id)
	}

	return nil
}

// DeleteByIDs removes visits by id
func (r *visitRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.Pool.Exec(ctx, `DELETE FROM visits WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete visits: %w", err)
	}

	return result.RowsAffected(), nil
}

// FinalizeWithVouchers writes the finalized visit and its voucher rows in
// one transaction, so the cached code list and the voucher table cannot
// diverge on a partial failure.
func (r *visitRepository) FinalizeWithVouchers(ctx context.Context, visit *domain.Visit, vouchers []*domain.Voucher) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE visits
		SET status = $2, finished_at = $3, contact_person = $4, temperature = $5,
			summary = $6, photos = $7, left_banner = $8, left_flyers = $9,
			vouchers_generated = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err = tx.QueryRow(ctx, query,
		visit.ID,
		visit.Status,
		visit.FinishedAt,
		visit.ContactPerson,
		visit.Temperature,
		visit.Summary,
		visit.Photos,
		visit.LeftBanner,
		visit.LeftFlyers,
		visit.VouchersGenerated,
	).Scan(&visit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to finalize visit: %w", err)
	}

	for _, voucher := range vouchers {
		_, err = tx.Exec(ctx,
			`INSERT INTO vouchers (code, visit_id, academy_id, event_id) VALUES ($1, $2, $3, $4)`,
			voucher.Code, voucher.VisitID, voucher.AcademyID, voucher.EventID,
		)
		if err != nil {
			return fmt.Errorf("failed to create voucher %s: %w", voucher.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit visit finalization: %w", err)
	}

	return nil
}
