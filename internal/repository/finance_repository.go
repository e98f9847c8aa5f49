package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/database"
)

// financeRepository handles finance record CRUD with PostgreSQL
type financeRepository struct {
	db *database.PostgresDB
}

// NewFinanceRepository creates a new finance repository
func NewFinanceRepository(db *database.PostgresDB) FinanceRepository {
	return &financeRepository{
		db: db,
	}
}

func (r *financeRepository) List(ctx context.Context) ([]*domain.FinanceRecord, error) {
	query := `
		SELECT id, salesperson_id, event_id, description, amount_cents, status, created_at, updated_at
		FROM finance_records
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query finance records: %w", err)
	}
	defer rows.Close()

	var records []*domain.FinanceRecord
	for rows.Next() {
		record := &domain.FinanceRecord{}
		err := rows.Scan(
			&record.ID,
			&record.SalespersonID,
			&record.EventID,
			&record.Description,
			&record.AmountCents,
			&record.Status,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finance row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading finance rows: %w", err)
	}

	return records, nil
}

func (r *financeRepository) GetByID(ctx context.Context, id string) (*domain.FinanceRecord, error) {
	query := `
		SELECT id, salesperson_id, event_id, description, amount_cents, status, created_at, updated_at
		FROM finance_records
		WHERE id = $1
	`

	record := &domain.FinanceRecord{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.SalespersonID,
		&record.EventID,
		&record.Description,
		&record.AmountCents,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get finance record: %w", err)
	}

	return record, nil
}

func (r *financeRepository) Create(ctx context.Context, record *domain.FinanceRecord) error {
	query := `
		INSERT INTO finance_records (id, salesperson_id, event_id, description, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		record.ID, record.SalespersonID, record.EventID,
		record.Description, record.AmountCents, record.Status,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create finance record: %w", err)
	}

	return nil
}

func (r *financeRepository) Update(ctx context.Context, record *domain.FinanceRecord) error {
	query := `
		UPDATE finance_records
		SET description = $2, amount_cents = $3, status = $4, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		record.ID, record.Description, record.AmountCents, record.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update finance record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("finance record %s not found", record.ID)
	}

	return nil
}

func (r *financeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM finance_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete finance record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("finance record %s not found", id)
	}

	return nil
}
