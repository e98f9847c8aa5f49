package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/database"
)

// academyRepository handles academy CRUD with PostgreSQL
type academyRepository struct {
	db *database.PostgresDB
}

// NewAcademyRepository creates a new academy repository
func NewAcademyRepository(db *database.PostgresDB) AcademyRepository {
	return &academyRepository{
		db: db,
	}
}

func (r *academyRepository) List(ctx context.Context) ([]*domain.Academy, error) {
	query := `
		SELECT id, name, address, city, state, phone, created_at, updated_at
		FROM academies
		ORDER BY name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query academies: %w", err)
	}
	defer rows.Close()

	var academies []*domain.Academy
	for rows.Next() {
		academy := &domain.Academy{}
		err := rows.Scan(
			&academy.ID,
			&academy.Name,
			&academy.Address,
			&academy.City,
			&academy.State,
			&academy.Phone,
			&academy.CreatedAt,
			&academy.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan academy row: %w", err)
		}
		academies = append(academies, academy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading academy rows: %w", err)
	}

	return academies, nil
}

func (r *academyRepository) GetByID(ctx context.Context, id string) (*domain.Academy, error) {
	query := `
		SELECT id, name, address, city, state, phone, created_at, updated_at
		FROM academies
		WHERE id = $1
	`

	academy := &domain.Academy{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&academy.ID,
		&academy.Name,
		&academy.Address,
		&academy.City,
		&academy.State,
		&academy.Phone,
		&academy.CreatedAt,
		&academy.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get academy: %w", err)
	}

	return academy, nil
}

func (r *academyRepository) Create(ctx context.Context, academy *domain.Academy) error {
	query := `
		INSERT INTO academies (id, name, address, city, state, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		academy.ID, academy.Name, academy.Address, academy.City, academy.State, academy.Phone,
	).Scan(&academy.CreatedAt, &academy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create academy: %w", err)
	}

	return nil
}

func (r *academyRepository) Update(ctx context.Context, academy *domain.Academy) error {
	query := `
		UPDATE academies
		SET name = $2, address = $3, city = $4, state = $5, phone = $6, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		academy.ID, academy.Name, academy.Address, academy.City, academy.State, academy.Phone,
	)
	if err != nil {
		return fmt.Errorf("failed to update academy: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("academy %s not found", academy.ID)
	}

	return nil
}

func (r *academyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM academies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete academy: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("academy %s not found", id)
	}

	return nil
}
