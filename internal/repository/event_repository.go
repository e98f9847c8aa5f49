package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/database"
)

// eventRepository handles event CRUD with PostgreSQL
type eventRepository struct {
	db *database.PostgresDB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.PostgresDB) EventRepository {
	return &eventRepository{
		db: db,
	}
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `
		SELECT id, name, city, state, status, salesperson_id, starts_at, ends_at, created_at, updated_at
		FROM events
		ORDER BY starts_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event := &domain.Event{}
		err := rows.Scan(
			&event.ID,
			&event.Name,
			&event.City,
			&event.State,
			&event.Status,
			&event.SalespersonID,
			&event.StartsAt,
			&event.EndsAt,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading event rows: %w", err)
	}

	return events, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, name, city, state, status, salesperson_id, starts_at, ends_at, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	event := &domain.Event{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.City,
		&event.State,
		&event.Status,
		&event.SalespersonID,
		&event.StartsAt,
		&event.EndsAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (id, name, city, state, status, salesperson_id, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		event.ID, event.Name, event.City, event.State, event.Status,
		event.SalespersonID, event.StartsAt, event.EndsAt,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events
		SET name = $2, city = $3, state = $4, status = $5, salesperson_id = $6,
			starts_at = $7, ends_at = $8, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		event.ID, event.Name, event.City, event.State, event.Status,
		event.SalespersonID, event.StartsAt, event.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("event %s not found", event.ID)
	}

	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("event %s not found", id)
	}

	return nil
}
