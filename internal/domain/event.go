package domain

import "time"

// EventStatus is the lifecycle status of an event
type EventStatus string

const (
	EventStatusUpcoming EventStatus = "UPCOMING"
	EventStatusActive   EventStatus = "ACTIVE"
	EventStatusFinished EventStatus = "FINISHED"
)

// Event is a tournament or promotional event during which academies are
// visited. Each event is assigned to one salesperson.
type Event struct {
	ID            string      `json:"id" db:"id"`
	Name          string      `json:"name" db:"name"`
	City          string      `json:"city" db:"city"`
	State         string      `json:"state" db:"state"`
	Status        EventStatus `json:"status" db:"status"`
	SalespersonID string      `json:"salesperson_id" db:"salesperson_id"`
	StartsAt      time.Time   `json:"starts_at" db:"starts_at"`
	EndsAt        time.Time   `json:"ends_at" db:"ends_at"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}
