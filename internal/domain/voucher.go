package domain

import "time"

// Voucher is a redemption code issued to one academy as a result of one
// visit. Codes are globally unique and never mutated after creation.
type Voucher struct {
	Code      string    `json:"code" db:"code"`
	VisitID   string    `json:"visit_id" db:"visit_id"`
	AcademyID string    `json:"academy_id" db:"academy_id"`
	EventID   string    `json:"event_id" db:"event_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
