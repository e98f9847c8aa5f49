package domain

import "time"

// FinanceStatus is the settlement status of a finance record
type FinanceStatus string

const (
	FinanceStatusPending  FinanceStatus = "PENDING"
	FinanceStatusApproved FinanceStatus = "APPROVED"
	FinanceStatusPaid     FinanceStatus = "PAID"
	FinanceStatusRejected FinanceStatus = "REJECTED"
)

// FinanceRecord is an expense or commission entry for a salesperson
type FinanceRecord struct {
	ID            string        `json:"id" db:"id"`
	SalespersonID string        `json:"salesperson_id" db:"salesperson_id"`
	EventID       string        `json:"event_id" db:"event_id"`
	Description   string        `json:"description" db:"description"`
	AmountCents   int64         `json:"amount_cents" db:"amount_cents"`
	Status        FinanceStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}
