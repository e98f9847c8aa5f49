package repository

import (
	"context"
	"time"

	"bjjvisits-backend/internal/domain"
)

// VisitRepository defines the interface for visit data operations
type VisitRepository interface {
	// Create inserts a new visit
	Create(ctx context.Context, visit *domain.Visit) error

	// Upsert writes the full visit record, keyed by id
	Upsert(ctx context.Context, visit *domain.Visit) error

	// GetByID retrieves a visit by id
	GetByID(ctx context.Context, id string) (*domain.Visit, error)

	// GetByEventAndAcademy retrieves the visit for one (event, academy)
	// pair, or nil when none exists
	GetByEventAndAcademy(ctx context.Context, eventID, academyID string) (*domain.Visit, error)

	// ListByEvent retrieves all visits within an event
	ListByEvent(ctx context.Context, eventID string) ([]*domain.Visit, error)

	// ListAll retrieves every visit, for batch reconciliation
	ListAll(ctx context.Context) ([]*domain.Visit, error)

	// HasPendingForSalesperson reports whether the salesperson already has
	// an in-flight PENDING visit
	HasPendingForSalesperson(ctx context.Context, salespersonID string) (bool, error)

	// UpdateTimes rewrites the lifecycle timestamps and status of a visit
	UpdateTimes(ctx context.Context, id string, startedAt, finishedAt *time.Time, status domain.VisitStatus) error

	// UpdateVoucherCache overwrites the denormalized voucher-code list
	UpdateVoucherCache(ctx context.Context, id string, codes []string) error

	// DeleteByIDs removes visits by id and returns the number deleted
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	// FinalizeWithVouchers writes the finalized visit and its voucher rows
	// in one transaction
	FinalizeWithVouchers(ctx context.Context, visit *domain.Visit, vouchers []*domain.Voucher) error
}

// VoucherRepository defines the interface for voucher data operations
type VoucherRepository interface {
	// CreateBatch inserts voucher rows
	CreateBatch(ctx context.Context, vouchers []*domain.Voucher) error

	// CodeExists reports whether a code is already taken
	CodeExists(ctx context.Context, code string) (bool, error)

	// ListByVisit retrieves a visit's vouchers in creation order
	ListByVisit(ctx context.Context, visitID string) ([]*domain.Voucher, error)

	// ListByEvent retrieves an event's vouchers in creation order
	ListByEvent(ctx context.Context, eventID string) ([]*domain.Voucher, error)

	// ListAll retrieves every voucher, for batch reconciliation
	ListAll(ctx context.Context) ([]*domain.Voucher, error)

	// ReassignVisit repoints vouchers from the given visits to another
	// visit and returns the number moved
	ReassignVisit(ctx context.Context, fromVisitIDs []string, toVisitID string) (int64, error)
}

// AcademyRepository defines the interface for academy CRUD
type AcademyRepository interface {
	List(ctx context.Context) ([]*domain.Academy, error)
	GetByID(ctx context.Context, id string) (*domain.Academy, error)
	Create(ctx context.Context, academy *domain.Academy) error
	Update(ctx context.Context, academy *domain.Academy) error
	Delete(ctx context.Context, id string) error
}

// EventRepository defines the interface for event CRUD
type EventRepository interface {
	List(ctx context.Context) ([]*domain.Event, error)
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error
}

// FinanceRepository defines the interface for finance record CRUD
type FinanceRepository interface {
	List(ctx context.Context) ([]*domain.FinanceRecord, error)
	GetByID(ctx context.Context, id string) (*domain.FinanceRecord, error)
	Create(ctx context.Context, record *domain.FinanceRecord) error
	Update(ctx context.Context, record *domain.FinanceRecord) error
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	List(ctx context.Context) ([]*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Visit   VisitRepository
	Voucher VoucherRepository
	Academy AcademyRepository
	Event   EventRepository
	Finance FinanceRepository
	User    UserRepository
}
