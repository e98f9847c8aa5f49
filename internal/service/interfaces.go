package service

import (
	"context"
	"time"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/internal/lifecycle"
)

// VisitService drives the visit lifecycle: opening and resuming sessions,
// mirroring in-progress work to the draft store, and finalizing visits.
// It never retries a failed persistence call; the mirror is the safety
// net and retry is the caller's decision.
type VisitService interface {
	// CanStart reports whether the salesperson may begin a new visit
	// (at most one in-flight PENDING visit globally)
	CanStart(ctx context.Context, salespersonID string) (bool, error)

	// Open builds a session for one (event, academy) pair, applying the
	// crash-recovery contract. The second return reports whether local
	// draft state was restored or merged.
	Open(ctx context.Context, eventID, academyID, salespersonID string) (*lifecycle.Session, bool, error)

	// Start stamps the start time and persists the new PENDING visit
	Start(ctx context.Context, session *lifecycle.Session, now time.Time) error

	// SaveDraft mirrors the session to the durable draft store
	SaveDraft(ctx context.Context, session *lifecycle.Session) error

	// AdjustVouchers generates one new code (delta > 0) or removes the
	// most recent one (delta < 0), mirroring the result
	AdjustVouchers(ctx context.Context, session *lifecycle.Session, delta int) error

	// Finish finalizes from data collection without vouchers
	Finish(ctx context.Context, session *lifecycle.Session, now time.Time) error

	// Complete finalizes from the redemption step, turning pending codes
	// into voucher rows in the same write as the visit itself
	Complete(ctx context.Context, session *lifecycle.Session, now time.Time) error

	// SaveEdited applies the edit overlay and re-submits the full record
	SaveEdited(ctx context.Context, session *lifecycle.Session, now time.Time) error

	// GetByID retrieves a visit
	GetByID(ctx context.Context, id string) (*domain.Visit, error)

	// ListByEvent retrieves all visits within an event
	ListByEvent(ctx context.Context, eventID string) ([]*domain.Visit, error)
}

// VoucherService issues voucher codes and renders redemption links
type VoucherService interface {
	// GenerateCode produces a globally unique voucher code
	GenerateCode(ctx context.Context) (string, error)

	// RedemptionLink builds the shareable link for an academy's codes.
	// The embedded timestamp opens the 24-hour validity window enforced
	// by the landing page.
	RedemptionLink(academyName string, codes []string, issuedAt time.Time) string

	// ShareMessage builds the message sent alongside the link
	ShareMessage(academyName string, codes []string, issuedAt time.Time) string

	// RedemptionQR renders the redemption link as a PNG QR code
	RedemptionQR(academyName string, codes []string, issuedAt time.Time) ([]byte, error)

	// ListByEvent retrieves an event's vouchers
	ListByEvent(ctx context.Context, eventID string) ([]*domain.Voucher, error)

	// ListByVisit retrieves a visit's vouchers
	ListByVisit(ctx context.Context, visitID string) ([]*domain.Voucher, error)
}

// AuthService authenticates users and validates session tokens
type AuthService interface {
	// Login verifies credentials and returns a signed session token
	Login(ctx context.Context, email, password string) (string, *domain.User, error)

	// ValidateToken validates a session token and returns its claims
	ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error)

	// GetUser retrieves the account behind validated claims
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// Services aggregates all service interfaces
type Services struct {
	Visit   VisitService
	Voucher VoucherService
	Auth    AuthService
}
