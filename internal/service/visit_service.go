package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/internal/draft"
	"bjjvisits-backend/internal/lifecycle"
	"bjjvisits-backend/internal/repository"
	"bjjvisits-backend/pkg/errors"
	"bjjvisits-backend/pkg/logger"
)

// RecoveredPrefix marks summary text merged in from a local draft, so a
// salesperson can tell restored notes from what reached the server
const RecoveredPrefix = "[recovered] "

// visitService implements VisitService on top of the visit repository and
// the durable draft store
type visitService struct {
	visits   repository.VisitRepository
	vouchers VoucherService
	drafts   draft.Store
	logger   *logger.Logger
}

// NewVisitService creates a new visit service
func NewVisitService(visits repository.VisitRepository, vouchers VoucherService, drafts draft.Store, logger *logger.Logger) VisitService {
	return &visitService{
		visits:   visits,
		vouchers: vouchers,
		drafts:   drafts,
		logger:   logger,
	}
}

// CanStart reports whether the salesperson may begin a new visit
func (s *visitService) CanStart(ctx context.Context, salespersonID string) (bool, error) {
	pending, err := s.visits.HasPendingForSalesperson(ctx, salespersonID)
	if err != nil {
		return false, fmt.Errorf("failed to check in-flight visits: %w", err)
	}
	return !pending, nil
}

// Open builds a session for one (event, academy) pair. Recovery contract:
// with no server-side visit, a fresh (<24h) local snapshot is restored
// wholesale; with a server-side visit, only an unsynced summary is merged
// in, prefixed, and only when the server's summary is empty.
func (s *visitService) Open(ctx context.Context, eventID, academyID, salespersonID string) (*lifecycle.Session, bool, error) {
	visit, err := s.visits.GetByEventAndAcademy(ctx, eventID, academyID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load visit: %w", err)
	}

	snap, err := s.drafts.Load(ctx, eventID, academyID)
	if err != nil {
		// A broken mirror must not block opening the visit
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"event_id":   eventID,
			"academy_id": academyID,
		}).Warn("Failed to load draft snapshot, continuing without recovery")
		snap = nil
	}

	if visit == nil {
		if snap != nil {
			session := restoreSession(snap)
			s.logger.WithFields(map[string]interface{}{
				"event_id":   eventID,
				"academy_id": academyID,
				"step":       string(session.Step),
			}).Info("Restored visit from local draft")
			return session, true, nil
		}
		return lifecycle.NewSession(eventID, academyID, salespersonID), false, nil
	}

	// A snapshot for the same visit id is the live working state of this
	// very session (field edits and pending voucher codes not yet written
	// as rows); it resumes wholesale. A snapshot for a different or
	// absent id is stale local data and only its summary may be merged.
	if snap != nil && snap.Visit != nil && snap.Visit.ID == visit.ID {
		return restoreSession(snap), false, nil
	}

	session := lifecycle.Resume(visit)
	if snap != nil && visit.Summary == "" && snap.Visit != nil && snap.Visit.Summary != "" {
		session.Visit.Summary = RecoveredPrefix + snap.Visit.Summary
		s.logger.WithFields(map[string]interface{}{
			"visit_id": visit.ID,
		}).Info("Merged recovered summary into server visit")
		return session, true, nil
	}

	return session, false, nil
}

// Start stamps the start time and persists the new PENDING visit. The
// session does not advance when persistence fails.
func (s *visitService) Start(ctx context.Context, session *lifecycle.Session, now time.Time) error {
	ok, err := s.CanStart(ctx, session.Visit.SalespersonID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewConflictError("another visit is already in progress")
	}

	if err := session.Start(now); err != nil {
		return err
	}

	if session.Visit.ID == "" {
		session.Visit.ID = uuid.NewString()
	}

	if err := s.visits.Create(ctx, session.Visit); err != nil {
		// Roll the in-memory transition back so a manual retry starts clean
		session.Step = lifecycle.StepStart
		session.Visit.StartedAt = nil
		return errors.NewInternalError("failed to start visit", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"visit_id":   session.Visit.ID,
		"event_id":   session.Visit.EventID,
		"academy_id": session.Visit.AcademyID,
	}).Info("Visit started")

	return s.SaveDraft(ctx, session)
}

// SaveDraft mirrors the session to the durable draft store
func (s *visitService) SaveDraft(ctx context.Context, session *lifecycle.Session) error {
	snap := &draft.Snapshot{
		Step:              string(session.Step),
		Visit:             session.Visit,
		PendingCodes:      session.PendingCodes,
		MarketingAnswered: session.MarketingAnswered,
		Timestamp:         time.Now().UTC(),
	}
	if err := s.drafts.Save(ctx, session.Visit.EventID, session.Visit.AcademyID, snap); err != nil {
		return errors.NewInternalError("failed to save draft", err)
	}
	return nil
}

// AdjustVouchers generates one new code or removes the most recent one
func (s *visitService) AdjustVouchers(ctx context.Context, session *lifecycle.Session, delta int) error {
	switch {
	case delta > 0:
		code, err := s.vouchers.GenerateCode(ctx)
		if err != nil {
			return err
		}
		if err := session.AddCode(code); err != nil {
			return err
		}
	case delta < 0:
		if err := session.RemoveLastCode(); err != nil {
			return err
		}
	default:
		return errors.NewValidationError("delta must be +1 or -1", nil)
	}

	return s.SaveDraft(ctx, session)
}

// Finish finalizes from data collection without vouchers
func (s *visitService) Finish(ctx context.Context, session *lifecycle.Session, now time.Time) error {
	if err := session.Finish(now); err != nil {
		return err
	}

	if err := s.visits.Upsert(ctx, session.Visit); err != nil {
		return errors.NewInternalError("failed to finalize visit", err)
	}

	s.clearMirror(ctx, session)
	s.logger.WithField("visit_id", session.Visit.ID).Info("Visit finished")
	return nil
}

// Complete finalizes from the redemption step. The pending codes become
// voucher rows in the same transaction as the visit write, so the cached
// list on the visit always equals the set of rows created.
func (s *visitService) Complete(ctx context.Context, session *lifecycle.Session, now time.Time) error {
	if err := session.Complete(now); err != nil {
		return err
	}

	vouchers := make([]*domain.Voucher, 0, len(session.PendingCodes))
	for _, code := range session.PendingCodes {
		vouchers = append(vouchers, &domain.Voucher{
			Code:      code,
			VisitID:   session.Visit.ID,
			AcademyID: session.Visit.AcademyID,
			EventID:   session.Visit.EventID,
		})
	}

	if err := s.visits.FinalizeWithVouchers(ctx, session.Visit, vouchers); err != nil {
		return errors.NewInternalError("failed to complete visit", err)
	}

	session.PendingCodes = nil
	s.clearMirror(ctx, session)

	s.logger.WithFields(map[string]interface{}{
		"visit_id": session.Visit.ID,
		"vouchers": len(vouchers),
	}).Info("Visit completed with vouchers")
	return nil
}

// SaveEdited applies the edit overlay and re-submits the full record
func (s *visitService) SaveEdited(ctx context.Context, session *lifecycle.Session, now time.Time) error {
	if err := session.SaveEdit(now); err != nil {
		return err
	}

	if err := s.visits.Upsert(ctx, session.Visit); err != nil {
		return errors.NewInternalError("failed to save edited visit", err)
	}

	s.clearMirror(ctx, session)
	s.logger.WithField("visit_id", session.Visit.ID).Info("Visit edited")
	return nil
}

// GetByID retrieves a visit
func (s *visitService) GetByID(ctx context.Context, id string) (*domain.Visit, error) {
	visit, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to load visit", err)
	}
	if visit == nil {
		return nil, errors.NewNotFoundError("visit not found")
	}
	return visit, nil
}

// ListByEvent retrieves all visits within an event
func (s *visitService) ListByEvent(ctx context.Context, eventID string) ([]*domain.Visit, error) {
	visits, err := s.visits.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list visits", err)
	}
	return visits, nil
}

// restoreSession rebuilds a session from a mirrored snapshot, preferring
// the mirrored step over the one inferred from the visit record
func restoreSession(snap *draft.Snapshot) *lifecycle.Session {
	session := lifecycle.Resume(snap.Visit)
	if snap.Step != "" {
		session.Step = lifecycle.Step(snap.Step)
	}
	session.PendingCodes = append([]string(nil), snap.PendingCodes...)
	session.MarketingAnswered = session.MarketingAnswered || snap.MarketingAnswered
	return session
}

// clearMirror drops the draft snapshot after a successful finalize or
// full-record save. A failure here only costs a harmless stale mirror.
func (s *visitService) clearMirror(ctx context.Context, session *lifecycle.Session) {
	if err := s.drafts.Clear(ctx, session.Visit.EventID, session.Visit.AcademyID); err != nil {
		s.logger.WithError(err).WithField("visit_id", session.Visit.ID).
			Warn("Failed to clear draft snapshot")
	}
}
