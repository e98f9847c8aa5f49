package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bjjvisits-backend/internal/container"
	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/internal/lifecycle"
	"bjjvisits-backend/internal/middleware"
	"bjjvisits-backend/pkg/errors"
)

// VisitHandler drives the visit flow over HTTP. Every request that touches
// an in-progress visit rebuilds the session through the visit service, so
// the handlers themselves stay stateless.
type VisitHandler struct {
	container *container.Container
}

// NewVisitHandler creates a new visit handler
func NewVisitHandler(container *container.Container) *VisitHandler {
	return &VisitHandler{
		container: container,
	}
}

// SessionResponse represents a visit session payload
type SessionResponse struct {
	Success   bool               `json:"success"`
	Recovered bool               `json:"recovered"`
	Session   *lifecycle.Session `json:"session"`
}

// RedemptionResponse carries everything the client needs to hand vouchers
// to an academy
type RedemptionResponse struct {
	Success bool               `json:"success"`
	Session *lifecycle.Session `json:"session"`
	Link    string             `json:"link"`
	Message string             `json:"message"`
}

type sessionTarget struct {
	EventID   string `json:"event_id"`
	AcademyID string `json:"academy_id"`
}

func (t sessionTarget) validate() error {
	details := map[string]interface{}{}
	if t.EventID == "" {
		details["event_id"] = "required"
	}
	if t.AcademyID == "" {
		details["academy_id"] = "required"
	}
	if len(details) > 0 {
		return errors.NewValidationError("missing session target", details)
	}
	return nil
}

// openSession resolves the authenticated salesperson and rebuilds the
// session for one (event, academy) pair
func (h *VisitHandler) openSession(r *http.Request, eventID, academyID string) (*lifecycle.Session, bool, error) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return nil, false, errors.NewAuthenticationError("User not authenticated")
	}
	return h.container.GetVisitService().Open(r.Context(), eventID, academyID, claims.UserID)
}

// ListByEvent handles GET /api/events/{eventID}/visits
func (h *VisitHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	eventID := chi.URLParam(r, "eventID")
	visits, err := h.container.GetVisitService().ListByEvent(r.Context(), eventID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"visits":  visits,
	}, logger)
}

// Get handles GET /api/visits/{visitID}
func (h *VisitHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	visit, err := h.container.GetVisitService().GetByID(r.Context(), chi.URLParam(r, "visitID"))
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"visit":   visit,
	}, logger)
}

// CanStart handles GET /api/visits/can-start
func (h *VisitHandler) CanStart(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeErrorResponse(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	canStart, err := h.container.GetVisitService().CanStart(r.Context(), claims.UserID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"can_start": canStart,
	}, logger)
}

// OpenSession handles GET /api/visits/session. It applies the recovery
// contract: crashed local work under 24 hours old comes back, stale or
// already-synced work does not.
func (h *VisitHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	target := sessionTarget{
		EventID:   r.URL.Query().Get("event_id"),
		AcademyID: r.URL.Query().Get("academy_id"),
	}
	if err := target.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	session, recovered, err := h.openSession(r, target.EventID, target.AcademyID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, SessionResponse{
		Success:   true,
		Recovered: recovered,
		Session:   session,
	}, logger)
}

// Start handles POST /api/visits/start
func (h *VisitHandler) Start(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req sessionTarget
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := req.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	session, _, err := h.openSession(r, req.EventID, req.AcademyID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := h.container.GetVisitService().Start(r.Context(), session, time.Now()); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusCreated, SessionResponse{
		Success: true,
		Session: session,
	}, logger)
}

// DraftUpdateRequest carries partial field updates for an in-progress
// visit. Pointer fields are applied only when present.
type DraftUpdateRequest struct {
	EventID        string  `json:"event_id"`
	AcademyID      string  `json:"academy_id"`
	ContactPerson  *string `json:"contact_person,omitempty"`
	Temperature    *string `json:"temperature,omitempty"`
	Summary        *string `json:"summary,omitempty"`
	LeftBanner     *bool   `json:"left_banner,omitempty"`
	LeftFlyers     *bool   `json:"left_flyers,omitempty"`
	ClearMarketing bool    `json:"clear_marketing,omitempty"`
	AddPhoto       *string `json:"add_photo,omitempty"`
	RemovePhoto    *int    `json:"remove_photo,omitempty"`
}

// UpdateDraft handles PUT /api/visits/draft. Each accepted update is
// mirrored to the draft store before the response goes out.
func (h *VisitHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req DraftUpdateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	target := sessionTarget{EventID: req.EventID, AcademyID: req.AcademyID}
	if err := target.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	session, _, err := h.openSession(r, req.EventID, req.AcademyID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if session.Step != lifecycle.StepActive {
		writeErrorResponse(w, errors.NewValidationError("visit is not in data collection", nil), logger)
		return
	}

	if err := applyDraftUpdate(session, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := h.container.GetVisitService().SaveDraft(r.Context(), session); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, SessionResponse{
		Success: true,
		Session: session,
	}, logger)
}

func applyDraftUpdate(session *lifecycle.Session, req *DraftUpdateRequest) error {
	if req.ContactPerson != nil {
		if err := session.SetContactPerson(domain.ContactPerson(*req.ContactPerson)); err != nil {
			return err
		}
	}
	if req.Temperature != nil {
		if err := session.SetTemperature(domain.Temperature(*req.Temperature)); err != nil {
			return err
		}
	}
	if req.Summary != nil {
		if err := session.SetSummary(*req.Summary); err != nil {
			return err
		}
	}
	if req.ClearMarketing {
		session.ClearMarketing()
	} else if req.LeftBanner != nil || req.LeftFlyers != nil {
		leftBanner := session.Visit.LeftBanner
		leftFlyers := session.Visit.LeftFlyers
		if req.LeftBanner != nil {
			leftBanner = *req.LeftBanner
		}
		if req.LeftFlyers != nil {
			leftFlyers = *req.LeftFlyers
		}
		session.SetMarketing(leftBanner, leftFlyers)
	}
	if req.AddPhoto != nil {
		if err := session.AddPhoto(*req.AddPhoto); err != nil {
			return err
		}
	}
	if req.RemovePhoto != nil {
		if err := session.RemovePhoto(*req.RemovePhoto); err != nil {
			return err
		}
	}
	return nil
}

// AdjustVouchersRequest adds or removes one pending voucher code
type AdjustVouchersRequest struct {
	EventID   string `json:"event_id"`
	AcademyID string `json:"academy_id"`
	Delta     int    `json:"delta"`
}

// AdjustVouchers handles POST /api/visits/vouchers. The first adjustment
// moves the session into the voucher step.
func (h *VisitHandler) AdjustVouchers(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req AdjustVouchersRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	target := sessionTarget{EventID: req.EventID, AcademyID: req.AcademyID}
	if err := target.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	session, _, err := h.openSession(r, req.EventID, req.AcademyID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if session.Step != lifecycle.StepVouchers {
		if err := session.BeginVouchers(); err != nil {
			writeErrorResponse(w, err, logger)
			return
		}
	}

	if err := h.container.GetVisitService().AdjustVouchers(r.Context(), session, req.Delta); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, SessionResponse{
		Success: true,
		Session: session,
	}, logger)
}

// ConfirmVouchers handles POST /api/visits/vouchers/confirm, moving to the
// redemption step and returning the link and share message.
func (h *VisitHandler) ConfirmVouchers(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req sessionTarget
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := req.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	session, _, err := h.openSession(r, req.EventID, req.AcademyID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := session.ConfirmVouchers(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := h.container.GetVisitService().SaveDraft(r.Context(), session); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	academyName, err := h.academyName(r, session.Visit.AcademyID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	issuedAt := time.Now().UTC()
	vouchers := h.container.GetVoucherService()
	writeJSONResponse(w, http.StatusOK, RedemptionResponse{
		Success: true,
		Session: session,
		Link:    vouchers.RedemptionLink(academyName, session.PendingCodes, issuedAt),
		Message: vouchers.ShareMessage(academyName, session.PendingCodes, issuedAt),
	}, logger)
}

// BackToActive handles POST /api/visits/vouchers/back. Pending codes are
// kept; the salesperson can return for them later.
func (h *VisitHandler) BackToActive(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req sessionTarget
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := req.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	session, _, err := h.openSession(r, req.EventID, req.AcademyID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := session.BackToActive(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := h.container.GetVisitService().SaveDraft(r.Context(), session); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, SessionResponse{
		Success: true,
		Session: session,
	}, logger)
}

// Finish handles POST /api/visits/finish, finalizing without vouchers
func (h *VisitHandler) Finish(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req sessionTarget
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := req.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	session, _, err := h.openSession(r, req.EventID, req.AcademyID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := h.container.GetVisitService().Finish(r.Context(), session, time.Now()); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, SessionResponse{
		Success: true,
		Session: session,
	}, logger)
}

// Complete handles POST /api/visits/complete, finalizing from the
// redemption step and persisting the pending codes as voucher rows.
func (h *VisitHandler) Complete(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req sessionTarget
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := req.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	session, _, err := h.openSession(r, req.EventID, req.AcademyID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := h.container.GetVisitService().Complete(r.Context(), session, time.Now()); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, SessionResponse{
		Success: true,
		Session: session,
	}, logger)
}

// EditVisitRequest carries the full set of mutable fields for a finished
// visit. Timestamps are not editable through this path.
type EditVisitRequest struct {
	ContactPerson *string  `json:"contact_person"`
	Temperature   *string  `json:"temperature"`
	Summary       string   `json:"summary"`
	LeftBanner    bool     `json:"left_banner"`
	LeftFlyers    bool     `json:"left_flyers"`
	Photos        []string `json:"photos"`
}

// Edit handles PUT /api/visits/{visitID}. An unchanged submission is a
// no-op and performs no write.
func (h *VisitHandler) Edit(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req EditVisitRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	visit, err := h.container.GetVisitService().GetByID(r.Context(), chi.URLParam(r, "visitID"))
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeErrorResponse(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}
	if claims.Role != domain.RoleAdmin && visit.SalespersonID != claims.UserID {
		writeErrorResponse(w, errors.NewAuthorizationError("visit belongs to another salesperson"), logger)
		return
	}

	draft, err := buildEditDraft(&req)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	session := lifecycle.Resume(visit)
	if err := session.StartEdit(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	session.Draft = draft

	if !session.HasChanges() {
		session.CancelEdit()
		writeJSONResponse(w, http.StatusOK, SessionResponse{
			Success: true,
			Session: session,
		}, logger)
		return
	}

	if err := h.container.GetVisitService().SaveEdited(r.Context(), session, time.Now()); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, SessionResponse{
		Success: true,
		Session: session,
	}, logger)
}

func buildEditDraft(req *EditVisitRequest) (*lifecycle.EditDraft, error) {
	draft := &lifecycle.EditDraft{
		Summary:    req.Summary,
		LeftBanner: req.LeftBanner,
		LeftFlyers: req.LeftFlyers,
		Photos:     append([]string(nil), req.Photos...),
	}
	if len(draft.Photos) > domain.MaxVisitPhotos {
		return nil, errors.NewValidationError(
			fmt.Sprintf("a visit can hold at most %d photos", domain.MaxVisitPhotos), nil)
	}
	if req.ContactPerson != nil {
		cp := domain.ContactPerson(*req.ContactPerson)
		switch cp {
		case domain.ContactOwner, domain.ContactTeacher, domain.ContactStaff, domain.ContactNobody:
		default:
			return nil, errors.NewValidationError(fmt.Sprintf("unknown contact person %q", cp), nil)
		}
		draft.ContactPerson = &cp
	}
	if req.Temperature != nil {
		t := domain.Temperature(*req.Temperature)
		switch t {
		case domain.TemperatureHot, domain.TemperatureWarm, domain.TemperatureCold:
		default:
			return nil, errors.NewValidationError(fmt.Sprintf("unknown temperature %q", t), nil)
		}
		draft.Temperature = &t
	}
	return draft, nil
}

// DiscardDraft handles DELETE /api/visits/draft, dropping the mirrored
// snapshot for one (event, academy) pair
func (h *VisitHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	target := sessionTarget{
		EventID:   r.URL.Query().Get("event_id"),
		AcademyID: r.URL.Query().Get("academy_id"),
	}
	if err := target.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := h.container.DraftStore.Clear(r.Context(), target.EventID, target.AcademyID); err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to discard draft", err), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
	}, logger)
}

// academyName resolves the display name used in redemption links
func (h *VisitHandler) academyName(r *http.Request, academyID string) (string, error) {
	academy, err := h.container.GetRepositories().Academy.GetByID(r.Context(), academyID)
	if err != nil {
		return "", errors.NewInternalError("failed to load academy", err)
	}
	if academy == nil {
		return "", errors.NewNotFoundError("academy not found")
	}
	return academy.Name, nil
}
