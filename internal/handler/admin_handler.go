package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bjjvisits-backend/internal/container"
	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/errors"
)

// AdminHandler serves the back-office CRUD surface for academies, events,
// finance records and users. It is mounted behind the admin-only
// middleware.
type AdminHandler struct {
	container *container.Container
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(container *container.Container) *AdminHandler {
	return &AdminHandler{
		container: container,
	}
}

// --- academies ---

// AcademyRequest represents the academy create/update body
type AcademyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Phone   string `json:"phone"`
}

func (req *AcademyRequest) validate() error {
	if req.Name == "" {
		return errors.NewValidationError("academy name is required", nil)
	}
	return nil
}

// ListAcademies handles GET /api/admin/academies
func (h *AdminHandler) ListAcademies(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	academies, err := h.container.GetRepositories().Academy.List(r.Context())
	if err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to list academies", err), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"academies": academies,
	}, logger)
}

// CreateAcademy handles POST /api/admin/academies
func (h *AdminHandler) CreateAcademy(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req AcademyRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := req.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	academy := &domain.Academy{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Phone:   req.Phone,
	}
	if err := h.container.GetRepositories().Academy.Create(r.Context(), academy); err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to create academy", err), logger)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"academy": academy,
	}, logger)
}

// UpdateAcademy handles PUT /api/admin/academies/{academyID}
func (h *AdminHandler) UpdateAcademy(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req AcademyRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := req.validate(); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	academy := &domain.Academy{
		ID:      chi.URLParam(r, "academyID"),
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Phone:   req.Phone,
	}
	if err := h.container.GetRepositories().Academy.Update(r.Context(), academy); err != nil {
		writeErrorResponse(w, errors.NewNotFoundError("academy not found"), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"academy": academy,
	}, logger)
}

// DeleteAcademy handles DELETE /api/admin/academies/{academyID}
func (h *AdminHandler) DeleteAcademy(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	if err := h.container.GetRepositories().Academy.Delete(r.Context(), chi.URLParam(r, "academyID")); err != nil {
		writeErrorResponse(w, errors.NewNotFoundError("academy not found"), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
	}, logger)
}

// --- events ---

// EventRequest represents the event create/update body
type EventRequest struct {
	Name          string    `json:"name"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Status        string    `json:"status"`
	SalespersonID string    `json:"salesperson_id"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
}

func (req *EventRequest) toEvent(id string) (*domain.Event, error) {
	status := domain.EventStatus(req.Status)
	switch status {
	case domain.EventStatusUpcoming, domain.EventStatusActive, domain.EventStatusFinished:
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown event status %q", req.Status), nil)
	}
	if req.Name == "" {
		return nil, errors.NewValidationError("event name is required", nil)
	}
	return &domain.Event{
		ID:            id,
		Name:          req.Name,
		City:          req.City,
		State:         req.State,
		Status:        status,
		SalespersonID: req.SalespersonID,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
	}, nil
}

// ListEvents handles GET /api/admin/events
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	events, err := h.container.GetRepositories().Event.List(r.Context())
	if err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to list events", err), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"events":  events,
	}, logger)
}

// CreateEvent handles POST /api/admin/events
func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req EventRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	event, err := req.toEvent(uuid.NewString())
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := h.container.GetRepositories().Event.Create(r.Context(), event); err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to create event", err), logger)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"event":   event,
	}, logger)
}

// UpdateEvent handles PUT /api/admin/events/{eventID}
func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req EventRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	event, err := req.toEvent(chi.URLParam(r, "eventID"))
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := h.container.GetRepositories().Event.Update(r.Context(), event); err != nil {
		writeErrorResponse(w, errors.NewNotFoundError("event not found"), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"event":   event,
	}, logger)
}

// DeleteEvent handles DELETE /api/admin/events/{eventID}
func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	if err := h.container.GetRepositories().Event.Delete(r.Context(), chi.URLParam(r, "eventID")); err != nil {
		writeErrorResponse(w, errors.NewNotFoundError("event not found"), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
	}, logger)
}

// --- finance records ---

// FinanceRequest represents the finance record create/update body
type FinanceRequest struct {
	SalespersonID string `json:"salesperson_id"`
	EventID       string `json:"event_id"`
	Description   string `json:"description"`
	AmountCents   int64  `json:"amount_cents"`
	Status        string `json:"status"`
}

func (req *FinanceRequest) toRecord(id string) (*domain.FinanceRecord, error) {
	status := domain.FinanceStatus(req.Status)
	switch status {
	case domain.FinanceStatusPending, domain.FinanceStatusApproved,
		domain.FinanceStatusPaid, domain.FinanceStatusRejected:
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown finance status %q", req.Status), nil)
	}
	if req.AmountCents <= 0 {
		return nil, errors.NewValidationError("amount must be positive", nil)
	}
	return &domain.FinanceRecord{
		ID:            id,
		SalespersonID: req.SalespersonID,
		EventID:       req.EventID,
		Description:   req.Description,
		AmountCents:   req.AmountCents,
		Status:        status,
	}, nil
}

// ListFinanceRecords handles GET /api/admin/finance
func (h *AdminHandler) ListFinanceRecords(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	records, err := h.container.GetRepositories().Finance.List(r.Context())
	if err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to list finance records", err), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"records": records,
	}, logger)
}

// CreateFinanceRecord handles POST /api/admin/finance
func (h *AdminHandler) CreateFinanceRecord(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req FinanceRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	record, err := req.toRecord(uuid.NewString())
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := h.container.GetRepositories().Finance.Create(r.Context(), record); err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to create finance record", err), logger)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"record":  record,
	}, logger)
}

// UpdateFinanceRecord handles PUT /api/admin/finance/{recordID}
func (h *AdminHandler) UpdateFinanceRecord(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req FinanceRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	record, err := req.toRecord(chi.URLParam(r, "recordID"))
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	if err := h.container.GetRepositories().Finance.Update(r.Context(), record); err != nil {
		writeErrorResponse(w, errors.NewNotFoundError("finance record not found"), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"record":  record,
	}, logger)
}

// DeleteFinanceRecord handles DELETE /api/admin/finance/{recordID}
func (h *AdminHandler) DeleteFinanceRecord(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	if err := h.container.GetRepositories().Finance.Delete(r.Context(), chi.URLParam(r, "recordID")); err != nil {
		writeErrorResponse(w, errors.NewNotFoundError("finance record not found"), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
	}, logger)
}

// --- users ---

// UserRequest represents the user create/update body. Password is required
// on create and optional on update.
type UserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

func (req *UserRequest) validate(requirePassword bool) error {
	details := map[string]interface{}{}
	if req.Name == "" {
		details["name"] = "required"
	}
	if req.Email == "" {
		details["email"] = "required"
	}
	if requirePassword && req.Password == "" {
		details["password"] = "required"
	}
	switch domain.UserRole(req.Role) {
	case domain.RoleAdmin, domain.RoleSalesperson:
	default:
		details["role"] = fmt.Sprintf("unknown role %q", req.Role)
	}
	if len(details) > 0 {
		return errors.NewValidationError("invalid user", details)
	}
	return nil
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	users, err := h.container.GetRepositories().User.List(r.Context())
	if err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to list users", err), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
	}, logger)
}

// CreateUser handles POST /api/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req UserRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := req.validate(true); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to hash password", err), logger)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.UserRole(req.Role),
		Active:       active,
	}
	if err := h.container.GetRepositories().User.Create(r.Context(), user); err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to create user", err), logger)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user,
	}, logger)
}

// UpdateUser handles PUT /api/admin/users/{userID}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req UserRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if err := req.validate(false); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	existing, err := h.container.GetRepositories().User.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to load user", err), logger)
		return
	}
	if existing == nil {
		writeErrorResponse(w, errors.NewNotFoundError("user not found"), logger)
		return
	}

	existing.Name = req.Name
	existing.Email = req.Email
	existing.Role = domain.UserRole(req.Role)
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeErrorResponse(w, errors.NewInternalError("failed to hash password", err), logger)
			return
		}
		existing.PasswordHash = string(hash)
	}

	if err := h.container.GetRepositories().User.Update(r.Context(), existing); err != nil {
		writeErrorResponse(w, errors.NewInternalError("failed to update user", err), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    existing,
	}, logger)
}

// DeleteUser handles DELETE /api/admin/users/{userID}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	if err := h.container.GetRepositories().User.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
		writeErrorResponse(w, errors.NewNotFoundError("user not found"), logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
	}, logger)
}
