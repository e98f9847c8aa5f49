package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bjjvisits-backend/internal/container"
	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/errors"
)

// VoucherHandler serves voucher listings and redemption material for
// finished visits
type VoucherHandler struct {
	container *container.Container
}

// NewVoucherHandler creates a new voucher handler
func NewVoucherHandler(container *container.Container) *VoucherHandler {
	return &VoucherHandler{
		container: container,
	}
}

// ListByEvent handles GET /api/events/{eventID}/vouchers
func (h *VoucherHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	vouchers, err := h.container.GetVoucherService().ListByEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"vouchers": vouchers,
	}, logger)
}

// ListByVisit handles GET /api/visits/{visitID}/vouchers
func (h *VoucherHandler) ListByVisit(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	vouchers, err := h.container.GetVoucherService().ListByVisit(r.Context(), chi.URLParam(r, "visitID"))
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"vouchers": vouchers,
	}, logger)
}

// redemptionMaterial loads a finished visit and rebuilds its redemption
// link inputs. The embedded timestamp is the finalize time, so re-sharing
// the link does not restart the validity window.
func (h *VoucherHandler) redemptionMaterial(r *http.Request) (string, []string, time.Time, error) {
	visit, err := h.container.GetVisitService().GetByID(r.Context(), chi.URLParam(r, "visitID"))
	if err != nil {
		return "", nil, time.Time{}, err
	}
	if visit.Status != domain.VisitStatusVisited || len(visit.VouchersGenerated) == 0 {
		return "", nil, time.Time{}, errors.NewValidationError("visit has no issued vouchers", nil)
	}

	academy, err := h.container.GetRepositories().Academy.GetByID(r.Context(), visit.AcademyID)
	if err != nil {
		return "", nil, time.Time{}, errors.NewInternalError("failed to load academy", err)
	}
	if academy == nil {
		return "", nil, time.Time{}, errors.NewNotFoundError("academy not found")
	}

	issuedAt := visit.UpdatedAt
	if visit.FinishedAt != nil {
		issuedAt = *visit.FinishedAt
	}
	return academy.Name, visit.VouchersGenerated, issuedAt, nil
}

// Redemption handles GET /api/visits/{visitID}/redemption
func (h *VoucherHandler) Redemption(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	academyName, codes, issuedAt, err := h.redemptionMaterial(r)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	vouchers := h.container.GetVoucherService()
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"codes":   codes,
		"link":    vouchers.RedemptionLink(academyName, codes, issuedAt),
		"message": vouchers.ShareMessage(academyName, codes, issuedAt),
	}, logger)
}

// RedemptionQR handles GET /api/visits/{visitID}/redemption/qr, returning
// the redemption link as a PNG
func (h *VoucherHandler) RedemptionQR(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	academyName, codes, issuedAt, err := h.redemptionMaterial(r)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	png, err := h.container.GetVoucherService().RedemptionQR(academyName, codes, issuedAt)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		logger.WithError(err).Error("Failed to write QR code response")
	}
}
