package handler

import (
	"net/http"

	"bjjvisits-backend/internal/container"
	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/internal/middleware"
	"bjjvisits-backend/pkg/errors"
)

// AuthHandler handles authentication related requests
type AuthHandler struct {
	container *container.Container
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(container *container.Container) *AuthHandler {
	return &AuthHandler{
		container: container,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req LoginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, err, logger)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeErrorResponse(w, errors.NewValidationError("email and password are required", nil), logger)
		return
	}

	token, user, err := h.container.GetAuthService().Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		User:    user,
	}, logger)
}

// UserProfileResponse represents the user profile response
type UserProfileResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

// GetProfile handles GET /api/auth/profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeErrorResponse(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	user, err := h.container.GetAuthService().GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeErrorResponse(w, err, logger)
		return
	}

	writeJSONResponse(w, http.StatusOK, UserProfileResponse{
		Success: true,
		User:    user,
	}, logger)
}
