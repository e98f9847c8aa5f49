package handler

import (
	"net/http"
	"time"

	"bjjvisits-backend/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Database  string    `json:"database"`
	Redis     string    `json:"redis"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	ctx := r.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "bjjvisits-backend",
		Database:  "ok",
		Redis:     "ok",
	}

	if err := h.container.DB.Health(ctx); err != nil {
		logger.WithError(err).Error("Database health check failed")
		response.Status = "degraded"
		response.Database = "unreachable"
	}

	if h.container.RedisClient == nil {
		response.Redis = "not configured"
	} else if err := h.container.RedisClient.Health(ctx); err != nil {
		logger.WithError(err).Warn("Redis health check failed")
		response.Status = "degraded"
		response.Redis = "unreachable"
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, status, response, logger)
}
