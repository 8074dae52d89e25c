package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StateReporter reports storage connectivity as "connected" or "disconnected".
type StateReporter interface {
	State(ctx context.Context) string
}

type HealthHandler struct {
	store       StateReporter
	environment string
}

func NewHealthHandler(store StateReporter, environment string) *HealthHandler {
	return &HealthHandler{store: store, environment: environment}
}

type HealthResponse struct {
	Success     bool      `json:"success" example:"true"`
	Message     string    `json:"message" example:"Quiz submission API is running"`
	Status      string    `json:"status" example:"ok"`
	Database    string    `json:"database" example:"connected"`
	Environment string    `json:"environment" example:"development"`
	Timestamp   time.Time `json:"timestamp"`
}

// Root godoc
// @Summary      Service info
// @Description  Liveness probe with storage connectivity
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       / [get]
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, h.report(c, "Quiz submission API is running"))
}

// Health godoc
// @Summary      Health check
// @Description  Service status and current storage connectivity
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /api/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.report(c, "Server is healthy"))
}

func (h *HealthHandler) report(c *gin.Context, message string) HealthResponse {
	return HealthResponse{
		Success:     true,
		Message:     message,
		Status:      "ok",
		Database:    h.store.State(c.Request.Context()),
		Environment: h.environment,
		Timestamp:   time.Now().UTC(),
	}
}
