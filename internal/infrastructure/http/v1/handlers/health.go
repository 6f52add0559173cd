package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sequor/internal/domain/sequence"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	store *sequence.Store
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store *sequence.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the state store reachable?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := h.store.List(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"storage": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"storage": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":     "sequor",
		"version": "0.1.0",
		"schema":  sequence.SchemaVersion,
	})
}
