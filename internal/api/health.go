package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheckResponse represents the response from the health check endpoint
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
	Env       string    `json:"env"`
}

// ReadinessCheckResponse represents the response from the readiness check endpoint
type ReadinessCheckResponse struct {
	Ready     bool             `json:"ready"`
	Checks    []ReadinessCheck `json:"checks"`
	Timestamp time.Time        `json:"timestamp"`
}

// ReadinessCheck represents a single readiness check
type ReadinessCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "fail"
	Error  string `json:"error,omitempty"`
}

// health is the liveness probe.
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthCheckResponse{
		Status:    "healthy",
		Service:   "audiomerge",
		Version:   Version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now(),
		Env:       h.env,
	})
}

// readiness reports 503 while ffmpeg/ffprobe are unavailable.
func (h *Handler) readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	check := ReadinessCheck{Name: "media_tools", Status: "ok"}
	if err := h.tools.HealthCheck(ctx); err != nil {
		check.Status = "fail"
		check.Error = err.Error()
		h.logger.Warn("readiness check failed", "check", check.Name, "error", err)
	}

	ready := check.Status == "ok"
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, ReadinessCheckResponse{
		Ready:     ready,
		Checks:    []ReadinessCheck{check},
		Timestamp: time.Now(),
	})
}
