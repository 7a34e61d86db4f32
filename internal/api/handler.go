// Package api exposes the merge pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/houzhh15/audiomerge/internal/middleware"
	"github.com/houzhh15/audiomerge/internal/pipeline"
)

// Version is reported by /health.
const Version = "1.0.0"

// Merger runs one merge.
type Merger interface {
	Merge(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// ToolChecker reports whether the external tools can be run.
type ToolChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler serves the merge endpoint and the probes.
type Handler struct {
	merger    Merger
	tools     ToolChecker
	env       string
	startTime time.Time
	logger    *slog.Logger
}

func NewHandler(merger Merger, tools ToolChecker, env string, logger *slog.Logger) *Handler {
	return &Handler{
		merger:    merger,
		tools:     tools,
		env:       env,
		startTime: time.Now(),
		logger:    logger,
	}
}

// NewRouter registers every route. limiter may be nil.
func NewRouter(h *Handler, limiter *rate.Limiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	r.GET("/health", h.health)
	r.GET("/readiness", h.readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/merge-audio", middleware.RateLimit(limiter), h.mergeAudio)
	return r
}

// MergeResponse is the success body.
type MergeResponse struct {
	FinalURL string `json:"finalUrl"`
}

// ErrorResponse is the failure body. Error is the stable field; Kind is an
// additive classification hint and may be absent or gain new values.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (h *Handler) mergeAudio(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Kind: string(pipeline.KindValidation)})
		return
	}

	ctx := pipeline.ContextWithRequestID(c.Request.Context(), c.GetString(middleware.RequestIDKey))
	res, err := h.merger.Merge(ctx, req)
	if err != nil {
		c.JSON(StatusFor(err), ErrorResponse{Error: err.Error(), Kind: string(pipeline.KindOf(err))})
		return
	}

	c.JSON(http.StatusOK, MergeResponse{FinalURL: res.FinalURL})
}

// StatusFor maps a merge error to an HTTP status: 400 for invalid requests,
// 504 for timeouts, 500 for every other failure.
func StatusFor(err error) int {
	var mergeErr *pipeline.Error
	if !errors.As(err, &mergeErr) {
		return http.StatusInternalServerError
	}
	switch mergeErr.Kind {
	case pipeline.KindValidation:
		return http.StatusBadRequest
	case pipeline.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
