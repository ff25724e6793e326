package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inventrack/backend/internal/infrastructure/logger"
	"github.com/inventrack/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger checks that a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the body of a successful health check
type HealthStatus struct {
	Status            string    `json:"status"`
	Database          string    `json:"database"`
	LiveSubscriptions int       `json:"live_subscriptions"`
	CheckedAt         time.Time `json:"checked_at"`
}

// HealthHandler reports liveness
type HealthHandler struct {
	BaseHandler
	db            Pinger
	subscriptions func() int
	timeout       time.Duration
}

// NewHealthHandler creates a new HealthHandler. subscriptions may be nil.
func NewHealthHandler(db Pinger, subscriptions func() int) *HealthHandler {
	return &HealthHandler{db: db, subscriptions: subscriptions, timeout: 2 * time.Second}
}

// Health pings the database.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Database is unreachable")
		return
	}

	status := HealthStatus{Status: "ok", Database: "up", CheckedAt: time.Now().UTC()}
	if h.subscriptions != nil {
		status.LiveSubscriptions = h.subscriptions()
	}
	h.Success(c, status)
}
