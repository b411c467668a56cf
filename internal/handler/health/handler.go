package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sqlx.DB and by the redis client adapter.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	checks  map[string]Pinger
	metrics gin.HandlerFunc
}

func NewHandler(checks map[string]Pinger, metrics gin.HandlerFunc) *Handler {
	return &Handler{
		checks:  checks,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
		if h.metrics != nil {
			health.GET("/metrics", h.metrics)
		}
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": true, "message": "UP", "data": nil})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check.PingContext(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": false, "message": "DOWN", "data": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true, "message": "UP", "data": nil})
}
