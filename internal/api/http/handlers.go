package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/webdesk/internal/domain/registry"
	"github.com/GriffinCanCode/webdesk/internal/domain/session"
	"github.com/GriffinCanCode/webdesk/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	windows *window.Manager
	apps    *registry.Manager
	bridge  *session.Bridge
	metrics *monitoring.Metrics
	started time.Time
}

// NewHandlers creates a new handler set. bridge and metrics may be nil.
func NewHandlers(
	windows *window.Manager,
	apps *registry.Manager,
	bridge *session.Bridge,
	metrics *monitoring.Metrics,
) *Handlers {
	return &Handlers{
		windows: windows,
		apps:    apps,
		bridge:  bridge,
		metrics: metrics,
		started: time.Now(),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "webdesk window manager",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"windows":        h.windows.Stats(),
		"apps":           h.apps.Stats(),
	}
	if h.bridge != nil {
		body["session"] = h.bridge.Status()
	}
	c.JSON(http.StatusOK, body)
}

// MetricsSummary returns the metrics snapshot as JSON
func (h *Handlers) MetricsSummary(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func notFound(c *gin.Context, what, id string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found: " + id})
}
