package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockdash/internal/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// HealthHandler provides liveness and readiness endpoints for the service.
//
// Responsibilities:
//   - /healthz: Basic liveness probe (always returns 200 OK).
//   - /readyz: Readiness probe (every registered dependency must answer its ping).
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler constructs a HealthHandler. Nil pingers are ignored.
//
// Example:
//
//	NewHealthHandler(map[string]Pinger{"postgres": db.PingContext}).Register(r)
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	filtered := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			filtered[name] = p
		}
	}
	return &HealthHandler{checks: filtered, timeout: 2 * time.Second}
}

// Register mounts the health and readiness endpoints into the provided Gin router.
//
// Routes:
//   - GET /healthz: Always returns 200 OK.
//   - GET /readyz: 200 when every check passes, 503 with the failing names otherwise.
func (h *HealthHandler) Register(r *gin.Engine) {
	// @Summary      Liveness probe
	// @Description  Always returns OK if the service is running
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]string
	// @Router       /healthz [get]
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// @Summary      Readiness probe
	// @Description  Returns ready if Postgres (and Redis when configured) are reachable
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]any
	// @Failure      503  {object}  map[string]any
	// @Router       /readyz [get]
	r.GET("/readyz", func(c *gin.Context) {
		failed := h.probe(c.Request.Context())
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}

func (h *HealthHandler) probe(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var failed []string
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}
