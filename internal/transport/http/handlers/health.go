package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authline/authline/internal/infra/redis"
)

// HealthHandler reports liveness and dependency readiness.
type HealthHandler struct {
	pool    *pgxpool.Pool
	redis   *redis.Client
	service string
	version string
}

// NewHealthHandler builds the handler. pool and redis may be nil in tests.
func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client, service, version string) *HealthHandler {
	return &HealthHandler{
		pool:    pool,
		redis:   redisClient,
		service: service,
		version: version,
	}
}

// Live handles GET /healthz. Always succeeds while the process runs.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /readyz and checks both stores.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"checks": checks})
}

// Status handles GET /api/health with service metadata.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.service,
		"version": h.version,
		"status":  "ok",
		"time":    time.Now().UTC(),
	})
}
