package httpapi

import (
	"context"
	"net/http"
	"time"

	"bookstore/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Check pings one backing service.
type Check func(ctx context.Context) error

// Health reports readiness of the named backing services.
type Health struct {
	Checks  map[string]Check
	Timeout time.Duration
}

func (h Health) Handle(c *gin.Context) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			logger.FromGin(c).Warn("health check failed", "check", name, "err", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
