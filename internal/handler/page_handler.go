package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"go-gin-helpdesk/internal/web"
	"go-gin-helpdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

type PageHandler struct {
	flashes *web.FlashStore
	checks  map[string]HealthCheck
}

func NewPageHandler(flashes *web.FlashStore, checks map[string]HealthCheck) *PageHandler {
	return &PageHandler{flashes: flashes, checks: checks}
}

func (h *PageHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.Index)
	r.GET("/healthz", h.Health)
}

func (h *PageHandler) Index(c *gin.Context) {
	render(c, h.flashes, http.StatusOK, "index.html", nil)
}

func (h *PageHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := gin.H{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			logger.WithComponent("handler").Warn("health check failed", zap.String("check", name), zap.Error(err))
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
