package handler

import (
	"go-gin-helpdesk/internal/middleware"
	"go-gin-helpdesk/internal/service"
	"go-gin-helpdesk/internal/session"
	"go-gin-helpdesk/internal/web"

	"github.com/gin-gonic/gin"
)

// RouterConfig collects what the HTTP layer needs.
type RouterConfig struct {
	AuthService   service.AuthService
	TicketService service.TicketService
	Sessions      session.Store
	Flashes       *web.FlashStore
	HealthChecks  map[string]HealthCheck
	SecureCookie  bool
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(
		middleware.RequestLogger(),
		middleware.Recovery(),
		middleware.LoadIdentity(cfg.Sessions, cfg.SecureCookie),
	)

	requireAuth := middleware.RequireAuth(cfg.Flashes)

	NewPageHandler(cfg.Flashes, cfg.HealthChecks).RegisterRoutes(router)
	NewAuthHandler(cfg.AuthService, cfg.Sessions, cfg.Flashes, cfg.SecureCookie).RegisterRoutes(router, requireAuth)
	NewTicketHandler(cfg.TicketService, cfg.Flashes).RegisterRoutes(router, requireAuth)
	NewUploadHandler(cfg.TicketService).RegisterRoutes(router, requireAuth)

	return router, nil
}
