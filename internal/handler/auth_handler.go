package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go-gin-helpdesk/internal/middleware"
	"go-gin-helpdesk/internal/model"
	"go-gin-helpdesk/internal/service"
	"go-gin-helpdesk/internal/session"
	"go-gin-helpdesk/internal/web"
	apperrors "go-gin-helpdesk/pkg/app_errors"
	"go-gin-helpdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service      service.AuthService
	sessions     session.Store
	flashes      *web.FlashStore
	secureCookie bool
}

func NewAuthHandler(service service.AuthService, sessions session.Store, flashes *web.FlashStore, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		sessions:     sessions,
		flashes:      flashes,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) RegisterRoutes(r gin.IRouter, requireAuth gin.HandlerFunc) {
	r.GET("/register", h.RegisterForm)
	r.POST("/register", h.Register)
	r.GET("/login", h.LoginForm)
	r.POST("/login", h.Login)
	r.GET("/logout", requireAuth, h.Logout)
}

func (h *AuthHandler) RegisterForm(c *gin.Context) {
	render(c, h.flashes, http.StatusOK, "register.html", gin.H{"Title": "Register"})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		h.flashes.Add(c, web.FlashDanger, "All fields are required.")
		c.Redirect(http.StatusFound, "/register")
		return
	}

	_, err := h.service.Register(c.Request.Context(), req)
	switch {
	case err == nil:
		h.flashes.Add(c, web.FlashSuccess, "Registration successful! You can log in.")
		c.Redirect(http.StatusFound, "/")
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		h.flashes.Add(c, web.FlashDanger, "This email is already registered!")
		c.Redirect(http.StatusFound, "/register")
	case errors.Is(err, apperrors.ErrInvalidInput):
		h.flashes.Add(c, web.FlashDanger, "Invalid registration details.")
		c.Redirect(http.StatusFound, "/register")
	default:
		handleError(c, err, "Register")
	}
}

func (h *AuthHandler) LoginForm(c *gin.Context) {
	render(c, h.flashes, http.StatusOK, "login.html", gin.H{
		"Title": "Log in",
		"Next":  safeNext(c.Query("next")),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	next := safeNext(c.Query("next"))

	var req model.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.flashes.Add(c, web.FlashDanger, "Email and password are required.")
		c.Redirect(http.StatusFound, loginURL(next))
		return
	}

	user, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		h.flashes.Add(c, web.FlashDanger, "Invalid login credentials!")
		c.Redirect(http.StatusFound, loginURL(next))
		return
	case errors.Is(err, apperrors.ErrTooManyAttempts):
		h.flashes.Add(c, web.FlashDanger, "Too many failed login attempts. Please try again later.")
		c.Redirect(http.StatusFound, loginURL(next))
		return
	default:
		handleError(c, err, "Login")
		return
	}

	// 換發新的 session id
	if old := middleware.SessionIDFrom(c); old != "" {
		_ = h.sessions.Delete(c.Request.Context(), old)
	}
	sid, err := h.sessions.Create(c.Request.Context(), user.Identity())
	if err != nil {
		handleError(c, err, "Login")
		return
	}
	middleware.SetSessionCookie(c, sid, int(h.sessions.TTL().Seconds()), h.secureCookie)

	logger.WithComponent("handler").Info("user logged in", zap.Int("user_id", user.ID))
	h.flashes.Add(c, web.FlashSuccess, "Login successful!")
	if next == "" {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if sid := middleware.SessionIDFrom(c); sid != "" {
		if err := h.sessions.Delete(c.Request.Context(), sid); err != nil {
			logger.WithComponent("handler").Warn("failed to delete session", zap.Error(err))
		}
	}
	middleware.ClearSessionCookie(c, h.secureCookie)

	h.flashes.Add(c, web.FlashSuccess, "Logged out successfully.")
	c.Redirect(http.StatusFound, "/")
}

// safeNext keeps only local paths so the login redirect cannot leave the site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

func loginURL(next string) string {
	if next == "" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}
