package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"go-gin-helpdesk/internal/model"
	"go-gin-helpdesk/internal/session"
	"go-gin-helpdesk/internal/web"
	apperrors "go-gin-helpdesk/pkg/app_errors"
	"go-gin-helpdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	identityKey  = "identity"
	sessionIDKey = "session_id"
)

// LoadIdentity resolves the session cookie into a *model.Identity on the gin context.
// Requests without a valid session continue anonymously.
func LoadIdentity(store session.Store, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(session.CookieName)
		if err != nil || sid == "" {
			c.Next()
			return
		}

		identity, err := store.Get(c.Request.Context(), sid)
		if err != nil {
			if errors.Is(err, apperrors.ErrSessionNotFound) {
				// 清除失效的 cookie
				ClearSessionCookie(c, secure)
			} else {
				logger.WithComponent("session").Warn("failed to load session", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(identityKey, identity)
		c.Set(sessionIDKey, sid)
		c.Next()
	}
}

// RequireAuth redirects anonymous requests to the login page, remembering where they were going.
func RequireAuth(flashes *web.FlashStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c) != nil {
			c.Next()
			return
		}

		flashes.Add(c, web.FlashInfo, "Please log in to access this page.")
		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// IdentityFrom returns the logged-in identity, or nil for anonymous requests.
func IdentityFrom(c *gin.Context) *model.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*model.Identity)
	return identity
}

func SessionIDFrom(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

func SetSessionCookie(c *gin.Context, sid string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, sid, maxAge, "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	SetSessionCookie(c, "", -1, secure)
}
