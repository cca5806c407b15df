package web

import (
	"net/http"
	"strings"
	"time"

	"go-gin-helpdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	FlashCookieName = "flash"
	flashTTL        = 5 * time.Minute
	pendingKey      = "flash.pending"

	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashInfo    = "info"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type flashClaims struct {
	Flashes []Flash `json:"flashes"`
	jwt.RegisteredClaims
}

// FlashStore carries flashes across a redirect in an HS256-signed cookie.
type FlashStore struct {
	secret []byte
	secure bool
}

func NewFlashStore(secret string, secure bool) *FlashStore {
	return &FlashStore{secret: []byte(secret), secure: secure}
}

func (s *FlashStore) Encode(flashes []Flash) (string, error) {
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, flashClaims{
		Flashes: flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(flashTTL)),
		},
	}).SignedString(s.secret)
}

// Decode returns nil for a tampered, expired or malformed token.
func (s *FlashStore) Decode(token string) []Flash {
	t, err := jwt.ParseWithClaims(token, &flashClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil
	}
	if c, ok := t.Claims.(*flashClaims); ok && t.Valid {
		return c.Flashes
	}
	return nil
}

// Add queues a flash for the next page, keeping any added earlier in this request.
func (s *FlashStore) Add(c *gin.Context, category, message string) {
	pending := append(s.pending(c), Flash{Category: category, Message: message})
	c.Set(pendingKey, pending)

	token, err := s.Encode(pending)
	if err != nil {
		logger.WithComponent("http").Error("Failed to encode flash cookie",
			zap.String("category", category),
			zap.Error(err),
		)
		return
	}
	s.setCookie(c, token, int(flashTTL.Seconds()))
}

// Pop returns the flashes from the request cookie, followed by any added in
// this request, and clears both.
func (s *FlashStore) Pop(c *gin.Context) []Flash {
	var flashes []Flash
	if cookie, err := c.Cookie(FlashCookieName); err == nil && cookie != "" {
		flashes = s.Decode(cookie)
		s.setCookie(c, "", -1)
	}
	if pending := s.pending(c); len(pending) > 0 {
		flashes = append(flashes, pending...)
		c.Set(pendingKey, []Flash(nil))
		s.setCookie(c, "", -1)
	}
	return flashes
}

func (s *FlashStore) pending(c *gin.Context) []Flash {
	if v, ok := c.Get(pendingKey); ok {
		if flashes, ok := v.([]Flash); ok {
			return flashes
		}
	}
	return nil
}

// setCookie replaces any flash cookie already set on this response, so the
// browser only ever sees the latest one.
func (s *FlashStore) setCookie(c *gin.Context, value string, maxAge int) {
	header := c.Writer.Header()
	kept := make([]string, 0, len(header.Values("Set-Cookie")))
	for _, v := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(v, FlashCookieName+"=") {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		header.Del("Set-Cookie")
	} else {
		header["Set-Cookie"] = kept
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FlashCookieName, value, maxAge, "/", "", s.secure, true)
}
