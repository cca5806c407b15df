package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go-gin-helpdesk/internal/handler"
	"go-gin-helpdesk/internal/model"
	"go-gin-helpdesk/internal/service"
	"go-gin-helpdesk/internal/service/mocks"
	"go-gin-helpdesk/internal/session"
	"go-gin-helpdesk/internal/web"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

var ada = &model.Identity{UserID: 1, Firstname: "Ada", Lastname: "Lovelace", Email: "ada@example.com"}

type testEnv struct {
	router   *gin.Engine
	auth     *mocks.MockAuthService
	tickets  *mocks.MockTicketService
	sessions session.Store
	flashes  *web.FlashStore
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		auth:    mocks.NewMockAuthService(t),
		tickets: mocks.NewMockTicketService(t),
	}
	env.router, env.sessions, env.flashes = newRouter(t, env.auth, env.tickets, nil)
	return env
}

// newRouter builds the full router over a miniredis session store.
func newRouter(t *testing.T, auth service.AuthService, tickets service.TicketService, checks map[string]handler.HealthCheck) (*gin.Engine, session.Store, *web.FlashStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	if checks == nil {
		checks = map[string]handler.HealthCheck{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}
	}

	sessions := session.NewRedisStore(client, 0)
	flashes := web.NewFlashStore(testSecret, false)

	router, err := handler.NewRouter(handler.RouterConfig{
		AuthService:   auth,
		TicketService: tickets,
		Sessions:      sessions,
		Flashes:       flashes,
		HealthChecks:  checks,
	})
	require.NoError(t, err)
	return router, sessions, flashes
}

// loginCookie creates a session for identity directly in the store.
func (e *testEnv) loginCookie(t *testing.T, identity *model.Identity) *http.Cookie {
	t.Helper()
	sid, err := e.sessions.Create(context.Background(), identity)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: sid}
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// flashesOf decodes the flash cookie set by a response.
func (e *testEnv) flashesOf(w *httptest.ResponseRecorder) []web.Flash {
	c := findCookie(w, web.FlashCookieName)
	if c == nil {
		return nil
	}
	return e.flashes.Decode(c.Value)
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// create HTTP request with a urlencoded form body
func createFormRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// create HTTP request with a multipart body; file is skipped when filename is empty
func createMultipartRequest(t *testing.T, target string, form url.Values, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, values := range form {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
