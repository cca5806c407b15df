package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-gin-helpdesk/internal/model"
	"go-gin-helpdesk/internal/queue"
	repoMocks "go-gin-helpdesk/internal/repository/mocks"
	"go-gin-helpdesk/internal/service"
	"go-gin-helpdesk/internal/storage"
	apperrors "go-gin-helpdesk/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		env := setupTestRouter(t)
		env.tickets.On("OpenAttachment", mock.Anything, "a.txt").Return(&storage.Attachment{
			Name:        "a.txt",
			Size:        5,
			ContentType: "text/plain; charset=utf-8",
			Body:        io.NopCloser(strings.NewReader("hello")),
		}, nil).Once()

		w := env.do(httptest.NewRequest(http.MethodGet, "/uploads/a.txt", nil), env.loginCookie(t, ada))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello", w.Body.String())
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	})

	t.Run("NotFound", func(t *testing.T) {
		env := setupTestRouter(t)
		env.tickets.On("OpenAttachment", mock.Anything, "missing.txt").Return(nil, apperrors.ErrAttachmentNotFound).Once()

		w := env.do(httptest.NewRequest(http.MethodGet, "/uploads/missing.txt", nil), env.loginCookie(t, ada))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("RequiresAuth", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.do(httptest.NewRequest(http.MethodGet, "/uploads/a.txt", nil))

		assert.Equal(t, http.StatusFound, w.Code)
	})
}

// 建立附件後下載，內容應完全相同
func TestAttachmentRoundTrip(t *testing.T) {
	store, err := storage.NewLocalAttachmentStore(t.TempDir())
	require.NoError(t, err)

	tickets := repoMocks.NewMockTicketRepository(t)
	events := repoMocks.NewMockTicketEventRepository(t)
	ticketService := service.NewTicketService(tickets, events, store, queue.NewMemoryTicketEventQueue(10))

	tickets.On("Create", mock.Anything, mock.MatchedBy(func(tk *model.Ticket) bool {
		return tk.File != nil && *tk.File == "a.txt"
	})).Return(&model.Ticket{ID: 1, File: strPtr("a.txt")}, nil).Once()

	router, sessions, _ := newRouter(t, nil, ticketService, nil)
	env := &testEnv{router: router, sessions: sessions}
	cookie := env.loginCookie(t, ada)

	content := []byte("attachment bytes \x00\x01")
	w := env.do(createMultipartRequest(t, "/ticket", ticketForm(), "a.txt", content), cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/uploads/a.txt", nil), cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())

	t.Run("TraversalIsNotFound", func(t *testing.T) {
		for _, target := range []string{"/uploads/..", "/uploads/..%2F..%2Fetc%2Fpasswd"} {
			w := env.do(httptest.NewRequest(http.MethodGet, target, nil), cookie)

			assert.Equal(t, http.StatusNotFound, w.Code, target)
		}
	})
}

func strPtr(s string) *string {
	return &s
}
