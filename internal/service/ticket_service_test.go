package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go-gin-helpdesk/internal/model"
	queueMocks "go-gin-helpdesk/internal/queue/mocks"
	repoMocks "go-gin-helpdesk/internal/repository/mocks"
	"go-gin-helpdesk/internal/service"
	"go-gin-helpdesk/internal/storage"
	storageMocks "go-gin-helpdesk/internal/storage/mocks"
	apperrors "go-gin-helpdesk/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ticketServiceMocks struct {
	repo        *repoMocks.MockTicketRepository
	eventRepo   *repoMocks.MockTicketEventRepository
	attachments *storageMocks.MockAttachmentStore
	events      *queueMocks.MockTicketEventQueue
}

func setupTicketService(t *testing.T) (service.TicketService, ticketServiceMocks) {
	m := ticketServiceMocks{
		repo:        repoMocks.NewMockTicketRepository(t),
		eventRepo:   repoMocks.NewMockTicketEventRepository(t),
		attachments: storageMocks.NewMockAttachmentStore(t),
		events:      queueMocks.NewMockTicketEventQueue(t),
	}
	return service.NewTicketService(m.repo, m.eventRepo, m.attachments, m.events), m
}

var (
	ada = &model.Identity{UserID: 1, Firstname: "Ada", Lastname: "Lovelace", Email: "ada@example.com"}
	bob = &model.Identity{UserID: 2, Firstname: "Bob", Lastname: "Builder", Email: "bob@example.com"}
)

func eventWith(action model.TicketAction, ticketID int, actor string) interface{} {
	return mock.MatchedBy(func(e *model.TicketEvent) bool {
		return e.Action == action && e.TicketID == ticketID && e.ActorEmail == actor && e.EventID != ""
	})
}

func TestTicketService_Create(t *testing.T) {
	ctx := context.Background()
	req := model.CreateTicketRequest{Priority: "high", Subject: "Printer", Message: "On fire"}

	t.Run("Success - copies identity and default status", func(t *testing.T) {
		ticketService, m := setupTicketService(t)

		m.repo.On("Create", ctx, mock.MatchedBy(func(tk *model.Ticket) bool {
			return tk.Email == "ada@example.com" &&
				tk.Firstname == "Ada" &&
				tk.Lastname == "Lovelace" &&
				tk.Status == model.DefaultTicketStatus &&
				tk.File == nil
		})).Return(&model.Ticket{ID: 1, Email: "ada@example.com", Status: model.DefaultTicketStatus}, nil).Once()
		m.events.On("Publish", ctx, eventWith(model.TicketActionCreated, 1, "ada@example.com")).Return(nil).Once()

		created, err := ticketService.Create(ctx, ada, req, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, created.ID)
		assert.Equal(t, model.DefaultTicketStatus, created.Status)
	})

	t.Run("Success - attachment name is sanitized", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		content := bytes.NewReader([]byte("data"))

		m.attachments.On("Save", ctx, "etc_passwd", content, int64(4), "text/plain").Return(nil).Once()
		m.repo.On("Create", ctx, mock.MatchedBy(func(tk *model.Ticket) bool {
			return tk.File != nil && *tk.File == "etc_passwd"
		})).Return(&model.Ticket{ID: 2}, nil).Once()
		m.events.On("Publish", ctx, mock.Anything).Return(nil).Once()

		_, err := ticketService.Create(ctx, ada, req, &service.AttachmentUpload{
			Filename:    "../../etc/passwd",
			Size:        4,
			ContentType: "text/plain",
			Content:     content,
		})

		require.NoError(t, err)
	})

	t.Run("Success - publish failure does not fail create", func(t *testing.T) {
		ticketService, m := setupTicketService(t)

		m.repo.On("Create", ctx, mock.Anything).Return(&model.Ticket{ID: 3}, nil).Once()
		m.events.On("Publish", ctx, mock.Anything).Return(errors.New("queue down")).Once()

		created, err := ticketService.Create(ctx, ada, req, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, created.ID)
	})

	t.Run("Failed - unusable filename", func(t *testing.T) {
		ticketService, _ := setupTicketService(t)

		_, err := ticketService.Create(ctx, ada, req, &service.AttachmentUpload{Filename: "../.."})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Failed - attachment save error", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		saveErr := errors.New("disk full")

		m.attachments.On("Save", ctx, "a.txt", mock.Anything, int64(1), "").Return(saveErr).Once()

		_, err := ticketService.Create(ctx, ada, req, &service.AttachmentUpload{
			Filename: "a.txt", Size: 1, Content: bytes.NewReader([]byte("x")),
		})

		assert.ErrorIs(t, err, saveErr)
		m.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Failed - no identity", func(t *testing.T) {
		ticketService, _ := setupTicketService(t)

		_, err := ticketService.Create(ctx, nil, req, nil)

		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}

func TestTicketService_ListForOwner(t *testing.T) {
	ctx := context.Background()
	ticketService, m := setupTicketService(t)
	tickets := []*model.Ticket{{ID: 1, Email: "ada@example.com"}, {ID: 4, Email: "ada@example.com"}}

	m.repo.On("ListByEmail", ctx, "ada@example.com").Return(tickets, nil).Once()

	got, err := ticketService.ListForOwner(ctx, ada)

	require.NoError(t, err)
	assert.Equal(t, tickets, got)
}

func TestTicketService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - no ownership check", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		m.repo.On("FindByID", ctx, 3).Return(&model.Ticket{ID: 3, Email: "bob@example.com"}, nil).Once()

		ticket, err := ticketService.GetByID(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", ticket.Email)
	})

	t.Run("NotFound", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		m.repo.On("FindByID", ctx, 99).Return(nil, apperrors.ErrTicketNotFound).Once()

		_, err := ticketService.GetByID(ctx, 99)

		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})
}

func TestTicketService_Update(t *testing.T) {
	ctx := context.Background()
	params := model.UpdateTicketParams{Subject: "New", Message: "Body", Status: "closed"}

	t.Run("Success", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		updated := &model.Ticket{ID: 3, Email: "ada@example.com", Priority: "high", Subject: "New", Message: "Body", Status: "closed"}

		m.repo.On("Update", ctx, 3, params).Return(updated, nil).Once()
		m.events.On("Publish", ctx, eventWith(model.TicketActionUpdated, 3, "bob@example.com")).Return(nil).Once()

		got, err := ticketService.Update(ctx, bob, 3, params)

		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("NotFound", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		m.repo.On("Update", ctx, 99, params).Return(nil, apperrors.ErrTicketNotFound).Once()

		_, err := ticketService.Update(ctx, ada, 99, params)

		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestTicketService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - owner", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		m.repo.On("FindByID", ctx, 5).Return(&model.Ticket{ID: 5, Email: "ada@example.com"}, nil).Once()
		m.repo.On("Delete", ctx, 5, "ada@example.com").Return(true, nil).Once()
		m.events.On("Publish", ctx, eventWith(model.TicketActionDeleted, 5, "ada@example.com")).Return(nil).Once()

		deleted, err := ticketService.Delete(ctx, ada, 5)

		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("NotOwner - silent no-op", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		m.repo.On("FindByID", ctx, 5).Return(&model.Ticket{ID: 5, Email: "ada@example.com"}, nil).Once()

		deleted, err := ticketService.Delete(ctx, bob, 5)

		require.NoError(t, err)
		assert.False(t, deleted)
		m.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotFound - silent no-op", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		m.repo.On("FindByID", ctx, 99).Return(nil, apperrors.ErrTicketNotFound).Once()

		deleted, err := ticketService.Delete(ctx, ada, 99)

		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestTicketService_OpenAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		att := &storage.Attachment{Name: "a.txt"}
		m.attachments.On("Open", ctx, "a.txt").Return(att, nil).Once()

		got, err := ticketService.OpenAttachment(ctx, "a.txt")

		require.NoError(t, err)
		assert.Same(t, att, got)
	})

	t.Run("Failed - unsanitized name", func(t *testing.T) {
		ticketService, _ := setupTicketService(t)

		_, err := ticketService.OpenAttachment(ctx, "..")

		assert.ErrorIs(t, err, apperrors.ErrAttachmentNotFound)
	})
}

func TestTicketService_RecordEventAndHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("RecordEvent", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		event := &model.TicketEvent{TicketID: 1, Action: model.TicketActionCreated}
		m.eventRepo.On("Create", ctx, event).Return(event, nil).Once()

		require.NoError(t, ticketService.RecordEvent(ctx, event))
	})

	t.Run("RecordEvent - invalid action", func(t *testing.T) {
		ticketService, _ := setupTicketService(t)

		err := ticketService.RecordEvent(ctx, &model.TicketEvent{TicketID: 1, Action: "archived"})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("History", func(t *testing.T) {
		ticketService, m := setupTicketService(t)
		events := []*model.TicketEvent{{ID: 1, TicketID: 3}}
		m.eventRepo.On("ListByTicketID", ctx, 3).Return(events, nil).Once()

		got, err := ticketService.History(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, events, got)
	})
}
