package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go-gin-helpdesk/internal/model"
	"go-gin-helpdesk/internal/queue"
	"go-gin-helpdesk/internal/repository"
	"go-gin-helpdesk/internal/storage"
	apperrors "go-gin-helpdesk/pkg/app_errors"
	"go-gin-helpdesk/pkg/logger"

	"go.uber.org/zap"
)

// AttachmentUpload is a file received with a new ticket.
type AttachmentUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Content     io.Reader
}

type TicketService interface {
	Create(ctx context.Context, identity *model.Identity, req model.CreateTicketRequest, upload *AttachmentUpload) (*model.Ticket, error)
	// ListForOwner 依建立順序列出 identity 的工單
	ListForOwner(ctx context.Context, identity *model.Identity) ([]*model.Ticket, error)
	GetByID(ctx context.Context, id int) (*model.Ticket, error)
	History(ctx context.Context, id int) ([]*model.TicketEvent, error)
	Update(ctx context.Context, identity *model.Identity, id int, params model.UpdateTicketParams) (*model.Ticket, error)
	// Delete 只刪除 identity 自己的工單；不相符時不做任何事並回傳 false
	Delete(ctx context.Context, identity *model.Identity, id int) (bool, error)
	OpenAttachment(ctx context.Context, name string) (*storage.Attachment, error)
	// RecordEvent 由 worker 呼叫，寫入工單事件
	RecordEvent(ctx context.Context, event *model.TicketEvent) error
}

type TicketServiceImpl struct {
	repo        repository.TicketRepository
	eventRepo   repository.TicketEventRepository
	attachments storage.AttachmentStore
	events      queue.TicketEventQueue
}

func NewTicketService(
	repo repository.TicketRepository,
	eventRepo repository.TicketEventRepository,
	attachments storage.AttachmentStore,
	events queue.TicketEventQueue,
) TicketService {
	return &TicketServiceImpl{
		repo:        repo,
		eventRepo:   eventRepo,
		attachments: attachments,
		events:      events,
	}
}

func (s *TicketServiceImpl) Create(ctx context.Context, identity *model.Identity, req model.CreateTicketRequest, upload *AttachmentUpload) (*model.Ticket, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	ticket := &model.Ticket{
		Firstname: identity.Firstname,
		Lastname:  identity.Lastname,
		Email:     identity.Email,
		Priority:  req.Priority,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    model.DefaultTicketStatus,
	}

	if upload != nil && upload.Filename != "" {
		name := storage.SecureFilename(upload.Filename)
		if name == "" {
			return nil, apperrors.ErrInvalidInput
		}
		if err := s.attachments.Save(ctx, name, upload.Content, upload.Size, upload.ContentType); err != nil {
			return nil, fmt.Errorf("save attachment: %w", err)
		}
		ticket.File = &name
	}

	created, err := s.repo.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.NewTicketEvent(created, model.TicketActionCreated, identity))
	return created, nil
}

func (s *TicketServiceImpl) ListForOwner(ctx context.Context, identity *model.Identity) ([]*model.Ticket, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return s.repo.ListByEmail(ctx, identity.Email)
}

func (s *TicketServiceImpl) GetByID(ctx context.Context, id int) (*model.Ticket, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *TicketServiceImpl) History(ctx context.Context, id int) ([]*model.TicketEvent, error) {
	return s.eventRepo.ListByTicketID(ctx, id)
}

func (s *TicketServiceImpl) Update(ctx context.Context, identity *model.Identity, id int, params model.UpdateTicketParams) (*model.Ticket, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.NewTicketEvent(updated, model.TicketActionUpdated, identity))
	return updated, nil
}

func (s *TicketServiceImpl) Delete(ctx context.Context, identity *model.Identity, id int) (bool, error) {
	if identity == nil {
		return false, apperrors.ErrUnauthenticated
	}

	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrTicketNotFound) {
			return false, nil
		}
		return false, err
	}
	if !identity.Owns(ticket) {
		return false, nil
	}

	deleted, err := s.repo.Delete(ctx, id, identity.Email)
	if err != nil {
		return false, err
	}
	if deleted {
		s.publish(ctx, model.NewTicketEvent(ticket, model.TicketActionDeleted, identity))
	}
	return deleted, nil
}

func (s *TicketServiceImpl) OpenAttachment(ctx context.Context, name string) (*storage.Attachment, error) {
	if !storage.IsSecureFilename(name) {
		return nil, apperrors.ErrAttachmentNotFound
	}
	return s.attachments.Open(ctx, name)
}

func (s *TicketServiceImpl) RecordEvent(ctx context.Context, event *model.TicketEvent) error {
	if !event.Action.IsValid() {
		return apperrors.ErrInvalidInput
	}
	_, err := s.eventRepo.Create(ctx, event)
	return err
}

// publish is best effort: the ticket change is already stored.
func (s *TicketServiceImpl) publish(ctx context.Context, event *model.TicketEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		logger.WithComponent("service").Warn("failed to publish ticket event",
			zap.Int("ticket_id", event.TicketID),
			zap.String("action", string(event.Action)),
			zap.Error(err),
		)
	}
}
