// Package mocks holds testify mocks of the service interfaces for handler tests.
package mocks

import (
	"context"

	"go-gin-helpdesk/internal/model"
	"go-gin-helpdesk/internal/service"
	"go-gin-helpdesk/internal/storage"

	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type MockAuthService struct {
	mock.Mock
}

func NewMockAuthService(t testingT) *MockAuthService {
	m := &MockAuthService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockTicketService struct {
	mock.Mock
}

func NewMockTicketService(t testingT) *MockTicketService {
	m := &MockTicketService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTicketService) Create(ctx context.Context, identity *model.Identity, req model.CreateTicketRequest, upload *service.AttachmentUpload) (*model.Ticket, error) {
	args := m.Called(ctx, identity, req, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *MockTicketService) ListForOwner(ctx context.Context, identity *model.Identity) ([]*model.Ticket, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *MockTicketService) GetByID(ctx context.Context, id int) (*model.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *MockTicketService) History(ctx context.Context, id int) ([]*model.TicketEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TicketEvent), args.Error(1)
}

func (m *MockTicketService) Update(ctx context.Context, identity *model.Identity, id int, params model.UpdateTicketParams) (*model.Ticket, error) {
	args := m.Called(ctx, identity, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *MockTicketService) Delete(ctx context.Context, identity *model.Identity, id int) (bool, error) {
	args := m.Called(ctx, identity, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketService) OpenAttachment(ctx context.Context, name string) (*storage.Attachment, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Attachment), args.Error(1)
}

func (m *MockTicketService) RecordEvent(ctx context.Context, event *model.TicketEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var (
	_ service.AuthService   = (*MockAuthService)(nil)
	_ service.TicketService = (*MockTicketService)(nil)
)
