// Package mocks holds a testify mock of queue.TicketEventQueue.
package mocks

import (
	"context"

	"go-gin-helpdesk/internal/model"
	"go-gin-helpdesk/internal/queue"

	"github.com/stretchr/testify/mock"
)

type MockTicketEventQueue struct {
	mock.Mock
}

func NewMockTicketEventQueue(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTicketEventQueue {
	m := &MockTicketEventQueue{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTicketEventQueue) Publish(ctx context.Context, event *model.TicketEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockTicketEventQueue) Subscribe(ctx context.Context) (<-chan queue.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery), args.Error(1)
}
