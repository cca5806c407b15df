// Package mocks holds a testify mock of storage.AttachmentStore.
package mocks

import (
	"context"
	"io"

	"go-gin-helpdesk/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockAttachmentStore struct {
	mock.Mock
}

func NewMockAttachmentStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAttachmentStore {
	m := &MockAttachmentStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAttachmentStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, name, r, size, contentType)
	return args.Error(0)
}

func (m *MockAttachmentStore) Open(ctx context.Context, name string) (*storage.Attachment, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Attachment), args.Error(1)
}
