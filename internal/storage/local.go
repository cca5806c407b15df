package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"

	apperrors "go-gin-helpdesk/pkg/app_errors"
)

// LocalAttachmentStore keeps attachments as plain files under one directory.
type LocalAttachmentStore struct {
	root string
}

func NewLocalAttachmentStore(root string) (*LocalAttachmentStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload folder: %w", err)
	}
	return &LocalAttachmentStore{root: root}, nil
}

func (s *LocalAttachmentStore) path(name string) (string, error) {
	if !IsSecureFilename(name) {
		return "", apperrors.ErrInvalidInput
	}
	return filepath.Join(s.root, name), nil
}

func (s *LocalAttachmentStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write attachment: %w", err)
	}
	return f.Close()
}

func (s *LocalAttachmentStore) Open(ctx context.Context, name string) (*Attachment, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, apperrors.ErrAttachmentNotFound
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.ErrAttachmentNotFound
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, apperrors.ErrAttachmentNotFound
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = defaultContentType
	}

	return &Attachment{
		Name:        name,
		Size:        info.Size(),
		ContentType: contentType,
		Body:        f,
	}, nil
}
