package storage

import (
	"context"
	"fmt"
	"io"

	"go-gin-helpdesk/config"
)

const defaultContentType = "application/octet-stream"

// Attachment is an opened attachment; the caller closes Body.
type Attachment struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.ReadCloser
}

type AttachmentStore interface {
	// Save 儲存附件，同名檔案直接覆蓋
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Open 讀取附件，不存在時回傳 ErrAttachmentNotFound
	Open(ctx context.Context, name string) (*Attachment, error)
}

// New builds the attachment store selected by cfg.Driver.
func New(ctx context.Context, cfg *config.StorageConfig) (AttachmentStore, error) {
	switch cfg.Driver {
	case config.StorageDriverLocal, "":
		return NewLocalAttachmentStore(cfg.UploadFolder)
	case config.StorageDriverMinio:
		return NewMinioAttachmentStore(ctx, &cfg.Minio)
	case config.StorageDriverS3:
		return NewS3AttachmentStore(ctx, &cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
