package storage

import (
	"context"
	"fmt"
	"io"

	"go-gin-helpdesk/config"
	apperrors "go-gin-helpdesk/pkg/app_errors"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioAttachmentStore keeps attachments as objects in a MinIO bucket.
type MinioAttachmentStore struct {
	client *minio.Client
	bucket string
}

func NewMinioAttachmentStore(ctx context.Context, cfg *config.MinioConfig) (*MinioAttachmentStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioAttachmentStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioAttachmentStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if !IsSecureFilename(name) {
		return apperrors.ErrInvalidInput
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("minio put object: %w", err)
	}
	return nil
}

func (s *MinioAttachmentStore) Open(ctx context.Context, name string) (*Attachment, error) {
	if !IsSecureFilename(name) {
		return nil, apperrors.ErrAttachmentNotFound
	}

	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object: %w", err)
	}

	// GetObject is lazy; Stat is the first round trip.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, apperrors.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("minio stat object: %w", err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	return &Attachment{
		Name:        name,
		Size:        info.Size,
		ContentType: contentType,
		Body:        obj,
	}, nil
}
