package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go-gin-helpdesk/config"
	apperrors "go-gin-helpdesk/pkg/app_errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3AttachmentStore keeps attachments as objects in an S3 (or S3-compatible) bucket.
type S3AttachmentStore struct {
	client *s3.Client
	bucket string
}

func NewS3AttachmentStore(ctx context.Context, cfg *config.S3Config) (*S3AttachmentStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3AttachmentStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3AttachmentStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if !IsSecureFilename(name) {
		return apperrors.ErrInvalidInput
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func (s *S3AttachmentStore) Open(ctx context.Context, name string) (*Attachment, error) {
	if !IsSecureFilename(name) {
		return nil, apperrors.ErrAttachmentNotFound
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, apperrors.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("s3 get object: %w", err)
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = defaultContentType
	}

	return &Attachment{
		Name:        name,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: contentType,
		Body:        out.Body,
	}, nil
}
