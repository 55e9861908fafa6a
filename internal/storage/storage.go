package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrStorageDisabled = errors.New("object storage is not configured")

const presignTTL = 24 * time.Hour

type Storager interface {
	SaveImage(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
	GetFileUrl(ctx context.Context, objectKey string) (string, error)
}

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type MinioStorage struct {
	client *minio.Client
	bucket string
}

func NewMinioStorage(opts MinioOptions) (*MinioStorage, error) {
	minioClient, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStorage{
		client: minioClient,
		bucket: opts.Bucket,
	}, nil
}

func (s *MinioStorage) SaveImage(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	// Check if bucket exists, create if not
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return "", fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	reader := bytes.NewReader(data)
	info, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	slog.Info("[Storage] file uploaded", "key", info.Key, "size", info.Size)
	return info.Key, nil
}

func (s *MinioStorage) GetFileUrl(ctx context.Context, objectKey string) (string, error) {
	reqParams := make(url.Values)
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, presignTTL, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedURL.String(), nil
}

// DisabledStorage stands in when MINIO_ENDPOINT is unset.
type DisabledStorage struct{}

func (DisabledStorage) SaveImage(context.Context, string, []byte, string) (string, error) {
	return "", ErrStorageDisabled
}

func (DisabledStorage) GetFileUrl(context.Context, string) (string, error) {
	return "", ErrStorageDisabled
}
