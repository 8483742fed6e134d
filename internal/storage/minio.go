package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/iyhunko/academy-backend/internal/config"
)

// ObjectAPI is the subset of the minio client used by MinioBackend.
type ObjectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioBackend keeps images in an S3 compatible bucket.
type MinioBackend struct {
	client    ObjectAPI
	bucket    string
	publicURL string
}

// NewMinioBackend wraps an existing client.
func NewMinioBackend(client ObjectAPI, bucket, publicURL string) *MinioBackend {
	return &MinioBackend{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// ConnectMinio creates a minio client from conf and makes sure the bucket exists.
func ConnectMinio(ctx context.Context, conf config.Minio) (*MinioBackend, error) {
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, conf.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", conf.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, conf.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", conf.Bucket, err)
		}
	}

	publicURL := conf.PublicURL
	if publicURL == "" {
		scheme := "http"
		if conf.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + conf.Endpoint
	}
	return NewMinioBackend(client, conf.Bucket, publicURL), nil
}

func (m *MinioBackend) Put(ctx context.Context, name, contentType string, size int64, body io.Reader) error {
	_, err := m.client.PutObject(ctx, m.bucket, name, body, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (m *MinioBackend) Remove(ctx context.Context, name string) error {
	return m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{})
}

// URL ignores the request base: objects are served by the bucket endpoint.
func (m *MinioBackend) URL(_ string, name string) string {
	return m.publicURL + "/" + m.bucket + "/" + name
}
