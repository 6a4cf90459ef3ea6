package repositories

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"weather-bot/config"
	"weather-bot/internal/models"
	"weather-bot/pkg/observe"
)

// MinioResourceRepository reads resources from an S3-compatible bucket.
type MinioResourceRepository struct {
	client *minio.Client
	bucket string
	l      *observe.Logger
}

func NewMinioResourceRepository(cfg config.MinioConfig, l *observe.Logger) (*MinioResourceRepository, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: "us-east-1",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MinIO client")
	}

	l.Info("using minio resource bucket", map[string]any{"endpoint": cfg.Endpoint, "bucket": cfg.Bucket})

	return &MinioResourceRepository{client: client, bucket: cfg.Bucket, l: l}, nil
}

func (m *MinioResourceRepository) TryLoad(ctx context.Context, name string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.translate(name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, m.translate(name, err)
	}

	return data, nil
}

func (m *MinioResourceRepository) translate(name string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.Wrapf(models.ErrResourceNotFound, "s3://%s/%s", m.bucket, name)
	default:
		return errors.Wrapf(err, "get s3://%s/%s", m.bucket, name)
	}
}
