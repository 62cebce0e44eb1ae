// Package media stores product images on S3-compatible object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/shopmate/shopmate/internal/config"
	"github.com/shopmate/shopmate/internal/models"
	"github.com/sirupsen/logrus"
)

type S3Store struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	publicURL string
	logger    *logrus.Logger
}

func NewS3Store(client *s3.Client, cfg config.MediaConfig, logger *logrus.Logger) *S3Store {
	return &S3Store{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		logger:    logger,
	}
}

// Upload stores the image under a fresh object key and returns the key
// together with its public URL.
func (s *S3Store) Upload(ctx context.Context, filename, contentType string, body io.Reader) (models.ProductImage, error) {
	key := fmt.Sprintf("products/%s%s", uuid.New().String(), strings.ToLower(path.Ext(filename)))

	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})

	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to upload image")
		return models.ProductImage{}, fmt.Errorf("failed to upload image: %w", err)
	}

	url := result.Location
	if s.publicURL != "" {
		url = s.publicURL + "/" + key
	}

	return models.ProductImage{Key: key, URL: url}, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}
