package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/foodbridge/foodbridge/internal/config"
	"github.com/sirupsen/logrus"
)

// S3Storage stores images in an S3-compatible bucket (AWS S3, MinIO,
// DigitalOcean Spaces, Cloudflare R2, ...).
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Storage builds the S3 client from app config.
func NewS3Storage(cfg *config.Config) (*S3Storage, error) {
	ctx := context.Background()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.S3Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// Path style is required for MinIO and most S3 compatibles.
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	if cfg.S3Endpoint != "" {
		publicURL = strings.TrimSuffix(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}

	logrus.WithFields(logrus.Fields{
		"bucket": cfg.S3Bucket,
		"region": cfg.S3Region,
	}).Info("S3 storage initialized")

	return &S3Storage{
		client:    client,
		bucket:    cfg.S3Bucket,
		publicURL: publicURL,
	}, nil
}

// Save uploads the object and returns its public URL.
func (s *S3Storage) Save(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload object %q: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

// Delete removes the object addressed by url. URLs issued by another host
// are rejected.
func (s *S3Storage) Delete(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, s.publicURL+"/")
	if key == url || key == "" {
		return fmt.Errorf("url %q does not belong to bucket %q", url, s.bucket)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}
