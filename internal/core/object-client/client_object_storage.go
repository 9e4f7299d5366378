package objectclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	cfg "github.com/markdave123-py/rulecheck/internal/config"
	"github.com/markdave123-py/rulecheck/internal/core"
)

var (
	// ErrNotConfigured is returned when AWS credentials or bucket are missing.
	ErrNotConfigured = errors.New("object storage not configured")
	// ErrObjectTooLarge is returned when an object exceeds the configured upload limit.
	ErrObjectTooLarge = errors.New("object exceeds size limit")
)

type S3Client struct {
	client   *s3.Client
	region   string
	maxBytes int64
	logger   *slog.Logger
}

func NewS3Client(ctx context.Context, cfg *cfg.Config, logger *slog.Logger) (*S3Client, error) {
	if !cfg.ObjectStorageEnabled() {
		return nil, ErrNotConfigured
	}
	if cfg.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.AwsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	logger = logger.With("component", "s3")
	logger.Info("object storage client ready", "region", cfg.AwsRegion, "bucket", cfg.BucketName)

	return &S3Client{
		client:   s3.NewFromConfig(awsCfg),
		region:   cfg.AwsRegion,
		maxBytes: cfg.MaxUploadBytes,
		logger:   logger,
	}, nil
}

// GetFile downloads an object fully into memory. Objects larger than the
// upload limit are rejected before download.
func (c *S3Client) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	ctxGet, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	head, err := c.client.HeadObject(ctxGet, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 head failed: %w", err)
	}
	size := aws.ToInt64(head.ContentLength)
	if c.maxBytes > 0 && size > c.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrObjectTooLarge, size)
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, size))
	downloader := manager.NewDownloader(c.client)
	n, err := downloader.Download(ctxGet, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}

	c.logger.InfoContext(ctx, "object downloaded", "bucket", bucket, "key", key, "bytes", n)
	return buf.Bytes()[:n], nil
}

var _ core.ObjectClient = (*S3Client)(nil)
