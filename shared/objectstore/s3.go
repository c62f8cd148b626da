package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds S3 object storage configuration
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // optional, for S3-compatible stores
	PublicBaseURL   string // optional override for generated object URLs
}

// Client is an S3-backed object store for export artifacts.
type Client struct {
	s3Client *s3.Client
	config   *Config
	logger   *slog.Logger
}

// NewClient creates a new S3 object store client.
func NewClient(ctx context.Context, config *Config, logger *slog.Logger) (*Client, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(config.Region))
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("Object store client initialized",
		slog.String("bucket", config.Bucket),
		slog.String("region", config.Region),
	)

	return &Client{
		s3Client: s3Client,
		config:   config,
		logger:   logger,
	}, nil
}

// Put uploads a payload under the given key and returns the object URL.
func (c *Client) Put(ctx context.Context, key string, payload []byte, contentType string) (string, error) {
	start := time.Now()

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		c.logger.Error("Failed to put object",
			slog.String("bucket", c.config.Bucket),
			slog.String("key", key),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	c.logger.Info("Object stored",
		slog.String("bucket", c.config.Bucket),
		slog.String("key", key),
		slog.Int("size_bytes", len(payload)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return c.ObjectURL(key), nil
}

// ObjectURL returns the durable URL for a stored key. A configured public
// base URL wins over the standard virtual-hosted S3 form.
func (c *Client) ObjectURL(key string) string {
	if c.config.PublicBaseURL != "" {
		return strings.TrimRight(c.config.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.config.Bucket, c.config.Region, key)
}
