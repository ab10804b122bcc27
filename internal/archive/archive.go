// Package archive persists raw webhook payloads before transformation so
// a failed or disputed build can be replayed from the original bytes.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store archives inbound payloads. Archiving is best effort on the
// ingestion path: callers log failures and continue.
type Store interface {
	// SaveWebhookPayload writes one raw payload and returns the storage key.
	SaveWebhookPayload(ctx context.Context, source string, payload []byte) (string, error)
}

// S3Archiver writes payloads to an S3 bucket under webhooks/<source>/.
type S3Archiver struct {
	client *s3.Client
	bucket string
}

// NewS3Archiver creates an S3-backed archiver. profile selects a shared
// AWS config profile; leave it empty for the default credential chain.
func NewS3Archiver(ctx context.Context, bucket, region, profile string) (*S3Archiver, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Archiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

func (a *S3Archiver) SaveWebhookPayload(ctx context.Context, source string, payload []byte) (string, error) {
	key := fmt.Sprintf("webhooks/%s/%s_%s.json",
		source, time.Now().UTC().Format("20060102T150405Z"), uuid.New().String())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive payload: %w", err)
	}
	return key, nil
}

// Noop discards payloads. Used when no archive bucket is configured.
type Noop struct{}

func (Noop) SaveWebhookPayload(context.Context, string, []byte) (string, error) {
	return "", nil
}
