// Package storage uploads approved clips to the Common Voice bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type BucketConfig struct {
	Bucket   string
	Region   string
	Endpoint string // optional, for S3-compatible stores
	Prefix   string
}

type BucketStore struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewBucketStore(ctx context.Context, cfg BucketConfig) (*BucketStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &BucketStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Put writes data under prefix+name and returns the full object key.
func (b *BucketStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := b.prefix + name
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s failed: %w", key, err)
	}
	return key, nil
}

// Check verifies the bucket is reachable with the loaded credentials.
func (b *BucketStore) Check(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)})
	if err != nil {
		return fmt.Errorf("s3 head bucket %s failed: %w", b.bucket, err)
	}
	return nil
}
