package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"streamhive/internal/logging"
	"streamhive/internal/metrics"
)

// s3API is the subset of the S3 client used by this backend, extracted
// so tests can substitute a fake.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores objects in an AWS S3 bucket.
type S3 struct {
	client s3API
	bucket string
	region string
}

// NewS3 creates an S3 storage backend for the given bucket. AWS
// credentials and region are loaded from the default config chain
// (environment, shared config, instance role).
func NewS3(ctx context.Context, bucket string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &S3{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: cfg.Region,
	}, nil
}

// contentTypeFor guesses a Content-Type from the filename extension.
// HLS playlists and segments get their IANA-registered types so browsers
// and CDNs treat them correctly.
func contentTypeFor(filename string) string {
	switch ext := filepath.Ext(filename); ext {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}

// Upload stores content at folder/filename in the bucket.
func (s *S3) Upload(ctx context.Context, content []byte, folder, filename string) (Key, error) {
	key := path.Join(folder, filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentTypeFor(filename)),
	})
	if err != nil {
		metrics.StorageOpsTotal.WithLabelValues("s3", "upload", "error").Inc()
		return "", fmt.Errorf("%w: s3 put %s: %v", ErrWrite, key, err)
	}

	metrics.StorageOpsTotal.WithLabelValues("s3", "upload", "success").Inc()
	metrics.StorageUploadBytes.WithLabelValues("s3").Add(float64(len(content)))
	logging.Debug("Uploaded s3://%s/%s (%d bytes)", s.bucket, key, len(content))

	return Key(key), nil
}

// Delete removes the object at key. S3 DeleteObject succeeds for
// missing keys, which gives the required idempotence for free.
func (s *S3) Delete(ctx context.Context, key Key) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(string(key)),
	})
	if err != nil {
		metrics.StorageOpsTotal.WithLabelValues("s3", "delete", "error").Inc()
		return fmt.Errorf("failed to delete s3://%s/%s: %w", s.bucket, key, err)
	}

	metrics.StorageOpsTotal.WithLabelValues("s3", "delete", "success").Inc()
	return nil
}

// ResolveURL maps a key to its virtual-hosted-style bucket URL.
func (s *S3) ResolveURL(key Key) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
