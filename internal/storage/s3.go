package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

// S3Storage implements ObjectStorage against any S3-compatible endpoint.
type S3Storage struct {
	s3Client *s3.S3
	bucket   string
}

// Config holds configuration for the S3 storage adapter.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Region          string
}

// NewS3Storage creates a new S3 storage adapter.
func NewS3Storage(config *Config) (*S3Storage, error) {
	if config.AccessKeyID == "" || config.AccessKeySecret == "" {
		return nil, fmt.Errorf("S3 configuration is incomplete")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}

	awsConfig := &aws.Config{
		Region:      aws.String(config.Region),
		Credentials: credentials.NewStaticCredentials(config.AccessKeyID, config.AccessKeySecret, ""),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess := session.Must(session.NewSession(awsConfig))

	return &S3Storage{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
	}, nil
}

// Put uploads a derivative under the given key and returns its locator.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte, contentType string) (domain.StoredAsset, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return domain.StoredAsset{}, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return domain.StoredAsset{
		Key:       key,
		URL:       fmt.Sprintf("s3://%s/%s", s.bucket, key),
		SizeBytes: int64(len(data)),
	}, nil
}

// Get downloads a previously stored object. Used when recognition runs on
// an already-uploaded receipt rather than inline at upload time.
func (s *S3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}
	return data, nil
}

// Presign returns a time-limited URL for direct client access to a
// stored derivative.
func (s *S3Storage) Presign(key string, ttl time.Duration) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}
