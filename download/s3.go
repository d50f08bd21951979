package download

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/use-agent/harvest/models"
)

// S3API is the subset of the S3 client the store needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads downloads to an S3 bucket under a key prefix.
type S3Store struct {
	client S3API
	bucket string
	region string
	prefix string
}

// NewS3Store creates an S3Store from an AWS SDK config.
func NewS3Store(cfg aws.Config, bucket, region, prefix string) *S3Store {
	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
		prefix: strings.Trim(prefix, "/"),
	}
}

// NewS3StoreWithClient creates an S3Store around an existing client.
func NewS3StoreWithClient(client S3API, bucket, region, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		region: region,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Save uploads the file and returns its public object URL.
func (s *S3Store) Save(ctx context.Context, filename, contentType string, data []byte) (*models.DownloadResult, error) {
	key := filename
	if s.prefix != "" {
		key = s.prefix + "/" + filename
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 put object: %w", err)
	}

	objectURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	return models.DownloadSuccessS3(objectURL, int64(len(data)), contentType), nil
}
