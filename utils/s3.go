package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

type S3ImageStore struct {
	client    *s3.Client
	bucket    string
	region    string
	publicURL string
	breaker   *gobreaker.CircuitBreaker[*s3.PutObjectOutput]
}

// NewS3ImageStore uploads into bucket; publicURL (CloudFront) prefixes returned links when set.
func NewS3ImageStore(cfg aws.Config, bucket, publicURL string) *S3ImageStore {
	return &S3ImageStore{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    cfg.Region,
		publicURL: strings.TrimRight(publicURL, "/"),
		breaker:   NewBreaker[*s3.PutObjectOutput]("s3"),
	}
}

// Upload stores the image under prefix/ and returns its public URL.
func (s *S3ImageStore) Upload(ctx context.Context, img *DataURI, prefix string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), img.Extension())

	_, err := s.breaker.Execute(func() (*s3.PutObjectOutput, error) {
		return s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(img.Data),
			ContentType: aws.String(img.ContentType),
			ACL:         s3types.ObjectCannedACLPublicRead,
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", s.publicURL, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
