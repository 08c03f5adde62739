package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/adpilot/internal/config"
)

// S3MediaStore keeps creative assets in an S3 bucket. Objects are written
// publicly readable so the ad platform can fetch them during creative
// creation.
type S3MediaStore struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3MediaStore creates an S3-backed media store.
func NewS3MediaStore(ctx context.Context, cfg config.StorageConfig) (*S3MediaStore, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AWSProfile != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
			awsconfig.WithSharedConfigProfile(cfg.AWSProfile),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3MediaStore{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
		region: cfg.AWSRegion,
	}, nil
}

func (s *S3MediaStore) Upload(ctx context.Context, shop, filename, contentType string, body io.Reader) (string, error) {
	ref := mediaRef(shop, filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ref),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading media to S3: %w", err)
	}
	return ref, nil
}

func (s *S3MediaStore) ResolveURL(_ context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty media ref")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, ref), nil
}

func (s *S3MediaStore) Delete(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("deleting media from S3: %w", err)
	}
	return nil
}
