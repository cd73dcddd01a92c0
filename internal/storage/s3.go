// Package storage persists report files to S3.
package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store uploads local files to S3 buckets. Credentials come from the
// deployment environment (env vars, instance profile, shared config).
type S3Store struct {
	uploader *manager.Uploader
}

func NewS3Store(ctx context.Context, region string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{uploader: manager.NewUploader(client)}, nil
}

// Upload sends the file at localPath to bucket/key.
func (s *S3Store) Upload(ctx context.Context, localPath, bucket, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// URI returns the fully qualified storage location for bucket/key.
func (s *S3Store) URI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}
