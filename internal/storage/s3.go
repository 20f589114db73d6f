// Package storage persists final report documents in an S3-compatible
// bucket. Operations return results so callers compose them into the
// pipeline without a separate error channel.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/config"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/result"
)

const signedURLExpiry = 24 * time.Hour

// S3Storage implements the storage collaborator against S3 or any
// S3-compatible endpoint (R2, minio).
type S3Storage struct {
	s3Client  *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

func NewS3Storage(cfg *config.StorageConfig) (*S3Storage, error) {
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("storage configuration incomplete")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: cfg.Endpoint}, nil
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		s3Client:  s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
	}, nil
}

// Save writes the document and yields its public URL.
func (s *S3Storage) Save(ctx context.Context, filename, content string) result.Result[string] {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(filename),
		Body:        strings.NewReader(content),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return result.Failure[string](fmt.Errorf("failed to save %s: %w", filename, err))
	}
	return result.Success(s.objectURL(filename))
}

// Get reads a stored document back.
func (s *S3Storage) Get(ctx context.Context, filename string) result.Result[string] {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(filename),
	})
	if err != nil {
		return result.Failure[string](fmt.Errorf("failed to get %s: %w", filename, err))
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return result.Failure[string](fmt.Errorf("failed to read %s: %w", filename, err))
	}
	return result.Success(string(body))
}

// GetURL yields a presigned URL for temporary download access.
func (s *S3Storage) GetURL(ctx context.Context, filename string) result.Result[string] {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(filename),
	}, s3.WithPresignExpires(signedURLExpiry))
	if err != nil {
		return result.Failure[string](fmt.Errorf("failed to presign %s: %w", filename, err))
	}
	return result.Success(req.URL)
}

func (s *S3Storage) objectURL(filename string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", s.publicURL, filename)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, filename)
}
