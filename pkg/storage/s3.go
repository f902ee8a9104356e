package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/JaimeStill/speakeval/pkg/lifecycle"
)

// ObjectAPI is the subset of the S3 client the backend uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type s3Store struct {
	client ObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3 builds an S3 client from cfg.S3. Static credentials are used when
// both keys are set; otherwise requests are sent anonymously.
func NewS3(cfg *Config, logger *slog.Logger) (System, error) {
	if cfg.S3.Bucket == "" {
		return nil, fmt.Errorf("s3.bucket required")
	}

	opts := s3.Options{
		Region:       cfg.S3.Region,
		UsePathStyle: cfg.S3.UsePathStyle,
	}
	if cfg.S3.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3.Endpoint)
	}
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Source:          "speakeval-config",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}

	return NewS3WithClient(s3.New(opts), cfg.S3.Bucket, cfg.S3.Prefix, logger), nil
}

// NewS3WithClient wraps an existing client.
func NewS3WithClient(client ObjectAPI, bucket, prefix string, logger *slog.Logger) System {
	return &s3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With("system", "storage", "backend", "s3", "bucket", bucket),
	}
}

func (s *s3Store) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting storage")
	_, err := s.client.HeadBucket(lc.Context(), &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *s3Store) Store(ctx context.Context, key string, data []byte) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", k, err)
	}
	return nil
}

func (s *s3Store) Retrieve(ctx context.Context, key string) ([]byte, error) {
	k, err := s.key(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		return nil, mapS3Error(err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil && !errors.Is(mapS3Error(err), ErrNotFound) {
		return fmt.Errorf("s3 delete %s: %w", k, err)
	}
	return nil
}

func (s *s3Store) Validate(ctx context.Context, key string) (bool, error) {
	k, err := s.key(key)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err == nil {
		return true, nil
	}
	if errors.Is(mapS3Error(err), ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *s3Store) key(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return s.prefix + clean, nil
}

func mapS3Error(err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return ErrNotFound
	}
	return err
}
