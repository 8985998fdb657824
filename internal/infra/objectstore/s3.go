// Package objectstore holds vehicle documents: S3-compatible buckets in
// production, a local directory in development.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/port"
)

var tracer = otel.Tracer("objectstore")

// S3Config configures an S3-compatible bucket (AWS, MinIO, R2...).
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Store implements port.BlobStore.
type S3Store struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewS3 builds the client. Static credentials are used when given,
// otherwise the default AWS credential chain.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("objectstore: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: aws config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("objectstore: head bucket: %w", err)
	}

	s.logger.Info("creating document bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("objectstore: create bucket: %w", err)
	}
	return nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	ctx, span := tracer.Start(ctx, "S3.Put")
	defer span.End()
	span.SetAttributes(attribute.String("blob.key", key), attribute.Int64("blob.size", size))

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return &domain.ErrExternalService{Service: "s3/put", Err: err}
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, *port.BlobInfo, error) {
	ctx, span := tracer.Start(ctx, "S3.Get")
	defer span.End()
	span.SetAttributes(attribute.String("blob.key", key))

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil, &domain.ErrNotFound{Resource: "document", ID: key}
		}
		return nil, nil, &domain.ErrExternalService{Service: "s3/get", Err: err}
	}
	return out.Body, &port.BlobInfo{
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "S3.Delete")
	defer span.End()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "s3/delete", Err: err}
	}
	return nil
}
