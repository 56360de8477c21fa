package attachment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type getObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds configuration for S3Source.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // Optional custom endpoint (MinIO, R2, LocalStack).
	Key      string
	Name     string // Filename shown to recipients; defaults to the key's base name.
}

// S3Source reads one object from an S3-compatible bucket.
type S3Source struct {
	client getObjectAPI
	bucket string
	key    string
	name   string
}

// NewS3Source loads the default AWS config chain and builds an S3Source.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if strings.TrimSpace(cfg.Bucket) == "" || strings.TrimSpace(cfg.Key) == "" {
		return nil, errors.New("attachment: s3 bucket and key are required")
	}
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
	return newS3Source(client, cfg), nil
}

func newS3Source(client getObjectAPI, cfg S3Config) *S3Source {
	return &S3Source{
		client: client,
		bucket: cfg.Bucket,
		key:    cfg.Key,
		name:   displayName(cfg.Name, cfg.Key),
	}
}

// Fetch downloads the configured object.
func (s *S3Source) Fetch(ctx context.Context) (File, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("s3 get failed for %s: %w", s.key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := readObject(out.Body, maxObjectBytes)
	if err != nil {
		if errors.Is(err, ErrTooLarge) || errors.Is(err, ErrEmpty) {
			return File{}, err
		}
		return File{}, fmt.Errorf("s3 read failed for %s: %w", s.key, err)
	}

	ct := aws.ToString(out.ContentType)
	if ct == "" || ct == "binary/octet-stream" || ct == "application/octet-stream" {
		ct = contentTypeFor(s.name)
	}
	return File{Name: s.name, ContentType: ct, Data: data}, nil
}
