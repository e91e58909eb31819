package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"soraprobe/internal/report"
)

// S3Config points report uploads at a bucket. Endpoint is only set for
// S3-compatible stores and switches to path-style addressing.
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store uploads reports as <prefix>/reports/<run_id>.json.
type S3Store struct {
	bucket string
	prefix string
	up     uploader
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	opts := s3.Options{Region: cfg.Region}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	client := s3.New(opts)
	return newS3Store(cfg.Bucket, cfg.Prefix, manager.NewUploader(client)), nil
}

func newS3Store(bucket, prefix string, up uploader) *S3Store {
	return &S3Store{bucket: bucket, prefix: strings.Trim(prefix, "/"), up: up}
}

func (s *S3Store) key(runID string) string {
	return path.Join(s.prefix, "reports", runID+".json")
}

func (s *S3Store) SaveReport(ctx context.Context, rep report.Report) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if rep.RunID == "" {
		return "", errors.New("storage: run id is required")
	}
	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: encode report: %w", err)
	}
	key := s.key(rep.RunID)
	_, err = s.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s to bucket %s: %w", key, s.bucket, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
