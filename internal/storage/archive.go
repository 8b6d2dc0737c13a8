package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"garment-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// Archiver keeps a copy of generated slips in S3 compatible object storage
// (Cloudflare R2 in production).
type Archiver struct {
	client *s3.Client
	bucket string
}

// NewArchiver returns nil when storage is disabled. A nil *Archiver is safe to use.
func NewArchiver(ctx context.Context, cfg *config.Config) (*Archiver, error) {
	st := cfg.Storage
	if !st.Enabled {
		return nil, nil
	}
	if st.Bucket == "" || st.AccessKey == "" || st.SecretKey == "" {
		return nil, fmt.Errorf("storage enabled but bucket or credentials missing")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			st.AccessKey,
			st.SecretKey,
			"",
		)),
		awsconfig.WithRegion(st.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if st.Endpoint != "" {
			o.BaseEndpoint = aws.String(st.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Archiver{client: client, bucket: st.Bucket}, nil
}

func (a *Archiver) Enabled() bool {
	return a != nil && a.client != nil
}

// SlipKey is the object key for a settlement slip, grouped by month
func SlipKey(settlementNumber string, settlementDate time.Time) string {
	return fmt.Sprintf("slips/%s/%s.pdf", settlementDate.Format("2006-01"), settlementNumber)
}

// Put uploads body under key. It is a no-op on a disabled archiver.
func (a *Archiver) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if !a.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		config.LogError(config.GetLogger(), "storage", "Put", "upload failed", logrus.Fields{"key": key, "bucket": a.bucket}, err)
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
