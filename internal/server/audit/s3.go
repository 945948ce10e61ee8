package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/organlink/internal/server/models"
)

// ObjectPutter is the part of *s3.Client the archive sink needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink archives each record as its own JSON object under
// audit/YYYY/MM/DD/<id>.json. Objects are written with If-None-Match: *
// so an existing record is never overwritten.
type S3Sink struct {
	client ObjectPutter
	bucket string
}

// NewS3Sink returns a sink writing one object per record to bucket.
func NewS3Sink(client ObjectPutter, bucket string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket}
}

// ObjectKey returns the archive key of rec.
func ObjectKey(rec *models.AuditRecord) string {
	t := rec.CreatedAt.UTC()
	return fmt.Sprintf("audit/%04d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), rec.ID)
}

// Append writes rec under ObjectKey(rec). An existing object is never
// overwritten.
func (s *S3Sink) Append(ctx context.Context, rec *models.AuditRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode audit record: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(ObjectKey(rec)),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		return fmt.Errorf("put audit object: %w", err)
	}
	return nil
}

// S3Settings locates an S3-compatible archive (AWS or MinIO).
type S3Settings struct {
	AccessKey    string
	SecretKey    string
	Region       string
	BaseEndpoint string
}

// loadDefaultAWSConfig is a seam for tests.
var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Client builds a path-style S3 client with static credentials.
func NewS3Client(ctx context.Context, st S3Settings) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(st.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(st.AccessKey, st.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if st.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(st.BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}
