package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Seams for tests.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, expires time.Duration) (*v4.PresignedHTTPRequest, error) {
		return s3.NewPresignClient(c).PresignGetObject(ctx, in, s3.WithPresignExpires(expires))
	}

	newUUID = uuid.New
)

// S3Config points the uploader at an S3-compatible bucket.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	LinkExpires  time.Duration
}

// Uploader stores CSV reports in object storage.
type Uploader struct {
	cfg S3Config
	now func() time.Time
}

func NewUploader(cfg S3Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is not configured")
	}
	if cfg.LinkExpires <= 0 {
		cfg.LinkExpires = 15 * time.Minute
	}
	return &Uploader{cfg: cfg, now: time.Now}, nil
}

// ReportKey returns reports/YYYY/M/D/<uuid>/<file>.
func (u *Uploader) ReportKey(file string) string {
	d := u.now()
	return fmt.Sprintf("reports/%d/%d/%d/%v/%s", d.Year(), d.Month(), d.Day(), newUUID(), file)
}

func (u *Uploader) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(u.cfg.Region)}
	if u.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(u.cfg.AccessKey, u.cfg.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if u.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(u.cfg.Endpoint)
		}
		o.UsePathStyle = u.cfg.UsePathStyle
	}), nil
}

// Upload writes the report as CSV to the bucket and returns the object key
// and a presigned download link.
func (u *Uploader) Upload(ctx context.Context, report *Report) (string, string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, report); err != nil {
		return "", "", fmt.Errorf("encode report: %w", err)
	}

	c, err := u.client(ctx)
	if err != nil {
		return "", "", fmt.Errorf("s3 config: %w", err)
	}

	key := u.ReportKey(FileName(report.Kind))
	err = putObject(c, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", "", fmt.Errorf("upload report: %w", err)
	}

	req, err := presignGetObject(c, ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
	}, u.cfg.LinkExpires)
	if err != nil {
		return key, "", fmt.Errorf("presign report: %w", err)
	}

	return key, req.URL, nil
}
