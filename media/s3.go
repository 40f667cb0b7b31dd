package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Config locates the bucket. Endpoint is set for S3-compatible services
// and switches to path-style addressing.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Uploader is the Uploader backed by an S3 bucket.
type S3Uploader struct {
	api     objectAPI
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewS3Uploader builds the S3 client from cfg.
func NewS3Uploader(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Uploader, error) {
	if cfg.Bucket == "" || cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("%w: bucket and public base url are required", ErrInvalidUpload)
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, cfg.Bucket, cfg.PublicBaseURL, logger), nil
}

func newS3Uploader(api objectAPI, bucket, baseURL string, logger *zap.Logger) *S3Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Uploader{
		api:     api,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Upload writes every image and returns their URLs in input order.
func (u *S3Uploader) Upload(ctx context.Context, group string, images ...Image) ([]string, error) {
	if err := validateBatch(group, images); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(images))
	for _, img := range images {
		key := objectKey(group, img)
		_, err := u.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(key),
			Body:        img.Body,
			ContentType: aws.String(contentType(img)),
		})
		if err != nil {
			u.rollback(ctx, keys)
			return nil, fmt.Errorf("%w: %s: %v", ErrUploadFailed, img.Name, err)
		}
		keys = append(keys, key)
	}

	urls := make([]string, len(keys))
	for i, key := range keys {
		urls[i] = u.baseURL + "/" + key
	}
	return urls, nil
}

// Delete removes the object behind url.
func (u *S3Uploader) Delete(ctx context.Context, url string) error {
	key, ok := keyFromURL(u.baseURL, url)
	if !ok {
		return fmt.Errorf("%w: %q is not a managed url", ErrDeleteFailed, url)
	}
	_, err := u.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (u *S3Uploader) rollback(ctx context.Context, keys []string) {
	for _, key := range keys {
		_, err := u.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			u.logger.Warn("orphaned media object after failed batch",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}
