package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

var ErrUnsupportedImage = errors.New("storage: unsupported image type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AllowedImageType reports whether contentType may be uploaded.
func AllowedImageType(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
	// PublicBaseURL prefixes object keys in returned URLs, e.g. a CDN.
	PublicBaseURL string
	Prefix        string
}

// S3Uploader stores dashboard images in a bucket and returns their public
// URL.
type S3Uploader struct {
	Client  S3API
	Bucket  string
	BaseURL string
	Prefix  string
	now     func() time.Time
}

func NewS3Uploader(client S3API, bucket, baseURL, prefix string) *S3Uploader {
	return &S3Uploader{
		Client:  client,
		Bucket:  bucket,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Prefix:  strings.Trim(prefix, "/"),
		now:     time.Now,
	}
}

// NewS3Client builds an S3 client, using static credentials when given and
// the default AWS chain otherwise.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	if u, err := url.Parse(cfg.PublicBaseURL); err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("s3 public base url must be absolute, got %q", cfg.PublicBaseURL)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

func (u *S3Uploader) UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
	}

	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	key := fmt.Sprintf("%s-%d-%s%s", base, u.now().Unix(), uuid.NewString()[:8], ext)
	if u.Prefix != "" {
		key = u.Prefix + "/" + key
	}

	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to s3: %w", key, err)
	}
	return u.BaseURL + "/" + escapeKey(key), nil
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
