package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/config"
	"audio-articles/article-api/internal/domain/article"
	"audio-articles/article-api/internal/infrastructure/metrics"
	"audio-articles/article-api/internal/utils/articleid"
)

var errStorageDisabled = errors.New("article storage backend is not configured; set ARTICLE_S3_* to enable uploads")

// S3Storage stores article assets in S3-compatible object storage. Delivery
// URLs are built from the configured public base, so the bucket must be
// fronted by a public endpoint or CDN.
type S3Storage struct {
	bucket    string
	publicURL string
	client    *s3.Client
	log       zerolog.Logger
	disabled  bool
}

func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	storage := &S3Storage{
		bucket:    strings.TrimSpace(cfg.S3Bucket),
		publicURL: strings.TrimRight(strings.TrimSpace(cfg.S3PublicURL), "/"),
		log:       logger,
	}

	accessKey := strings.TrimSpace(cfg.S3AccessKeyID)
	secretKey := strings.TrimSpace(cfg.S3SecretKey)
	if storage.bucket == "" || accessKey == "" || secretKey == "" {
		logger.Warn().Msg("ARTICLE_S3_BUCKET or credentials are not set; asset uploads will be disabled until configured")
		storage.disabled = true
		return storage, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.S3Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.S3Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.S3Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	storage.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})
	return storage, nil
}

func (s *S3Storage) ensureEnabled() error {
	if s.disabled {
		return errStorageDisabled
	}
	return nil
}

// Put uploads asset bytes under a generated key and returns the public URL.
// The key doubles as the provider ID for later deletion.
func (s *S3Storage) Put(ctx context.Context, data []byte, folder string, kind article.AssetKind) (article.Asset, error) {
	if err := s.ensureEnabled(); err != nil {
		return article.Asset{}, err
	}

	detected := mimetype.Detect(data)
	key := fmt.Sprintf("%s/%s%s", folder, articleid.New(), detected.Extension())

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(detected.String()),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		metrics.RecordStorageOperation("put", "failure")
		return article.Asset{}, err
	}
	metrics.RecordStorageOperation("put", "success")

	return article.Asset{
		URL:        s.objectURL(key),
		ProviderID: key,
	}, nil
}

// Delete removes a stored object by its key.
func (s *S3Storage) Delete(ctx context.Context, providerID string, kind article.AssetKind) error {
	if err := s.ensureEnabled(); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(providerID),
	})
	if err != nil {
		metrics.RecordStorageOperation("delete", "failure")
		return err
	}
	metrics.RecordStorageOperation("delete", "success")
	return nil
}

// Health performs a simple HeadBucket request.
func (s *S3Storage) Health(ctx context.Context) error {
	if s.disabled {
		return nil
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func (s *S3Storage) objectURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
