package policydoc

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// s3Loader implements Loader for reading the policy document from AWS S3.
type s3Loader struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a new S3-based policy document loader.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "s3-policydoc-loader").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 loader initialised")

	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger,
	}, nil
}

// Load reads and parses the policy document stored under key. The key
// should be the full S3 key including any prefix.
func (l *s3Loader) Load(ctx context.Context, key string) (*Document, error) {
	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Msg("loading policy document from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	raw, err := io.ReadAll(result.Body)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("error reading policy document from S3")
		return nil, fmt.Errorf("error reading policy document from S3 %s: %w", key, err)
	}

	doc := Parse(string(raw))

	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Int("sections", len(doc.Statuses())).
		Msg("policy document loaded from S3")

	return doc, nil
}

// fallbackLoader tries S3 first, then falls back to the local file system.
type fallbackLoader struct {
	s3Loader   Loader
	fileLoader Loader
	s3Prefix   string
	logger     zerolog.Logger
	s3Enabled  bool
}

// NewFallbackLoader creates a loader that tries S3 first, then falls back
// to the local file system. If s3Loader is nil, only the file loader is
// used.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		s3Prefix:   s3Prefix,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "fallback-loader").Logger(),
	}
}

// Load attempts to load from S3 first, then falls back to the local file
// system. For S3 the prefix is prepended to filePath; locally filePath is
// used as-is.
func (l *fallbackLoader) Load(ctx context.Context, filePath string) (*Document, error) {
	if l.s3Enabled && l.s3Loader != nil {
		s3Key := l.s3Prefix + filePath

		doc, err := l.s3Loader.Load(ctx, s3Key)
		if err == nil {
			return doc, nil
		}

		l.logger.Warn().
			Err(err).
			Str("s3_key", s3Key).
			Msg("failed to load from S3, falling back to local file system")
	}

	return l.fileLoader.Load(ctx, filePath)
}
