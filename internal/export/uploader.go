package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// ObjectStore is the subset of the S3 client used by the uploader. Tests
// inject a stub implementation.
type ObjectStore interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds an S3 client from the ambient AWS configuration.
func NewClient(ctx context.Context, region string) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("export: load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// Uploader writes formatted transcripts to an S3 bucket.
type Uploader struct {
	client ObjectStore
	bucket string
	prefix string
	log    *slog.Logger
}

// NewUploader returns an Uploader targeting the given bucket and key prefix.
func NewUploader(client ObjectStore, bucket, prefix string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		log: logger.With(
			"component", "export.Uploader",
			"bucket", bucket,
		),
	}
}

// Upload stores the transcript under transcript_<runID>.txt and returns the
// object's S3 URI. An empty runID gets a generated one. Uploads are
// idempotent per run: if the object already exists it is left untouched.
func (u *Uploader) Upload(ctx context.Context, runID, transcript string) (string, error) {
	if strings.TrimSpace(runID) == "" {
		runID = uuid.NewString()
	}
	key := path.Join(u.prefix, fmt.Sprintf("transcript_%s.txt", runID))
	location := fmt.Sprintf("s3://%s/%s", u.bucket, key)

	exists, err := u.objectExists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("export: check %s: %w", location, err)
	}
	if exists {
		u.log.Info("transcript already uploaded, skipping", "key", key)
		return location, nil
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &u.bucket,
		Key:    &key,
		Body:   strings.NewReader(transcript),
	})
	if err != nil {
		return "", fmt.Errorf("export: put %s: %w", location, err)
	}

	u.log.Info("transcript uploaded", "key", key, "bytes", len(transcript))
	return location, nil
}

func (u *Uploader) objectExists(ctx context.Context, key string) (bool, error) {
	_, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &u.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isNotFoundError determines if an error from AWS indicates a "not found"
// condition.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NotFoundException", "NoSuchKey", "404":
			return true
		}
	}
	return strings.Contains(err.Error(), "NotFound:")
}
