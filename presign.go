package s3fs

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/fstypes"
	"github.com/bucketlab/s3fs/internal/validation"
)

// PresignedURL produces a time-limited URL granting one HTTP method on one
// object, without exposing credentials. direction selects GET (download) or
// PUT (upload); contentType, when non-empty, is bound into an upload URL so
// the eventual PUT must match it.
func (c *Client) PresignedURL(
	ctx context.Context,
	bucket, key string,
	ttl time.Duration,
	direction fstypes.PresignDirection,
	contentType string,
) (string, error) {
	if err := validation.BucketName(bucket); err != nil {
		return "", err
	}
	if err := validation.ObjectKey(key); err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", errors.New("presign", errors.ErrInvalidInput).
			WithBucket(bucket).WithKey(key).
			WithMessage("expiry must be positive")
	}
	if c.presign == nil {
		return "", errors.New("presign", errors.ErrConfigurationMissing).
			WithBucket(bucket).WithKey(key).
			WithMessage("client has no presigner configured")
	}

	expires := s3.WithPresignExpires(ttl)

	switch direction {
	case fstypes.PresignDownload:
		req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}, expires)
		if err != nil {
			return "", errors.New("presign", errors.Classify(err)).WithBucket(bucket).WithKey(key)
		}
		return req.URL, nil

	case fstypes.PresignUpload:
		input := &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}
		if contentType != "" {
			input.ContentType = aws.String(contentType)
		}
		req, err := c.presign.PresignPutObject(ctx, input, expires)
		if err != nil {
			return "", errors.New("presign", errors.Classify(err)).WithBucket(bucket).WithKey(key)
		}
		return req.URL, nil

	default:
		return "", errors.New("presign", errors.ErrInvalidInput).
			WithBucket(bucket).WithKey(key).
			WithMessage("direction must be GET or PUT")
	}
}
