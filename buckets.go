package s3fs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/fstypes"
	"github.com/bucketlab/s3fs/internal/validation"
)

// ListBuckets lists every bucket the credentials can see.
func (c *Client) ListBuckets(ctx context.Context) ([]fstypes.Bucket, error) {
	out, err := c.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, errors.New("listBuckets", errors.Classify(err))
	}

	buckets := make([]fstypes.Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		buckets = append(buckets, fstypes.Bucket{
			Name:      aws.ToString(b.Name),
			CreatedAt: aws.ToTime(b.CreationDate),
		})
	}
	return buckets, nil
}

// CreateBucket creates a bucket. Object lock, when wanted, must be enabled
// here; it cannot be turned on for an existing bucket.
func (c *Client) CreateBucket(ctx context.Context, bucket string, opts ...fstypes.BucketOption) error {
	if err := validation.BucketName(bucket); err != nil {
		return err
	}

	cfg := &fstypes.BucketConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	if cfg.ObjectLock {
		input.ObjectLockEnabledForBucket = aws.Bool(true)
	}
	if cfg.Region != "" && cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &awstypes.CreateBucketConfiguration{
			LocationConstraint: awstypes.BucketLocationConstraint(cfg.Region),
		}
	}

	if _, err := c.api.CreateBucket(ctx, input); err != nil {
		return errors.New("createBucket", errors.Classify(err)).WithBucket(bucket)
	}
	c.log.Info("bucket created", "bucket", bucket, "objectLock", cfg.ObjectLock)
	return nil
}

// DeleteBucket deletes an empty bucket.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	if err := validation.BucketName(bucket); err != nil {
		return err
	}

	if _, err := c.api.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		return errors.New("deleteBucket", errors.Classify(err)).WithBucket(bucket)
	}
	c.log.Info("bucket deleted", "bucket", bucket)
	return nil
}
