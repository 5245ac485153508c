package s3fs

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/fstypes"
	"github.com/bucketlab/s3fs/internal/validation"
)

// ListObjects lists every object under prefix, following pagination until
// the listing is exhausted. An empty prefix lists the whole bucket.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string) ([]fstypes.Object, error) {
	if err := validation.BucketName(bucket); err != nil {
		return nil, err
	}

	var objects []fstypes.Object
	var continuationToken *string

	for {
		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			ContinuationToken: continuationToken,
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		out, err := c.api.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, errors.New("list", errors.Classify(err)).WithBucket(bucket)
		}

		for _, obj := range out.Contents {
			objects = append(objects, fstypes.Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         aws.ToString(obj.ETag),
				StorageClass: string(obj.StorageClass),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuationToken = out.NextContinuationToken
	}

	return objects, nil
}

// ListKeys lists every object key under prefix.
func (c *Client) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	objects, err := c.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(objects))
	for i, obj := range objects {
		keys[i] = obj.Key
	}
	return keys, nil
}

// GetMetadata retrieves object metadata without fetching the body.
func (c *Client) GetMetadata(ctx context.Context, bucket, key string) (*fstypes.ObjectMetadata, error) {
	if err := validation.BucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ObjectKey(key); err != nil {
		return nil, err
	}

	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("getMetadata", errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}

	return &fstypes.ObjectMetadata{
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		LastModified:  aws.ToTime(out.LastModified),
		ETag:          aws.ToString(out.ETag),
		StorageClass:  string(out.StorageClass),
		Metadata:      out.Metadata,
	}, nil
}

// Exists reports whether the object exists. A missing object is not an
// error; any other failure is.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.GetMetadata(ctx, bucket, key)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Get fetches an object's full body into memory.
// For large payloads prefer DownloadFile, which streams in chunks.
func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := validation.BucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ObjectKey(key); err != nil {
		return nil, err
	}

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("get", errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New("get", errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}
	return data, nil
}

// Put stores data under key in a single request.
// For large payloads prefer UploadFile, which goes multipart.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...fstypes.TransferOption) error {
	if err := validation.BucketName(bucket); err != nil {
		return err
	}
	if err := validation.ObjectKey(key); err != nil {
		return err
	}

	cfg := &fstypes.TransferConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if cfg.ContentType != "" {
		input.ContentType = aws.String(cfg.ContentType)
	}
	if len(cfg.Metadata) > 0 {
		input.Metadata = cfg.Metadata
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return errors.New("put", errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}
	return nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := validation.BucketName(bucket); err != nil {
		return err
	}
	if err := validation.ObjectKey(key); err != nil {
		return err
	}

	if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return errors.New("delete", errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}
	return nil
}
