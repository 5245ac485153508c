package s3fs

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/internal/validation"
)

// dirMarkerContentType marks zero-byte objects that emulate directories.
const dirMarkerContentType = "application/x-directory"

// CreateDirectory creates a directory marker, a zero-byte object whose key
// ends in "/". The trailing slash is appended when missing. Creating a
// directory that already exists is not an error.
func (c *Client) CreateDirectory(ctx context.Context, bucket, path string) error {
	if err := validation.BucketName(bucket); err != nil {
		return err
	}
	if err := validation.ObjectKey(path); err != nil {
		return err
	}

	key := path
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}

	if _, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
		ContentType:   aws.String(dirMarkerContentType),
	}); err != nil {
		return errors.New("createDirectory", errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}

	c.log.Debug("directory created", "bucket", bucket, "key", key)
	return nil
}

// DeleteDirectory deletes a directory marker, but only when nothing else
// lives under its prefix. When other objects exist the marker is left in
// place and ErrDirectoryNotEmpty is returned.
func (c *Client) DeleteDirectory(ctx context.Context, bucket, path string) error {
	if err := validation.BucketName(bucket); err != nil {
		return err
	}
	if err := validation.ObjectKey(path); err != nil {
		return err
	}

	key := path
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}

	// Two keys are enough to tell an empty directory from a populated one.
	out, err := c.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(key),
		MaxKeys: aws.Int32(2),
	})
	if err != nil {
		return errors.New("deleteDirectory", errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}

	for _, obj := range out.Contents {
		if aws.ToString(obj.Key) != key {
			return errors.New("deleteDirectory", errors.ErrDirectoryNotEmpty).
				WithBucket(bucket).WithKey(key)
		}
	}

	if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return errors.New("deleteDirectory", errors.Classify(err)).WithBucket(bucket).WithKey(key)
	}

	c.log.Debug("directory deleted", "bucket", bucket, "key", key)
	return nil
}

// Rename moves an object to a new key via server-side copy then delete.
// The copy carries metadata over; the source is only deleted after the
// copy succeeds, so a failed rename never loses the object.
func (c *Client) Rename(ctx context.Context, bucket, oldKey, newKey string) error {
	if err := validation.BucketName(bucket); err != nil {
		return err
	}
	if err := validation.ObjectKey(oldKey); err != nil {
		return err
	}
	if err := validation.ObjectKey(newKey); err != nil {
		return err
	}
	if oldKey == newKey {
		return errors.New("rename", errors.ErrInvalidInput).
			WithBucket(bucket).WithKey(oldKey).
			WithMessage("source and destination keys are identical")
	}

	// CopySource wants each path segment escaped but the slashes kept.
	segments := strings.Split(oldKey, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	copySource := bucket + "/" + strings.Join(segments, "/")
	if _, err := c.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(newKey),
		CopySource: aws.String(copySource),
	}); err != nil {
		return errors.New("rename", errors.Classify(err)).WithBucket(bucket).WithKey(oldKey)
	}

	if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(oldKey),
	}); err != nil {
		return errors.New("rename", errors.Classify(err)).WithBucket(bucket).WithKey(oldKey).
			WithMessage("copy succeeded but deleting the source failed")
	}

	c.log.Debug("object renamed", "bucket", bucket, "from", oldKey, "to", newKey)
	return nil
}
