package s3fs

import (
	"context"

	"github.com/bucketlab/s3fs/fstypes"
	"github.com/bucketlab/s3fs/internal/validation"
)

// UploadFile uploads a local file to bucket/key, blocking until the
// transfer reaches a terminal state. Files larger than one chunk go
// multipart; cancel via ctx takes effect at the next chunk boundary.
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, localPath string,
	opts ...fstypes.TransferOption,
) (*fstypes.UploadResult, error) {
	if err := validation.BucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ObjectKey(key); err != nil {
		return nil, err
	}

	cfg := &fstypes.TransferConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return c.engine.Upload(ctx, bucket, key, localPath, cfg)
}

// DownloadFile downloads bucket/key to a local file, blocking until the
// transfer reaches a terminal state. The destination is written atomically:
// it only ever holds either its previous contents or the complete payload.
func (c *Client) DownloadFile(
	ctx context.Context,
	bucket, key, localPath string,
	opts ...fstypes.TransferOption,
) (*fstypes.DownloadResult, error) {
	if err := validation.BucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ObjectKey(key); err != nil {
		return nil, err
	}

	cfg := &fstypes.TransferConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return c.engine.Download(ctx, bucket, key, localPath, cfg)
}
