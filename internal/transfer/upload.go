package transfer

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/fstypes"
)

// Upload transfers a local file to the store.
// Files no larger than one chunk are stored with a single atomic put;
// larger files go through a multipart upload, one part per chunk, with the
// cancel signal checked before each chunk read. Every non-success path of a
// multipart upload aborts it remotely so no incomplete upload is left
// accruing storage.
func (e *Engine) Upload(
	ctx context.Context,
	bucket, key, localPath string,
	cfg *fstypes.TransferConfig,
) (*fstypes.UploadResult, error) {
	start := time.Now()

	info, err := e.fs.Stat(localPath)
	if err != nil {
		return nil, fail(cfg, errors.New("upload", err).WithBucket(bucket).WithKey(key))
	}
	size := info.Size()

	file, err := e.fs.Open(localPath)
	if err != nil {
		return nil, fail(cfg, errors.New("upload", err).WithBucket(bucket).WithKey(key))
	}
	defer file.Close()

	if size <= e.chunk(cfg) {
		return e.uploadSingle(ctx, bucket, key, file, size, cfg, start)
	}
	return e.uploadMultipart(ctx, bucket, key, file, size, cfg, start)
}

// uploadSingle stores the whole payload with one put.
func (e *Engine) uploadSingle(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	size int64,
	cfg *fstypes.TransferConfig,
	start time.Time,
) (*fstypes.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fail(cfg, errors.New("upload", err).WithBucket(bucket).WithKey(key))
	}

	contentType := cfg.ContentType
	if contentType == "" {
		contentType = detectContentType(key, data)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}
	if len(cfg.Metadata) > 0 {
		input.Metadata = cfg.Metadata
	}

	output, err := e.api.PutObject(ctx, input)
	if err != nil {
		return nil, fail(cfg, errors.New("upload", errors.Classify(err)).WithBucket(bucket).WithKey(key))
	}

	if cfg.Tracker != nil {
		cfg.Tracker.Update(size, size)
		cfg.Tracker.Complete()
	}
	e.log.Debug("upload complete", "bucket", bucket, "key", key, "size", size)

	return &fstypes.UploadResult{
		Key:      key,
		Size:     size,
		ETag:     aws.ToString(output.ETag),
		Duration: time.Since(start),
	}, nil
}

// uploadMultipart streams the payload as numbered parts of one chunk each.
func (e *Engine) uploadMultipart(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	size int64,
	cfg *fstypes.TransferConfig,
	start time.Time,
) (*fstypes.UploadResult, error) {
	contentType := cfg.ContentType
	if contentType == "" {
		contentType = typeByExtension(key)
	}

	createInput := &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	if len(cfg.Metadata) > 0 {
		createInput.Metadata = cfg.Metadata
	}

	createOutput, err := e.api.CreateMultipartUpload(ctx, createInput)
	if err != nil {
		return nil, fail(cfg, errors.New("upload", errors.Classify(err)).WithBucket(bucket).WithKey(key))
	}
	uploadID := aws.ToString(createOutput.UploadId)

	chunkSize := e.chunk(cfg)
	buf := e.getBuffer(chunkSize)
	defer e.putBuffer(buf)

	var parts []awstypes.CompletedPart
	var sent int64
	partNumber := int32(1)

	for {
		// Cancellation is honored before each chunk read.
		if ctx.Err() != nil {
			e.abort(ctx, bucket, key, uploadID)
			return nil, fail(cfg, errors.New("upload", errors.Classify(ctx.Err())).WithBucket(bucket).WithKey(key))
		}

		n, readErr := io.ReadFull(reader, buf)
		if n > 0 {
			partInput := &s3.UploadPartInput{
				Bucket:        aws.String(bucket),
				Key:           aws.String(key),
				UploadId:      aws.String(uploadID),
				PartNumber:    aws.Int32(partNumber),
				Body:          bytes.NewReader(buf[:n]),
				ContentLength: aws.Int64(int64(n)),
			}

			partOutput, partErr := e.api.UploadPart(ctx, partInput)
			if partErr != nil {
				e.abort(ctx, bucket, key, uploadID)
				return nil, fail(cfg, errors.New("upload", errors.Classify(partErr)).WithBucket(bucket).WithKey(key))
			}

			parts = append(parts, awstypes.CompletedPart{
				ETag:       partOutput.ETag,
				PartNumber: aws.Int32(partNumber),
			})
			partNumber++
			sent += int64(n)
			if cfg.Tracker != nil {
				cfg.Tracker.Update(sent, size)
			}
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			e.abort(ctx, bucket, key, uploadID)
			return nil, fail(cfg, errors.New("upload", readErr).WithBucket(bucket).WithKey(key))
		}
	}

	// A cancel landing during the final part must not complete the upload.
	if ctx.Err() != nil {
		e.abort(ctx, bucket, key, uploadID)
		return nil, fail(cfg, errors.New("upload", errors.Classify(ctx.Err())).WithBucket(bucket).WithKey(key))
	}

	completeInput := &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: parts,
		},
	}

	completeOutput, err := e.api.CompleteMultipartUpload(ctx, completeInput)
	if err != nil {
		e.abort(ctx, bucket, key, uploadID)
		return nil, fail(cfg, errors.New("upload", errors.Classify(err)).WithBucket(bucket).WithKey(key))
	}

	if cfg.Tracker != nil {
		cfg.Tracker.Complete()
	}
	e.log.Debug("multipart upload complete",
		"bucket", bucket, "key", key, "size", sent, "parts", len(parts))

	return &fstypes.UploadResult{
		Key:      key,
		Size:     sent,
		ETag:     aws.ToString(completeOutput.ETag),
		Parts:    len(parts),
		Duration: time.Since(start),
	}, nil
}

// abort discards an in-flight multipart upload, best-effort.
// It runs even when ctx is already cancelled; abort errors are logged and
// otherwise ignored.
func (e *Engine) abort(ctx context.Context, bucket, key, uploadID string) {
	input := &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	}
	if _, err := e.api.AbortMultipartUpload(context.WithoutCancel(ctx), input); err != nil {
		e.log.Warn("abort multipart upload failed", "bucket", bucket, "key", key, "error", err)
	}
}
