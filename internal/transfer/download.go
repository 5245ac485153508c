package transfer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/fstypes"
)

// Download fetches an object into a local file.
// The payload streams into a temporary sibling of the destination and only
// replaces it, via rename, once fully received. On failure or cancellation
// the temporary file is removed and any pre-existing destination is left
// untouched, so the destination never holds a partial payload.
func (e *Engine) Download(
	ctx context.Context,
	bucket, key, localPath string,
	cfg *fstypes.TransferConfig,
) (*fstypes.DownloadResult, error) {
	start := time.Now()

	out, err := e.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fail(cfg, errors.New("download", errors.Classify(err)).WithBucket(bucket).WithKey(key))
	}
	defer out.Body.Close()

	total := aws.ToInt64(out.ContentLength)

	if dir := filepath.Dir(localPath); dir != "." {
		if err := e.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fail(cfg, errors.New("download", err).WithBucket(bucket).WithKey(key))
		}
	}

	tmpPath := localPath + PartialSuffix
	tmp, err := e.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fail(cfg, errors.New("download", err).WithBucket(bucket).WithKey(key))
	}

	written, err := e.streamBody(ctx, out, tmp, total, cfg)
	if err != nil {
		tmp.Close()
		e.discard(tmpPath)
		return nil, fail(cfg, errors.New("download", err).WithBucket(bucket).WithKey(key))
	}

	if err := tmp.Close(); err != nil {
		e.discard(tmpPath)
		return nil, fail(cfg, errors.New("download", err).WithBucket(bucket).WithKey(key))
	}

	// Replace the destination only now that the payload is complete.
	if _, statErr := e.fs.Stat(localPath); statErr == nil {
		if err := e.fs.Remove(localPath); err != nil {
			e.discard(tmpPath)
			return nil, fail(cfg, errors.New("download", err).WithBucket(bucket).WithKey(key))
		}
	}
	if err := e.fs.Rename(tmpPath, localPath); err != nil {
		e.discard(tmpPath)
		return nil, fail(cfg, errors.New("download", err).WithBucket(bucket).WithKey(key))
	}

	if cfg.Tracker != nil {
		cfg.Tracker.Complete()
	}
	e.log.Debug("download complete", "bucket", bucket, "key", key, "size", written, "path", localPath)

	return &fstypes.DownloadResult{
		Key:      key,
		Size:     written,
		ETag:     aws.ToString(out.ETag),
		Path:     localPath,
		Duration: time.Since(start),
	}, nil
}

// streamBody copies the response body into dst one chunk at a time, checking
// for cancellation before each read.
func (e *Engine) streamBody(
	ctx context.Context,
	out *s3.GetObjectOutput,
	dst billy.File,
	total int64,
	cfg *fstypes.TransferConfig,
) (int64, error) {
	chunkSize := e.chunk(cfg)
	buf := e.getBuffer(chunkSize)
	defer e.putBuffer(buf)

	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, errors.Classify(ctx.Err())
		default:
		}

		n, readErr := out.Body.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return written, writeErr
			}
			written += int64(n)
			if cfg.Tracker != nil {
				cfg.Tracker.Update(written, total)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return written, nil
			}
			return written, errors.Classify(readErr)
		}
	}
}

// discard removes a partial download file, best-effort.
func (e *Engine) discard(path string) {
	if err := e.fs.Remove(path); err != nil {
		e.log.Warn("remove partial download failed", "path", path, "error", err)
	}
}
