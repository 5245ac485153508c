// Functional options for configuring the client, individual transfers,
// and bucket creation.
package s3fs

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"

	"github.com/bucketlab/s3fs/fstypes"
)

// WithRegion sets the region for store operations.
// If not specified, the region comes from the default credential chain.
func WithRegion(region string) fstypes.Option {
	return func(c *fstypes.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom store endpoint URL.
// Required for S3-compatible services such as MinIO.
func WithEndpoint(endpoint string) fstypes.Option {
	return func(c *fstypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithStaticCredentials sets explicit credentials instead of the default
// credential chain. sessionToken may be empty.
func WithStaticCredentials(accessKey, secretKey, sessionToken string) fstypes.Option {
	return func(c *fstypes.ClientConfig) {
		c.AccessKey = accessKey
		c.SecretKey = secretKey
		c.SessionToken = sessionToken
		c.StaticCreds = true
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
// Required for store services that do not support virtual hosting.
func WithForcePathStyle(forcePathStyle bool) fstypes.Option {
	return func(c *fstypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithMaxRetries sets the maximum number of retry attempts for failed
// operations. Default is 3.
func WithMaxRetries(maxRetries int) fstypes.Option {
	return func(c *fstypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual store operations.
// Default is no timeout.
func WithTimeout(timeout time.Duration) fstypes.Option {
	return func(c *fstypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithChunkSize sets the transfer chunk size in bytes. Cancellation is
// checked at chunk boundaries, so smaller chunks cancel faster at the cost
// of more round trips. Default is 64 KiB.
func WithChunkSize(size int64) fstypes.Option {
	return func(c *fstypes.ClientConfig) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithAWSConfig provides a custom AWS configuration, overriding the default
// configuration loading behavior.
func WithAWSConfig(config *aws.Config) fstypes.Option {
	return func(c *fstypes.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithFilesystem sets a custom filesystem for local file access during
// transfers. Defaults to the OS filesystem; in-memory filesystems are
// useful for testing.
func WithFilesystem(fsys billy.Filesystem) fstypes.Option {
	return func(c *fstypes.ClientConfig) {
		c.Filesystem = fsys
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) fstypes.Option {
	return func(c *fstypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithContentType sets the content type for an upload.
// When unset, the type is sniffed from the payload.
func WithContentType(contentType string) fstypes.TransferOption {
	return func(c *fstypes.TransferConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets user-defined metadata for an upload.
func WithMetadata(metadata map[string]string) fstypes.TransferOption {
	return func(c *fstypes.TransferConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithProgress sets a progress tracker for a transfer.
func WithProgress(tracker fstypes.ProgressTracker) fstypes.TransferOption {
	return func(c *fstypes.TransferConfig) {
		c.Tracker = tracker
	}
}

// WithTransferChunkSize overrides the client chunk size for one transfer.
func WithTransferChunkSize(size int64) fstypes.TransferOption {
	return func(c *fstypes.TransferConfig) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithBucketRegion sets the location constraint for bucket creation.
func WithBucketRegion(region string) fstypes.BucketOption {
	return func(c *fstypes.BucketConfig) {
		c.Region = region
	}
}

// WithObjectLock enables object lock on the bucket at creation time.
// Object lock cannot be enabled on an existing bucket.
func WithObjectLock(enabled bool) fstypes.BucketOption {
	return func(c *fstypes.BucketConfig) {
		c.ObjectLock = enabled
	}
}
