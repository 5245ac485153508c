// Package fstypes provides shared type definitions for the s3fs module.
package fstypes

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"
)

// DefaultChunkSize is the transfer chunk size used when none is configured.
// Cancellation is honored at chunk boundaries, so this also bounds the
// worst-case delay before a cancel takes effect.
const DefaultChunkSize int64 = 64 * 1024

// RetentionMode is the object lock retention mode.
type RetentionMode string

// Retention modes accepted by the store.
const (
	// RetentionGovernance allows privileged users to override the lock
	RetentionGovernance RetentionMode = "GOVERNANCE"

	// RetentionCompliance cannot be overridden by any user
	RetentionCompliance RetentionMode = "COMPLIANCE"
)

// LegalHoldStatus is the object lock legal hold state.
type LegalHoldStatus string

// Legal hold states.
const (
	LegalHoldOn  LegalHoldStatus = "ON"
	LegalHoldOff LegalHoldStatus = "OFF"
)

// LockInfo describes the object lock configuration of an object.
// The zero value means no lock is configured, which is a normal state,
// not an error.
type LockInfo struct {
	// Mode is the retention mode, empty when no retention is set
	Mode RetentionMode

	// RetainUntil is the retention expiry, zero when no retention is set
	RetainUntil time.Time

	// LegalHold is the legal hold status, empty when never configured
	LegalHold LegalHoldStatus
}

// HasRetention reports whether a retention period is configured.
func (l LockInfo) HasRetention() bool {
	return l.Mode != "" && !l.RetainUntil.IsZero()
}

// HasLegalHold reports whether a legal hold is active.
func (l LockInfo) HasLegalHold() bool {
	return l.LegalHold == LegalHoldOn
}

// Object represents a stored object with its listing metadata.
type Object struct {
	// Key is the object key (path)
	Key string

	// Size is the object size in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the entity tag for the object
	ETag string

	// StorageClass is the storage class
	StorageClass string
}

// IsDirMarker reports whether the object is a zero-byte directory marker.
func (o Object) IsDirMarker() bool {
	return len(o.Key) > 0 && o.Key[len(o.Key)-1] == '/' && o.Size == 0
}

// ObjectMetadata contains detailed metadata about a stored object.
type ObjectMetadata struct {
	// ContentType is the MIME type of the object
	ContentType string

	// ContentLength is the size of the object in bytes
	ContentLength int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the entity tag for the object
	ETag string

	// StorageClass is the storage class
	StorageClass string

	// Metadata contains user-defined metadata
	Metadata map[string]string
}

// Bucket describes a bucket in the store.
type Bucket struct {
	// Name is the bucket name
	Name string

	// CreatedAt is when the bucket was created
	CreatedAt time.Time
}

// TreeStats reports how many keys survived tree filtering.
type TreeStats struct {
	// Matched is the number of keys that passed the filter
	Matched int

	// Total is the number of keys before filtering
	Total int
}

// ProgressTracker receives transfer progress updates.
// Update is called synchronously from the transfer's own goroutine after
// each chunk with cumulative bytes; implementations that touch shared
// presentation state must marshal to their own execution context.
type ProgressTracker interface {
	// Update is called after each chunk with cumulative bytes transferred.
	// totalBytes is zero when the store did not report a size.
	Update(bytesTransferred, totalBytes int64)

	// Complete is called once when the transfer finishes successfully
	Complete()

	// Error is called once when the transfer fails or is cancelled
	Error(err error)
}

// UploadResult contains the result of a completed upload.
type UploadResult struct {
	// Key is the object key that was uploaded
	Key string

	// Size is the number of bytes uploaded
	Size int64

	// ETag is the entity tag of the stored object
	ETag string

	// Parts is the number of multipart parts, zero for single-shot puts
	Parts int

	// Duration is how long the upload took
	Duration time.Duration
}

// DownloadResult contains the result of a completed download.
type DownloadResult struct {
	// Key is the object key that was downloaded
	Key string

	// Size is the number of bytes written to the destination
	Size int64

	// ETag is the entity tag of the fetched object
	ETag string

	// Path is the local destination path
	Path string

	// Duration is how long the download took
	Duration time.Duration
}

// PresignDirection selects the HTTP method a presigned URL grants.
type PresignDirection string

// Presign directions.
const (
	// PresignDownload grants a time-limited GET
	PresignDownload PresignDirection = "GET"

	// PresignUpload grants a time-limited PUT
	PresignUpload PresignDirection = "PUT"
)

// ClientConfig holds configuration for the s3fs client.
type ClientConfig struct {
	Region          string
	Endpoint        string
	AccessKey       string
	SecretKey       string
	SessionToken    string
	StaticCreds     bool
	ForcePathStyle  bool
	MaxRetries      int
	Timeout         time.Duration
	ChunkSize       int64
	CustomAWSConfig *aws.Config
	Filesystem      billy.Filesystem
	Logger          *slog.Logger
}

// TransferConfig holds configuration for a single transfer.
type TransferConfig struct {
	ContentType string
	Metadata    map[string]string
	Tracker     ProgressTracker
	ChunkSize   int64
}

// BucketConfig holds configuration for bucket creation.
type BucketConfig struct {
	Region     string
	ObjectLock bool
}

// Option is a functional option for configuring the s3fs client.
type (
	Option func(*ClientConfig)
	// TransferOption is a functional option for configuring a transfer.
	TransferOption func(*TransferConfig)
	// BucketOption is a functional option for configuring bucket creation.
	BucketOption func(*BucketConfig)
)
