// Package errors provides error types and classification for s3fs operations.
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Error represents a failed s3fs operation with context about what failed.
// It wraps the underlying store or filesystem error so the original message
// stays available for diagnosis.
type Error struct {
	// Op is the operation that failed (e.g. "upload", "deleteDirectory")
	Op string

	// Bucket is the bucket name, if applicable
	Bucket string

	// Key is the object key, if applicable
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s3fs.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3fs.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s3fs.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3fs.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// New creates a new Error with the given operation and underlying error.
func New(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// Sentinel errors for the s3fs failure taxonomy.
// These can be used with errors.Is() for error checking.
var (
	// ErrNotFound indicates the requested object or bucket does not exist
	ErrNotFound = errors.New("s3fs: not found")

	// ErrAccessDenied indicates access to the resource was denied
	ErrAccessDenied = errors.New("s3fs: access denied")

	// ErrDirectoryNotEmpty indicates a directory marker cannot be deleted
	// because other objects exist under its prefix
	ErrDirectoryNotEmpty = errors.New("s3fs: directory not empty")

	// ErrCancelled indicates the operation was cancelled by the caller
	ErrCancelled = errors.New("s3fs: cancelled")

	// ErrConfigurationMissing indicates required client configuration
	// (endpoint or credentials) was not provided
	ErrConfigurationMissing = errors.New("s3fs: configuration missing")

	// ErrInvalidInput indicates the provided input is invalid
	ErrInvalidInput = errors.New("s3fs: invalid input")
)

// IsNotFound reports whether err indicates a missing object or bucket.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAccessDenied reports whether err indicates denied access.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsDirectoryNotEmpty reports whether err indicates a non-empty directory.
func IsDirectoryNotEmpty(err error) bool {
	return errors.Is(err, ErrDirectoryNotEmpty)
}

// IsCancelled reports whether err indicates caller cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsInvalidInput reports whether err indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// Classify maps a store error onto the sentinel taxonomy while preserving
// the original message. Errors that match no category are returned as-is.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "AccessDeniedException":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	return err
}
