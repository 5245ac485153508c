// Package validation provides input validation for bucket names and object keys.
// Inputs are checked before being sent to the store so obviously malformed
// requests fail fast with a useful message.
package validation

import (
	"strings"

	"github.com/bucketlab/s3fs/errors"
)

// maxKeyLength is the S3 limit on object key length in bytes.
const maxKeyLength = 1024

// BucketName validates that a bucket name is DNS-compliant according to S3 rules.
func BucketName(bucket string) error {
	if bucket == "" {
		return errors.New("validateBucket", errors.ErrInvalidInput).
			WithMessage("bucket name cannot be empty")
	}
	if len(bucket) < 3 || len(bucket) > 63 {
		return errors.New("validateBucket", errors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("bucket name must be between 3 and 63 characters long")
	}
	for _, r := range bucket {
		if !isBucketChar(r) {
			return errors.New("validateBucket", errors.ErrInvalidInput).
				WithBucket(bucket).
				WithMessage("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}
	if isEdgeChar(bucket[0]) || isEdgeChar(bucket[len(bucket)-1]) {
		return errors.New("validateBucket", errors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("bucket name cannot start or end with a hyphen or dot")
	}
	if strings.Contains(bucket, "..") || strings.Contains(bucket, "--") {
		return errors.New("validateBucket", errors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("bucket name cannot contain adjacent dots or hyphens")
	}
	if isIPAddress(bucket) {
		return errors.New("validateBucket", errors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("bucket name cannot be formatted as an IP address")
	}
	return nil
}

// ObjectKey validates that an object key is acceptable to the store.
// Path traversal sequences are rejected because keys are later mapped onto
// local filesystem paths by the transfer engine.
func ObjectKey(key string) error {
	if key == "" {
		return errors.New("validateKey", errors.ErrInvalidInput).
			WithMessage("object key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return errors.New("validateKey", errors.ErrInvalidInput).
			WithKey(key).
			WithMessage("object key cannot exceed 1024 bytes")
	}
	if hasPathTraversal(key) {
		return errors.New("validateKey", errors.ErrInvalidInput).
			WithKey(key).
			WithMessage("object key cannot contain path traversal sequences")
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return errors.New("validateKey", errors.ErrInvalidInput).
				WithKey(key).
				WithMessage("object key cannot contain control characters")
		}
	}
	return nil
}

func isBucketChar(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || r == '.' || r == '-'
}

func isEdgeChar(c byte) bool {
	return c == '.' || c == '-'
}

func hasPathTraversal(key string) bool {
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return true
		}
	}
	return strings.HasPrefix(key, "/")
}

func isIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		n := 0
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
			n = n*10 + int(r-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}
