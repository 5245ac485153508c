// Package s3api defines interfaces for store operations to enable testing and mocking.
package s3api

import (
	"context"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API defines the store operations this module consumes.
// This interface allows for mocking in tests and potential future implementations.
type S3API interface {
	// PutObject uploads an object
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)

	// GetObject retrieves an object with a streaming body
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)

	// HeadObject retrieves object metadata without the body
	HeadObject(
		ctx context.Context,
		params *s3.HeadObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.HeadObjectOutput, error)

	// DeleteObject deletes an object
	DeleteObject(
		ctx context.Context,
		params *s3.DeleteObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.DeleteObjectOutput, error)

	// CopyObject copies an object server-side
	CopyObject(
		ctx context.Context,
		params *s3.CopyObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.CopyObjectOutput, error)

	// ListObjectsV2 lists objects in a bucket
	ListObjectsV2(
		ctx context.Context,
		params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)

	// ListBuckets lists all buckets
	ListBuckets(
		ctx context.Context,
		params *s3.ListBucketsInput,
		optFns ...func(*s3.Options),
	) (*s3.ListBucketsOutput, error)

	// CreateBucket creates a new bucket
	CreateBucket(
		ctx context.Context,
		params *s3.CreateBucketInput,
		optFns ...func(*s3.Options),
	) (*s3.CreateBucketOutput, error)

	// DeleteBucket deletes a bucket
	DeleteBucket(
		ctx context.Context,
		params *s3.DeleteBucketInput,
		optFns ...func(*s3.Options),
	) (*s3.DeleteBucketOutput, error)

	// CreateMultipartUpload initiates a multipart upload
	CreateMultipartUpload(
		ctx context.Context,
		params *s3.CreateMultipartUploadInput,
		optFns ...func(*s3.Options),
	) (*s3.CreateMultipartUploadOutput, error)

	// UploadPart uploads one part of a multipart upload
	UploadPart(
		ctx context.Context,
		params *s3.UploadPartInput,
		optFns ...func(*s3.Options),
	) (*s3.UploadPartOutput, error)

	// CompleteMultipartUpload assembles the uploaded parts
	CompleteMultipartUpload(
		ctx context.Context,
		params *s3.CompleteMultipartUploadInput,
		optFns ...func(*s3.Options),
	) (*s3.CompleteMultipartUploadOutput, error)

	// AbortMultipartUpload discards an in-flight multipart upload
	AbortMultipartUpload(
		ctx context.Context,
		params *s3.AbortMultipartUploadInput,
		optFns ...func(*s3.Options),
	) (*s3.AbortMultipartUploadOutput, error)

	// GetObjectRetention reads the retention configuration of an object
	GetObjectRetention(
		ctx context.Context,
		params *s3.GetObjectRetentionInput,
		optFns ...func(*s3.Options),
	) (*s3.GetObjectRetentionOutput, error)

	// PutObjectRetention sets the retention configuration of an object
	PutObjectRetention(
		ctx context.Context,
		params *s3.PutObjectRetentionInput,
		optFns ...func(*s3.Options),
	) (*s3.PutObjectRetentionOutput, error)

	// GetObjectLegalHold reads the legal hold status of an object
	GetObjectLegalHold(
		ctx context.Context,
		params *s3.GetObjectLegalHoldInput,
		optFns ...func(*s3.Options),
	) (*s3.GetObjectLegalHoldOutput, error)

	// PutObjectLegalHold sets the legal hold status of an object
	PutObjectLegalHold(
		ctx context.Context,
		params *s3.PutObjectLegalHoldInput,
		optFns ...func(*s3.Options),
	) (*s3.PutObjectLegalHoldOutput, error)
}

// PresignAPI defines the presigning operations this module consumes.
type PresignAPI interface {
	// PresignGetObject produces a time-limited GET URL
	PresignGetObject(
		ctx context.Context,
		params *s3.GetObjectInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)

	// PresignPutObject produces a time-limited PUT URL
	PresignPutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
}

// Verify that the AWS SDK clients implement our interfaces
var (
	_ S3API      = (*s3.Client)(nil)
	_ PresignAPI = (*s3.PresignClient)(nil)
)
