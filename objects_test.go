package s3fs

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/internal/testutil"
)

func TestListObjects(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, "docs/", aws.ToString(params.Prefix))
			return &s3.ListObjectsV2Output{
				Contents: []awstypes.Object{
					{
						Key:          aws.String("docs/readme.md"),
						Size:         aws.Int64(512),
						LastModified: aws.Time(now),
						ETag:         aws.String(`"e1"`),
						StorageClass: awstypes.ObjectStorageClassStandard,
					},
					{
						Key:  aws.String("docs/"),
						Size: aws.Int64(0),
					},
				},
				IsTruncated: aws.Bool(false),
			}, nil
		},
	}
	client := NewWithClient(mock)

	objects, err := client.ListObjects(context.Background(), "test-bucket", "docs/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "docs/readme.md", objects[0].Key)
	assert.Equal(t, int64(512), objects[0].Size)
	assert.Equal(t, now, objects[0].LastModified)
	assert.False(t, objects[0].IsDirMarker())
	assert.True(t, objects[1].IsDirMarker())
}

func TestGetMetadata(t *testing.T) {
	mock := &testutil.MockS3Client{
		HeadObjectFunc: func(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			assert.Equal(t, "file.pdf", aws.ToString(params.Key))
			return &s3.HeadObjectOutput{
				ContentType:   aws.String("application/pdf"),
				ContentLength: aws.Int64(2048),
				ETag:          aws.String(`"meta"`),
				Metadata:      map[string]string{"owner": "ops"},
			}, nil
		},
	}
	client := NewWithClient(mock)

	meta, err := client.GetMetadata(context.Background(), "test-bucket", "file.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", meta.ContentType)
	assert.Equal(t, int64(2048), meta.ContentLength)
	assert.Equal(t, "ops", meta.Metadata["owner"])
}

func TestExists(t *testing.T) {
	tests := []struct {
		name    string
		headErr error
		want    bool
		wantErr bool
	}{
		{name: "exists", want: true},
		{name: "missing", headErr: &smithy.GenericAPIError{Code: "NotFound"}, want: false},
		{name: "denied", headErr: &smithy.GenericAPIError{Code: "AccessDenied"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockS3Client{
				HeadObjectFunc: func(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
					if tt.headErr != nil {
						return nil, tt.headErr
					}
					return &s3.HeadObjectOutput{}, nil
				},
			}
			client := NewWithClient(mock)

			exists, err := client.Exists(context.Background(), "test-bucket", "file.txt")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, exists)
		})
	}
}

func TestGet(t *testing.T) {
	payload := []byte("object body")

	mock := &testutil.MockS3Client{
		GetObjectFunc: func(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return &s3.GetObjectOutput{
				Body: io.NopCloser(bytes.NewReader(payload)),
			}, nil
		},
	}
	client := NewWithClient(mock)

	data, err := client.Get(context.Background(), "test-bucket", "file.txt")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestGet_NotFound(t *testing.T) {
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
		},
	}
	client := NewWithClient(mock)

	_, err := client.Get(context.Background(), "test-bucket", "gone.txt")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestPut(t *testing.T) {
	var gotBody []byte
	var gotContentType string

	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			var err error
			gotBody, err = io.ReadAll(params.Body)
			require.NoError(t, err)
			gotContentType = aws.ToString(params.ContentType)
			return &s3.PutObjectOutput{}, nil
		},
	}
	client := NewWithClient(mock)

	err := client.Put(context.Background(), "test-bucket", "notes.txt", []byte("hi"),
		WithContentType("text/plain"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), gotBody)
	assert.Equal(t, "text/plain", gotContentType)
}

func TestDelete(t *testing.T) {
	var gotKey string

	mock := &testutil.MockS3Client{
		DeleteObjectFunc: func(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			gotKey = aws.ToString(params.Key)
			return &s3.DeleteObjectOutput{}, nil
		},
	}
	client := NewWithClient(mock)

	require.NoError(t, client.Delete(context.Background(), "test-bucket", "old.txt"))
	assert.Equal(t, "old.txt", gotKey)
}

func TestObjectOps_InvalidInput(t *testing.T) {
	client := NewWithClient(&testutil.MockS3Client{})
	ctx := context.Background()

	_, err := client.Get(ctx, "test-bucket", "../escape.txt")
	assert.True(t, errors.IsInvalidInput(err))

	err = client.Put(ctx, "Bad_Bucket", "k.txt", nil)
	assert.True(t, errors.IsInvalidInput(err))

	err = client.Delete(ctx, "test-bucket", "")
	assert.True(t, errors.IsInvalidInput(err))
}
