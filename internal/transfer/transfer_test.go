package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/fstypes"
	"github.com/bucketlab/s3fs/internal/testutil"
)

const testChunk = 64 * 1024

func writeLocal(t *testing.T, fsys billy.Filesystem, path string, data []byte) {
	t.Helper()
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func readLocal(t *testing.T, fsys billy.Filesystem, path string) []byte {
	t.Helper()
	f, err := fsys.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return data
}

func payload(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestUpload_SingleShot(t *testing.T) {
	fsys := memfs.New()
	data := payload(testChunk) // exactly one chunk stays single-shot
	writeLocal(t, fsys, "report.csv", data)

	var mu sync.Mutex
	var putCalls, multipartCalls int
	var putBody []byte

	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			putCalls++
			var err error
			putBody, err = io.ReadAll(params.Body)
			require.NoError(t, err)
			assert.Equal(t, "test-bucket", aws.ToString(params.Bucket))
			assert.Equal(t, "reports/report.csv", aws.ToString(params.Key))
			assert.Equal(t, int64(len(data)), aws.ToInt64(params.ContentLength))
			return &s3.PutObjectOutput{ETag: aws.String(`"abc123"`)}, nil
		},
		CreateMultipartUploadFunc: func(_ context.Context, _ *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			multipartCalls++
			return &s3.CreateMultipartUploadOutput{}, nil
		},
	}

	tracker := &testutil.RecordingTracker{}
	engine := NewEngine(mock, fsys, testChunk, nil)

	result, err := engine.Upload(context.Background(), "test-bucket", "reports/report.csv", "report.csv",
		&fstypes.TransferConfig{Tracker: tracker})
	require.NoError(t, err)

	assert.Equal(t, 1, putCalls)
	assert.Equal(t, 0, multipartCalls, "payloads of one chunk or less must not go multipart")
	assert.Equal(t, data, putBody)
	assert.Equal(t, int64(len(data)), result.Size)
	assert.Equal(t, 0, result.Parts)
	assert.Equal(t, `"abc123"`, result.ETag)
	assert.True(t, tracker.Completed())

	updates := tracker.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, int64(len(data)), updates[0].Transferred)
	assert.Equal(t, int64(len(data)), updates[0].Total)
}

func TestUpload_MultipartPartCount(t *testing.T) {
	fsys := memfs.New()
	data := payload(testChunk*2 + testChunk/2) // 2.5 chunks => 3 parts
	writeLocal(t, fsys, "big.bin", data)

	var mu sync.Mutex
	var partSizes []int64
	var partNumbers []int32
	var completedParts []string
	var createCalls, completeCalls, abortCalls int
	var assembled bytes.Buffer

	mock := &testutil.MockS3Client{
		CreateMultipartUploadFunc: func(_ context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			createCalls++
			assert.Equal(t, "test-bucket", aws.ToString(params.Bucket))
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
		},
		UploadPartFunc: func(_ context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, "upload-1", aws.ToString(params.UploadId))
			body, err := io.ReadAll(params.Body)
			require.NoError(t, err)
			assembled.Write(body)
			partSizes = append(partSizes, aws.ToInt64(params.ContentLength))
			partNumbers = append(partNumbers, aws.ToInt32(params.PartNumber))
			return &s3.UploadPartOutput{
				ETag: aws.String(fmt.Sprintf(`"part-%d"`, aws.ToInt32(params.PartNumber))),
			}, nil
		},
		CompleteMultipartUploadFunc: func(_ context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			completeCalls++
			for _, p := range params.MultipartUpload.Parts {
				completedParts = append(completedParts, aws.ToString(p.ETag))
			}
			return &s3.CompleteMultipartUploadOutput{ETag: aws.String(`"final"`)}, nil
		},
		AbortMultipartUploadFunc: func(_ context.Context, _ *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			abortCalls++
			return &s3.AbortMultipartUploadOutput{}, nil
		},
	}

	tracker := &testutil.RecordingTracker{}
	engine := NewEngine(mock, fsys, testChunk, nil)

	result, err := engine.Upload(context.Background(), "test-bucket", "big.bin", "big.bin",
		&fstypes.TransferConfig{Tracker: tracker})
	require.NoError(t, err)

	assert.Equal(t, 1, createCalls)
	assert.Equal(t, 1, completeCalls)
	assert.Equal(t, 0, abortCalls)
	assert.Equal(t, []int32{1, 2, 3}, partNumbers)
	assert.Equal(t, []int64{testChunk, testChunk, testChunk / 2}, partSizes)
	assert.Equal(t, []string{`"part-1"`, `"part-2"`, `"part-3"`}, completedParts)
	assert.Equal(t, data, assembled.Bytes())
	assert.Equal(t, 3, result.Parts)
	assert.Equal(t, int64(len(data)), result.Size)
	assert.True(t, tracker.Completed())

	// Progress is cumulative and monotonic.
	updates := tracker.Updates()
	require.Len(t, updates, 3)
	assert.Equal(t, int64(testChunk), updates[0].Transferred)
	assert.Equal(t, int64(testChunk*2), updates[1].Transferred)
	assert.Equal(t, int64(len(data)), updates[2].Transferred)
	for _, u := range updates {
		assert.Equal(t, int64(len(data)), u.Total)
	}
}

func TestUpload_CancelBetweenParts(t *testing.T) {
	fsys := memfs.New()
	writeLocal(t, fsys, "big.bin", payload(testChunk*4))

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var abortCalls, completeCalls int

	mock := &testutil.MockS3Client{
		CreateMultipartUploadFunc: func(_ context.Context, _ *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
		},
		UploadPartFunc: func(_ context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
			if aws.ToInt32(params.PartNumber) == 2 {
				cancel() // takes effect before the next chunk read
			}
			return &s3.UploadPartOutput{ETag: aws.String(`"e"`)}, nil
		},
		CompleteMultipartUploadFunc: func(_ context.Context, _ *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			completeCalls++
			return &s3.CompleteMultipartUploadOutput{}, nil
		},
		AbortMultipartUploadFunc: func(_ context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			abortCalls++
			assert.Equal(t, "upload-1", aws.ToString(params.UploadId))
			return &s3.AbortMultipartUploadOutput{}, nil
		},
	}

	tracker := &testutil.RecordingTracker{}
	engine := NewEngine(mock, fsys, testChunk, nil)

	_, err := engine.Upload(ctx, "test-bucket", "big.bin", "big.bin",
		&fstypes.TransferConfig{Tracker: tracker})
	require.Error(t, err)
	assert.True(t, errors.IsCancelled(err), "cancellation must be distinguishable from failure: %v", err)
	assert.Equal(t, 1, abortCalls, "cancelled multipart uploads must be aborted")
	assert.Equal(t, 0, completeCalls)
	assert.ErrorIs(t, tracker.Err(), errors.ErrCancelled)
	assert.False(t, tracker.Completed())
}

func TestUpload_CancelDuringFinalPart(t *testing.T) {
	fsys := memfs.New()
	// 1.5 chunks: the second part is the final one.
	writeLocal(t, fsys, "big.bin", payload(testChunk+testChunk/2))

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var abortCalls, completeCalls int

	mock := &testutil.MockS3Client{
		CreateMultipartUploadFunc: func(_ context.Context, _ *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
		},
		UploadPartFunc: func(_ context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
			if aws.ToInt32(params.PartNumber) == 2 {
				cancel()
			}
			return &s3.UploadPartOutput{ETag: aws.String(`"e"`)}, nil
		},
		CompleteMultipartUploadFunc: func(_ context.Context, _ *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			completeCalls++
			return &s3.CompleteMultipartUploadOutput{}, nil
		},
		AbortMultipartUploadFunc: func(_ context.Context, _ *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			abortCalls++
			return &s3.AbortMultipartUploadOutput{}, nil
		},
	}

	engine := NewEngine(mock, fsys, testChunk, nil)

	_, err := engine.Upload(ctx, "test-bucket", "big.bin", "big.bin",
		&fstypes.TransferConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsCancelled(err))
	assert.Equal(t, 0, completeCalls, "a cancelled upload must never be completed")
	assert.Equal(t, 1, abortCalls)
}

func TestUpload_PartFailureAborts(t *testing.T) {
	fsys := memfs.New()
	writeLocal(t, fsys, "big.bin", payload(testChunk*3))

	var mu sync.Mutex
	var abortCalls int

	mock := &testutil.MockS3Client{
		CreateMultipartUploadFunc: func(_ context.Context, _ *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
		},
		UploadPartFunc: func(_ context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
			if aws.ToInt32(params.PartNumber) == 2 {
				return nil, fmt.Errorf("connection reset")
			}
			return &s3.UploadPartOutput{ETag: aws.String(`"e"`)}, nil
		},
		AbortMultipartUploadFunc: func(_ context.Context, _ *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			abortCalls++
			return &s3.AbortMultipartUploadOutput{}, nil
		},
	}

	engine := NewEngine(mock, fsys, testChunk, nil)

	_, err := engine.Upload(context.Background(), "test-bucket", "big.bin", "big.bin",
		&fstypes.TransferConfig{})
	require.Error(t, err)
	assert.False(t, errors.IsCancelled(err))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, abortCalls)
}

func TestUpload_MissingLocalFile(t *testing.T) {
	engine := NewEngine(&testutil.MockS3Client{}, memfs.New(), testChunk, nil)

	tracker := &testutil.RecordingTracker{}
	_, err := engine.Upload(context.Background(), "test-bucket", "gone.txt", "gone.txt",
		&fstypes.TransferConfig{Tracker: tracker})
	require.Error(t, err)
	assert.Error(t, tracker.Err())
}

func TestDownload_Success(t *testing.T) {
	fsys := memfs.New()
	data := payload(testChunk + 100)

	mock := &testutil.MockS3Client{
		GetObjectFunc: func(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "test-bucket", aws.ToString(params.Bucket))
			assert.Equal(t, "docs/file.bin", aws.ToString(params.Key))
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(bytes.NewReader(data)),
				ContentLength: aws.Int64(int64(len(data))),
				ETag:          aws.String(`"dl"`),
			}, nil
		},
	}

	tracker := &testutil.RecordingTracker{}
	engine := NewEngine(mock, fsys, testChunk, nil)

	result, err := engine.Download(context.Background(), "test-bucket", "docs/file.bin", "local/file.bin",
		&fstypes.TransferConfig{Tracker: tracker})
	require.NoError(t, err)

	assert.Equal(t, data, readLocal(t, fsys, "local/file.bin"))
	assert.Equal(t, int64(len(data)), result.Size)
	assert.Equal(t, "local/file.bin", result.Path)
	assert.True(t, tracker.Completed())

	// No partial file is left behind.
	_, statErr := fsys.Stat("local/file.bin" + PartialSuffix)
	assert.Error(t, statErr)

	updates := tracker.Updates()
	require.NotEmpty(t, updates)
	assert.Equal(t, int64(len(data)), updates[len(updates)-1].Transferred)
}

func TestDownload_ReplacesExistingDestination(t *testing.T) {
	fsys := memfs.New()
	writeLocal(t, fsys, "file.txt", []byte("stale contents"))
	fresh := []byte("fresh contents")

	mock := &testutil.MockS3Client{
		GetObjectFunc: func(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(bytes.NewReader(fresh)),
				ContentLength: aws.Int64(int64(len(fresh))),
			}, nil
		},
	}

	engine := NewEngine(mock, fsys, testChunk, nil)

	_, err := engine.Download(context.Background(), "test-bucket", "file.txt", "file.txt",
		&fstypes.TransferConfig{})
	require.NoError(t, err)
	assert.Equal(t, fresh, readLocal(t, fsys, "file.txt"))
}

// cancelAfterReader cancels its context after n reads, then keeps serving data.
type cancelAfterReader struct {
	data   *bytes.Reader
	cancel context.CancelFunc
	reads  int
	after  int
}

func (r *cancelAfterReader) Read(p []byte) (int, error) {
	r.reads++
	if r.reads > r.after {
		r.cancel()
	}
	return r.data.Read(p)
}

func (r *cancelAfterReader) Close() error { return nil }

func TestDownload_CancelPreservesDestination(t *testing.T) {
	fsys := memfs.New()
	original := []byte("original contents")
	writeLocal(t, fsys, "file.bin", original)

	ctx, cancel := context.WithCancel(context.Background())
	body := &cancelAfterReader{
		data:   bytes.NewReader(payload(testChunk * 4)),
		cancel: cancel,
		after:  1,
	}

	mock := &testutil.MockS3Client{
		GetObjectFunc: func(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return &s3.GetObjectOutput{
				Body:          body,
				ContentLength: aws.Int64(testChunk * 4),
			}, nil
		},
	}

	tracker := &testutil.RecordingTracker{}
	engine := NewEngine(mock, fsys, testChunk, nil)

	_, err := engine.Download(ctx, "test-bucket", "file.bin", "file.bin",
		&fstypes.TransferConfig{Tracker: tracker})
	require.Error(t, err)
	assert.True(t, errors.IsCancelled(err))
	assert.ErrorIs(t, tracker.Err(), errors.ErrCancelled)

	// The pre-existing destination is untouched and the partial is gone.
	assert.Equal(t, original, readLocal(t, fsys, "file.bin"))
	_, statErr := fsys.Stat("file.bin" + PartialSuffix)
	assert.Error(t, statErr)
}

func TestDownload_NotFound(t *testing.T) {
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, &mockAPIError{code: "NoSuchKey"}
		},
	}

	engine := NewEngine(mock, memfs.New(), testChunk, nil)

	_, err := engine.Download(context.Background(), "test-bucket", "gone.txt", "gone.txt",
		&fstypes.TransferConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

// mockAPIError implements smithy.APIError for classification tests.
type mockAPIError struct {
	code string
}

func (e *mockAPIError) Error() string                 { return e.code }
func (e *mockAPIError) ErrorCode() string             { return e.code }
func (e *mockAPIError) ErrorMessage() string          { return e.code }
func (e *mockAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

var _ smithy.APIError = (*mockAPIError)(nil)
