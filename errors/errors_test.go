package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "bucket and key",
			err:  New("upload", fmt.Errorf("boom")).WithBucket("b").WithKey("k.txt"),
			want: "s3fs.upload b/k.txt: boom",
		},
		{
			name: "bucket only",
			err:  New("createBucket", fmt.Errorf("boom")).WithBucket("b"),
			want: "s3fs.createBucket bucket b: boom",
		},
		{
			name: "key only",
			err:  New("get", fmt.Errorf("boom")).WithKey("k.txt"),
			want: "s3fs.get object k.txt: boom",
		},
		{
			name: "bare",
			err:  New("listBuckets", fmt.Errorf("boom")),
			want: "s3fs.listBuckets: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := New("delete", ErrNotFound).WithBucket("b").WithKey("k")
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestError_WithMessage(t *testing.T) {
	err := New("rename", ErrInvalidInput).WithMessage("keys are identical")
	assert.True(t, IsInvalidInput(err))
	assert.Contains(t, err.Error(), "keys are identical")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "context canceled", err: context.Canceled, want: ErrCancelled},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: ErrCancelled},
		{
			name: "wrapped cancel",
			err:  fmt.Errorf("reading chunk: %w", context.Canceled),
			want: ErrCancelled,
		},
		{name: "NoSuchKey", err: &smithy.GenericAPIError{Code: "NoSuchKey"}, want: ErrNotFound},
		{name: "NoSuchBucket", err: &smithy.GenericAPIError{Code: "NoSuchBucket"}, want: ErrNotFound},
		{name: "NotFound", err: &smithy.GenericAPIError{Code: "NotFound"}, want: ErrNotFound},
		{name: "AccessDenied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			require.Error(t, got)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassify_UnknownPassesThrough(t *testing.T) {
	orig := &smithy.GenericAPIError{Code: "SlowDown", Message: "throttled"}
	got := Classify(orig)
	assert.Equal(t, error(orig), got)
	assert.False(t, IsNotFound(got))
	assert.False(t, IsCancelled(got))
}

func TestClassify_PreservesOriginalMessage(t *testing.T) {
	orig := &smithy.GenericAPIError{Code: "NoSuchKey", Message: "the key does not exist"}
	got := Classify(orig)
	assert.Contains(t, got.Error(), "the key does not exist")
}
