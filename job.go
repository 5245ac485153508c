package s3fs

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/fstypes"
	"github.com/bucketlab/s3fs/internal/validation"
)

// JobKind identifies the direction of a transfer job.
type JobKind string

// Transfer job kinds.
const (
	JobUpload   JobKind = "upload"
	JobDownload JobKind = "download"
)

// JobState is the lifecycle state of a transfer job.
type JobState int32

// Job lifecycle states. A job moves from JobPending to JobInProgress and
// then to exactly one terminal state.
const (
	JobPending JobState = iota
	JobInProgress
	JobCompleted
	JobCancelled
	JobFailed
)

// String returns the state name.
func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobInProgress:
		return "in_progress"
	case JobCompleted:
		return "completed"
	case JobCancelled:
		return "cancelled"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is terminal.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobCancelled || s == JobFailed
}

// Job is a transfer running on its own goroutine. Progress counters and
// state are safe to read from any goroutine while the transfer runs.
// A new job starts in JobPending and moves to JobInProgress once its
// goroutine begins executing.
type Job struct {
	// Kind is the transfer direction
	Kind JobKind

	// Bucket and Key identify the remote object
	Bucket string
	Key    string

	// LocalPath is the local side of the transfer
	LocalPath string

	state       atomic.Int32
	transferred atomic.Int64
	total       atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// State returns the job's current state.
func (j *Job) State() JobState {
	return JobState(j.state.Load())
}

// Progress returns cumulative bytes transferred and the total, which is
// zero when the size is not yet known.
func (j *Job) Progress() (transferred, total int64) {
	return j.transferred.Load(), j.total.Load()
}

// Cancel requests cancellation. The transfer stops at the next chunk
// boundary; Cancel on a finished job is a no-op.
func (j *Job) Cancel() {
	j.cancel()
}

// Done returns a channel closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its terminal error, nil
// on success.
func (j *Job) Wait() error {
	<-j.done
	return j.Err()
}

// Err returns the job's terminal error, nil while running or on success.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// finish records the terminal state exactly once.
func (j *Job) finish(err error) {
	j.mu.Lock()
	j.err = err
	j.mu.Unlock()

	switch {
	case err == nil:
		j.state.Store(int32(JobCompleted))
	case errors.IsCancelled(err):
		j.state.Store(int32(JobCancelled))
	default:
		j.state.Store(int32(JobFailed))
	}
	close(j.done)
}

// jobTracker feeds the job's counters and forwards to the caller's tracker.
type jobTracker struct {
	job  *Job
	next fstypes.ProgressTracker
}

func (t *jobTracker) Update(bytesTransferred, totalBytes int64) {
	t.job.transferred.Store(bytesTransferred)
	t.job.total.Store(totalBytes)
	if t.next != nil {
		t.next.Update(bytesTransferred, totalBytes)
	}
}

func (t *jobTracker) Complete() {
	if t.next != nil {
		t.next.Complete()
	}
}

func (t *jobTracker) Error(err error) {
	if t.next != nil {
		t.next.Error(err)
	}
}

// StartUpload begins a background upload and returns its Job.
// Validation failures are reported synchronously.
func (c *Client) StartUpload(
	ctx context.Context,
	bucket, key, localPath string,
	opts ...fstypes.TransferOption,
) (*Job, error) {
	return c.startJob(ctx, JobUpload, bucket, key, localPath, opts...)
}

// StartDownload begins a background download and returns its Job.
// Validation failures are reported synchronously.
func (c *Client) StartDownload(
	ctx context.Context,
	bucket, key, localPath string,
	opts ...fstypes.TransferOption,
) (*Job, error) {
	return c.startJob(ctx, JobDownload, bucket, key, localPath, opts...)
}

func (c *Client) startJob(
	ctx context.Context,
	kind JobKind,
	bucket, key, localPath string,
	opts ...fstypes.TransferOption,
) (*Job, error) {
	if err := validation.BucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ObjectKey(key); err != nil {
		return nil, err
	}

	cfg := &fstypes.TransferConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		Kind:      kind,
		Bucket:    bucket,
		Key:       key,
		LocalPath: localPath,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	cfg.Tracker = &jobTracker{job: job, next: cfg.Tracker}

	go func() {
		defer cancel()
		job.state.Store(int32(JobInProgress))
		var err error
		if kind == JobUpload {
			_, err = c.engine.Upload(jobCtx, bucket, key, localPath, cfg)
		} else {
			_, err = c.engine.Download(jobCtx, bucket, key, localPath, cfg)
		}
		job.finish(err)
	}()

	return job, nil
}
