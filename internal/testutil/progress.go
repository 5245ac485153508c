package testutil

import "sync"

// ProgressUpdate is one recorded progress event.
type ProgressUpdate struct {
	Transferred int64
	Total       int64
}

// RecordingTracker is a ProgressTracker that records every callback it
// receives. It is safe for use with background jobs, which invoke the
// tracker from their own goroutine.
type RecordingTracker struct {
	mu        sync.Mutex
	updates   []ProgressUpdate
	completed bool
	err       error
}

// Update records a progress update.
func (r *RecordingTracker) Update(bytesTransferred, totalBytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, ProgressUpdate{Transferred: bytesTransferred, Total: totalBytes})
}

// Complete records successful completion.
func (r *RecordingTracker) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = true
}

// Error records a terminal failure.
func (r *RecordingTracker) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Updates returns a copy of the recorded progress events.
func (r *RecordingTracker) Updates() []ProgressUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ProgressUpdate, len(r.updates))
	copy(out, r.updates)
	return out
}

// Completed reports whether Complete was called.
func (r *RecordingTracker) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// Err returns the error passed to Error, if any.
func (r *RecordingTracker) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
