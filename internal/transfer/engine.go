// Package transfer implements chunked, cancelable uploads and downloads.
//
// Transfers are synchronous: each call runs to a terminal outcome on the
// calling goroutine. Callers that want background execution run the call on
// a worker goroutine; the Job type in the root package does exactly that.
// Cancellation is cooperative and checked at chunk boundaries, so the
// worst-case delay before a cancel takes effect is one chunk's transfer time.
package transfer

import (
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"

	"github.com/bucketlab/s3fs/fstypes"
	"github.com/bucketlab/s3fs/internal/pool"
	"github.com/bucketlab/s3fs/internal/s3api"
)

// PartialSuffix is appended to a download's destination path to build the
// temporary file the payload streams into. The destination itself is only
// ever replaced, via rename, by a fully received payload.
const PartialSuffix = ".s3fs-partial"

// defaultContentType is used when content type detection fails.
const defaultContentType = "application/octet-stream"

// Engine executes chunked transfers against a store client.
type Engine struct {
	api       s3api.S3API
	fs        billy.Filesystem
	bufs      *pool.ChunkPool
	chunkSize int64
	log       *slog.Logger
}

// NewEngine creates a transfer engine.
// chunkSize <= 0 selects the default chunk size.
func NewEngine(api s3api.S3API, fsys billy.Filesystem, chunkSize int64, logger *slog.Logger) *Engine {
	if chunkSize <= 0 {
		chunkSize = fstypes.DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		api:       api,
		fs:        fsys,
		bufs:      pool.NewChunkPool(chunkSize),
		chunkSize: chunkSize,
		log:       logger,
	}
}

// chunk returns the chunk size for one transfer, honoring per-transfer overrides.
func (e *Engine) chunk(cfg *fstypes.TransferConfig) int64 {
	if cfg != nil && cfg.ChunkSize > 0 {
		return cfg.ChunkSize
	}
	return e.chunkSize
}

// getBuffer hands out a chunk buffer, pooled when the size matches the engine default.
func (e *Engine) getBuffer(size int64) []byte {
	if size == e.bufs.Size() {
		return e.bufs.Get()
	}
	return make([]byte, size)
}

func (e *Engine) putBuffer(buf []byte) {
	e.bufs.Put(buf)
}

// fail reports a terminal failure to the tracker and passes the error through.
func fail(cfg *fstypes.TransferConfig, err error) error {
	if cfg != nil && cfg.Tracker != nil {
		cfg.Tracker.Error(err)
	}
	return err
}

// detectContentType sniffs the payload when available, falling back to the
// key's extension.
func detectContentType(key string, data []byte) string {
	if len(data) > 0 {
		if mt := mimetype.Detect(data); mt != nil {
			return mt.String()
		}
	}
	return typeByExtension(key)
}

func typeByExtension(key string) string {
	if ext := strings.ToLower(filepath.Ext(key)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return defaultContentType
}
