// Package pool provides reusable chunk buffers for the transfer engine.
// Transfers read and write in fixed-size chunks; pooling the buffers keeps
// concurrent jobs from re-allocating one per chunk.
package pool

import (
	"sync"
)

// ChunkPool manages reusable buffers of a single fixed size.
type ChunkPool struct {
	size int
	pool *sync.Pool
}

// NewChunkPool creates a pool handing out buffers of the given size in bytes.
func NewChunkPool(size int64) *ChunkPool {
	n := int(size)
	return &ChunkPool{
		size: n,
		pool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, n)
				return &buf
			},
		},
	}
}

// Get returns a buffer of the pool's chunk size.
// The caller must return it with Put when done.
func (p *ChunkPool) Get() []byte {
	bufPtr := p.pool.Get().(*[]byte)
	return (*bufPtr)[:p.size]
}

// Put returns a buffer to the pool. The buffer must not be used afterwards.
// Buffers of a different capacity are dropped rather than pooled.
func (p *ChunkPool) Put(buf []byte) {
	if cap(buf) != p.size {
		return
	}
	buf = buf[:p.size]
	p.pool.Put(&buf)
}

// Size returns the chunk size buffers are allocated at.
func (p *ChunkPool) Size() int64 {
	return int64(p.size)
}
