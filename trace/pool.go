package trace

import "sync"

// ChunkPool recycles fixed-size chunks so that chain growth and flush
// consumption do not allocate in steady state. A flush driven by a Buffer
// returns every consumed downstream chunk here instead of leaving it for
// the garbage collector.
//
// All chunks in one pool share a single size; a chunk of any other size
// put back is discarded.
type ChunkPool struct {
	pool sync.Pool
	size int
}

// NewChunkPool creates a pool producing chunks of the given size in bytes.
func NewChunkPool(size int) *ChunkPool {
	return &ChunkPool{
		pool: sync.Pool{
			New: func() any {
				return NewChunk(size)
			},
		},
		size: size,
	}
}

// Size returns the chunk size this pool produces.
func (p *ChunkPool) Size() int { return p.size }

// Get retrieves an empty chunk from the pool.
func (p *ChunkPool) Get() *Chunk {
	c, _ := p.pool.Get().(*Chunk)
	return c
}

// Put returns a chunk to the pool for reuse. The chunk must be detached
// from any chain. Chunks of a different size are discarded.
func (p *ChunkPool) Put(c *Chunk) {
	if c == nil || len(c.data) != p.size || c.next != nil {
		return
	}

	if c.pos != 0 || c.nrec != 0 {
		c.reset()
	}
	p.pool.Put(c)
}
