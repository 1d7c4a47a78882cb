package trace

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/tracelens/tracelens/sink"
)

// Policy selects what a Buffer does with an incoming snapshot when the
// current chunk has no room for it.
type Policy uint8

const (
	// PolicyGrow appends a fresh chunk to the chain and saves the
	// snapshot there. The chain grows until the next flush.
	PolicyGrow Policy = iota
	// PolicyDrop discards the snapshot once the chain has reached its
	// chunk limit. Drops are counted, not reported per call.
	PolicyDrop
)

// ParsePolicy maps a policy name from configuration to its Policy value.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "grow":
		return PolicyGrow, nil
	case "drop":
		return PolicyDrop, nil
	default:
		return 0, fmt.Errorf("unknown buffer policy: %q", name)
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyGrow:
		return "grow"
	case PolicyDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// MinChunkSize is the smallest usable chunk capacity: one worst-case
// record plus its count headers must always fit an empty chunk.
const MinChunkSize = maxCountBytes + MaxSnapshotLen*maxNodeBytes + MaxSnapshotLen*maxImmediateBytes + 1

// Option configures a Buffer.
type Option func(*Buffer)

// WithPolicy sets the full-buffer policy. The default is PolicyGrow.
func WithPolicy(p Policy) Option {
	return func(b *Buffer) { b.policy = p }
}

// WithMaxChunks bounds the chain length under PolicyDrop. The default is
// a single chunk. PolicyGrow ignores the bound.
func WithMaxChunks(n int) Option {
	return func(b *Buffer) { b.maxChunks = n }
}

// Buffer owns one chunk chain and enforces the fits-then-save protocol on
// behalf of its producer: every SaveSnapshot checks capacity first and
// extends or drops per the configured policy, so Chunk's capacity
// precondition can never be violated through a Buffer.
//
// A Buffer has a single logical owner for SaveSnapshot and Flush:
// typically one buffer per measurement goroutine, or one guarded by an
// upstream critical section. The counters are atomic so that a monitoring
// thread may read Stats concurrently with the owner.
type Buffer struct {
	chunkSize int
	policy    Policy
	maxChunks int

	head    *Chunk
	nchunks int
	pool    *ChunkPool

	dropped    atomic.Uint64
	flushed    atomic.Uint64
	unresolved atomic.Uint64
}

// NewBuffer creates a buffer producing chunks of chunkSize bytes.
// Sizes below MinChunkSize are raised to it, so a maximal record always
// fits an empty chunk.
func NewBuffer(chunkSize int, opts ...Option) *Buffer {
	if chunkSize < MinChunkSize {
		chunkSize = MinChunkSize
	}

	b := &Buffer{
		chunkSize: chunkSize,
		pool:      NewChunkPool(chunkSize),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxChunks <= 0 {
		b.maxChunks = 1
	}

	b.head = b.pool.Get()
	b.nchunks = 1

	return b
}

// SaveSnapshot buffers one snapshot. When the current chunk is full the
// buffer either grows the chain or drops the snapshot per its policy;
// either way the call never fails and never blocks beyond the copy
// itself.
func (b *Buffer) SaveSnapshot(s *Snapshot) {
	if s.IsEmpty() {
		return
	}

	tail := b.tail()
	if !tail.Fits(s) {
		if b.policy == PolicyDrop && b.nchunks >= b.maxChunks {
			b.dropped.Inc()
			return
		}

		next := b.pool.Get()
		tail.Append(next)
		b.nchunks++
		tail = next
	}

	tail.SaveSnapshot(s)
}

// tail returns the chunk currently accepting records.
func (b *Buffer) tail() *Chunk {
	tail := b.head
	for tail.next != nil {
		tail = tail.next
	}

	return tail
}

// Flush writes every buffered record to w with a fresh node-write cache,
// recycles consumed chunks, and returns the number of records flushed.
func (b *Buffer) Flush(r NodeResolver, w sink.RecordWriter) int {
	var stats FlushStats
	written := b.head.flushChain(r, w, NewNodeCache(), &stats, b.pool.Put)
	b.nchunks = 1

	b.flushed.Add(uint64(written))              //nolint:gosec
	b.unresolved.Add(uint64(stats.Unresolved)) //nolint:gosec

	return written
}

// Info reports the chain's current memory usage.
func (b *Buffer) Info() UsageInfo {
	return b.head.Info()
}

// Stats is a snapshot of a Buffer's lifetime counters.
type Stats struct {
	Dropped    uint64 // snapshots discarded under PolicyDrop
	Flushed    uint64 // records flushed over the buffer's lifetime
	Unresolved uint64 // node ids that failed to resolve during flushes
}

// Stats returns the buffer's lifetime counters. Safe to call from any
// goroutine.
func (b *Buffer) Stats() Stats {
	return Stats{
		Dropped:    b.dropped.Load(),
		Flushed:    b.flushed.Load(),
		Unresolved: b.unresolved.Load(),
	}
}
