package trace

import "github.com/tracelens/tracelens/encoding"

const (
	// MaxSnapshotLen caps the node reference count and the immediate
	// entry count of a single encoded record. Longer snapshots are
	// silently truncated at encode time: entries beyond the cap are never
	// written. The cap bounds both the record size and the stack space
	// the flush decoder needs per record.
	MaxSnapshotLen = 80

	// Worst-case encoded sizes backing the Fits estimate: two count
	// headers at full varint width, one worst-case varint id, and one
	// worst-case id plus packed value per immediate entry.
	maxCountBytes     = 2 * encoding.MaxVarintLen                     // 20
	maxNodeBytes      = encoding.MaxVarintLen                         // 10
	maxImmediateBytes = encoding.MaxVarintLen + encoding.MaxPackedLen // 32
)

// Chunk is a fixed-capacity byte buffer holding zero or more encoded
// snapshot records contiguously, plus an ownership link to the next chunk
// in a singly linked chain. The head chunk owns the whole chain
// transitively.
//
// Record layout, all fields varint encoded except packed values:
//
//	varint(n_nodes) varint(n_immediate)
//	[varint(node_id)]*n_nodes [varint(attr_id)]*n_immediate
//	[packed_value]*n_immediate
//
// A chunk chain has a single logical owner: no operation on it is safe
// for concurrent use. See Buffer for the usual ownership arrangement.
type Chunk struct {
	data []byte
	pos  int
	nrec int
	next *Chunk
}

// NewChunk creates an empty chunk with the given fixed capacity in bytes.
func NewChunk(size int) *Chunk {
	return &Chunk{data: make([]byte, size)}
}

// Fits reports whether saving s into this chunk's remaining space is
// safe, using a conservative worst-case size estimate rather than a trial
// encoding. The estimate deliberately overshoots by a few bytes per
// record so the check stays O(1) and allocation free.
//
// Callers must check Fits before every SaveSnapshot and append a fresh
// chunk when it returns false.
func (c *Chunk) Fits(s *Snapshot) bool {
	nNodes, nImmediate := s.Sizes()
	est := maxCountBytes + maxNodeBytes*nNodes + maxImmediateBytes*nImmediate

	return c.pos+est < len(c.data)
}

// SaveSnapshot appends one encoded record for s at the current cursor.
// Empty snapshots are a no-op. Node and immediate counts are clamped at
// MaxSnapshotLen, and immediate string values are truncated at
// encoding.MaxInlineStr bytes so the record respects the Fits estimate.
//
// SaveSnapshot performs no bounds checking: the caller guarantees
// sufficient space by calling Fits first. This is a hard precondition,
// not a runtime-checked error. Builds with the traceassert tag verify it
// and panic on violation.
func (c *Chunk) SaveSnapshot(s *Snapshot) {
	if s.IsEmpty() {
		return
	}

	if debugChecks && !c.Fits(s) {
		panic("trace: SaveSnapshot called without capacity, missing Fits check")
	}

	nNodes, nImmediate := s.Sizes()
	if nNodes > MaxSnapshotLen {
		nNodes = MaxSnapshotLen
	}
	if nImmediate > MaxSnapshotLen {
		nImmediate = MaxSnapshotLen
	}

	c.pos += encoding.PutUvarint(c.data[c.pos:], uint64(nNodes))     //nolint:gosec
	c.pos += encoding.PutUvarint(c.data[c.pos:], uint64(nImmediate)) //nolint:gosec

	attrs, vals := s.Immediates()
	for _, id := range s.Nodes()[:nNodes] {
		c.pos += encoding.PutUvarint(c.data[c.pos:], id)
	}
	for _, id := range attrs[:nImmediate] {
		c.pos += encoding.PutUvarint(c.data[c.pos:], id)
	}
	for _, v := range vals[:nImmediate] {
		c.pos += clampInlineStr(v).Pack(c.data[c.pos:])
	}

	c.nrec++
}

// clampInlineStr truncates string values at the inline cap so that a
// packed value never exceeds encoding.MaxPackedLen inside a chunk.
func clampInlineStr(v encoding.Variant) encoding.Variant {
	if v.Type() == encoding.TypeStr && len(v.Str()) > encoding.MaxInlineStr {
		return encoding.Str(v.Str()[:encoding.MaxInlineStr])
	}

	return v
}

// Append attaches chunk as the new tail of the chain, transferring
// exclusive ownership of it into the chain. An existing next link is
// never overwritten; the walk always reaches the current tail first.
func (c *Chunk) Append(chunk *Chunk) {
	tail := c
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = chunk
}

// NumRecords returns the number of records stored in this chunk alone.
func (c *Chunk) NumRecords() int { return c.nrec }

// UsageInfo is a point-in-time memory pressure summary for a chunk chain.
type UsageInfo struct {
	Chunks   int // chunks in the chain
	Reserved int // total capacity in bytes
	Used     int // total bytes written
}

// Info walks the full chain and sums its usage. Pure query, no mutation.
func (c *Chunk) Info() UsageInfo {
	var info UsageInfo
	for cur := c; cur != nil; cur = cur.next {
		info.Chunks++
		info.Reserved += len(cur.data)
		info.Used += cur.pos
	}

	return info
}

// reset returns the chunk to its empty state, zeroing the storage so a
// reused chunk never leaks stale record bytes.
func (c *Chunk) reset() {
	c.pos = 0
	c.nrec = 0
	clear(c.data)
}
