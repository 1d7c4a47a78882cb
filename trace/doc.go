// Package trace implements the snapshot buffering core: chained
// fixed-capacity chunks that hold compactly encoded measurement
// snapshots, and the flush coordinator that serializes them to a record
// sink.
//
// # Buffering
//
// Producers encode snapshots into a Chunk with the fits-then-save
// protocol: check Fits, append a fresh chunk when it returns false, then
// SaveSnapshot. SaveSnapshot itself performs no bounds checking; the
// Fits call is a hard precondition. Buffer wraps a chain and enforces the
// protocol, with a configurable policy (grow or drop) when the chain is
// full.
//
// # Flushing
//
// Flush decodes every buffered record, resolves the referenced context
// tree nodes and writes each node's path to the sink exactly once per
// flush (deduplicated through the caller-shared NodeCache) before any
// record referencing it, then emits the records in save order. Consumed
// downstream chunks are recycled through a ChunkPool; the head chunk is
// reset and reused.
//
// # Error stance
//
// Steady-state operations surface no errors: oversized snapshots are
// truncated, unresolvable node ids are skipped (observable via
// FlushStats and Buffer.Stats), and capacity overruns are prevented up
// front rather than detected. Instrumented programs are never blocked by
// their own trace buffer.
//
// Chunks, chains and Buffers are single-owner structures: one logical
// owner performs all saves and flushes on a given chain. Only the Buffer
// counters may be read concurrently.
package trace
