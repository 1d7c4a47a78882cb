package trace

import (
	"github.com/tracelens/tracelens/encoding"
	"github.com/tracelens/tracelens/format"
	"github.com/tracelens/tracelens/sink"
	"github.com/tracelens/tracelens/tree"
)

// NodeResolver resolves record node ids against the shared context tree.
// A nil result is a soft failure: the id is skipped for this flush, never
// an error.
type NodeResolver interface {
	Node(id uint64) *tree.Node
}

// NodeCache is the per-flush set of node ids whose paths have already
// been written to the sink. The caller supplies one cache and shares it
// across a whole chain traversal, so a node referenced by many records,
// possibly across many chunks, is written exactly once per flush.
//
// Ids that failed to resolve are cached too: an unresolved id is not
// retried within the same flush.
type NodeCache map[uint64]struct{}

// NewNodeCache creates an empty node-write cache.
func NewNodeCache() NodeCache {
	return make(NodeCache)
}

// FlushStats aggregates observable counts from one flush call.
type FlushStats struct {
	Records    int // snapshot records emitted
	NodePaths  int // node records emitted
	Unresolved int // node ids that failed to resolve and were skipped
}

// Flush decodes every record in the chain in storage order, writes each
// newly seen node path followed by the record itself to w, and reclaims
// the chain's storage. It returns the total number of records flushed.
//
// Per record, the decoded node ids and attribute ids (attribute ids are
// node ids too, since attribute metadata lives in the tree) are resolved
// through r; nodes not yet in seen have their full ancestor path written
// to w before the record that references them, which is a strict ordering
// requirement of the downstream format. Unresolvable ids are skipped
// silently but counted in stats.
//
// After its records are processed each chunk is reset for reuse. The
// chain is consumed exactly once per flush: downstream chunks are
// detached and released, only the head survives. stats may be nil.
func (c *Chunk) Flush(r NodeResolver, w sink.RecordWriter, seen NodeCache, stats *FlushStats) int {
	return c.flushChain(r, w, seen, stats, nil)
}

// flushChain walks the chain iteratively rather than recursively so that
// long chains cannot exhaust the stack, handing each consumed downstream
// chunk to release (when non-nil) for recycling.
func (c *Chunk) flushChain(r NodeResolver, w sink.RecordWriter, seen NodeCache, stats *FlushStats, release func(*Chunk)) int {
	written := c.flushLocal(r, w, seen, stats)

	next := c.next
	c.next = nil
	for next != nil {
		written += next.flushLocal(r, w, seen, stats)

		consumed := next
		next = next.next
		consumed.next = nil
		if release != nil {
			release(consumed)
		}
	}

	if stats != nil {
		stats.Records += written
	}

	return written
}

// flushLocal flushes this chunk's own records and resets it.
func (c *Chunk) flushLocal(r NodeResolver, w sink.RecordWriter, seen NodeCache, stats *FlushStats) int {
	// Decode targets live on the stack; MaxSnapshotLen bounds them.
	var (
		nodeIDs [MaxSnapshotLen]uint64
		attrIDs [MaxSnapshotLen]uint64
		vals    [MaxSnapshotLen]encoding.Variant
	)

	p := 0
	for rec := 0; rec < c.nrec; rec++ {
		// Counts were clamped at encode time; re-clamp so a corrupted
		// buffer cannot index past the decode arrays.
		nNodes := min(int(encoding.Uvarint(c.data, &p)), MaxSnapshotLen) //nolint:gosec
		nImm := min(int(encoding.Uvarint(c.data, &p)), MaxSnapshotLen)   //nolint:gosec

		for i := 0; i < nNodes; i++ {
			nodeIDs[i] = encoding.Uvarint(c.data, &p)
		}
		for i := 0; i < nImm; i++ {
			attrIDs[i] = encoding.Uvarint(c.data, &p)
		}
		for i := 0; i < nImm; i++ {
			vals[i] = encoding.Unpack(c.data, &p)
		}

		writeNodePaths(r, w, seen, stats, nodeIDs[:nNodes])
		writeNodePaths(r, w, seen, stats, attrIDs[:nImm])

		w.WriteRecord(&sink.Record{
			Type:  format.RecordSnapshot,
			Nodes: nodeIDs[:nNodes],
			Attrs: attrIDs[:nImm],
			Vals:  vals[:nImm],
		})
	}

	written := c.nrec
	c.reset()

	return written
}

// writeNodePaths writes the path of every id not yet in seen. Each id is
// inserted into seen whether or not it resolved, so a dangling id costs
// one lookup per flush, not one per record.
func writeNodePaths(r NodeResolver, w sink.RecordWriter, seen NodeCache, stats *FlushStats, ids []uint64) {
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		if node := r.Node(id); node != nil {
			n := node.WritePath(w, seen)
			if stats != nil {
				stats.NodePaths += n
			}
		} else if stats != nil {
			stats.Unresolved++
		}

		seen[id] = struct{}{}
	}
}
