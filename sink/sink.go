package sink

import (
	"github.com/tracelens/tracelens/encoding"
	"github.com/tracelens/tracelens/format"
)

// Record is the unit of output emitted during a flush: either a buffered
// measurement snapshot or a context tree node definition. Both shapes use
// the same three parallel arrays, tagged with their record type.
//
// For RecordSnapshot, Nodes holds the referenced context node ids, Attrs
// the immediate attribute ids and Vals the immediate values (Attrs and
// Vals always have equal length). For RecordNode, each array holds exactly
// one element (the node id, its attribute id and its data value) and
// Parent links the node to its ancestor.
type Record struct {
	Type  format.RecordType
	Nodes []uint64
	Attrs []uint64
	Vals  []encoding.Variant

	// Parent is the parent node id for RecordNode records, or
	// InvalidParent for root nodes. Unused for snapshot records.
	Parent uint64
}

// InvalidParent marks a RecordNode without a parent.
const InvalidParent = ^uint64(0)

// RecordWriter receives records during a flush.
//
// The flush coordinator guarantees that every node referenced by a
// snapshot record has been written (as RecordNode records, ancestors
// first) before the snapshot record itself.
//
// The record and its slices are only valid for the duration of the call;
// implementations that retain data must copy it.
//
// Writers absorb their own failures: the flush path never blocks on or
// propagates sink errors. Stateful writers expose a sticky error for the
// owner to check after flushing.
type RecordWriter interface {
	WriteRecord(rec *Record)
}

// WriterFunc adapts a plain function to the RecordWriter interface.
type WriterFunc func(rec *Record)

func (f WriterFunc) WriteRecord(rec *Record) { f(rec) }

// Discard is a RecordWriter that drops all records. Useful for draining a
// trace buffer without producing output.
var Discard RecordWriter = WriterFunc(func(*Record) {})
