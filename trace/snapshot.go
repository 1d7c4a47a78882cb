package trace

import "github.com/tracelens/tracelens/encoding"

// Snapshot is one captured instant of measurement context: a set of
// context tree node references plus a set of immediate attribute/value
// entries stored inline rather than via the shared tree.
//
// A Snapshot is a reusable staging value owned by its producer; it is not
// safe for concurrent use. SaveSnapshot copies its contents into the
// chunk, so the producer may Reset and refill it immediately afterwards.
type Snapshot struct {
	nodes []uint64
	attrs []uint64
	vals  []encoding.Variant
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// AddNode appends a context tree node reference.
func (s *Snapshot) AddNode(id uint64) {
	s.nodes = append(s.nodes, id)
}

// AddImmediate appends an inline attribute/value entry.
func (s *Snapshot) AddImmediate(attr uint64, val encoding.Variant) {
	s.attrs = append(s.attrs, attr)
	s.vals = append(s.vals, val)
}

// Sizes returns the reported size (n_nodes, n_immediate) of the snapshot.
func (s *Snapshot) Sizes() (nNodes, nImmediate int) {
	return len(s.nodes), len(s.attrs)
}

// IsEmpty reports whether the snapshot holds no entries at all.
func (s *Snapshot) IsEmpty() bool {
	return len(s.nodes) == 0 && len(s.attrs) == 0
}

// Nodes returns the node references in insertion order. The returned
// slice is owned by the snapshot; do not modify it.
func (s *Snapshot) Nodes() []uint64 { return s.nodes }

// Immediates returns the immediate attribute ids and values in insertion
// order as parallel slices. The returned slices are owned by the
// snapshot; do not modify them.
func (s *Snapshot) Immediates() ([]uint64, []encoding.Variant) {
	return s.attrs, s.vals
}

// Reset empties the snapshot, retaining allocated capacity for reuse.
func (s *Snapshot) Reset() {
	s.nodes = s.nodes[:0]
	s.attrs = s.attrs[:0]
	s.vals = s.vals[:0]
}
