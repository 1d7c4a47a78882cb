package tree

import (
	"github.com/tracelens/tracelens/encoding"
	"github.com/tracelens/tracelens/format"
	"github.com/tracelens/tracelens/sink"
)

// InvalidID is the reserved id that never resolves to a node.
const InvalidID = ^uint64(0)

// Node is one immutable element of the shared context tree: an attribute
// id paired with a data value, linked to zero or one parent. Nodes are
// created through a Tree and never mutated afterwards, so readers need no
// locking once they hold a *Node.
type Node struct {
	id     uint64
	attr   uint64
	data   encoding.Variant
	parent *Node
}

// ID returns the node's identity within its tree.
func (n *Node) ID() uint64 { return n.id }

// Attribute returns the id of the attribute node describing this entry.
func (n *Node) Attribute() uint64 { return n.attr }

// Data returns the node's value.
func (n *Node) Data() encoding.Variant { return n.data }

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// WritePath emits this node and all its ancestors to w as node records,
// root first, so that every parent id a consumer encounters has already
// been defined.
//
// When seen is non-nil, nodes whose ids it contains are skipped and every
// emitted id is added to it. A flush shares one seen set across the whole
// chain traversal, bounding node writes to once per distinct node per
// flush no matter how many records reference it.
//
// Returns the number of node records written.
func (n *Node) WritePath(w sink.RecordWriter, seen map[uint64]struct{}) int {
	written := 0
	if n.parent != nil {
		written = n.parent.WritePath(w, seen)
	}

	if seen != nil {
		if _, ok := seen[n.id]; ok {
			return written
		}
		seen[n.id] = struct{}{}
	}

	parent := sink.InvalidParent
	if n.parent != nil {
		parent = n.parent.id
	}

	w.WriteRecord(&sink.Record{
		Type:   format.RecordNode,
		Nodes:  []uint64{n.id},
		Attrs:  []uint64{n.attr},
		Vals:   []encoding.Variant{n.data},
		Parent: parent,
	})

	return written + 1
}
