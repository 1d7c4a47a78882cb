// Package tree implements the shared context tree: the immutable,
// parent-linked store of measurement context that trace records reference
// by id.
//
// Nodes carry an attribute id and a data value; a node's path (itself plus
// all ancestors) describes one nested measurement context, such as an
// active region stack. Attribute metadata itself lives in the tree:
// attributes are nodes, so a record can reference attribute ids and node
// ids through the same resolution path.
//
// A Tree is safe for concurrent use. Node creation takes a short write
// lock; resolution takes a read lock; nodes themselves are immutable once
// created.
package tree

import (
	"sync"

	"github.com/tracelens/tracelens/encoding"
)

// Tree is the owning store of context nodes. Ids are dense and assigned
// in creation order.
type Tree struct {
	mu    sync.RWMutex
	nodes []*Node

	attrByName map[string]Attribute
	attrByID   map[uint64]Attribute
	typeNodes  map[encoding.Type]*Node
}

// New creates a context tree holding only the bootstrap attribute nodes.
func New() *Tree {
	t := &Tree{
		nodes:      make([]*Node, 0, 64),
		attrByName: make(map[string]Attribute),
		attrByID:   make(map[uint64]Attribute),
		typeNodes:  make(map[encoding.Type]*Node),
	}
	t.bootstrap()

	return t
}

// Node resolves id to its node, or nil when the id is unknown. The trace
// flush coordinator treats a nil result as a soft failure: the id is
// skipped, not an error.
func (t *Tree) Node(id uint64) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if id >= uint64(len(t.nodes)) {
		return nil
	}

	return t.nodes[id]
}

// CreateNode creates an immutable node under parent (nil for a root) with
// the given attribute id and data value, and returns it.
func (t *Tree) CreateNode(parent *Node, attr uint64, data encoding.Variant) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.createNodeLocked(parent, attr, data)
}

func (t *Tree) createNodeLocked(parent *Node, attr uint64, data encoding.Variant) *Node {
	node := &Node{
		id:     uint64(len(t.nodes)),
		attr:   attr,
		data:   data,
		parent: parent,
	}
	t.nodes = append(t.nodes, node)

	return node
}

// NumNodes returns the number of nodes in the tree.
func (t *Tree) NumNodes() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.nodes)
}
