package tree

import "github.com/tracelens/tracelens/encoding"

// Attribute metadata is stored in the tree itself, so attribute ids and
// node ids share one id space and one resolution path.
//
// The layout per attribute is two nodes: a type node (attribute id
// attrTypeID, data = the value type) and the attribute node proper
// (attribute id attrNameID, data = the name, parent = the type node).
// Writing the attribute node's path therefore carries its full metadata
// to the output sink.
const (
	attrNameID uint64 = 0 // bootstrap "attr.name" attribute node
	attrTypeID uint64 = 1 // bootstrap "attr.type" attribute node
)

// Attribute is a handle on an attribute definition in the tree.
//
// The zero Attribute is invalid; check IsValid before use.
type Attribute struct {
	node *Node
	typ  encoding.Type
}

// ID returns the attribute's node id.
func (a Attribute) ID() uint64 {
	if a.node == nil {
		return InvalidID
	}

	return a.node.id
}

// Name returns the attribute name.
func (a Attribute) Name() string {
	if a.node == nil {
		return ""
	}

	return a.node.data.Str()
}

// Type returns the value type declared for the attribute.
func (a Attribute) Type() encoding.Type { return a.typ }

// Node returns the attribute's node in the tree.
func (a Attribute) Node() *Node { return a.node }

// IsValid reports whether the handle refers to a registered attribute.
func (a Attribute) IsValid() bool { return a.node != nil }

// bootstrap creates the two self-describing meta attributes. They occupy
// ids 0 and 1 in every tree, which is what lets attribute nodes reference
// them before they exist on the wire.
func (t *Tree) bootstrap() {
	for _, meta := range []struct {
		name string
		typ  encoding.Type
	}{
		{"attr.name", encoding.TypeStr},
		{"attr.type", encoding.TypeType},
	} {
		node := t.createNodeLocked(nil, attrNameID, encoding.Str(meta.name))
		attr := Attribute{node: node, typ: meta.typ}
		t.attrByName[meta.name] = attr
		t.attrByID[node.id] = attr
	}
}

// CreateAttribute registers an attribute with the given name and value
// type and returns its handle. Registration is idempotent: a second call
// with the same name returns the existing attribute regardless of the
// requested type.
func (t *Tree) CreateAttribute(name string, typ encoding.Type) Attribute {
	t.mu.Lock()
	defer t.mu.Unlock()

	if attr, ok := t.attrByName[name]; ok {
		return attr
	}

	typeNode, ok := t.typeNodes[typ]
	if !ok {
		typeNode = t.createNodeLocked(nil, attrTypeID, encoding.TypeValue(typ))
		t.typeNodes[typ] = typeNode
	}

	node := t.createNodeLocked(typeNode, attrNameID, encoding.Str(name))
	attr := Attribute{node: node, typ: typ}
	t.attrByName[name] = attr
	t.attrByID[node.id] = attr

	return attr
}

// Attribute looks up an attribute by name.
func (t *Tree) Attribute(name string) (Attribute, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	attr, ok := t.attrByName[name]

	return attr, ok
}

// AttributeByID looks up an attribute by its node id.
func (t *Tree) AttributeByID(id uint64) (Attribute, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	attr, ok := t.attrByID[id]

	return attr, ok
}
