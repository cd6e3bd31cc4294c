package doctree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTag  = errors.New("unknown tag")
	ErrAttribute   = errors.New("invalid attribute")
	ErrInvalidNode = errors.New("invalid node id")
)

// NodeID is a stable index into a Tree's node arena.
type NodeID int

// NoNode is returned by lookups that find nothing.
const NoNode NodeID = -1

// Attr is a single element attribute. Order is preserved for serialization.
type Attr struct {
	Name  string
	Value string
}

// Node is one labeled element in the arena.
type Node struct {
	Tag      Tag
	Attrs    []Attr
	Text     string
	Children []NodeID
}

// Attr returns the named attribute value and whether it was set.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Tree is an arena of nodes rooted at Root. Nodes removed from the
// structure stay in the arena but are no longer reachable from Root.
type Tree struct {
	nodes []Node
	Root  NodeID
}

// New creates a tree holding a single root element.
func New(root Tag) (*Tree, error) {
	t := &Tree{}
	id, err := t.NewNode(root, "")
	if err != nil {
		return nil, err
	}
	t.Root = id
	return t, nil
}

// NewNode allocates a detached node after checking its tag and attributes.
func (t *Tree) NewNode(tag Tag, text string, attrs ...Attr) (NodeID, error) {
	if err := checkAttrs(tag, attrs); err != nil {
		return NoNode, err
	}
	t.nodes = append(t.nodes, Node{
		Tag:   tag,
		Attrs: append([]Attr(nil), attrs...),
		Text:  text,
	})
	return NodeID(len(t.nodes) - 1), nil
}

// Add allocates a node and appends it to parent's children.
func (t *Tree) Add(parent NodeID, tag Tag, text string, attrs ...Attr) (NodeID, error) {
	if !t.valid(parent) {
		return NoNode, fmt.Errorf("add %s: %w", tag, ErrInvalidNode)
	}
	id, err := t.NewNode(tag, text, attrs...)
	if err != nil {
		return NoNode, err
	}
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id, nil
}

// Node returns the node stored at id. The pointer is invalidated by the next
// allocation.
func (t *Tree) Node(id NodeID) *Node {
	if !t.valid(id) {
		return nil
	}
	return &t.nodes[id]
}

// Children returns a copy of id's child list.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	return append([]NodeID(nil), t.nodes[id].Children...)
}

// SetChildren replaces id's child list.
func (t *Tree) SetChildren(id NodeID, children []NodeID) error {
	if !t.valid(id) {
		return fmt.Errorf("set children: %w", ErrInvalidNode)
	}
	for _, c := range children {
		if !t.valid(c) {
			return fmt.Errorf("set children of %s: %w", t.nodes[id].Tag, ErrInvalidNode)
		}
	}
	t.nodes[id].Children = append([]NodeID(nil), children...)
	return nil
}

// InsertChild places child at position i of parent's children.
func (t *Tree) InsertChild(parent NodeID, i int, child NodeID) error {
	if !t.valid(parent) || !t.valid(child) {
		return fmt.Errorf("insert child: %w", ErrInvalidNode)
	}
	kids := t.nodes[parent].Children
	if i < 0 || i > len(kids) {
		return fmt.Errorf("insert child at %d of %d", i, len(kids))
	}
	out := make([]NodeID, 0, len(kids)+1)
	out = append(out, kids[:i]...)
	out = append(out, child)
	out = append(out, kids[i:]...)
	t.nodes[parent].Children = out
	return nil
}

// Find returns the first direct child of id carrying tag.
func (t *Tree) Find(id NodeID, tag Tag) NodeID {
	if !t.valid(id) {
		return NoNode
	}
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Tag == tag {
			return c
		}
	}
	return NoNode
}

// FindPath follows a chain of direct-child tags from id.
func (t *Tree) FindPath(id NodeID, path ...Tag) NodeID {
	for _, tag := range path {
		id = t.Find(id, tag)
		if id == NoNode {
			return NoNode
		}
	}
	return id
}

// Walk visits id and its descendants depth-first in document order. The
// visitor receives each node's parent (NoNode for the start node). Returning
// false skips the node's subtree.
func (t *Tree) Walk(id NodeID, visit func(id, parent NodeID) bool) {
	t.walk(id, NoNode, visit)
}

func (t *Tree) walk(id, parent NodeID, visit func(id, parent NodeID) bool) {
	if !t.valid(id) {
		return
	}
	if !visit(id, parent) {
		return
	}
	for _, c := range t.nodes[id].Children {
		t.walk(c, id, visit)
	}
}

// All returns every node reachable from id carrying tag, in document order.
func (t *Tree) All(id NodeID, tag Tag) []NodeID {
	var out []NodeID
	t.Walk(id, func(n, _ NodeID) bool {
		if t.nodes[n].Tag == tag {
			out = append(out, n)
		}
		return true
	})
	return out
}

// TextContent concatenates the text of id and all its descendants.
func (t *Tree) TextContent(id NodeID) string {
	var b strings.Builder
	t.Walk(id, func(n, _ NodeID) bool {
		b.WriteString(t.nodes[n].Text)
		return true
	})
	return b.String()
}

// Clone returns a deep copy sharing no storage with t.
func (t *Tree) Clone() *Tree {
	out := &Tree{Root: t.Root, nodes: make([]Node, len(t.nodes))}
	for i, n := range t.nodes {
		out.nodes[i] = Node{
			Tag:      n.Tag,
			Attrs:    append([]Attr(nil), n.Attrs...),
			Text:     n.Text,
			Children: append([]NodeID(nil), n.Children...),
		}
	}
	return out
}

// Equal reports whether the subtrees reachable from the two roots are
// structurally identical. Node ids and unreachable nodes are ignored.
func Equal(a, b *Tree) bool {
	return equalNode(a, a.Root, b, b.Root)
}

func equalNode(a *Tree, ai NodeID, b *Tree, bi NodeID) bool {
	na, nb := a.Node(ai), b.Node(bi)
	if na == nil || nb == nil {
		return na == nb
	}
	if na.Tag != nb.Tag || na.Text != nb.Text || len(na.Attrs) != len(nb.Attrs) || len(na.Children) != len(nb.Children) {
		return false
	}
	for i := range na.Attrs {
		if na.Attrs[i] != nb.Attrs[i] {
			return false
		}
	}
	for i := range na.Children {
		if !equalNode(a, na.Children[i], b, nb.Children[i]) {
			return false
		}
	}
	return true
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}
