// Package ast defines the parse tree of a flow script.
//
// The tree is an arena: nodes live in a single slice and refer to their
// children by index. Phases that need to change the tree (variable
// resolution) derive a new tree with Clone and Replace instead of mutating
// the one produced by the parser.
package ast

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// NodeID addresses a node inside its Tree.
type NodeID int

// NoNode is the zero value for an absent node reference.
const NoNode NodeID = -1

// Kind tags a node with its syntactic role.
type Kind int

const (
	KindScript Kind = iota
	KindAssign
	KindDefaultAssign
	KindPipeline
	KindCommand
	KindArg
	KindTee
	KindLiteral
	KindVarRef
	KindConcat
)

var kindNames = map[Kind]string{
	KindScript:        "script",
	KindAssign:        "assignment",
	KindDefaultAssign: "default assignment",
	KindPipeline:      "pipeline",
	KindCommand:       "command",
	KindArg:           "argument",
	KindTee:           "tee",
	KindLiteral:       "literal",
	KindVarRef:        "variable reference",
	KindConcat:        "concatenation",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsExpr reports whether nodes of this kind evaluate to a string.
func (k Kind) IsExpr() bool {
	return k == KindLiteral || k == KindVarRef || k == KindConcat
}

// Node is a single parse tree node.
//
// Value holds the payload that depends on Kind: the literal text, the
// variable or assignment name, the component name of a command, or the name
// of a named argument (empty for positional ones). Label is only set on
// commands written as label:component.
type Node struct {
	Kind     Kind
	Range    hcl.Range
	Value    string
	Label    string
	Children []NodeID
}

// Tree is an arena of nodes with a single script root.
type Tree struct {
	Filename string
	Nodes    []Node
	Root     NodeID
}

// New returns an empty tree for the given file name.
func New(filename string) *Tree {
	return &Tree{Filename: filename, Root: NoNode}
}

// Add appends a node and returns its id.
func (t *Tree) Add(n Node) NodeID {
	t.Nodes = append(t.Nodes, n)
	return NodeID(len(t.Nodes) - 1)
}

// Node returns the node with the given id. It panics on ids outside the arena.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Children returns the child nodes of id in order.
func (t *Tree) Children(id NodeID) []*Node {
	ids := t.Nodes[id].Children
	out := make([]*Node, len(ids))
	for i, c := range ids {
		out[i] = &t.Nodes[c]
	}
	return out
}

// Statements returns the top-level statement ids of the script.
func (t *Tree) Statements() []NodeID {
	if t.Root == NoNode {
		return nil
	}
	return t.Nodes[t.Root].Children
}

// Clone returns a deep copy of the tree. Child slices are copied so the
// clone can be edited without affecting t.
func (t *Tree) Clone() *Tree {
	c := &Tree{Filename: t.Filename, Root: t.Root, Nodes: make([]Node, len(t.Nodes))}
	for i, n := range t.Nodes {
		n.Children = append([]NodeID(nil), n.Children...)
		c.Nodes[i] = n
	}
	return c
}

// Replace overwrites the node at id.
func (t *Tree) Replace(id NodeID, n Node) {
	t.Nodes[id] = n
}

// Walk visits id and its descendants depth-first in document order. The
// walk stops at the first error returned by fn.
func (t *Tree) Walk(id NodeID, fn func(NodeID, *Node) error) error {
	if err := fn(id, &t.Nodes[id]); err != nil {
		return err
	}
	for _, c := range t.Nodes[id].Children {
		if err := t.Walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}
