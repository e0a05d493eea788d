package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample() *Tree {
	t := New("sample.flux")
	lit := t.Add(Node{Kind: KindLiteral, Value: "in.txt"})
	cmd := t.Add(Node{Kind: KindCommand, Value: "open-file"})
	pipe := t.Add(Node{Kind: KindPipeline, Children: []NodeID{lit, cmd}})
	t.Root = t.Add(Node{Kind: KindScript, Children: []NodeID{pipe}})
	return t
}

func TestClone_IsIndependent(t *testing.T) {
	orig := buildSample()
	clone := orig.Clone()

	clone.Replace(0, Node{Kind: KindLiteral, Value: "other.txt"})
	clone.Node(2).Children[0] = 1

	assert.Equal(t, "in.txt", orig.Node(0).Value)
	assert.Equal(t, NodeID(0), orig.Node(2).Children[0])
}

func TestWalk_DocumentOrder(t *testing.T) {
	tree := buildSample()

	var kinds []Kind
	err := tree.Walk(tree.Root, func(_ NodeID, n *Node) error {
		kinds = append(kinds, n.Kind)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []Kind{KindScript, KindPipeline, KindLiteral, KindCommand}, kinds)
}

func TestChildren(t *testing.T) {
	tree := buildSample()

	children := tree.Children(tree.Statements()[0])

	require.Len(t, children, 2)
	assert.Equal(t, "in.txt", children[0].Value)
	assert.Equal(t, KindCommand, children[1].Kind)
	assert.Same(t, tree.Node(1), children[1])
}

func TestString(t *testing.T) {
	tree := buildSample()
	assert.Equal(t, "script\n  pipeline\n    literal \"in.txt\"\n    command \"open-file\"\n", tree.String())
	assert.Len(t, tree.Statements(), 1)
	assert.Nil(t, New("empty").Statements())
}
