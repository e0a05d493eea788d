package ast

import (
	"fmt"
	"strings"
)

// String renders the tree as an indented outline, one node per line. It is
// meant for debugging and test failure output.
func (t *Tree) String() string {
	if t.Root == NoNode {
		return ""
	}
	var sb strings.Builder
	t.print(&sb, t.Root, 0)
	return sb.String()
}

func (t *Tree) print(sb *strings.Builder, id NodeID, depth int) {
	n := t.Nodes[id]
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Kind.String())
	switch {
	case n.Label != "":
		fmt.Fprintf(sb, " %s:%s", n.Label, n.Value)
	case n.Value != "":
		fmt.Fprintf(sb, " %q", n.Value)
	}
	sb.WriteByte('\n')
	for _, c := range n.Children {
		t.print(sb, c, depth+1)
	}
}
