package flow

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteDot renders the flow as a Graphviz digraph. Edges carry port names
// only when a link uses a non-default port.
func (f *Flow) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph flow {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [shape=box];")
	for _, n := range f.nodes {
		label := n.Key
		if n.Type != n.Key {
			label = n.Key + "\\n" + n.Type
		}
		fmt.Fprintf(bw, "  %s [label=\"%s\"];\n", strconv.Quote(n.Key), label)
	}
	for _, l := range f.links {
		fmt.Fprintf(bw, "  %s -> %s", strconv.Quote(l.From.Key), strconv.Quote(l.To.Key))
		if !l.defaultPorts() {
			fmt.Fprintf(bw, " [label=%s]", strconv.Quote(l.FromPort+" -> "+l.ToPort))
		}
		fmt.Fprintln(bw, ";")
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func (l *Link) defaultPorts() bool {
	out, _ := l.From.ports.Output("")
	in, _ := l.To.ports.Input("")
	return out.Name == l.FromPort && in.Name == l.ToPort
}
