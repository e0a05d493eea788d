package flow

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty/convert"
)

// Node is one stage placed in the graph.
type Node struct {
	// Key identifies the stage within its flow: the script label, or the
	// component name, prefixed by the enclosing composite's key.
	Key string
	// Type is the component name the stage was created from.
	Type string
	// Range is the first script location that declared the stage.
	Range hcl.Range
	Stage stage.Stage

	ports stage.Ports
	in    []*Link
	out   []*Link
}

func (n *Node) String() string {
	if n.Key == n.Type {
		return n.Key
	}
	return fmt.Sprintf("%s (%s)", n.Key, n.Type)
}

// Ports returns the ports the stage declared when it was added.
func (n *Node) Ports() stage.Ports { return n.ports }

// Link connects an output port of one node to an input port of another.
// Port names are always concrete, never the empty default selector.
type Link struct {
	From     *Node
	FromPort string
	To       *Node
	ToPort   string
	Range    hcl.Range

	conv convert.Conversion
}

// Graph is a flow under construction.
type Graph struct {
	nodes []*Node
	byKey map[string]*Node
	links []*Link
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{byKey: make(map[string]*Node)}
}

// Add places a stage in the graph. Keys must be unique.
func (g *Graph) Add(key, typ string, rng hcl.Range, s stage.Stage) (*Node, error) {
	if _, exists := g.byKey[key]; exists {
		return nil, fmt.Errorf("stage %q already exists", key)
	}
	if l, ok := s.(stage.Locatable); ok {
		l.SetSourceLocation(rng)
	}
	n := &Node{Key: key, Type: typ, Range: rng, Stage: s, ports: s.Ports()}
	g.nodes = append(g.nodes, n)
	g.byKey[key] = n
	return n, nil
}

// Connect validates and adds a link. Empty port names select the default
// ports. rng is the script location blamed if the link is rejected.
func (g *Graph) Connect(from *Node, fromPort string, to *Node, toPort string, rng hcl.Range) (*Link, error) {
	reject := func(format string, args ...any) error {
		return &IncompatibleLinkError{From: from.String(), To: to.String(), Range: rng, Reason: fmt.Sprintf(format, args...)}
	}

	out, ok := from.ports.Output(fromPort)
	if !ok {
		if fromPort == "" {
			return nil, reject("%s produces no output", from.Type)
		}
		return nil, reject("%s has no output port %q", from.Type, fromPort)
	}
	in, ok := to.ports.Input(toPort)
	if !ok {
		if toPort == "" {
			return nil, reject("%s accepts no input", to.Type)
		}
		return nil, reject("%s has no input port %q", to.Type, toPort)
	}
	if _, ok := to.Stage.(stage.Processor); !ok {
		return nil, reject("%s cannot process input", to.Type)
	}

	for _, l := range from.out {
		if l.FromPort != out.Name {
			continue
		}
		if l.To == to && l.ToPort == in.Name {
			return nil, reject("duplicate link")
		}
		if !out.Multi {
			return nil, reject("output %q of %s already feeds %s and does not fan out", out.Name, from.Type, l.To)
		}
	}
	for _, l := range to.in {
		if l.ToPort == in.Name && !in.Multi {
			return nil, reject("input %q of %s is already fed by %s and does not accept several inputs", in.Name, to.Type, l.From)
		}
	}

	conv := stage.Conversion(out.Type, in.Type)
	if conv == nil {
		return nil, reject("%s output is not compatible with %s input", stage.TypeName(out.Type), stage.TypeName(in.Type))
	}

	l := &Link{From: from, FromPort: out.Name, To: to, ToPort: in.Name, Range: rng, conv: conv}
	from.out = append(from.out, l)
	to.in = append(to.in, l)
	g.links = append(g.links, l)
	return l, nil
}

// Freeze checks the graph for cycles and returns the finished Flow. The
// graph must not be used afterwards.
func (g *Graph) Freeze() (*Flow, error) {
	if err := g.detectCycles(); err != nil {
		return nil, err
	}
	f := &Flow{nodes: g.nodes, links: g.links}
	for _, n := range g.nodes {
		if len(n.in) == 0 {
			f.roots = append(f.roots, n)
		}
	}
	return f, nil
}
